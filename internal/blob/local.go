package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Local keeps objects in a directory that the HTTP server exposes under
// publicBase.
type Local struct {
	dir        string
	publicBase string
}

func NewLocal(dir, publicBase string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create storage dir")
	}
	return &Local{
		dir:        dir,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

func (s *Local) Dir() string {
	return s.dir
}

func (s *Local) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "create object dir")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "write object")
	}
	return s.publicBase + "/" + key, nil
}

func (s *Local) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove object")
	}
	return nil
}

func (s *Local) KeyFor(publicURL string) (string, bool) {
	return keyFromURL(s.publicBase, publicURL)
}
