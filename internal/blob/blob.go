// Package blob stores binary objects and hands back public URLs for them.
package blob

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/config"
)

var ErrInvalidKey = errors.New("invalid object key")

type Store interface {
	// Put writes data under key and returns its public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyFor maps a public URL produced by Put back to its key. It reports
	// false for URLs this store does not own.
	KeyFor(publicURL string) (string, bool)
}

// NewStore returns nil when storage is disabled.
func NewStore(cfg *config.Config, l *zap.SugaredLogger) (Store, error) {
	switch cfg.StorageDriver {
	case config.StorageLocal:
		l.Infow("blob storage: local", "dir", cfg.StorageLocalDir)
		return NewLocal(cfg.StorageLocalDir, cfg.StoragePublicURL)
	case config.StorageS3:
		l.Infow("blob storage: s3", "bucket", cfg.S3Bucket, "endpoint", cfg.S3Endpoint)
		return NewS3(context.Background(), cfg)
	default:
		l.Info("blob storage disabled")
		return nil, nil
	}
}

func keyFromURL(publicBase, publicURL string) (string, bool) {
	prefix := strings.TrimRight(publicBase, "/") + "/"
	if prefix == "/" || !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(publicURL, prefix)
	if err := checkKey(key); err != nil {
		return "", false
	}
	return key, true
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.Contains(key, `\`) {
		return errors.Wrap(ErrInvalidKey, key)
	}
	return nil
}
