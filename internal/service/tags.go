package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/tagtree"
)

type Tags struct {
	repo   TagRepository
	logger *zap.SugaredLogger
}

func NewTags(repo TagRepository, l *zap.SugaredLogger) *Tags {
	return &Tags{
		repo:   repo,
		logger: l,
	}
}

// ResolveOrCreatePath walks the path from the root, creating any missing
// segment, and returns the id of the leaf. Calling it again with the same
// path returns the same id.
func (s *Tags) ResolveOrCreatePath(ctx context.Context, path string) (uint64, error) {
	segments := tagtree.SplitPath(path)
	if len(segments) == 0 {
		return 0, invalid("tag path %q is empty", path)
	}

	var (
		parentID *uint64
		leafID   uint64
	)
	for i := range segments {
		tag, err := s.findOrCreate(ctx, db.Tag{
			Name:     segments[i],
			ParentID: parentID,
			Level:    i + 1,
			Path:     tagtree.JoinPath(segments[:i+1]),
		})
		if err != nil {
			return 0, err
		}
		leafID = tag.ID
		id := tag.ID
		parentID = &id
	}
	return leafID, nil
}

// ResolveOrCreateFlatTag reuses the oldest tag with the given name or makes a
// new root tag. A leading '#' is dropped.
func (s *Tags) ResolveOrCreateFlatTag(ctx context.Context, name string) (uint64, error) {
	clean := CleanTagName(name)
	if clean == "" {
		return 0, invalid("tag name %q is empty", name)
	}

	tag, err := s.repo.FindByName(ctx, clean)
	if err == nil {
		return tag.ID, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return 0, errors.Wrap(err, "find tag by name")
	}

	created, err := s.findOrCreate(ctx, db.Tag{Name: clean, Level: 1, Path: clean})
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

// findOrCreate looks the tag up by path and inserts it when missing. Losing
// an insert race to another request is not an error: the winner's row is
// read back and used.
func (s *Tags) findOrCreate(ctx context.Context, tag db.Tag) (*db.Tag, error) {
	existing, err := s.repo.FindByPath(ctx, tag.Path)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, errors.Wrapf(err, "find tag %q", tag.Path)
	}

	err = s.repo.Create(ctx, &tag)
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, db.ErrDuplicate) {
		return nil, errors.Wrapf(err, "create tag %q", tag.Path)
	}

	s.logger.Debugw("tag created concurrently, reusing", "path", tag.Path)
	existing, err = s.repo.FindByPath(ctx, tag.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "reload tag %q", tag.Path)
	}
	return existing, nil
}

func (s *Tags) List(ctx context.Context, search string) ([]models.Tag, error) {
	tags, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	return models.NewTags(tags), nil
}

func (s *Tags) Tree(ctx context.Context) (tagtree.Partitioned, error) {
	tags, err := s.repo.List(ctx, "")
	if err != nil {
		return tagtree.Partitioned{}, err
	}
	return tagtree.Partition(tagtree.ToForest(models.NewTags(tags))), nil
}

func (s *Tags) Update(ctx context.Context, id uint64, req models.TagUpdateReq) (*models.Tag, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("tag name is required")
	}

	tag, err := s.repo.Update(ctx, id, name, req.Color)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return nil, &NotFoundError{Entity: "tag", ID: id}
	case errors.Is(err, db.ErrDuplicate):
		return nil, &ConflictError{Msg: "tag already exists"}
	case err != nil:
		return nil, errors.Wrap(err, "update tag")
	}

	view := models.NewTag(*tag)
	return &view, nil
}

func (s *Tags) Delete(ctx context.Context, id uint64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return &NotFoundError{Entity: "tag", ID: id}
	}
	return err
}

// Clear removes every tag together with all bookmark links to them.
func (s *Tags) Clear(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Infow("all tags cleared", "count", n)
	return n, nil
}

// CleanTagName drops one leading '#' and surrounding whitespace.
func CleanTagName(name string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "#"))
}
