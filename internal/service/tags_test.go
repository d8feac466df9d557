package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
)

func TestResolveOrCreatePathIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.tags.ResolveOrCreatePath(ctx, "Backend/API")
	require.NoError(t, err)
	second, err := f.tags.ResolveOrCreatePath(ctx, " Backend / API ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(2), f.count(t, &db.Tag{}))

	var rows []db.Tag
	require.NoError(t, f.conn.Order("level").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "Backend", rows[0].Path)
	assert.Equal(t, 1, rows[0].Level)
	assert.Nil(t, rows[0].ParentID)
	assert.Equal(t, "Backend/API", rows[1].Path)
	assert.Equal(t, "API", rows[1].Name)
	assert.Equal(t, 2, rows[1].Level)
	require.NotNil(t, rows[1].ParentID)
	assert.Equal(t, rows[0].ID, *rows[1].ParentID)
	assert.Equal(t, rows[1].ID, first)
}

func TestResolveOrCreatePathRejectsEmpty(t *testing.T) {
	f := newFixture(t)

	for _, p := range []string{"", "  ", "/ /"} {
		_, err := f.tags.ResolveOrCreatePath(context.Background(), p)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), p)
	}
}

// racingTagRepo lets another writer insert the same path between our lookup
// and our insert.
type racingTagRepo struct {
	TagRepository
	raced bool
}

func (r *racingTagRepo) Create(ctx context.Context, tag *db.Tag) error {
	if !r.raced {
		r.raced = true
		winner := *tag
		if err := r.TagRepository.Create(ctx, &winner); err != nil {
			return err
		}
	}
	return r.TagRepository.Create(ctx, tag)
}

func TestResolveOrCreatePathLosesRace(t *testing.T) {
	f := newFixture(t)
	repo := &racingTagRepo{TagRepository: db.NewTagRepository(f.conn)}
	tags := NewTags(repo, zap.NewNop().Sugar())

	id, err := tags.ResolveOrCreatePath(context.Background(), "Go")

	require.NoError(t, err)
	assert.True(t, repo.raced)
	assert.Equal(t, int64(1), f.count(t, &db.Tag{}))

	winner, err := repo.FindByPath(context.Background(), "Go")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, id)
}

func TestResolveOrCreateFlatTag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.tags.ResolveOrCreateFlatTag(ctx, "#Go")
	require.NoError(t, err)
	again, err := f.tags.ResolveOrCreateFlatTag(ctx, " Go ")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	tag, err := db.NewTagRepository(f.conn).FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Go", tag.Name)
	assert.Equal(t, "Go", tag.Path)
	assert.Equal(t, 1, tag.Level)

	_, err = f.tags.ResolveOrCreateFlatTag(ctx, "#")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestFlatTagReusesRenamedPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.tags.ResolveOrCreateFlatTag(ctx, "Go")
	require.NoError(t, err)
	_, err = f.tags.Update(ctx, id, models.TagUpdateReq{Name: "Golang"})
	require.NoError(t, err)

	again, err := f.tags.ResolveOrCreateFlatTag(ctx, "Go")
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestTagAdministration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tags.ResolveOrCreatePath(ctx, "Frontend/React")
	require.NoError(t, err)
	goID, err := f.tags.ResolveOrCreateFlatTag(ctx, "Go")
	require.NoError(t, err)

	tree, err := f.tags.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree.Standalone, 1)
	assert.Equal(t, "Go", tree.Standalone[0].Name)
	require.Len(t, tree.Hierarchical, 1)
	assert.Equal(t, "Frontend", tree.Hierarchical[0].Name)
	require.Len(t, tree.Hierarchical[0].Children, 1)

	list, err := f.tags.List(ctx, "Rea")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Frontend/React", list[0].Path)

	_, err = f.tags.Update(ctx, goID, models.TagUpdateReq{Name: " "})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	updated, err := f.tags.Update(ctx, goID, models.TagUpdateReq{Name: "Golang", Color: str("#00add8")})
	require.NoError(t, err)
	assert.Equal(t, "Golang", updated.Name)
	assert.Equal(t, "Go", updated.Path)

	_, err = f.tags.Update(ctx, 999, models.TagUpdateReq{Name: "x"})
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, f.tags.Delete(ctx, goID))
	assert.True(t, errors.As(f.tags.Delete(ctx, goID), &nf))

	n, err := f.tags.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
