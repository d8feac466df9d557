package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/db/dbtest"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/enrich"
)

type fakeEnricher struct {
	result  enrich.Result
	calls   int
	removed []string
}

func (f *fakeEnricher) Enrich(context.Context, string) enrich.Result {
	f.calls++
	return f.result
}

func (f *fakeEnricher) StoreScreenshot(_ context.Context, _, screenshot string) *string {
	return &screenshot
}

func (f *fakeEnricher) RemoveScreenshot(_ context.Context, publicURL string) {
	f.removed = append(f.removed, publicURL)
}

type fixture struct {
	conn      *gorm.DB
	tags      *Tags
	bookmarks *Bookmarks
	settings  *Settings
	enricher  *fakeEnricher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.New(t)
	l := zap.NewNop().Sugar()
	f := &fixture{
		conn:     conn,
		enricher: &fakeEnricher{},
		settings: NewSettings(db.NewSettingRepository(conn)),
	}
	f.tags = NewTags(db.NewTagRepository(conn), l)
	f.bookmarks = NewBookmarks(db.NewBookmarkRepository(conn), f.tags, f.enricher, NewValidator(), l)
	return f
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func str(s string) *string { return &s }
