package service

import (
	"context"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/db"
)

type TagRepository interface {
	FindByPath(ctx context.Context, path string) (*db.Tag, error)
	FindByName(ctx context.Context, name string) (*db.Tag, error)
	FindByID(ctx context.Context, id uint64) (*db.Tag, error)
	Create(ctx context.Context, tag *db.Tag) error
	List(ctx context.Context, search string) ([]db.Tag, error)
	Update(ctx context.Context, id uint64, name string, color *string) (*db.Tag, error)
	Delete(ctx context.Context, id uint64) error
	DeleteAll(ctx context.Context) (int64, error)
}

type BookmarkRepository interface {
	Create(ctx context.Context, b *db.Bookmark) error
	FindByID(ctx context.Context, id uint64) (*db.Bookmark, error)
	FindByURL(ctx context.Context, url string) (*db.Bookmark, error)
	Update(ctx context.Context, b *db.Bookmark) error
	Delete(ctx context.Context, id uint64) (*db.Bookmark, error)
	AddTags(ctx context.Context, bookmarkID uint64, tagIDs []uint64) error
	ReplaceTags(ctx context.Context, bookmarkID uint64, tagIDs []uint64) error
	AddTagPaths(ctx context.Context, paths []db.BookmarkTagPath) error
	List(ctx context.Context, f db.BookmarkFilter) ([]db.Bookmark, error)
	TagsFor(ctx context.Context, bookmarkIDs []uint64) (map[uint64][]db.Tag, error)
	TagPathsFor(ctx context.Context, bookmarkIDs []uint64) (map[uint64][]db.BookmarkTagPath, error)
}

type SettingRepository interface {
	ListByCategory(ctx context.Context, category string) ([]db.Setting, error)
	Upsert(ctx context.Context, settings []db.Setting) error
}
