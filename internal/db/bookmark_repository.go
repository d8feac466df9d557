package db

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var bookmarkColumns = []string{
	"b.id", "b.title", "b.url", "b.description", "b.favicon", "b.screenshot", "b.created_at", "b.updated_at",
}

// BookmarkFilter selects one of the list modes. MenuPath wins over TagID,
// which wins over a bare Search.
type BookmarkFilter struct {
	Search   string
	TagID    *uint64
	MenuPath string
	Limit    uint64
	Offset   uint64
}

type bookmarkTagRow struct {
	BookmarkID uint64
	Tag
}

type BookmarkRepository struct {
	db *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) Create(ctx context.Context, b *Bookmark) error {
	res := r.db.WithContext(ctx).Create(b)
	return translate(res.Error)
}

func (r *BookmarkRepository) FindByID(ctx context.Context, id uint64) (*Bookmark, error) {
	b := Bookmark{}
	res := r.db.WithContext(ctx).First(&b, id)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	return &b, nil
}

// FindByURL is an exact match; no normalization is applied.
func (r *BookmarkRepository) FindByURL(ctx context.Context, url string) (*Bookmark, error) {
	b := Bookmark{}
	res := r.db.WithContext(ctx).Where("url = ?", url).Order("id").First(&b)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	return &b, nil
}

func (r *BookmarkRepository) Update(ctx context.Context, b *Bookmark) error {
	res := r.db.WithContext(ctx).Model(&Bookmark{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
		"title":       b.Title,
		"url":         b.URL,
		"description": b.Description,
		"favicon":     b.Favicon,
		"screenshot":  b.Screenshot,
		"updated_at":  time.Now(),
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update bookmark")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the bookmark and returns the row as it was. Junction rows
// go with it through the foreign key cascade.
func (r *BookmarkRepository) Delete(ctx context.Context, id uint64) (*Bookmark, error) {
	b, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := r.db.WithContext(ctx).Delete(&Bookmark{}, id)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "delete bookmark")
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return b, nil
}

func (r *BookmarkRepository) AddTags(ctx context.Context, bookmarkID uint64, tagIDs []uint64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := junctionRows(bookmarkID, tagIDs)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&rows)
	return errors.Wrap(translate(res.Error), "add bookmark tags")
}

// ReplaceTags swaps the whole flat tag set: delete all, then insert.
func (r *BookmarkRepository) ReplaceTags(ctx context.Context, bookmarkID uint64, tagIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if res := tx.Where("bookmark_id = ?", bookmarkID).Delete(&BookmarkTag{}); res.Error != nil {
			return errors.Wrap(res.Error, "delete bookmark tags")
		}
		if len(tagIDs) == 0 {
			return nil
		}
		rows := junctionRows(bookmarkID, tagIDs)
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Omit(clause.Associations).
			Create(&rows)
		return errors.Wrap(translate(res.Error), "insert bookmark tags")
	})
}

func (r *BookmarkRepository) AddTagPaths(ctx context.Context, paths []BookmarkTagPath) error {
	if len(paths) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Omit(clause.Associations).Create(&paths)
	return errors.Wrap(translate(res.Error), "add bookmark tag paths")
}

func (r *BookmarkRepository) List(ctx context.Context, f BookmarkFilter) ([]Bookmark, error) {
	q := squirrel.Select(bookmarkColumns...).From("bookmarks b")

	switch {
	case f.MenuPath != "":
		ids, err := r.idsUnderMenuPath(ctx, f.MenuPath)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []Bookmark{}, nil
		}
		q = q.Where(squirrel.Eq{"b.id": ids})
		if f.Search != "" {
			q = q.Where(titleLike(f.Search))
		}
	case f.TagID != nil:
		q = q.Join("bookmark_tags bt ON bt.bookmark_id = b.id").
			Where(squirrel.Eq{"bt.tag_id": *f.TagID})
		if f.Search != "" {
			q = q.Where(titleLike(f.Search))
		}
	case f.Search != "":
		q = q.Where(titleLike(f.Search))
	}

	sql, args, err := q.OrderBy("b.created_at DESC", "b.id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	bookmarks := make([]Bookmark, 0)
	if res := r.db.WithContext(ctx).Raw(sql, args...).Scan(&bookmarks); res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}
	return bookmarks, nil
}

func (r *BookmarkRepository) idsUnderMenuPath(ctx context.Context, menuPath string) ([]uint64, error) {
	sql, args, err := squirrel.
		Select("DISTINCT bookmark_id").From("bookmark_tag_paths").
		Where(squirrel.Or{
			squirrel.Eq{"tag_path": menuPath},
			squirrel.Expr("tag_path LIKE ? ESCAPE '\\'", EscapeLike(menuPath)+"/%"),
		}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build menu path sql")
	}

	ids := make([]uint64, 0)
	if res := r.db.WithContext(ctx).Raw(sql, args...).Scan(&ids); res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan menu path ids")
	}
	return ids, nil
}

// TagsFor returns the flat tags of each bookmark, keyed by bookmark id.
func (r *BookmarkRepository) TagsFor(ctx context.Context, bookmarkIDs []uint64) (map[uint64][]Tag, error) {
	out := make(map[uint64][]Tag, len(bookmarkIDs))
	if len(bookmarkIDs) == 0 {
		return out, nil
	}

	sql, args, err := squirrel.
		Select("bt.bookmark_id", "t.id", "t.name", "t.parent_id", "t.level", "t.path", "t.color", "t.created_at", "t.updated_at").
		From("tags t").
		Join("bookmark_tags bt ON bt.tag_id = t.id").
		Where(squirrel.Eq{"bt.bookmark_id": bookmarkIDs}).
		OrderBy("t.id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	rows := make([]bookmarkTagRow, 0)
	if res := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows); res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan bookmark tags")
	}
	for _, row := range rows {
		out[row.BookmarkID] = append(out[row.BookmarkID], row.Tag)
	}
	return out, nil
}

// TagPathsFor returns the tag paths of each bookmark in their stored order.
func (r *BookmarkRepository) TagPathsFor(ctx context.Context, bookmarkIDs []uint64) (map[uint64][]BookmarkTagPath, error) {
	out := make(map[uint64][]BookmarkTagPath, len(bookmarkIDs))
	if len(bookmarkIDs) == 0 {
		return out, nil
	}

	paths := make([]BookmarkTagPath, 0)
	res := r.db.WithContext(ctx).
		Where("bookmark_id IN ?", bookmarkIDs).
		Order("bookmark_id").Order("sort_order").Order("id").
		Find(&paths)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "find bookmark tag paths")
	}
	for _, p := range paths {
		out[p.BookmarkID] = append(out[p.BookmarkID], p)
	}
	return out, nil
}

func junctionRows(bookmarkID uint64, tagIDs []uint64) []BookmarkTag {
	rows := make([]BookmarkTag, len(tagIDs))
	for i := range tagIDs {
		rows[i] = BookmarkTag{BookmarkID: bookmarkID, TagID: tagIDs[i]}
	}
	return rows
}

func titleLike(search string) squirrel.Sqlizer {
	return squirrel.Expr("b.title LIKE ? ESCAPE '\\'", "%"+EscapeLike(search)+"%")
}

// EscapeLike escapes LIKE wildcards so user input matches literally.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
