package db

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) FindByPath(ctx context.Context, path string) (*Tag, error) {
	tag := Tag{}
	res := r.db.WithContext(ctx).Where("path = ?", path).Take(&tag)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	return &tag, nil
}

// FindByName returns the oldest tag with the given name. Names are not unique.
func (r *TagRepository) FindByName(ctx context.Context, name string) (*Tag, error) {
	tag := Tag{}
	res := r.db.WithContext(ctx).Where("name = ?", name).Order("id").First(&tag)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	return &tag, nil
}

func (r *TagRepository) FindByID(ctx context.Context, id uint64) (*Tag, error) {
	tag := Tag{}
	res := r.db.WithContext(ctx).First(&tag, id)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	return &tag, nil
}

func (r *TagRepository) Create(ctx context.Context, tag *Tag) error {
	res := r.db.WithContext(ctx).Create(tag)
	return translate(res.Error)
}

func (r *TagRepository) List(ctx context.Context, search string) ([]Tag, error) {
	tags := make([]Tag, 0)
	q := r.db.WithContext(ctx).Order("level").Order("id")
	if search != "" {
		q = q.Where("name LIKE ? ESCAPE '\\'", "%"+EscapeLike(search)+"%")
	}
	if res := q.Find(&tags); res.Error != nil {
		return nil, errors.Wrap(res.Error, "list tags")
	}
	return tags, nil
}

func (r *TagRepository) Update(ctx context.Context, id uint64, name string, color *string) (*Tag, error) {
	res := r.db.WithContext(ctx).Model(&Tag{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":  name,
		"color": color,
	})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *TagRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&Tag{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete tag")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TagRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Tag{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "delete all tags")
	}
	return res.RowsAffected, nil
}
