package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// ListByCategory returns no rows, not an error, while the settings table
// does not exist yet.
func (r *SettingRepository) ListByCategory(ctx context.Context, category string) ([]Setting, error) {
	settings := make([]Setting, 0)
	tx := r.db.WithContext(ctx)
	if !tx.Migrator().HasTable(&Setting{}) {
		return settings, nil
	}
	if res := tx.Where("category = ?", category).Order("id").Find(&settings); res.Error != nil {
		return nil, errors.Wrap(res.Error, "list settings")
	}
	return settings, nil
}

// Upsert writes each setting keyed by Key, creating the table on first use.
func (r *SettingRepository) Upsert(ctx context.Context, settings []Setting) error {
	tx := r.db.WithContext(ctx)
	if !tx.Migrator().HasTable(&Setting{}) {
		if err := tx.Migrator().CreateTable(&Setting{}); err != nil {
			return errors.Wrap(err, "create settings table")
		}
	}

	now := time.Now()
	for i := range settings {
		settings[i].CreatedAt = now
		settings[i].UpdatedAt = now
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&settings)
	return errors.Wrap(res.Error, "upsert settings")
}
