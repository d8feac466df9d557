package db

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/config"
)

type (
	GormForkedModel struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Tag is one node of the tag hierarchy. Path is the unique identity.
	Tag struct {
		GormForkedModel
		Name     string  `gorm:"not null"`
		ParentID *uint64 `gorm:"index"`
		Level    int     `gorm:"not null;default:1;index"`
		Path     string  `gorm:"not null;uniqueIndex"`
		Color    *string
	}

	Bookmark struct {
		GormForkedModel
		Title       *string `gorm:"index"`
		URL         string  `gorm:"not null;index"`
		Description *string
		Favicon     *string
		Screenshot  *string
	}

	BookmarkTag struct {
		BookmarkID uint64    `gorm:"primaryKey"`
		TagID      uint64    `gorm:"primaryKey"`
		Bookmark   *Bookmark `gorm:"constraint:OnDelete:CASCADE"`
		Tag        *Tag      `gorm:"constraint:OnDelete:CASCADE"`
	}

	BookmarkTagPath struct {
		ID         uint64 `gorm:"primarykey"`
		BookmarkID uint64 `gorm:"not null;index:idx_bookmark_path"`
		TagPath    string `gorm:"not null;index:idx_bookmark_path"`
		LeafTagID  uint64 `gorm:"not null;index"`
		Order      int    `gorm:"column:sort_order;not null;default:0"`
		CreatedAt  time.Time
		Bookmark   *Bookmark `gorm:"constraint:OnDelete:CASCADE"`
		LeafTag    *Tag      `gorm:"constraint:OnDelete:CASCADE"`
	}

	Setting struct {
		GormForkedModel
		Key         string `gorm:"not null;uniqueIndex"`
		Value       string `gorm:"not null"`
		Category    string `gorm:"not null;default:general;index"`
		Description *string
	}
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

func NewGormClient(cfg *config.Config, l *zap.SugaredLogger) (*gorm.DB, error) {
	newLogger := logger.New(zapWriter{l: l}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DBDriverSQLite:
		dialector = sqlite.Open(cfg.DBPath + "?_foreign_keys=on")
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Tag{}); err != nil {
		return errors.Wrap(err, "migrate tag")
	}
	if err := db.AutoMigrate(&Bookmark{}); err != nil {
		return errors.Wrap(err, "migrate bookmark")
	}
	if err := db.AutoMigrate(&BookmarkTag{}); err != nil {
		return errors.Wrap(err, "migrate bookmark tag")
	}
	if err := db.AutoMigrate(&BookmarkTagPath{}); err != nil {
		return errors.Wrap(err, "migrate bookmark tag path")
	}
	if err := db.AutoMigrate(&Setting{}); err != nil {
		return errors.Wrap(err, "migrate setting")
	}
	return nil
}

// translate maps gorm sentinel errors onto the package's own.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrap(ErrDuplicate, err.Error())
	}
	return err
}

type zapWriter struct {
	l *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.l.Warnf(format, args...)
}
