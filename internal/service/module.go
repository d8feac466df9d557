package service

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/enrich"
)

var (
	Module = fx.Provide(
		NewValidator,
		NewTags,
		NewBookmarks,
		NewSettings,

		func(r *db.TagRepository) TagRepository { return r },
		func(r *db.BookmarkRepository) BookmarkRepository { return r },
		func(r *db.SettingRepository) SettingRepository { return r },
		func(o *enrich.Orchestrator) Enricher { return o },
		func(s *Settings) enrich.AIConfigLoader { return s },
	)
)

func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}
