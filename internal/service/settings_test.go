package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
)

func TestAIConfig(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	repo := db.NewSettingRepository(f.conn)

	cfg, err := f.settings.AIConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg, "no model means analysis is off")

	require.NoError(t, repo.Upsert(ctx, []db.Setting{
		{Key: "model", Value: "m", Category: "ai"},
		{Key: "temperature", Value: "warm", Category: "ai"},
	}))
	cfg, err = f.settings.AIConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.AIConfig{Model: "m", Temperature: 0.5, MaxTokens: 2048}, cfg)
}

func TestSettingsGetAndSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.conn.Migrator().DropTable(&db.Setting{}))

	got, err := f.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultAIConfig, got)

	var verr *ValidationError
	assert.True(t, errors.As(f.settings.Save(ctx, models.AISettingsReq{}), &verr))

	temperature := 0.2
	require.NoError(t, f.settings.Save(ctx, models.AISettingsReq{Model: "m1", Temperature: &temperature}))
	got, err = f.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.AIConfig{Model: "m1", Temperature: 0.2, MaxTokens: 4000}, got)

	require.NoError(t, f.settings.Save(ctx, models.AISettingsReq{Model: "m2"}))
	cfg, err := f.settings.AIConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.AIConfig{Model: "m2", Temperature: 0.7, MaxTokens: 4000}, cfg)
}
