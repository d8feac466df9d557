package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
)

const (
	categoryAI = "ai"

	keyModel       = "model"
	keyTemperature = "temperature"
	keyMaxTokens   = "maxTokens"

	defaultTemperature = 0.5
	defaultMaxTokens   = 2048

	// values written when a save request leaves them out
	savedTemperature = 0.7
	savedMaxTokens   = 4000
)

// DefaultAIConfig is what the settings page shows before anything is saved.
var DefaultAIConfig = models.AIConfig{
	Model:       "@cf/qwen/qwq-32b",
	Temperature: defaultTemperature,
	MaxTokens:   defaultMaxTokens,
}

type Settings struct {
	repo SettingRepository
}

func NewSettings(repo SettingRepository) *Settings {
	return &Settings{repo: repo}
}

// AIConfig returns the config used for analysis, or nil when no model is
// configured and analysis should be skipped.
func (s *Settings) AIConfig(ctx context.Context) (*models.AIConfig, error) {
	values, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(values[keyModel])
	if model == "" {
		return nil, nil
	}

	cfg := models.AIConfig{
		Model:       model,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	if v, err := strconv.ParseFloat(values[keyTemperature], 64); err == nil && v != 0 {
		cfg.Temperature = v
	}
	if v, err := strconv.Atoi(values[keyMaxTokens]); err == nil && v != 0 {
		cfg.MaxTokens = v
	}
	return &cfg, nil
}

// Get returns the stored AI settings, falling back to DefaultAIConfig for
// anything never saved.
func (s *Settings) Get(ctx context.Context) (models.AIConfig, error) {
	values, err := s.load(ctx)
	if err != nil {
		return models.AIConfig{}, err
	}

	cfg := DefaultAIConfig
	if v := values[keyModel]; v != "" {
		cfg.Model = v
	}
	if v, err := strconv.ParseFloat(values[keyTemperature], 64); err == nil {
		cfg.Temperature = v
	}
	if v, err := strconv.Atoi(values[keyMaxTokens]); err == nil {
		cfg.MaxTokens = v
	}
	return cfg, nil
}

func (s *Settings) Save(ctx context.Context, req models.AISettingsReq) error {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return invalid("model is required")
	}
	temperature := savedTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := savedMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if temperature < 0 || maxTokens < 0 {
		return invalid("temperature and maxTokens must not be negative")
	}

	rows := []db.Setting{
		aiSetting(keyModel, model),
		aiSetting(keyTemperature, strconv.FormatFloat(temperature, 'f', -1, 64)),
		aiSetting(keyMaxTokens, strconv.Itoa(maxTokens)),
	}
	return errors.Wrap(s.repo.Upsert(ctx, rows), "save ai settings")
}

func (s *Settings) load(ctx context.Context) (map[string]string, error) {
	rows, err := s.repo.ListByCategory(ctx, categoryAI)
	if err != nil {
		return nil, errors.Wrap(err, "load ai settings")
	}
	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Key] = r.Value
	}
	return values, nil
}

func aiSetting(key, value string) db.Setting {
	description := "AI setting: " + key
	return db.Setting{
		Key:         key,
		Value:       value,
		Category:    categoryAI,
		Description: &description,
	}
}
