package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/llm"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		FetchTimeout:      5 * time.Second,
		FetchRPS:          100,
		FetchBurst:        10,
		FetchMaxBytes:     1 << 20,
		ScreenshotTimeout: 5 * time.Second,
	}
}

var nop = zap.NewNop().Sugar()

type completerFunc func(ctx context.Context, req llm.Request) (string, error)

func (f completerFunc) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f(ctx, req)
}

type fixedSettings struct {
	cfg *models.AIConfig
}

func (s fixedSettings) AIConfig(context.Context) (*models.AIConfig, error) {
	return s.cfg, nil
}
