// Package enrich fills in what a bare URL does not tell us: page metadata, a
// screenshot and an AI analysis. None of it is allowed to fail a request.
package enrich

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
)

// Result holds whatever enrichment produced. Every field may be nil.
type Result struct {
	Title       *string
	Description *string
	Favicon     *string
	Screenshot  *string
	Analysis    *Analysis
}

type AIConfigLoader interface {
	// AIConfig returns nil when analysis is switched off.
	AIConfig(ctx context.Context) (*models.AIConfig, error)
}

type Orchestrator struct {
	fetcher     *Fetcher
	screenshots *Screenshots
	analyzer    *Analyzer
	settings    AIConfigLoader
	logger      *zap.SugaredLogger
}

func NewOrchestrator(f *Fetcher, s *Screenshots, a *Analyzer, settings AIConfigLoader, l *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		fetcher:     f,
		screenshots: s,
		analyzer:    a,
		settings:    settings,
		logger:      l,
	}
}

// Enrich runs metadata, screenshot and analysis concurrently and waits for
// all three. A step that fails or panics simply contributes nothing.
func (o *Orchestrator) Enrich(ctx context.Context, pageURL string) Result {
	var (
		wg       sync.WaitGroup
		meta     *Metadata
		shot     *string
		analysis *Analysis
	)

	o.settle(&wg, "metadata", pageURL, func() { meta = o.metadata(ctx, pageURL) })
	o.settle(&wg, "screenshot", pageURL, func() { shot = o.screenshot(ctx, pageURL) })
	o.settle(&wg, "analysis", pageURL, func() { analysis = o.analyze(ctx, pageURL) })
	wg.Wait()

	res := Result{
		Screenshot: shot,
		Analysis:   analysis,
	}
	if meta != nil {
		res.Title = nonBlank(meta.Title)
		res.Description = nonBlank(meta.Description)
		res.Favicon = nonBlank(meta.Favicon)
	}
	return res
}

func (o *Orchestrator) settle(wg *sync.WaitGroup, step, pageURL string, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				o.logger.Errorw("enrichment step panicked", "step", step, "url", pageURL, "panic", r)
			}
		}()
		fn()
	}()
}

func (o *Orchestrator) metadata(ctx context.Context, pageURL string) *Metadata {
	body, err := o.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		o.logger.Infow("metadata fetch failed", "url", pageURL, "error", err)
		return nil
	}
	md, err := ExtractMetadata(body, pageURL)
	if err != nil {
		o.logger.Infow("metadata parse failed", "url", pageURL, "error", err)
		return nil
	}
	return &md
}

func (o *Orchestrator) screenshot(ctx context.Context, pageURL string) *string {
	if !o.screenshots.CanCapture() {
		return nil
	}
	publicURL, err := o.screenshots.Capture(ctx, pageURL)
	if err != nil {
		o.logger.Infow("screenshot failed", "url", pageURL, "error", err)
		return nil
	}
	return &publicURL
}

func (o *Orchestrator) analyze(ctx context.Context, pageURL string) *Analysis {
	cfg, err := o.settings.AIConfig(ctx)
	if err != nil {
		o.logger.Warnw("load ai config", "error", err)
		return nil
	}
	if cfg == nil {
		o.logger.Debug("no ai model configured, skipping analysis")
		return nil
	}

	body, err := o.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		o.logger.Infow("analysis fetch failed", "url", pageURL, "error", err)
		return nil
	}
	content, err := ExtractContent(body, pageURL)
	if err != nil {
		o.logger.Infow("content parse failed", "url", pageURL, "error", err)
		return nil
	}
	a := o.analyzer.Analyze(ctx, content, pageURL, *cfg)
	return &a
}

func (o *Orchestrator) StoreScreenshot(ctx context.Context, pageURL, screenshot string) *string {
	return o.screenshots.StoreClient(ctx, pageURL, screenshot)
}

func (o *Orchestrator) RemoveScreenshot(ctx context.Context, publicURL string) {
	o.screenshots.Remove(ctx, publicURL)
}

func nonBlank(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
