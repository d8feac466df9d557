package enrich

import (
	"go.uber.org/fx"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/llm"
)

var (
	Module = fx.Provide(
		NewHostLimiter,
		NewFetcher,
		NewScreenshots,
		NewAnalyzer,
		NewOrchestrator,

		func(c *llm.Client) Completer { return c },
	)
)
