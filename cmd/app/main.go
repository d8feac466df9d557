package main

import (
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/blob"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/enrich"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/llm"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/rpc"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/service"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/transport"
)

func main() {
	fx.New(
		config.Module,
		db.Module,
		blob.Module,
		llm.Module,
		enrich.Module,
		service.Module,
		transport.Module,
		rpc.Module,
		fx.Provide(NewLogger),
		fx.WithLogger(func(l *zap.SugaredLogger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Desugar()}
		}),
		fx.Invoke(func(*transport.HTTPServer, *rpc.BookmarkerServerImpl) {}),
	).Run()
}

// NewLogger builds the production logger at LOG_LEVEL.
func NewLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.SugaredLogger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "parse log level %q", cfg.LogLevel)
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	l, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}

	lc.Append(fx.StopHook(func() {
		_ = l.Sync()
	}))
	return l.Sugar(), nil
}
