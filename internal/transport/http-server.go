package transport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/blob"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/service"
)

type (
	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		e         *echo.Echo
		cfg       *config.Config
		bookmarks *service.Bookmarks
		tags      *service.Tags
		settings  *service.Settings
		logger    *zap.SugaredLogger
	}
)

func NewHTTPServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	bookmarks *service.Bookmarks,
	tags *service.Tags,
	settings *service.Settings,
	store blob.Store,
	v *validator.Validate,
	logger *zap.SugaredLogger,
) *HTTPServer {
	instance := newHTTPServer(cfg, bookmarks, tags, settings, store, v, logger)
	e := instance.e

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.Host + ":" + cfg.Port
				logger.Infow("Starting HTTP server.", "listen", listen)
				if err := e.Start(listen); err != nil && err != http.ErrServerClosed {
					logger.Fatalw("shutting down the server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return e.Shutdown(ctx)
		},
	})

	return instance
}

func newHTTPServer(
	cfg *config.Config,
	bookmarks *service.Bookmarks,
	tags *service.Tags,
	settings *service.Settings,
	store blob.Store,
	v *validator.Validate,
	logger *zap.SugaredLogger,
) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	instance := HTTPServer{
		e:         e,
		cfg:       cfg,
		bookmarks: bookmarks,
		tags:      tags,
		settings:  settings,
		logger:    logger,
	}

	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	bookmarkG := e.Group("/bookmarks")
	bookmarkG.GET("", instance.BookmarkList)
	bookmarkG.GET("/:id", instance.BookmarkGet)
	bookmarkG.POST("", instance.BookmarkCreate, instance.AuthMiddleware)
	bookmarkG.PUT("", instance.BookmarkUpdate, instance.AuthMiddleware)
	bookmarkG.DELETE("", instance.BookmarkDelete, instance.AuthMiddleware)
	bookmarkG.OPTIONS("", instance.BookmarkPreflight)

	tagG := e.Group("/tags")
	tagG.GET("", instance.TagList)
	tagG.GET("/tree", instance.TagTree)
	tagG.GET("/clear", instance.TagClear, instance.AuthMiddleware)
	tagG.PUT("", instance.TagUpdate)
	tagG.DELETE("", instance.TagDelete)

	settingsG := e.Group("/settings")
	settingsG.GET("/ai", instance.AISettingsGet)
	settingsG.POST("/ai", instance.AISettingsSave)

	if local, ok := store.(*blob.Local); ok {
		e.Static("/files", local.Dir())
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	e.Use(instance.requestLogger())
	e.Use(middleware.Recover())
	if logger.Desugar().Core().Enabled(zap.DebugLevel) {
		e.Use(instance.bodyDump())
	}

	e.Validator = &CustomValidator{validator: v}
	e.HTTPErrorHandler = instance.handleError

	echo.NotFoundHandler = func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	}

	return &instance
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

////////

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func BindAndValidate(c echo.Context, v interface{}) error {
	var err error
	if err = c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err = c.Validate(v); err != nil {
		return err
	}
	return nil
}

// GetAndParseQueryID reads the mandatory numeric id query parameter used by
// the update and delete routes.
func GetAndParseQueryID(c echo.Context, entity string) (uint64, error) {
	v := c.QueryParam("id")
	if v == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, entity+" id is required")
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+entity+" id")
	}
	return id, nil
}

func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v := c.Param(name)
	if v == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return id, nil
}
