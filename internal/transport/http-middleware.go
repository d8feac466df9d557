package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/service"
)

const (
	authRealm = `Basic realm="Bookmarker API"`

	censored = "$censored"
)

// censoredFields are dropped from debug body dumps. Screenshots arrive as
// inline data URLs of several megabytes.
var censoredFields = []string{"screenshot"}

// AuthMiddleware guards mutating routes. With API_TOKEN set the
// Authorization header must match it; otherwise the request has to come
// from the same host it is addressed to.
func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.authorized(c.Request()) {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, authRealm)
			return c.JSON(http.StatusUnauthorized, models.Response{Error: "unauthorized"})
		}
		return next(c)
	}
}

func (s *HTTPServer) authorized(r *http.Request) bool {
	if s.cfg.APIToken != "" {
		return r.Header.Get(echo.HeaderAuthorization) == s.cfg.APIToken
	}

	host := hostname(r.Host)
	origin := r.Header.Get(echo.HeaderOrigin)
	if origin == "" {
		// without an Origin only a bare Host header counts as same-origin
		return host != "" && r.Host == host
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Hostname() != "" && u.Hostname() == host
}

func hostname(hostport string) string {
	return (&url.URL{Host: hostport}).Hostname()
}

// allowedOrigin returns the request origin when it may receive CORS headers.
func (s *HTTPServer) allowedOrigin(c echo.Context) (string, bool) {
	origin := c.Request().Header.Get(echo.HeaderOrigin)
	if origin == "" {
		return "", false
	}
	for _, o := range s.cfg.AllowedOrigins() {
		if o == origin {
			return origin, true
		}
	}
	return "", false
}

func (s *HTTPServer) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"request_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				s.logger.Warnw("request", append(fields, "error", v.Error)...)
				return nil
			}
			s.logger.Infow("request", fields...)
			return nil
		},
	})
}

func (s *HTTPServer) bodyDump() echo.MiddlewareFunc {
	return middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().Method == http.MethodGet
		},
		Handler: func(c echo.Context, reqBody, resBody []byte) {
			s.logger.Debugw("body dump",
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"request", string(censorBody(reqBody)),
				"response", string(censorBody(resBody)),
			)
		},
	})
}

// censorBody replaces censoredFields of a JSON object, including the one
// nested under "data". Anything that is not a JSON object is returned as is.
func censorBody(body []byte) []byte {
	m := map[string]interface{}{}
	if err := json.Unmarshal(body, &m); err != nil {
		return body
	}
	censorFields(m)
	if data, ok := m["data"].(map[string]interface{}); ok {
		censorFields(data)
	}
	out, err := json.Marshal(m)
	if err != nil {
		return body
	}
	return out
}

func censorFields(m map[string]interface{}) {
	for _, f := range censoredFields {
		if v, ok := m[f]; ok && v != nil {
			m[f] = censored
		}
	}
}

// handleError maps service errors onto status codes. Unknown errors are
// logged and answered with a generic 500.
func (s *HTTPServer) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		conflictErr   *service.ConflictError
		httpErr       *echo.HTTPError
	)

	status := http.StatusInternalServerError
	resp := models.Response{Error: "internal server error"}
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		resp.Error = validationErr.Msg
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
		resp.Error = notFoundErr.Error()
	case errors.As(err, &conflictErr):
		status = http.StatusConflict
		resp.Error = conflictErr.Msg
		resp.Data = conflictErr.Existing
	case errors.As(err, &httpErr):
		status = httpErr.Code
		resp.Error = fmt.Sprint(httpErr.Message)
	default:
		s.logger.Errorw("request failed",
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		s.logger.Errorw("write error response", "error", err)
	}
}
