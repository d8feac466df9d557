package transport

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
)

const preflightMaxAge = "86400"

func (s *HTTPServer) BookmarkList(c echo.Context) error {
	req, err := bindListReq(c)
	if err != nil {
		return err
	}

	bookmarks, err := s.bookmarks.List(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{Success: true, Data: bookmarks})
}

func (s *HTTPServer) BookmarkGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	bookmark, err := s.bookmarks.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{Success: true, Data: bookmark})
}

func (s *HTTPServer) BookmarkCreate(c echo.Context) error {
	if origin, ok := s.allowedOrigin(c); ok {
		c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, origin)
	}
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid content type")
	}

	req := models.BookmarkCreateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	bookmark, err := s.bookmarks.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, models.Response{
		Success: true,
		Data:    bookmark,
		Message: "bookmark created",
	})
}

func (s *HTTPServer) BookmarkUpdate(c echo.Context) error {
	id, err := GetAndParseQueryID(c, "bookmark")
	if err != nil {
		return err
	}

	req := models.BookmarkUpdateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	bookmark, err := s.bookmarks.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{Success: true, Data: bookmark})
}

func (s *HTTPServer) BookmarkDelete(c echo.Context) error {
	id, err := GetAndParseQueryID(c, "bookmark")
	if err != nil {
		return err
	}

	if err := s.bookmarks.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{Success: true, Message: "bookmark deleted"})
}

// BookmarkPreflight answers CORS preflight for the web app and the browser
// extension only.
func (s *HTTPServer) BookmarkPreflight(c echo.Context) error {
	origin, ok := s.allowedOrigin(c)
	if !ok {
		return c.String(http.StatusForbidden, "Forbidden")
	}

	h := c.Response().Header()
	h.Set(echo.HeaderAccessControlAllowOrigin, origin)
	h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE, OPTIONS")
	h.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type, Authorization")
	h.Set(echo.HeaderAccessControlMaxAge, preflightMaxAge)
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) TagList(c echo.Context) error {
	tags, err := s.tags.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{Success: true, Data: tags})
}

func (s *HTTPServer) TagTree(c echo.Context) error {
	tree, err := s.tags.Tree(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{Success: true, Data: tree})
}

func (s *HTTPServer) TagUpdate(c echo.Context) error {
	id, err := GetAndParseQueryID(c, "tag")
	if err != nil {
		return err
	}

	req := models.TagUpdateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	tag, err := s.tags.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{Success: true, Data: tag})
}

func (s *HTTPServer) TagDelete(c echo.Context) error {
	id, err := GetAndParseQueryID(c, "tag")
	if err != nil {
		return err
	}

	if err := s.tags.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{Success: true, Message: "tag deleted"})
}

func (s *HTTPServer) TagClear(c echo.Context) error {
	n, err := s.tags.Clear(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{Success: true, Data: n, Message: "tags cleared"})
}

func (s *HTTPServer) AISettingsGet(c echo.Context) error {
	cfg, err := s.settings.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

func (s *HTTPServer) AISettingsSave(c echo.Context) error {
	req := models.AISettingsReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	if err := s.settings.Save(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{Success: true})
}

func bindListReq(c echo.Context) (models.BookmarkListReq, error) {
	req := models.BookmarkListReq{
		Search:   c.QueryParam("search"),
		MenuPath: c.QueryParam("menuPath"),
	}
	if v := c.QueryParam("tagId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return req, echo.NewHTTPError(http.StatusBadRequest, "invalid tagId")
		}
		req.TagID = &id
	}
	for name, dst := range map[string]**int{"limit": &req.Limit, "offset": &req.Offset} {
		v := c.QueryParam(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
		}
		*dst = &n
	}
	return req, nil
}
