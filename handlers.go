package cmsloader

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/cmsloader/codeblocks"
)

func (s *Server) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	tag := c.QueryParam("tag")
	entries, err := s.Cache.List(ctx, tag)
	if err != nil {
		return err
	}
	tags, err := s.Cache.Tags(ctx)
	if err != nil {
		return err
	}
	return Render(c, s.Views.Home(entries, tag, tags, s.Config))
}

func (s *Server) handleEntry(c echo.Context) error {
	ctx := c.Request().Context()
	entry, err := s.Cache.Get(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, s.Views.NotFound())
		}
		return err
	}
	entries, err := s.Cache.List(ctx, "")
	if err != nil {
		return err
	}
	return Render(c, s.Views.Entry(entry, FilterRelatedEntries(entry, entries), s.Config))
}

func (s *Server) handleSitemap(c echo.Context) error {
	entries, err := s.Cache.List(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return s.renderSitemap(c, entries)
}

func (s *Server) handleFeed(c echo.Context) error {
	entries, err := s.Cache.List(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return s.renderRSS(c, entries)
}

func (s *Server) handleThemeCSS(c echo.Context) error {
	css, err := codeblocks.ThemeCSS()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(css))
}

func (s *Server) handleRobots(c echo.Context) error {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Disallow: /admin/\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("\nSitemap: " + s.Config.URL + "/sitemap.xml\n")
	return c.String(http.StatusOK, b.String())
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound && !strings.HasPrefix(c.Request().URL.Path, "/api/") {
		_ = RenderStatus(c, http.StatusNotFound, s.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		if strings.HasPrefix(c.Request().URL.Path, "/api/") {
			_ = c.JSON(code, apiError{Error: http.StatusText(code)})
			return
		}
		_ = RenderStatus(c, code, s.Views.ServerError())
		return
	}
	s.Echo.DefaultHTTPErrorHandler(err, c)
}
