package cmsloader

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

// Dashboard is the data shown on the admin page.
type Dashboard struct {
	Entries []Entry
	Authors int
	LastRun *LoadRun
	Message string
}

func (s *Server) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, s.Views.AdminLogin(false, CsrfToken(c)))
	}
	return s.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (s *Server) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !s.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(s.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	s.loginLimiter.Record(ip)
	return Render(c, s.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (s *Server) handleAdminReload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := s.Loader.CheckConfig(); err != nil {
		c.Logger().Errorf("reload: %v", err)
		return redirectWithMessage(c, "Reload failed: "+err.Error())
	}
	if err := s.Loader.Load(c.Request().Context()); err != nil {
		c.Logger().Errorf("reload: %v", err)
		return redirectWithMessage(c, "Reload failed: "+err.Error())
	}
	s.Cache.Invalidate()
	return redirectWithMessage(c, "Content reloaded.")
}

func (s *Server) handleAdminReloadAuthors(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	n, err := s.Loader.LoadAuthors(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("reload authors: %v", err)
		return redirectWithMessage(c, "Author reload failed: "+err.Error())
	}
	return redirectWithMessage(c, fmt.Sprintf("Loaded %d authors.", n))
}

func (s *Server) handleAdminRefresh(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	slug := c.Param("slug")
	if _, err := s.Loader.Refresh(c.Request().Context(), slug); err != nil {
		if errors.Is(err, ErrNotFound) {
			return redirectWithMessage(c, "No published post "+slug+".")
		}
		c.Logger().Errorf("refresh %s: %v", slug, err)
		return redirectWithMessage(c, "Refresh failed: "+err.Error())
	}
	s.Cache.Invalidate()
	return redirectWithMessage(c, "Refreshed "+slug+".")
}

func redirectWithMessage(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (s *Server) renderAdminDashboard(c echo.Context, msg string) error {
	ctx := c.Request().Context()
	entries, err := s.Store.ListAll(ctx)
	if err != nil {
		return err
	}
	authors, err := s.Store.ListAuthors(ctx)
	if err != nil {
		return err
	}
	d := Dashboard{Entries: entries, Authors: len(authors), Message: msg}
	run, err := s.Store.LastRun(ctx)
	switch {
	case err == nil:
		d.LastRun = &run
	case !errors.Is(err, ErrNotFound):
		return err
	}
	return Render(c, s.Views.AdminDashboard(d, CsrfToken(c)))
}
