package cmsloader

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type apiError struct {
	Error string `json:"error"`
}

// entrySummary is the list form of an entry, without body or HTML.
type entrySummary struct {
	ID     string    `json:"id"`
	Link   string    `json:"link"`
	Digest string    `json:"digest"`
	Data   EntryData `json:"data"`
}

type statusResponse struct {
	Entries int      `json:"entries"`
	Authors int      `json:"authors"`
	LastRun *LoadRun `json:"lastRun"`
}

func (s *Server) handleAPIEntries(c echo.Context) error {
	entries, err := s.Cache.List(c.Request().Context(), c.QueryParam("tag"))
	if err != nil {
		return err
	}
	out := make([]entrySummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, entrySummary{ID: e.ID, Link: e.Link(), Digest: e.Digest, Data: e.Data})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleAPIEntry(c echo.Context) error {
	entry, err := s.Cache.Get(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, apiError{Error: "entry not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) handleAPIAuthors(c echo.Context) error {
	authors, err := s.Store.ListAuthors(c.Request().Context())
	if err != nil {
		return err
	}
	if authors == nil {
		authors = []Author{}
	}
	return c.JSON(http.StatusOK, authors)
}

func (s *Server) handleAPIStatus(c echo.Context) error {
	ctx := c.Request().Context()
	count, err := s.Store.Count(ctx)
	if err != nil {
		return err
	}
	authors, err := s.Store.ListAuthors(ctx)
	if err != nil {
		return err
	}
	resp := statusResponse{Entries: count, Authors: len(authors)}
	run, err := s.Store.LastRun(ctx)
	switch {
	case err == nil:
		resp.LastRun = &run
	case !errors.Is(err, ErrNotFound):
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
