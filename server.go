package cmsloader

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// Server is the preview server. It wires together the store, cache,
// handlers, middleware and views on top of a Loader.
type Server struct {
	Config ServerConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *EntryCache
	Loader *Loader
	Views  ViewFuncs

	loginLimiter *LoginLimiter
	logger       *log.Logger
	customRoutes []func(*Server)
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithViews replaces the default page templates.
func WithViews(v ViewFuncs) ServerOption {
	return func(s *Server) {
		s.Views = v
	}
}

// WithServerLogger sets the logger used by Echo and the handlers.
func WithServerLogger(l *log.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithCustomRoutes registers extra routes after the built-in ones.
func WithCustomRoutes(fn func(*Server)) ServerOption {
	return func(s *Server) {
		s.customRoutes = append(s.customRoutes, fn)
	}
}

// NewServer validates cfg and builds a server serving the entries of
// loader's store.
func NewServer(cfg ServerConfig, loader *Loader, opts ...ServerOption) (*Server, error) {
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	s := &Server{
		Config:       cfg,
		Echo:         echo.New(),
		Store:        loader.Store(),
		Loader:       loader,
		Views:        DefaultViews(),
		loginLimiter: NewLoginLimiter(5, time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = NewLogger(false)
	}
	s.Cache = NewEntryCache(s.Store, cfg.CacheTTL)

	s.Echo.HideBanner = true
	s.Echo.Logger = s.logger

	s.setupMiddleware()
	s.setupRoutes()
	for _, fn := range s.customRoutes {
		fn(s)
	}
	return s, nil
}

// Start listens on the configured address until the server is shut down.
func (s *Server) Start() error {
	s.logger.Infof("Serving %s on %s", s.Config.Name, s.Config.Addr)
	if err := s.Echo.Start(s.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	e := s.Echo

	e.GET("/public/code-themes.css", s.handleThemeCSS)
	e.GET("/robots.txt", s.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", s.handleSitemap)
	e.GET("/feed.xml", s.handleFeed)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/", s.handleHome)
	e.GET("/blog/:slug/", s.handleEntry)

	// JSON API
	api := e.Group("/api")
	api.GET("/entries", s.handleAPIEntries)
	api.GET("/entries/:slug", s.handleAPIEntry)
	api.GET("/authors", s.handleAPIAuthors)
	api.GET("/status", s.handleAPIStatus)

	// Admin routes
	e.GET("/admin/", s.handleAdmin)
	e.POST("/admin/login/", s.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.POST("/admin/reload/", s.handleAdminReload)
	e.POST("/admin/reload/authors/", s.handleAdminReloadAuthors)
	e.POST("/admin/reload/:slug/", s.handleAdminRefresh)
}

// Close cleans up resources. Call this when the server is shutting down.
func (s *Server) Close() error {
	s.loginLimiter.Close()
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}
