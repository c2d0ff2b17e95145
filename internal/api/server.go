// Package api exposes the planner actions as JSON endpoints.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/planner"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server wires the planner service to an Echo router.
type Server struct {
	echo *echo.Echo
	svc  *planner.Service
	log  zerolog.Logger
	addr string
	now  func() time.Time
}

// New builds a server with middleware and routes registered.
func New(svc *planner.Service, cfg model.ServerConfig, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, svc: svc, log: log, addr: cfg.Addr, now: time.Now}
	s.registerMiddlewares()
	s.registerRoutes()
	return s
}

// SetClock overrides the clock used for default calendar months.
func (s *Server) SetClock(now func() time.Time) { s.now = now }

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) registerMiddlewares() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())
	s.echo.Use(requestLogger(s.log))
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.health)

	g := s.echo.Group("/api/:collection", requireUser)
	g.GET("/tags", s.listTags)
	g.GET("/templates", s.listTemplates)
	g.POST("/templates/load", s.loadTemplate)
	g.POST("/buckets/:bucket/renormalize", s.renormalize)

	items := g.Group("/items")
	items.GET("", s.listItems)
	items.POST("", s.createItem)
	items.POST("/reorder", s.reorder)
	items.GET("/:id", s.getItem)
	items.PATCH("/:id", s.patchItem)
	items.DELETE("/:id", s.deleteItem)
	items.POST("/:id/complete", s.complete)
	items.POST("/:id/undo", s.undo)
	items.DELETE("/:id/ledger/:index", s.removeLedgerEntry)
	items.POST("/:id/archive", s.archive)
	items.POST("/:id/void", s.void)
	items.POST("/:id/restore", s.restore)
	items.POST("/:id/subactions/:key/toggle", s.toggleSubAction)
	items.GET("/:id/calendar", s.calendar)
	items.GET("/:id/links", s.links)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("api listening")
		errCh <- s.echo.Start(s.addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) health(c echo.Context) error {
	return success(c, http.StatusOK, "ok", nil)
}
