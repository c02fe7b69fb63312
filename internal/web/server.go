// Package web serves the crew and admin surfaces of the portal.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"crew-portal/internal/audit"
	"crew-portal/internal/common/config"
	"crew-portal/internal/common/database"
	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/common/logger"
	"crew-portal/internal/common/observability"
	"crew-portal/internal/inbox"
	"crew-portal/internal/session"
	"crew-portal/pkg/registry"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

const shutdownBudget = 30 * time.Second

// Deps are the collaborators the server is built from. Audit and
// Observability may be nil.
type Deps struct {
	Config        *config.Config
	Logger        logger.Logger
	Services      Services
	Sessions      *session.Store
	Poller        *inbox.Poller
	Registry      *registry.SectionRegistry
	Audit         *audit.Store
	Observability *observability.Observability
	Checks        map[string]database.Pinger
}

// Server is the portal's HTTP front end.
type Server struct {
	cfg       *config.Config
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
	svc       Services
	sessions  *session.Store
	cookie    session.Cookie
	poller    *inbox.Poller
	registry  *registry.SectionRegistry
	audit     *audit.Store
	obs       *observability.Observability
	checks    map[string]database.Pinger
	templates map[string]*template.Template
	engine    *gin.Engine
	now       func() time.Time

	httpServer *http.Server
	draining   chan struct{}
	drainOnce  sync.Once
}

// New parses the templates and builds the gin engine.
func New(d Deps) (*Server, error) {
	if d.Config == nil || d.Sessions == nil || d.Poller == nil {
		return nil, fmt.Errorf("web: config, sessions and poller are required")
	}
	if d.Logger == nil {
		d.Logger = logger.NewNoOpLogger()
	}
	if d.Registry == nil {
		d.Registry = registry.Default()
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	log := logger.Component(d.Logger, "web")
	s := &Server{
		cfg:      d.Config,
		logger:   log,
		errors:   apperrors.NewErrorHandler(log),
		svc:      d.Services,
		sessions: d.Sessions,
		cookie: session.Cookie{
			Name:   d.Config.Session.CookieName,
			Secure: d.Config.Server.CookieSecure,
			MaxAge: d.Sessions.TTL(),
		},
		poller:    d.Poller,
		registry:  d.Registry,
		audit:     d.Audit,
		obs:       d.Observability,
		checks:    d.Checks,
		templates: tmpl,
		now:       time.Now,
		draining:  make(chan struct{}),
	}
	s.engine = s.buildEngine()
	if err := s.checkSections(); err != nil {
		return nil, err
	}
	return s, nil
}

// checkSections makes sure every registry section points at a page the
// engine serves, so the permission gate covers the real routes.
func (s *Server) checkSections() error {
	served := make(map[string]bool)
	for _, r := range s.engine.Routes() {
		if r.Method == http.MethodGet {
			served[r.Path] = true
		}
	}
	for _, sec := range s.registry.Sections {
		if !served[sec.Path] {
			return fmt.Errorf("section %q: path %q is not a portal page", sec.ID, sec.Path)
		}
	}
	return nil
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Server.Addr()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       config.GetDuration(s.cfg.Server.ReadTimeout),
		WriteTimeout:      config.GetDuration(s.cfg.Server.WriteTimeout),
		IdleTimeout:       120 * time.Second,
	}
	s.httpServer.RegisterOnShutdown(s.drain)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.logger.Info("portal listening", map[string]interface{}{"addr": addr})

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background()) //nolint:contextcheck // parent is already cancelled
	case err := <-errCh:
		return err
	}
}

// Shutdown stops accepting requests, ends open inbox streams and waits for
// in-flight requests up to the shutdown budget.
func (s *Server) Shutdown(ctx context.Context) error {
	s.drain()
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownBudget)
	defer cancel()

	s.logger.Info("shutting down web server", nil)
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) drain() {
	s.drainOnce.Do(func() { close(s.draining) })
}
