// AngelaMos | 2026
// server.go

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/carterperez-dev/shelflife/internal/config"
	"github.com/carterperez-dev/shelflife/internal/core"
)

type HealthHandler interface {
	SetReady(ready bool)
	SetShutdown(shutdown bool)
}

type Config struct {
	ServerConfig  config.ServerConfig
	HealthHandler HealthHandler
	Logger        *slog.Logger
}

type Server struct {
	httpServer *http.Server
	router     chi.Router
	health     HealthHandler
	logger     *slog.Logger
	cfg        config.ServerConfig
	draining   chan struct{}
	drainOnce  sync.Once
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		core.NotFound(w, "route")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		core.JSON(w, http.StatusMethodNotAllowed, core.Response{
			Success: false,
			Error: &core.ErrorBody{
				Code:    "METHOD_NOT_ALLOWED",
				Message: "method not allowed",
			},
		})
	})

	s := &Server{
		router:   router,
		health:   cfg.HealthHandler,
		logger:   logger,
		cfg:      cfg.ServerConfig,
		draining: make(chan struct{}),
	}

	s.httpServer = &http.Server{
		Addr:              cfg.ServerConfig.Address(),
		Handler:           router,
		ReadTimeout:       cfg.ServerConfig.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       cfg.ServerConfig.IdleTimeout,
		// The franchise event stream clears this on its own connection.
		WriteTimeout: cfg.ServerConfig.WriteTimeout,
		BaseContext: func(net.Listener) context.Context {
			return core.WithDrain(context.Background(), s.draining)
		},
	}
	s.httpServer.RegisterOnShutdown(s.startDrain)

	return s
}

// startDrain releases event streams, which would otherwise hold Shutdown
// until its timeout.
func (s *Server) startDrain() {
	s.drainOnce.Do(func() { close(s.draining) })
}

func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	if err := s.httpServer.Serve(ln); err != nil &&
		!errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown flips readiness off, waits drainDelay for load balancers to
// notice, then stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context, drainDelay time.Duration) error {
	if s.health != nil {
		s.health.SetReady(false)
		s.health.SetShutdown(true)
	}

	s.logger.Info("draining connections", "delay", drainDelay)

	select {
	case <-time.After(drainDelay):
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

// NotConfigured answers every request that is not a liveness probe with
// the configuration required error. It is mounted instead of the API when
// the database or redis URL is missing.
func NotConfigured(w http.ResponseWriter, _ *http.Request) {
	core.JSONError(w, core.NotConfiguredError())
}

// MountNotConfigured installs the degraded mode handlers on r.
func MountNotConfigured(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		core.JSON(w, http.StatusOK, map[string]string{
			"status": "configuration_required",
		})
	})
	r.NotFound(NotConfigured)
	r.MethodNotAllowed(NotConfigured)
	r.HandleFunc("/*", NotConfigured)
}
