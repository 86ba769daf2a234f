// Package httpapi exposes the authentication service over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	Addr              string
	RateLimitPerMin   int
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

type Server struct {
	cfg        Config
	router     chi.Router
	handler    *AuthHandler
	parser     TokenParser
	gatherer   prometheus.Gatherer
	log        logging.Logger
	httpServer *http.Server
}

func New(cfg Config, svc AuthService, parser TokenParser, gatherer prometheus.Gatherer, log logging.Logger) *Server {
	log = log.With("module", "httpapi")
	s := &Server{
		cfg:      cfg,
		handler:  NewAuthHandler(svc, log),
		parser:   parser,
		gatherer: gatherer,
		log:      log,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", handleHealthz)
	if s.gatherer != nil {
		r.Handle("/metrics", metrics.Handler(s.gatherer))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RateLimit(s.cfg.RateLimitPerMin))
			r.Post("/register", s.handler.Register)
			r.Post("/login", s.handler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(s.parser))
			r.Get("/profile", s.handler.Profile)

			r.With(RequireRole(common.AdminRole)).Get("/admin", s.handler.Admin)
		})
	})

	s.router = r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "http server starting", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info(ctx, "http server stopped")
	return nil
}

// Router returns the chi router, useful for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
