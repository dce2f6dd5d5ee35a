package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cbztag/internal/catalog"
	"cbztag/internal/config"
	"cbztag/internal/library"
	"cbztag/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Server exposes archive operations and the catalog over HTTP.
type Server struct {
	cfg        *config.Config
	bind       string
	libraryDir string
	logger     *slog.Logger
	store      *catalog.Store
	scanner    *library.Scanner
	metrics    *metrics
	saves      *pathLocks

	router   chi.Router
	listener net.Listener
	server   *http.Server
}

// New builds a server for cfg. scanner may be nil, in which case saved
// archives are not refreshed in the catalog.
func New(cfg *config.Config, store *catalog.Store, scanner *library.Scanner, logger *slog.Logger) (*Server, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("api server requires config and catalog store")
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}
	libraryDir, err := filepath.Abs(cfg.Paths.LibraryDir)
	if err != nil {
		return nil, fmt.Errorf("resolve library dir: %w", err)
	}

	s := &Server{
		cfg:        cfg,
		bind:       bind,
		libraryDir: libraryDir,
		logger:     logging.NewComponentLogger(logger, "api-server"),
		store:      store,
		scanner:    scanner,
		metrics:    newMetrics(),
		saves:      newPathLocks(),
	}
	s.router = s.routes()
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimw.Recoverer)
	r.Use(s.instrument)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		api.Use(authMiddleware(s.cfg.API.Token))
		api.Get("/archive", s.handleGetArchive)
		api.Put("/archive", s.handlePutArchive)
		api.Get("/archive/pages", s.handlePages)
		api.Get("/archive/cover", s.handleCover)
		api.Get("/library", s.handleLibrary)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found", Kind: "not_found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Kind: kindBadRequest})
	})
	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until ctx is cancelled
// or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info(
		"api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("library_dir", s.libraryDir),
		logging.Bool("auth", s.cfg.API.Token != ""),
	)
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting up to five seconds for open requests.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}
