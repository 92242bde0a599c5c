// Package server exposes the research pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/webresearch/research-bridge/pkg/research"
	"github.com/webresearch/research-bridge/pkg/runner"
	"github.com/webresearch/research-bridge/pkg/store"
)

const shutdownTimeout = 10 * time.Second

// Runner executes research runs.
type Runner interface {
	Run(ctx context.Context, req runner.Request) (*runner.Outcome, error)
}

// Searcher answers diagnostic searches.
type Searcher interface {
	Run(ctx context.Context, query string, numResults int) *research.Report
}

// RunStore reads run history.
type RunStore interface {
	Get(ctx context.Context, id string) (*store.Run, error)
	List(ctx context.Context, limit int) ([]store.Run, error)
}

// Server is the HTTP API. Runs may be nil, which disables the /runs routes.
type Server struct {
	cfg      *Config
	runner   Runner
	searcher Searcher
	runs     RunStore
	engine   *gin.Engine
	handler  http.Handler
	log      zerolog.Logger
}

func New(cfg *Config, r Runner, searcher Searcher, runs RunStore, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:      cfg.WithDefaults(),
		runner:   r,
		searcher: searcher,
		runs:     runs,
		engine:   gin.New(),
		log:      log.With().Str("component", "server").Logger(),
	}
	s.engine.Use(requestLogger(s.log), recovery(), accessLog(), cors(s.cfg.CORSOrigins))
	s.routes()

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+streamPath, s.handleRunResearchStream)
	mux.Handle("/", s.engine)
	s.handler = mux
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/run_research", s.handleRunResearch)
	s.engine.POST("/search", s.handleSearch)
	if s.runs != nil {
		s.engine.GET("/runs", s.handleListRuns)
		s.engine.GET("/runs/:id", s.handleGetRun)
	}
}

// Handler returns the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("address", s.cfg.ListenAddr).Msg("Starting HTTP server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}
