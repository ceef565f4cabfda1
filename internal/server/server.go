// Package server exposes the interview, article and writing-analysis
// operations over HTTP and a WebSocket channel.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"nuance/internal/article"
	"nuance/internal/correction"
	"nuance/internal/dialogue"
	"nuance/internal/logger"
	"nuance/internal/session"
)

const shutdownTimeout = 10 * time.Second

// Options configures the HTTP server and the idle session janitor.
type Options struct {
	Addr          string
	CORSOrigins   []string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// Deps are the services the handlers call.
type Deps struct {
	Store        *session.Store
	Orchestrator *dialogue.Orchestrator
	Analyzer     *correction.Analyzer
	Polisher     *article.Polisher
}

// Server routes requests to the dialogue, correction and article services.
type Server struct {
	deps    Deps
	opts    Options
	origins map[string]bool
	log     *log.Logger

	// NewID generates session and request ids.
	NewID func() string
	// Now stamps generated_at and analyzed_at fields.
	Now func() time.Time
}

// New creates a server.
func New(deps Deps, opts Options) *Server {
	origins := make(map[string]bool, len(opts.CORSOrigins))
	for _, o := range opts.CORSOrigins {
		origins[o] = true
	}
	return &Server{
		deps:    deps,
		opts:    opts,
		origins: origins,
		log:     logger.NewStyledLogger("Server"),
		NewID:   uuid.NewString,
		Now:     time.Now,
	}
}

// Handler returns an http.Handler with all routes and middleware configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/reply", s.handleReply)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistory)
	mux.HandleFunc("POST /api/end/{id}", s.handleEnd)
	mux.HandleFunc("POST /api/generate-article", s.handleGenerateArticle)
	mux.HandleFunc("POST /api/analyze-writing", s.handleAnalyzeWriting)
	mux.HandleFunc("GET /api/ws", s.handleWebSocket)

	return s.requestID(s.timing(s.cors(mux)))
}

// Run listens on Options.Addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
// The idle session janitor runs for the lifetime of the call when IdleTTL is set.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	if s.opts.IdleTTL > 0 && s.deps.Store != nil {
		go s.deps.Store.Run(janitorCtx, s.opts.SweepInterval, s.opts.IdleTTL)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server listening", "addr", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
