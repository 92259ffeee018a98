// Package server exposes deck generation, placement and export over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anika57/slidecrafter/deck"
	"github.com/anika57/slidecrafter/layout"
	"github.com/anika57/slidecrafter/renderer"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Responder produces a deck from a prompt, editing current when it has slides.
type Responder interface {
	Respond(ctx context.Context, prompt string, current deck.Deck) (deck.Deck, error)
}

// Format describes one export format.
type Format struct {
	Renderer    renderer.Renderer
	Extension   string
	ContentType string
}

// Options wires the server's collaborators.
type Options struct {
	// Responder 为 nil 时 /api/generate 返回 503。
	Responder Responder
	Layout    layout.Config
	Rules     deck.Rules
	// Formats 以 query 参数 format 为键；未指定时使用 DefaultFormat。
	Formats       map[string]Format
	DefaultFormat string
	Creator       string
	Logger        *log.Logger
}

// Server is the HTTP API.
type Server struct {
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New builds the router.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Layout == (layout.Config{}) {
		opts.Layout = layout.DefaultConfig()
	}
	s := &Server{opts: opts, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Post("/layout", s.handleLayout)
		r.Post("/validate", s.handleValidate)
		r.Post("/export", s.handleExport)
	})
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
