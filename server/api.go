// Package server exposes the assistant over HTTP: a streaming chat
// endpoint plus the tool catalogue. The server keeps no state between
// requests; conversation history travels with each request.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/canvaspilot/canvaspilot/canvas"
	"github.com/canvaspilot/canvaspilot/chat"
	"github.com/canvaspilot/canvaspilot/orchestrator"
)

// RunFunc processes one chat request, emitting events until the terminal
// summary. The indirection keeps handlers testable with scripted runs.
type RunFunc func(ctx context.Context, req chat.Request, em chat.Emitter) error

// Server owns the HTTP surface.
type Server struct {
	Run            RunFunc
	Logger         *slog.Logger
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// New wires the production server: each request gets a copy of the runner
// bound to a Canvas client carrying that request's credentials (fields left
// empty fall back to the configured ones).
func New(runner orchestrator.Runner, canvasClient *canvas.Client, logger *slog.Logger) *Server {
	return &Server{
		Run: func(ctx context.Context, req chat.Request, em chat.Emitter) error {
			r := runner
			r.Executor = canvasClient.WithCredentials(req.CanvasURL, req.CanvasToken)
			return r.Run(ctx, req, em)
		},
		Logger: logger,
	}
}

// Router builds the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.AllowedOrigins))

	r.Post("/api/chat", s.handleChat)
	r.Get("/api/tools", s.handleTools)
	r.Get("/healthz", s.handleHealth)
	return r
}

// ServeContext listens on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ServeContext(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.log().Info("listening", "addr", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		http.Error(w, "messages required", http.StatusBadRequest)
		return
	}
	em, err := newNDJSONEmitter(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	if s.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RequestTimeout)
		defer cancel()
	}

	if err := s.Run(ctx, req, em); err != nil {
		// Client cancellation: the stream is already dead, close quietly.
		if r.Context().Err() != nil {
			s.log().Info("chat request cancelled")
			return
		}
		s.log().Error("chat request failed", "error", err)
	}
	em.Close()
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"tools": canvas.Catalogue()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// corsMiddleware allows browser clients served from another origin to call
// the API. Credentials are only allowed for explicitly listed origins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
					break
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
