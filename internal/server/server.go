// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP: a blocking JSON
// endpoint, a server-sent-events stream, and a health probe.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Runner is the pipeline capability the server exposes.
type Runner interface {
	Run(ctx context.Context, question string) types.RunResult
	Stream(ctx context.Context, question string, emit func(pipeline.Event) error) error
}

// Server handles HTTP traffic for one Runner.
type Server struct {
	Pipeline Runner
	Logger   *zap.Logger
}

// New returns a Server over the given pipeline.
func New(p Runner, logger *zap.Logger) *Server {
	return &Server{Pipeline: p, Logger: logger}
}

// Router builds the chi router with logging and recovery middleware.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(chiMiddleware.Recoverer)

	r.Post("/ask", s.handleAsk)
	r.Get("/stream", s.handleStream)
	r.Post("/stream", s.handleStream)
	r.Get("/healthz", s.handleHealthz)
	return r
}

// askRequest is the JSON body of /ask and POST /stream.
type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	question, ok := s.question(w, r)
	if !ok {
		return
	}

	result := s.Pipeline.Run(r.Context(), question)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// question pulls the question out of the JSON body or, for GET, the
// query string.
func (s *Server) question(w http.ResponseWriter, r *http.Request) (string, bool) {
	var question string
	if r.Method == http.MethodGet {
		question = r.URL.Query().Get("question")
	} else {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return "", false
		}
		question = req.Question
	}

	question = strings.TrimSpace(question)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return "", false
	}
	return question, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chiMiddleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.Logger.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestID),
		)
	})
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Router(),
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: SSE responses stay open for the whole run.
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
