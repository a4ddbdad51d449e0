// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/pipeline"
)

// doneSentinel closes every SSE stream so clients can stop reading
// without waiting for EOF.
const doneSentinel = "data: [DONE]\n\n"

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	question, ok := s.question(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	sessionID := uuid.NewString()
	logger := s.Logger.With(zap.String("session_id", sessionID))
	logger.Info("stream opened", zap.Int("question_chars", len(question)))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Session-ID", sessionID)
	w.WriteHeader(http.StatusOK)

	// Cancelling the request context (client disconnect) aborts the run.
	err := s.Pipeline.Stream(r.Context(), question, func(e pipeline.Event) error {
		return writeSSE(w, flusher, e)
	})
	if err != nil {
		logger.Warn("stream ended with error", zap.Error(err))
	} else {
		logger.Info("stream completed")
	}

	fmt.Fprint(w, doneSentinel)
	flusher.Flush()
}

// writeSSE emits one event as an `event:`/`data:` pair and flushes it
// immediately so deltas reach the client as they are generated.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, e pipeline.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, payload); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	flusher.Flush()
	return nil
}
