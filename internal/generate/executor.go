// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate runs a prompt through an ordered cascade of model
// identifiers: each model gets one time-boxed attempt, and the executor
// advances on timeout, empty output, or error. One distinguished failure
// class, access denial on a referenced document, triggers a single
// inline-reacquisition retry on the first model only.
package generate

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/answer-engine/internal/llm"
)

// DefaultAttemptTimeout bounds each model attempt.
const DefaultAttemptTimeout = 180 * time.Second

// Backend is the model capability the executor drives.
type Backend interface {
	GenerateContent(ctx context.Context, model string, req llm.Request) (string, error)
	StreamGenerateContent(ctx context.Context, model string, req llm.Request, fn func(llm.StreamChunk) error) error
}

// Executor iterates the model cascade for one generation.
type Executor struct {
	Backend Backend

	// Models is the ordered cascade. Each model is tried at most once
	// per Generate call (plus the one reacquisition retry on the first).
	Models []string

	// AttemptTimeout bounds each attempt; zero means DefaultAttemptTimeout.
	AttemptTimeout time.Duration

	// Reacquire rebuilds the request with inline document data when the
	// first model reports access denial on a referenced resource. Nil
	// disables the alternate path. The bool reports whether the request
	// actually changed.
	Reacquire func(ctx context.Context, req llm.Request) (llm.Request, bool)

	Log io.Writer
}

func (e *Executor) timeout() time.Duration {
	if e.AttemptTimeout > 0 {
		return e.AttemptTimeout
	}
	return DefaultAttemptTimeout
}

// Generate tries each model in order and returns the first non-empty
// response. Exhausting the cascade returns an aggregated error naming
// the last failure.
func (e *Executor) Generate(ctx context.Context, req llm.Request) (string, error) {
	if len(e.Models) == 0 {
		return "", fmt.Errorf("no models configured")
	}

	var lastErr error
	reacquired := false

	for i, model := range e.Models {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		text, err := e.attempt(ctx, model, req)
		if err == nil && text != "" {
			return text, nil
		}
		if err == nil {
			err = fmt.Errorf("model %s returned an empty response", model)
		}
		lastErr = err
		fmt.Fprintf(e.Log, "warning: model %s failed: %v\n", model, err)

		// Access denial on a referenced document: re-acquire the bytes
		// inline and retry, once, on the first model only.
		if i == 0 && !reacquired && e.Reacquire != nil && llm.KindOf(err) == llm.KindPermissionDenied {
			if altReq, changed := e.Reacquire(ctx, req); changed {
				reacquired = true
				fmt.Fprintf(e.Log, "retrying %s with inline document data\n", model)
				text, err = e.attempt(ctx, model, altReq)
				if err == nil && text != "" {
					return text, nil
				}
				if err != nil {
					lastErr = err
				}
				// Later models reuse the inlined request too.
				req = altReq
			}
		}
	}

	return "", fmt.Errorf("all %d models in cascade failed: %w", len(e.Models), lastErr)
}

func (e *Executor) attempt(ctx context.Context, model string, req llm.Request) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()
	return e.Backend.GenerateContent(attemptCtx, model, req)
}

// Stream runs the cascade in streaming mode, forwarding every delta to
// fn in order. A mid-stream failure falls back to the next model and
// restarts generation from scratch; no partial text is stitched across
// models. When a failed attempt already delivered deltas, fn receives a
// Restart chunk before the next attempt so the consumer can discard the
// partial text. A caller abort (context cancellation or fn error) stops
// the cascade immediately.
func (e *Executor) Stream(ctx context.Context, req llm.Request, fn func(llm.StreamChunk) error) error {
	if len(e.Models) == 0 {
		return fmt.Errorf("no models configured")
	}

	var lastErr error
	delivered := false
	for _, model := range e.Models {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// A dead attempt already reached the consumer; signal a restart
		// so the partial text is discarded before the next model begins.
		if delivered {
			if err := fn(llm.StreamChunk{Restart: true}); err != nil {
				return err
			}
			delivered = false
		}

		var consumerErr error
		wrapped := func(c llm.StreamChunk) error {
			delivered = true
			if err := fn(c); err != nil {
				consumerErr = err
				return err
			}
			return nil
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.timeout())
		err := e.Backend.StreamGenerateContent(attemptCtx, model, req, wrapped)
		cancel()

		if err == nil {
			return nil
		}
		if consumerErr != nil {
			// The consumer stopped the stream; do not try further models.
			return consumerErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		fmt.Fprintf(e.Log, "warning: streaming via %s failed, restarting on next model: %v\n", model, err)
	}

	return fmt.Errorf("all %d models in cascade failed: %w", len(e.Models), lastErr)
}
