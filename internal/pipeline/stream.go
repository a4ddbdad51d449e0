// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/answer-engine/internal/classify"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/synthesis"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// EventType tags one streaming event.
type EventType string

const (
	// EventMetadata opens the stream with the query classification.
	EventMetadata EventType = "metadata"

	// EventStatus reports stage progress in human-readable lines.
	EventStatus EventType = "status"

	// EventThinking carries a reasoning-channel delta.
	EventThinking EventType = "thinking"

	// EventChunk carries an answer-text delta.
	EventChunk EventType = "chunk"

	// EventRestart tells the client to discard all answer text received
	// so far: generation has started over on a fallback model.
	EventRestart EventType = "restart"

	// EventDone closes a successful stream with the full result.
	EventDone EventType = "done"

	// EventError closes a failed stream with a message.
	EventError EventType = "error"
)

// Event is one item of the ordered stream a run emits. Analysis is set
// on metadata events, Text on status/thinking/chunk/error events, and
// Result on done events.
type Event struct {
	Type     EventType            `json:"type"`
	Analysis *types.QueryAnalysis `json:"analysis,omitempty"`
	Text     string               `json:"text,omitempty"`
	Result   *types.RunResult     `json:"result,omitempty"`
}

// Stream runs the pipeline with incremental delivery: metadata first,
// status lines as stages progress, thinking and answer deltas during
// generation, and a terminal done or error event. An error returned by
// emit aborts the run immediately; cancelling ctx does the same.
func (p *Pipeline) Stream(ctx context.Context, question string, emit func(Event) error) error {
	analysis := classify.Analyze(question)
	if err := emit(Event{Type: EventMetadata, Analysis: &analysis}); err != nil {
		return err
	}

	status := func(text string) error {
		return emit(Event{Type: EventStatus, Text: text})
	}

	switch {
	case analysis.HasDirectURL:
		return p.streamDocument(ctx, question, analysis, emit, status)
	case analysis.NeedsSearch:
		return p.streamSearch(ctx, question, emit, status)
	default:
		return p.streamAnswer(ctx, llm.TextRequest(question, nil), nil, nil, "", emit)
	}
}

func (p *Pipeline) streamDocument(ctx context.Context, question string, analysis types.QueryAnalysis, emit func(Event) error, status func(string) error) error {
	if err := status(fmt.Sprintf("acquiring %s", analysis.URL)); err != nil {
		return err
	}

	outcome := p.fetcherFor(analysis.URLKind).Fetch(ctx, analysis.URL)
	if !outcome.OK() {
		return p.fail(emit, fmt.Errorf("acquiring %s: %w", analysis.URL, outcome.Err))
	}

	chunks := p.evidenceFrom(ctx, outcome.Content, sourceLabel(analysis.URL), analysis.URL, "")
	if len(chunks) == 0 {
		return p.refuse(emit)
	}

	if err := status("synthesizing answer"); err != nil {
		return err
	}
	req := llm.TextRequest(synthesis.Prompt(question, chunks), nil)
	return p.streamAnswer(ctx, req, chunks, nil, analysis.URL, emit)
}

func (p *Pipeline) streamSearch(ctx context.Context, question string, emit func(Event) error, status func(string) error) error {
	if err := status("expanding query"); err != nil {
		return err
	}
	eq := p.Expander.Expand(ctx, question)

	if err := status(fmt.Sprintf("searching %d queries", len(eq.Queries))); err != nil {
		return err
	}
	candidates := p.Searcher.Run(ctx, question, eq, p.maxSources())

	chunks, sources, err := p.acquire(ctx, candidates, status)
	if err != nil {
		return err
	}
	if !synthesis.Sufficient(chunks) {
		return p.refuse(emit)
	}

	if err := status("synthesizing answer"); err != nil {
		return err
	}
	req := llm.TextRequest(synthesis.Prompt(question, chunks), nil)
	return p.streamAnswer(ctx, req, chunks, sources, "", emit)
}

// streamAnswer drives the model cascade in streaming mode, forwarding
// deltas and closing the stream with a done event. A nil chunk set
// means the conversational path: no citations, no confidence.
func (p *Pipeline) streamAnswer(ctx context.Context, req llm.Request, chunks []types.EvidenceChunk, sources []string, sourceURL string, emit func(Event) error) error {
	var answer strings.Builder

	err := p.Generator.Stream(ctx, req, func(c llm.StreamChunk) error {
		if c.Restart {
			answer.Reset()
			return emit(Event{Type: EventRestart})
		}
		if c.Thought {
			return emit(Event{Type: EventThinking, Text: c.Text})
		}
		answer.WriteString(c.Text)
		return emit(Event{Type: EventChunk, Text: c.Text})
	})
	if err != nil {
		return p.fail(emit, err)
	}

	result := types.RunResult{
		Success:   true,
		Answer:    strings.TrimSpace(answer.String()),
		Citations: []types.Citation{},
		Sources:   sources,
		SourceURL: sourceURL,
	}
	if len(chunks) > 0 {
		citations := synthesis.CitationsFor(chunks)
		result.Answer = synthesis.StripDanglingCitations(result.Answer, len(citations))
		result.Citations = citations
		result.Confidence = synthesis.ConfidenceFor(chunks)
	}
	return emit(Event{Type: EventDone, Result: &result})
}

// refuse closes the stream with the fixed insufficient-evidence result.
func (p *Pipeline) refuse(emit func(Event) error) error {
	r := synthesis.Refusal()
	result := types.RunResult{
		Success:    true,
		Answer:     r.Answer,
		Citations:  r.Citations,
		Confidence: r.Confidence,
	}
	if err := emit(Event{Type: EventChunk, Text: result.Answer}); err != nil {
		return err
	}
	return emit(Event{Type: EventDone, Result: &result})
}

// fail emits the error event, then reports the failure to the caller.
func (p *Pipeline) fail(emit func(Event) error, err error) error {
	if emitErr := emit(Event{Type: EventError, Text: err.Error()}); emitErr != nil {
		return emitErr
	}
	return err
}
