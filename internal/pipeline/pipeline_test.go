// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/internal/fetch"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/synthesis"
	"github.com/pdiddy/answer-engine/pkg/types"
)

type stubExpander struct {
	eq    types.ExpandedQuery
	calls int
}

func (s *stubExpander) Expand(context.Context, string) types.ExpandedQuery {
	s.calls++
	return s.eq
}

type stubSearcher struct {
	results []types.SearchResult
	calls   int
}

func (s *stubSearcher) Run(context.Context, string, types.ExpandedQuery, int) []types.SearchResult {
	s.calls++
	return s.results
}

// stubFetcher serves scripted outcomes and records the URLs asked for.
type stubFetcher struct {
	outcomes map[string]fetch.Outcome
	calls    []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) fetch.Outcome {
	s.calls = append(s.calls, url)
	if o, ok := s.outcomes[url]; ok {
		return o
	}
	return fetch.Outcome{URL: url, Err: errors.New("unscripted url")}
}

func webOutcome(url, content string) fetch.Outcome {
	return fetch.Outcome{URL: url, SourceType: "webpage", Content: content, Via: "direct"}
}

func pdfOutcome(url, content string) fetch.Outcome {
	return fetch.Outcome{URL: url, SourceType: "pdf", Content: content, Via: "reference"}
}

// stubGenerator answers every generate call with a fixed string and
// streams it in two deltas.
type stubGenerator struct {
	answer    string
	err       error
	generates int
	streams   int
}

func (g *stubGenerator) Generate(context.Context, llm.Request) (string, error) {
	g.generates++
	return g.answer, g.err
}

func (g *stubGenerator) Stream(_ context.Context, _ llm.Request, fn func(llm.StreamChunk) error) error {
	g.streams++
	if g.err != nil {
		return g.err
	}
	half := len(g.answer) / 2
	if err := fn(llm.StreamChunk{Text: g.answer[:half]}); err != nil {
		return err
	}
	return fn(llm.StreamChunk{Text: g.answer[half:]})
}

const pageContent = "The appellate court restored the acquittal in full. " +
	"The statutory notice was held to have been served within the prescribed period. " +
	"Interim compensation under Section 143A was directed to be refunded."

func newPipeline(gen *stubGenerator) (*Pipeline, *stubExpander, *stubSearcher, *stubFetcher, *stubFetcher) {
	expander := &stubExpander{eq: types.ExpandedQuery{
		Intent:  types.IntentLegalResearch,
		Queries: []string{"one", "two"},
	}}
	searcher := &stubSearcher{}
	pdf := &stubFetcher{outcomes: map[string]fetch.Outcome{}}
	web := &stubFetcher{outcomes: map[string]fetch.Outcome{}}

	p := &Pipeline{
		Expander:   expander,
		Searcher:   searcher,
		PDF:        pdf,
		Web:        web,
		Generator:  gen,
		Synth:      &synthesis.Synthesizer{Generator: gen, Log: io.Discard},
		MaxSources: 2,
		Log:        io.Discard,
	}
	return p, expander, searcher, pdf, web
}

func TestRunDirectPDFURL(t *testing.T) {
	gen := &stubGenerator{answer: "The contract terminates on thirty days notice [1]."}
	p, _, searcher, pdf, web := newPipeline(gen)

	url := "https://example.org/docs/contract.pdf"
	pdf.outcomes[url] = pdfOutcome(url, pageContent)

	got := p.Run(context.Background(), "Summarize the termination clause: "+url)

	require.True(t, got.Success, got.Error)
	assert.Equal(t, url, got.SourceURL)
	assert.Equal(t, []string{url}, pdf.calls)
	assert.Empty(t, web.calls, "a PDF URL must not hit the web track")
	assert.Zero(t, searcher.calls, "a direct URL run never searches")
	require.NotEmpty(t, got.Citations)
	assert.Equal(t, url, got.Citations[0].URL)
}

func TestRunDirectURLFetchFailure(t *testing.T) {
	gen := &stubGenerator{answer: "unused"}
	p, _, _, pdf, _ := newPipeline(gen)

	url := "https://example.org/docs/gone.pdf"
	pdf.outcomes[url] = fetch.Outcome{URL: url, Err: errors.New("all PDF strategies exhausted")}

	got := p.Run(context.Background(), "Read "+url)
	assert.False(t, got.Success)
	assert.Contains(t, got.Error, "all PDF strategies exhausted")
}

func TestRunSearchPathToleratesFetchFailures(t *testing.T) {
	gen := &stubGenerator{answer: "The amendment took effect in 2018 [1][2]."}
	p, expander, searcher, _, web := newPipeline(gen)

	searcher.results = []types.SearchResult{
		{Title: "Dead page", Link: "https://a.example/dead", SourceType: "webpage", Position: 1},
		{Title: "Kanoon", Link: "https://indiankanoon.org/doc/1", SourceType: "webpage", Position: 2},
		{Title: "Gazette", Link: "https://egazette.example/notice", SourceType: "webpage", Position: 3},
	}
	web.outcomes["https://indiankanoon.org/doc/1"] = webOutcome("https://indiankanoon.org/doc/1", pageContent)
	web.outcomes["https://egazette.example/notice"] = webOutcome("https://egazette.example/notice", pageContent)

	got := p.Run(context.Background(), "search the web for the 2018 amendment status")

	require.True(t, got.Success, got.Error)
	assert.Equal(t, 1, expander.calls)
	assert.Equal(t, []string{"https://indiankanoon.org/doc/1", "https://egazette.example/notice"}, got.Sources,
		"the dead candidate is skipped, not fatal")
	assert.Len(t, got.Citations, 2)
	assert.NotEqual(t, types.ConfidenceHigh, got.Confidence)
}

func TestRunSearchStopsAtMaxSources(t *testing.T) {
	gen := &stubGenerator{answer: "Answer [1][2]."}
	p, _, searcher, _, web := newPipeline(gen)

	links := []string{"https://a.example/1", "https://b.example/2", "https://c.example/3"}
	for i, l := range links {
		searcher.results = append(searcher.results, types.SearchResult{Link: l, SourceType: "webpage", Position: i + 1})
		web.outcomes[l] = webOutcome(l, pageContent)
	}

	got := p.Run(context.Background(), "search online for anything")
	require.True(t, got.Success)
	assert.Len(t, web.calls, 2, "acquisition stops once MaxSources succeed")
	assert.Len(t, got.Sources, 2)
}

func TestRunSearchRefusesWithNoUsableSources(t *testing.T) {
	gen := &stubGenerator{answer: "unused"}
	p, _, searcher, _, _ := newPipeline(gen)
	searcher.results = nil

	got := p.Run(context.Background(), "search the web for something obscure")

	require.True(t, got.Success, "a refusal is a successful run")
	assert.Equal(t, synthesis.RefusalAnswer, got.Answer)
	assert.Empty(t, got.Citations)
	assert.Equal(t, types.ConfidenceLow, got.Confidence)
	assert.Zero(t, gen.generates, "refusal must not consume a model call")
}

func TestRunPlainQuestionAnswersDirectly(t *testing.T) {
	gen := &stubGenerator{answer: "A cheque bounce attracts Section 138 liability."}
	p, expander, searcher, pdf, web := newPipeline(gen)

	got := p.Run(context.Background(), "What is cheque bounce liability?")

	require.True(t, got.Success)
	assert.Equal(t, gen.answer, got.Answer)
	assert.Empty(t, got.Citations)
	assert.Empty(t, got.Confidence)
	assert.Zero(t, expander.calls)
	assert.Zero(t, searcher.calls)
	assert.Empty(t, pdf.calls)
	assert.Empty(t, web.calls)
	assert.Equal(t, 1, gen.generates)
}

func TestRunPlainQuestionGeneratorFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("all 3 models in cascade failed")}
	p, _, _, _, _ := newPipeline(gen)

	got := p.Run(context.Background(), "What is cheque bounce liability?")
	assert.False(t, got.Success)
	assert.Contains(t, got.Error, "cascade failed")
}

func collectEvents(t *testing.T, p *Pipeline, question string) []Event {
	t.Helper()
	var events []Event
	err := p.Stream(context.Background(), question, func(e Event) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)
	return events
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func TestStreamSearchEventOrdering(t *testing.T) {
	gen := &stubGenerator{answer: "The notice was valid [1][2]."}
	p, _, searcher, _, web := newPipeline(gen)

	searcher.results = []types.SearchResult{
		{Link: "https://a.example/1", SourceType: "webpage", Position: 1},
		{Link: "https://b.example/2", SourceType: "webpage", Position: 2},
	}
	web.outcomes["https://a.example/1"] = webOutcome("https://a.example/1", pageContent)
	web.outcomes["https://b.example/2"] = webOutcome("https://b.example/2", pageContent)

	events := collectEvents(t, p, "search the web for notice validity")

	typesSeen := eventTypes(events)
	require.Equal(t, EventMetadata, typesSeen[0], "metadata must open the stream")
	assert.Equal(t, EventDone, typesSeen[len(typesSeen)-1], "done must close the stream")

	var answer strings.Builder
	firstChunk := -1
	for i, e := range events {
		switch e.Type {
		case EventChunk:
			if firstChunk < 0 {
				firstChunk = i
			}
			answer.WriteString(e.Text)
		case EventStatus:
			assert.Less(t, i, len(events)-1)
			if firstChunk >= 0 {
				t.Errorf("status event at %d after first chunk at %d", i, firstChunk)
			}
		}
	}
	assert.Equal(t, gen.answer, answer.String(), "concatenated deltas rebuild the answer")

	done := events[len(events)-1]
	require.NotNil(t, done.Result)
	assert.True(t, done.Result.Success)
	assert.Len(t, done.Result.Citations, 2)
	assert.Equal(t, []string{"https://a.example/1", "https://b.example/2"}, done.Result.Sources)
}

// fallbackGenerator mimics a cascade fallback: a partial delta from a
// dying model, a restart signal, then the full answer from the next one.
type fallbackGenerator struct {
	partial string
	answer  string
}

func (g *fallbackGenerator) Generate(context.Context, llm.Request) (string, error) {
	return g.answer, nil
}

func (g *fallbackGenerator) Stream(_ context.Context, _ llm.Request, fn func(llm.StreamChunk) error) error {
	for _, c := range []llm.StreamChunk{
		{Text: g.partial},
		{Restart: true},
		{Text: g.answer},
	} {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func TestStreamFallbackDiscardsDeadModelText(t *testing.T) {
	gen := &stubGenerator{answer: "unused"}
	p, _, searcher, _, web := newPipeline(gen)
	p.Generator = &fallbackGenerator{
		partial: "A partial sentence from a dying model ",
		answer:  "The notice was valid [1][2].",
	}

	searcher.results = []types.SearchResult{
		{Link: "https://a.example/1", SourceType: "webpage", Position: 1},
		{Link: "https://b.example/2", SourceType: "webpage", Position: 2},
	}
	web.outcomes["https://a.example/1"] = webOutcome("https://a.example/1", pageContent)
	web.outcomes["https://b.example/2"] = webOutcome("https://b.example/2", pageContent)

	events := collectEvents(t, p, "search the web for notice validity")

	done := events[len(events)-1]
	require.Equal(t, EventDone, done.Type)
	assert.Equal(t, "The notice was valid [1][2].", done.Result.Answer,
		"text delivered before the restart must not prepend the final answer")

	restarts := 0
	var rendered strings.Builder
	for _, e := range events {
		switch e.Type {
		case EventRestart:
			restarts++
			rendered.Reset()
		case EventChunk:
			rendered.WriteString(e.Text)
		}
	}
	assert.Equal(t, 1, restarts)
	assert.Equal(t, done.Result.Answer, strings.TrimSpace(rendered.String()),
		"chunks after the restart rebuild the final answer exactly")
}

func TestStreamRefusalOnNoSources(t *testing.T) {
	gen := &stubGenerator{answer: "unused"}
	p, _, _, _, _ := newPipeline(gen)

	events := collectEvents(t, p, "search the web for nothing findable")

	done := events[len(events)-1]
	require.Equal(t, EventDone, done.Type)
	assert.Equal(t, synthesis.RefusalAnswer, done.Result.Answer)
	assert.Empty(t, done.Result.Citations)
	assert.Zero(t, gen.streams, "refusal must not open a model stream")
}

func TestStreamConsumerAbortStopsRun(t *testing.T) {
	gen := &stubGenerator{answer: "long answer text"}
	p, _, searcher, _, web := newPipeline(gen)

	searcher.results = []types.SearchResult{
		{Link: "https://a.example/1", SourceType: "webpage", Position: 1},
		{Link: "https://b.example/2", SourceType: "webpage", Position: 2},
	}
	web.outcomes["https://a.example/1"] = webOutcome("https://a.example/1", pageContent)
	web.outcomes["https://b.example/2"] = webOutcome("https://b.example/2", pageContent)

	stop := errors.New("client went away")
	count := 0
	err := p.Stream(context.Background(), "search the web for anything", func(Event) error {
		count++
		if count >= 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
}

func TestStreamDirectDocumentCarriesSourceURL(t *testing.T) {
	gen := &stubGenerator{answer: "The clause survives termination [1]."}
	p, _, _, pdf, _ := newPipeline(gen)

	url := "https://example.org/docs/agreement.pdf"
	pdf.outcomes[url] = pdfOutcome(url, pageContent)

	events := collectEvents(t, p, "Explain "+url)

	done := events[len(events)-1]
	require.Equal(t, EventDone, done.Type)
	assert.Equal(t, url, done.Result.SourceURL)
	require.NotEmpty(t, done.Result.Citations)
}

func TestStreamFetchFailureEmitsErrorEvent(t *testing.T) {
	gen := &stubGenerator{answer: "unused"}
	p, _, _, pdf, _ := newPipeline(gen)

	url := "https://example.org/docs/gone.pdf"
	pdf.outcomes[url] = fetch.Outcome{URL: url, Err: errors.New("exhausted")}

	var events []Event
	err := p.Stream(context.Background(), "Read "+url, func(e Event) error {
		events = append(events, e)
		return nil
	})
	require.Error(t, err)

	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Text, "exhausted")
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "Indian Kanoon", sourceLabel("https://indiankanoon.org/doc/1"))
	assert.Equal(t, "example.org", sourceLabel("https://example.org/some/page"))
}
