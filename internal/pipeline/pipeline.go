// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the stages into the three run shapes: answer
// from a directly referenced document, answer from searched-and-fetched
// sources, or answer conversationally with no acquisition at all. The
// query classification alone picks the shape.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/pdiddy/answer-engine/internal/classify"
	"github.com/pdiddy/answer-engine/internal/evidence"
	"github.com/pdiddy/answer-engine/internal/fetch"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/search"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Expander produces search queries from a question.
type Expander interface {
	Expand(ctx context.Context, question string) types.ExpandedQuery
}

// Searcher returns screened, ranked source candidates.
type Searcher interface {
	Run(ctx context.Context, question string, eq types.ExpandedQuery, want int) []types.SearchResult
}

// Fetcher acquires the content of one URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) fetch.Outcome
}

// Filterer reduces fetched text to factual content.
type Filterer interface {
	Apply(ctx context.Context, content string) string
}

// Synthesizer produces the cited answer from evidence.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, chunks []types.EvidenceChunk) (types.SynthesisResult, error)
	SynthesizeDocument(ctx context.Context, question string, chunks []types.EvidenceChunk) (types.SynthesisResult, error)
}

// Generator runs the model cascade directly, for the no-acquisition path
// and for streaming synthesis.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
	Stream(ctx context.Context, req llm.Request, fn func(llm.StreamChunk) error) error
}

// Pipeline owns one run of the question-to-answer flow. All collaborators
// are constructed at process startup and injected; the pipeline itself
// holds no per-run state.
type Pipeline struct {
	Expander  Expander
	Searcher  Searcher
	PDF       Fetcher
	Web       Fetcher
	Filter    Filterer // nil disables the factual-content pass
	Generator Generator
	Synth     Synthesizer

	// MaxSources is how many sources a search-driven run grounds the
	// answer in; acquisition stops once that many succeed.
	MaxSources int

	Log io.Writer
}

func (p *Pipeline) maxSources() int {
	if p.MaxSources > 0 {
		return p.MaxSources
	}
	return 5
}

// Run executes the pipeline once, blocking until the answer is complete.
// Failures surface in the result envelope; an insufficient-evidence
// refusal is a successful run.
func (p *Pipeline) Run(ctx context.Context, question string) types.RunResult {
	analysis := classify.Analyze(question)

	switch {
	case analysis.HasDirectURL:
		fmt.Fprintf(p.Log, "direct %s URL: %s\n", analysis.URLKind, analysis.URL)
		return p.runDocument(ctx, question, analysis)
	case analysis.NeedsSearch:
		return p.runSearch(ctx, question)
	default:
		return p.runDirect(ctx, question)
	}
}

// runDocument answers from the single document the query points at.
func (p *Pipeline) runDocument(ctx context.Context, question string, analysis types.QueryAnalysis) types.RunResult {
	outcome := p.fetcherFor(analysis.URLKind).Fetch(ctx, analysis.URL)
	if !outcome.OK() {
		return failed(fmt.Errorf("acquiring %s: %w", analysis.URL, outcome.Err))
	}

	chunks := p.evidenceFrom(ctx, outcome.Content, sourceLabel(analysis.URL), analysis.URL, "")
	res, err := p.Synth.SynthesizeDocument(ctx, question, chunks)
	if err != nil {
		return failed(err)
	}

	return types.RunResult{
		Success:    true,
		Answer:     res.Answer,
		Citations:  res.Citations,
		Confidence: res.Confidence,
		SourceURL:  analysis.URL,
	}
}

// runSearch answers from searched-and-fetched web sources.
func (p *Pipeline) runSearch(ctx context.Context, question string) types.RunResult {
	eq := p.Expander.Expand(ctx, question)
	fmt.Fprintf(p.Log, "expanded to %d queries (intent %s)\n", len(eq.Queries), eq.Intent)

	candidates := p.Searcher.Run(ctx, question, eq, p.maxSources())
	fmt.Fprintf(p.Log, "search pooled %d candidates\n", len(candidates))

	chunks, sources, err := p.acquire(ctx, candidates, nil)
	if err != nil {
		return failed(err)
	}

	res, err := p.Synth.Synthesize(ctx, question, chunks)
	if err != nil {
		return failed(err)
	}

	return types.RunResult{
		Success:    true,
		Answer:     res.Answer,
		Citations:  res.Citations,
		Confidence: res.Confidence,
		Sources:    sources,
	}
}

// runDirect answers conversationally, with no acquisition and no
// citations.
func (p *Pipeline) runDirect(ctx context.Context, question string) types.RunResult {
	answer, err := p.Generator.Generate(ctx, llm.TextRequest(question, nil))
	if err != nil {
		return failed(err)
	}
	return types.RunResult{
		Success:   true,
		Answer:    strings.TrimSpace(answer),
		Citations: []types.Citation{},
	}
}

// acquire fetches candidates in rank order until MaxSources succeed,
// tolerating individual failures. note, when non-nil, receives one
// progress line per attempted source and may abort the loop by
// returning an error.
func (p *Pipeline) acquire(ctx context.Context, candidates []types.SearchResult, note func(string) error) ([]types.EvidenceChunk, []string, error) {
	var chunks []types.EvidenceChunk
	var sources []string

	for _, c := range candidates {
		if len(sources) >= p.maxSources() || ctx.Err() != nil {
			break
		}

		if note != nil {
			if err := note(fmt.Sprintf("fetching %s", c.Link)); err != nil {
				return nil, nil, err
			}
		}

		var outcome fetch.Outcome
		if c.SourceType == "pdf" {
			outcome = p.PDF.Fetch(ctx, c.Link)
		} else {
			outcome = p.Web.Fetch(ctx, c.Link)
		}
		if !outcome.OK() {
			fmt.Fprintf(p.Log, "warning: skipping %s: %v\n", c.Link, outcome.Err)
			continue
		}

		label := c.Title
		if label == "" {
			label = sourceLabel(c.Link)
		}
		chunks = append(chunks, p.evidenceFrom(ctx, outcome.Content, label, c.Link, c.Date)...)
		sources = append(sources, c.Link)
	}

	fmt.Fprintf(p.Log, "acquired %d sources, %d evidence chunks\n", len(sources), len(chunks))
	return chunks, sources, nil
}

// evidenceFrom optionally filters the content, then chunks it with
// provenance attached.
func (p *Pipeline) evidenceFrom(ctx context.Context, content, label, url, date string) []types.EvidenceChunk {
	if p.Filter != nil {
		content = p.Filter.Apply(ctx, content)
	}
	return evidence.Chunk(content, label, url, date)
}

func (p *Pipeline) fetcherFor(kind types.URLKind) Fetcher {
	if kind == types.URLPDF {
		return p.PDF
	}
	return p.Web
}

// sourceLabel names a URL for display: the curated label when the host
// is a known source, the bare host otherwise.
func sourceLabel(rawURL string) string {
	if label, ok := search.KnownSource(rawURL); ok {
		return label
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}

func failed(err error) types.RunResult {
	return types.RunResult{
		Success:   false,
		Citations: []types.Citation{},
		Error:     err.Error(),
	}
}
