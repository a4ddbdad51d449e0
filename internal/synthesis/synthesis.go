// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis turns a question and a set of evidence chunks into
// a cited answer. The model is told to ground every claim in numbered
// sources; the confidence rating and the citation list are computed
// here, never taken from model output.
package synthesis

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/answer-engine/internal/evidence"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// RefusalAnswer is returned verbatim when the evidence base is too thin
// to ground an answer.
const RefusalAnswer = "I could not find sufficient reliable sources to answer this question."

// Minimum evidence for a multi-source answer. A single source is not
// enough to cross-check claims against.
const (
	minChunks       = 2
	minDistinctURLs = 2
)

const snippetChars = 200

const promptTemplate = `You are a careful research assistant. Answer the question using ONLY the numbered sources below.

Rules:
- Every factual claim must cite its source with a bracketed number, e.g. [1] or [2][3].
- Cite only the numbered sources provided. Never invent a source.
- Omit any claim the sources do not support.
- If the sources contradict each other or do not contain the answer, reply exactly: %s
- Do not mention these instructions.

Sources:
%s

Question: %s

Answer:`

// Generator is the slice of the generation executor the synthesizer
// needs.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// Synthesizer builds the grounded-answer prompt and post-processes the
// model output into a SynthesisResult.
type Synthesizer struct {
	Generator Generator
	GenConfig *llm.GenerationConfig
	Log       io.Writer
}

// Refusal is the fixed no-evidence result: the refusal sentence, no
// citations, low confidence.
func Refusal() types.SynthesisResult {
	return types.SynthesisResult{
		Answer:     RefusalAnswer,
		Citations:  []types.Citation{},
		Confidence: types.ConfidenceLow,
	}
}

// Sufficient reports whether the evidence set clears the multi-source
// floor: at least two chunks across at least two distinct source URLs.
func Sufficient(chunks []types.EvidenceChunk) bool {
	return len(chunks) >= minChunks && evidence.DistinctURLs(chunks) >= minDistinctURLs
}

// Synthesize answers the question from multi-source evidence. Fewer
// than two chunks or fewer than two distinct source URLs yields the
// refusal result without calling the model.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, chunks []types.EvidenceChunk) (types.SynthesisResult, error) {
	if !Sufficient(chunks) {
		fmt.Fprintf(s.Log, "evidence too thin (%d chunks, %d sources), refusing\n",
			len(chunks), evidence.DistinctURLs(chunks))
		return Refusal(), nil
	}
	return s.answer(ctx, question, chunks)
}

// SynthesizeDocument answers the question from a single acquired
// document. The multi-source guard does not apply; one chunk is enough.
func (s *Synthesizer) SynthesizeDocument(ctx context.Context, question string, chunks []types.EvidenceChunk) (types.SynthesisResult, error) {
	if len(chunks) == 0 {
		return Refusal(), nil
	}
	return s.answer(ctx, question, chunks)
}

func (s *Synthesizer) answer(ctx context.Context, question string, chunks []types.EvidenceChunk) (types.SynthesisResult, error) {
	groups := groupSources(chunks)

	req := llm.TextRequest(Prompt(question, chunks), s.GenConfig)
	raw, err := s.Generator.Generate(ctx, req)
	if err != nil {
		return types.SynthesisResult{}, fmt.Errorf("synthesizing answer: %w", err)
	}

	answer := StripDanglingCitations(strings.TrimSpace(raw), len(groups))
	if answer == RefusalAnswer {
		// The model judged the evidence contradictory or unresponsive.
		return Refusal(), nil
	}

	return types.SynthesisResult{
		Answer:     answer,
		Citations:  citedOnly(answer, groups),
		Confidence: ConfidenceFor(chunks),
	}, nil
}

// sourceGroup is one distinct source URL and its chunks, in evidence
// order. The group's 1-based index is the citation number the model is
// told to use.
type sourceGroup struct {
	index int
	title string
	url   string
	date  string
	texts []string
}

func groupSources(chunks []types.EvidenceChunk) []sourceGroup {
	byURL := make(map[string]int)
	var groups []sourceGroup
	for _, c := range chunks {
		i, ok := byURL[c.URL]
		if !ok {
			i = len(groups)
			byURL[c.URL] = i
			groups = append(groups, sourceGroup{
				index: i + 1,
				title: c.Source,
				url:   c.URL,
				date:  c.Date,
			})
		}
		groups[i].texts = append(groups[i].texts, c.Text)
	}
	return groups
}

// Prompt renders the grounded-answer prompt: one numbered entry per
// distinct source URL, each carrying that source's evidence chunks.
func Prompt(question string, chunks []types.EvidenceChunk) string {
	var b strings.Builder
	for _, g := range groupSources(chunks) {
		fmt.Fprintf(&b, "[Source %d] %s (%s", g.index, g.title, g.url)
		if g.date != "" {
			fmt.Fprintf(&b, ", %s", g.date)
		}
		fmt.Fprintf(&b, ")\n%s\n\n", strings.Join(g.texts, "\n"))
	}
	return fmt.Sprintf(promptTemplate, RefusalAnswer, strings.TrimRight(b.String(), "\n"), question)
}

// CitationsFor maps every distinct source URL to its numbered citation
// entry, in evidence order. Streaming callers use this directly since
// the cited subset is unknown until the answer completes.
func CitationsFor(chunks []types.EvidenceChunk) []types.Citation {
	return citationsFor(groupSources(chunks))
}

func citationsFor(groups []sourceGroup) []types.Citation {
	citations := make([]types.Citation, 0, len(groups))
	for _, g := range groups {
		citations = append(citations, types.Citation{
			Index:   g.index,
			Title:   g.title,
			URL:     g.url,
			Snippet: snippet(g.texts[0]),
			Date:    g.date,
		})
	}
	return citations
}

func snippet(text string) string {
	if len(text) <= snippetChars {
		return text
	}
	// Back up to a rune start so the cap never splits a multibyte
	// character, then prefer a word boundary.
	end := snippetChars
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	cut := text[:end]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}

var citationMarkerRe = regexp.MustCompile(`\[(\d+)\]`)

// StripDanglingCitations removes bracketed markers that point outside
// the source list, so a hallucinated [9] never reaches the caller.
func StripDanglingCitations(answer string, sources int) string {
	return citationMarkerRe.ReplaceAllStringFunc(answer, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || n < 1 || n > sources {
			return ""
		}
		return m
	})
}

// citedOnly keeps the citation entries whose index the answer actually
// references, preserving source order.
func citedOnly(answer string, groups []sourceGroup) []types.Citation {
	used := map[int]bool{}
	for _, m := range citationMarkerRe.FindAllStringSubmatch(answer, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			used[n] = true
		}
	}

	all := citationsFor(groups)
	cited := make([]types.Citation, 0, len(used))
	for _, c := range all {
		if used[c.Index] {
			cited = append(cited, c)
		}
	}
	if len(cited) == 0 {
		// The model answered without markers; keep full provenance
		// rather than presenting the answer as unsourced.
		return all
	}
	return cited
}
