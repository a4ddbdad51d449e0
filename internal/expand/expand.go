// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package expand turns a natural-language question into an intent label
// and a small set of search queries via the model backend. Expansion is a
// soft step: any failure substitutes the original question and the run
// continues.
package expand

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/pdiddy/answer-engine/pkg/types"
)

const (
	minQueries = 3
	maxQueries = 5
)

// Backend abstracts the model call so tests can supply a mock.
type Backend interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// expansionPromptTmpl instructs the model to return the intent and search
// queries as a bare JSON object.
var expansionPromptTmpl = template.Must(template.New("expansion").Parse(`You are a search query planner for a legal research assistant. Given a user question, classify its intent and write {{.Min}} to {{.Max}} web search queries that together would surface authoritative sources answering it.

intent must be one of: "legal_research", "factual", "news", "comparative".

Prefer queries that name specific statutes, sections, case names, or years when the question implies them. Keep each query under 12 words.

Respond with a single JSON object and nothing else:
{"intent": "legal_research", "queries": ["query one", "query two", "query three"]}

Question:
{{.Question}}
`))

// Expander produces ExpandedQuery values for the pipeline.
type Expander struct {
	Backend Backend
	Model   string
	Log     io.Writer
}

// expansionResponse mirrors the JSON object the model is asked for.
type expansionResponse struct {
	Intent  string   `json:"intent"`
	Queries []string `json:"queries"`
}

// Expand asks the model for an intent and search queries. On any call or
// parse failure it returns the original question under the legal_research
// intent; it never fails the run.
func (e *Expander) Expand(ctx context.Context, question string) types.ExpandedQuery {
	fallback := types.ExpandedQuery{
		Intent:  types.IntentLegalResearch,
		Queries: []string{question},
	}

	prompt, err := renderPrompt(question)
	if err != nil {
		fmt.Fprintf(e.Log, "warning: expansion prompt render failed: %v\n", err)
		return fallback
	}

	raw, err := e.Backend.GenerateText(ctx, e.Model, prompt)
	if err != nil {
		fmt.Fprintf(e.Log, "warning: query expansion failed: %v\n", err)
		return fallback
	}

	obj := FirstJSONObject(raw)
	if obj == "" {
		fmt.Fprintf(e.Log, "warning: no JSON object in expansion response\n")
		return fallback
	}

	var parsed expansionResponse
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		fmt.Fprintf(e.Log, "warning: parsing expansion response: %v\n", err)
		return fallback
	}

	queries := cleanQueries(parsed.Queries)
	if len(queries) == 0 {
		return fallback
	}
	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}

	return types.ExpandedQuery{
		Intent:  intentOrDefault(parsed.Intent),
		Queries: queries,
	}
}

func renderPrompt(question string) (string, error) {
	var buf bytes.Buffer
	err := expansionPromptTmpl.Execute(&buf, struct {
		Question string
		Min, Max int
	}{question, minQueries, maxQueries})
	return buf.String(), err
}

// intentOrDefault validates the model's intent label.
func intentOrDefault(s string) types.Intent {
	switch types.Intent(strings.TrimSpace(strings.ToLower(s))) {
	case types.IntentFactual:
		return types.IntentFactual
	case types.IntentNews:
		return types.IntentNews
	case types.IntentComparative:
		return types.IntentComparative
	default:
		return types.IntentLegalResearch
	}
}

func cleanQueries(queries []string) []string {
	var out []string
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// FirstJSONObject returns the first balanced {...} region of s, or ""
// when none exists. Braces inside JSON strings are skipped.
func FirstJSONObject(s string) string {
	return firstBalanced(s, '{', '}')
}

// FirstJSONArray returns the first balanced [...] region of s, or "".
func FirstJSONArray(s string) string {
	return firstBalanced(s, '[', ']')
}

func firstBalanced(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
