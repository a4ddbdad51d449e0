// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/pdiddy/answer-engine/internal/expand"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Backend abstracts the model call for the simulated-search fallback.
type Backend interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// llmSearchPromptTmpl asks the model to act as a search engine and return
// candidate sources as a bare JSON array.
var llmSearchPromptTmpl = template.Must(template.New("llmsearch").Parse(`You are acting as a web search engine for a legal research assistant. Using everything you know (including any built-in search capability), list up to {{.Max}} real, publicly reachable sources that would answer this query. Prefer official portals, court websites, and established legal publishers.

Respond with a single JSON array and nothing else. Each element:
{"title": "...", "url": "https://...", "snippet": "one-sentence summary", "type": "pdf" or "webpage"}

Only include URLs you believe actually exist. Do not invent paths.

Query:
{{.Query}}
`))

// LLMProvider simulates a search provider with a model call. It is the
// wholesale fallback when the primary provider is unconfigured, errors
// out, or returns nothing useful.
type LLMProvider struct {
	Backend Backend
	Model   string
}

func (p *LLMProvider) Name() string { return "llm-fallback" }

// llmSearchItem mirrors one element of the JSON array the model returns.
type llmSearchItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Type    string `json:"type"`
}

// Search asks the model for candidate sources.
func (p *LLMProvider) Search(ctx context.Context, query string, opts Options) ([]types.SearchResult, error) {
	max := opts.MaxResults
	if max <= 0 {
		max = 10
	}

	var buf bytes.Buffer
	if err := llmSearchPromptTmpl.Execute(&buf, struct {
		Query string
		Max   int
	}{query, max}); err != nil {
		return nil, fmt.Errorf("rendering search prompt: %w", err)
	}

	raw, err := p.Backend.GenerateText(ctx, p.Model, buf.String())
	if err != nil {
		return nil, fmt.Errorf("model search call: %w", err)
	}

	arr := expand.FirstJSONArray(raw)
	if arr == "" {
		return nil, fmt.Errorf("no JSON array in model search response")
	}

	var items []llmSearchItem
	if err := json.Unmarshal([]byte(arr), &items); err != nil {
		return nil, fmt.Errorf("parsing model search response: %w", err)
	}

	var results []types.SearchResult
	for i, item := range items {
		if item.URL == "" {
			continue
		}
		results = append(results, types.SearchResult{
			Title:      item.Title,
			Link:       item.URL,
			Snippet:    item.Snippet,
			SourceType: item.Type,
			Position:   i + 1,
		})
		if len(results) >= max {
			break
		}
	}
	return results, nil
}
