// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// ErrNoCredentials marks a provider that has no API key configured. It is
// a valid configuration state, not a fault; the orchestrator answers it
// with the model-simulated fallback.
var ErrNoCredentials = errors.New("search provider has no API key configured")

// Options narrows a single provider query.
type Options struct {
	// MaxResults caps results for this query (provider-side).
	MaxResults int

	// FileType restricts results to one file type (e.g. "pdf"), when the
	// provider supports it.
	FileType string
}

// Provider is one way of turning a query string into candidate results.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, opts Options) ([]types.SearchResult, error)
}

// defaultSerperURL is the production endpoint; tests substitute their own.
const defaultSerperURL = "https://google.serper.dev/search"

// SerperProvider calls a serper.dev-style search API.
type SerperProvider struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// NewSerperProvider returns a provider against the production endpoint.
func NewSerperProvider(apiKey string, timeout time.Duration) *SerperProvider {
	return &SerperProvider{
		APIKey:  apiKey,
		BaseURL: defaultSerperURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (p *SerperProvider) Name() string { return "serper" }

// serperRequest is the search API request body.
type serperRequest struct {
	Query    string `json:"q"`
	Num      int    `json:"num,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// serperResponse is the subset of the response the pipeline consumes.
type serperResponse struct {
	Organic []serperOrganic `json:"organic"`
}

type serperOrganic struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
	Date     string `json:"date"`
}

// Search issues one provider query. Without credentials it returns
// ErrNoCredentials immediately.
func (p *SerperProvider) Search(ctx context.Context, query string, opts Options) ([]types.SearchResult, error) {
	if p.APIKey == "" {
		return nil, ErrNoCredentials
	}
	if opts.FileType != "" {
		query = query + " filetype:" + opts.FileType
	}

	payload, err := json.Marshal(serperRequest{Query: query, Num: opts.MaxResults})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", p.APIKey)

	resp, err := httputil.DoWithRetry(ctx, p.HTTP, req, 2)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search API returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(parsed.Organic))
	for i, o := range parsed.Organic {
		pos := o.Position
		if pos == 0 {
			pos = i + 1
		}
		results = append(results, types.SearchResult{
			Title:    o.Title,
			Link:     o.Link,
			Snippet:  o.Snippet,
			Position: pos,
			Date:     o.Date,
		})
	}
	return results, nil
}
