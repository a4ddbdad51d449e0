// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/answer-engine/internal/classify"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Orchestrator runs the expanded queries against the primary provider,
// screens and pools the results, and falls back to the model-simulated
// provider at most once per invocation.
type Orchestrator struct {
	Primary  Provider
	Fallback Provider

	// MaxPerQuery caps results requested per expanded query (≤10).
	MaxPerQuery int

	Log io.Writer
}

// Run returns up to 2×want deduplicated, rank-sorted candidates for the
// expanded queries. Queries are issued in sequence to respect provider
// rate limits; a single query failure is logged and the loop continues.
func (o *Orchestrator) Run(ctx context.Context, question string, eq types.ExpandedQuery, want int) []types.SearchResult {
	perQuery := o.MaxPerQuery
	if perQuery <= 0 || perQuery > 10 {
		perQuery = 10
	}

	seen := make(map[string]bool)
	var pool []types.SearchResult

	for _, q := range eq.Queries {
		results, err := o.Primary.Search(ctx, q, Options{MaxResults: perQuery})
		if err != nil {
			fmt.Fprintf(o.Log, "warning: search %q via %s failed: %v\n", q, o.Primary.Name(), err)
			if errors.Is(err, ErrNoCredentials) {
				// Every remaining query would fail identically.
				break
			}
			continue
		}
		pool = append(pool, screen(results, seen)...)
	}

	if len(pool) == 0 {
		pool = append(pool, o.runFallback(ctx, question, perQuery, seen)...)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Position < pool[j].Position
	})

	// Keep twice the requested count as headroom for acquisition failures.
	if max := 2 * want; want > 0 && len(pool) > max {
		pool = pool[:max]
	}
	return pool
}

// runFallback invokes the LLM-simulated provider once with the original
// question.
func (o *Orchestrator) runFallback(ctx context.Context, question string, perQuery int, seen map[string]bool) []types.SearchResult {
	if o.Fallback == nil {
		return nil
	}
	fmt.Fprintf(o.Log, "primary search exhausted, falling back to %s\n", o.Fallback.Name())

	results, err := o.Fallback.Search(ctx, question, Options{MaxResults: perQuery})
	if err != nil {
		fmt.Fprintf(o.Log, "warning: %s failed: %v\n", o.Fallback.Name(), err)
		return nil
	}
	return screen(results, seen)
}

// screen drops blocked and unclassifiable results, fills in SourceType,
// and deduplicates by link against the running seen-set.
func screen(results []types.SearchResult, seen map[string]bool) []types.SearchResult {
	var kept []types.SearchResult
	for _, r := range results {
		if r.Link == "" || seen[r.Link] || IsBlocked(r.Link) {
			continue
		}

		kind := classify.KindOfURL(r.Link)
		if kind == types.URLNone {
			continue
		}
		r.SourceType = kind.String()

		seen[r.Link] = true
		kept = append(kept, r)
	}
	return kept
}
