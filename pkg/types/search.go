// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SearchResult is one candidate source returned by a search provider.
// Link is the unique key within a run; Position is the provider-reported
// relevance rank (lower wins ties across pooled queries).
type SearchResult struct {
	// Title is the result title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Link is the result URL and the deduplication key across queries.
	Link string `json:"link" yaml:"link"`

	// Snippet is the provider's short excerpt for the result.
	Snippet string `json:"snippet" yaml:"snippet"`

	// SourceType is "pdf" or "webpage" as classified during filtering.
	SourceType string `json:"source_type" yaml:"source_type"`

	// Position is the provider-reported rank, 1-based within one query.
	Position int `json:"position" yaml:"position"`

	// Date is the provider-reported publication date, when available.
	Date string `json:"date,omitempty" yaml:"date,omitempty"`
}
