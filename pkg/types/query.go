// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the answer-engine pipeline.
package types

// Intent labels what the user is trying to accomplish with a question.
type Intent string

const (
	IntentLegalResearch Intent = "legal_research"
	IntentFactual       Intent = "factual"
	IntentNews          Intent = "news"
	IntentComparative   Intent = "comparative"
)

// URLKind classifies a URL embedded in the user's query.
type URLKind int

const (
	URLNone URLKind = iota
	URLPDF
	URLWebpage
)

func (k URLKind) String() string {
	switch k {
	case URLPDF:
		return "pdf"
	case URLWebpage:
		return "webpage"
	default:
		return "none"
	}
}

// QueryAnalysis is the deterministic classification of a raw query. It is
// derived once per run and never mutated afterward.
type QueryAnalysis struct {
	// HasDirectURL reports whether the query embeds a usable URL.
	HasDirectURL bool `json:"has_direct_url" yaml:"has_direct_url"`

	// URLKind classifies the first embedded URL as pdf, webpage, or none.
	URLKind URLKind `json:"url_kind" yaml:"url_kind"`

	// URL is the first embedded URL with trailing punctuation stripped,
	// empty when HasDirectURL is false.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// NeedsSearch reports whether the query contains an explicit
	// search-the-web trigger phrase and no direct URL.
	NeedsSearch bool `json:"needs_search" yaml:"needs_search"`
}

// ExpandedQuery is the model-assisted expansion of a question into search
// queries. Created once per pipeline run; expansion failure substitutes
// the original question under the legal_research intent.
type ExpandedQuery struct {
	Intent  Intent   `json:"intent" yaml:"intent"`
	Queries []string `json:"queries" yaml:"queries"`
}
