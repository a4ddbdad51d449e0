// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EvidenceChunk is a bounded, single-idea fragment of acquired text with
// provenance. Chunks stay under roughly 500 tokens (about 4 characters per
// token) unless a single sentence alone exceeds that budget.
type EvidenceChunk struct {
	// Text is the chunk body.
	Text string `json:"text" yaml:"text"`

	// Source is a human-readable label for where the text came from
	// (result title or host name).
	Source string `json:"source" yaml:"source"`

	// URL is the source URL the chunk was acquired from.
	URL string `json:"url" yaml:"url"`

	// Date is the source's publication date, when known.
	Date string `json:"date,omitempty" yaml:"date,omitempty"`
}

// Citation links a bracketed index in the answer to its source. Indexes
// are 1-based and stable between the answer text and the source list.
type Citation struct {
	Index   int    `json:"index" yaml:"index"`
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`
	Date    string `json:"date,omitempty" yaml:"date,omitempty"`
}

// Confidence is a deterministic, evidence-shape-derived answer rating.
// It is computed from chunk and source counts, never by the model.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// SynthesisResult is the terminal artifact of one pipeline run.
type SynthesisResult struct {
	Answer     string     `json:"answer" yaml:"answer"`
	Citations  []Citation `json:"citations" yaml:"citations"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
}
