// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RunResult is the caller-facing envelope for one non-streaming pipeline
// run. An insufficient-evidence refusal is a successful run with low
// confidence and empty citations, not an error.
type RunResult struct {
	Success    bool       `json:"success" yaml:"success"`
	Answer     string     `json:"answer,omitempty" yaml:"answer,omitempty"`
	Citations  []Citation `json:"citations" yaml:"citations"`
	Confidence Confidence `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// SourceURL is set on direct-URL runs: the single document answered from.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// Sources lists the URLs whose content backed a search-driven answer.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Error is the user-visible failure message when Success is false.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
