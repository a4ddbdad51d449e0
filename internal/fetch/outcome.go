// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch acquires source content through ordered strategy
// cascades: a PDF track (direct model reference, drive-link rewrites,
// download-and-inline) and a web-page track (direct GET, headless
// renderer, extraction API). Strategies run strictly one at a time, each
// more expensive than the last.
package fetch

import "fmt"

// Outcome is the closed result of acquiring one source. Exactly one of
// Content or Err is meaningful; use OK to branch.
type Outcome struct {
	// URL is the source URL the cascade was asked to acquire.
	URL string

	// SourceType is "pdf" or "webpage".
	SourceType string

	// Content is the extracted text on success.
	Content string

	// Via names the strategy that produced the content.
	Via string

	// Err is the aggregated failure after every strategy was exhausted.
	Err error
}

// OK reports whether the cascade succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

func success(url, sourceType, content, via string) Outcome {
	return Outcome{URL: url, SourceType: sourceType, Content: content, Via: via}
}

func failure(url, sourceType string, err error) Outcome {
	return Outcome{URL: url, SourceType: sourceType, Err: err}
}

// usable applies the cascade-wide floor: a result under min characters is
// a failure no matter which strategy produced it.
func usable(content string, min int) error {
	if len(content) < min {
		return fmt.Errorf("extracted only %d usable characters (minimum %d)", len(content), min)
	}
	return nil
}
