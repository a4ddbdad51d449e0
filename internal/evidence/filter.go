// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"text/template"
	"unicode/utf8"
)

// filterInputCap bounds how much of a source the filter pass reads.
const filterInputCap = 8000

// Backend abstracts the model call so tests can supply a mock.
type Backend interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// filterPromptTmpl asks the model to keep only verifiable statements.
var filterPromptTmpl = template.Must(template.New("filter").Parse(`From the text below, keep only factual, verifiable statements. Remove opinion, speculation, marketing and promotional language, and calls to action. Preserve named entities, dates, section numbers, figures, and stated findings exactly as written. Do not add anything. Output the retained text only.

Text:
{{.Text}}
`))

// Filter strips opinion and speculation from fetched source text. It is a
// quality enhancement, never a gate: any failure, an empty result, or a
// result below minUsable characters returns the original text unchanged.
type Filter struct {
	Backend   Backend
	Model     string
	MinUsable int
	Log       io.Writer
}

// Apply returns the factual-only rendition of content, or content itself
// when filtering cannot improve on it.
func (f *Filter) Apply(ctx context.Context, content string) string {
	input := content
	if len(input) > filterInputCap {
		// Back up to a rune start so the cap never splits a multibyte
		// character mid-sequence.
		end := filterInputCap
		for end > 0 && !utf8.RuneStart(input[end]) {
			end--
		}
		input = input[:end]
	}

	var buf bytes.Buffer
	if err := filterPromptTmpl.Execute(&buf, struct{ Text string }{input}); err != nil {
		fmt.Fprintf(f.Log, "warning: filter prompt render failed: %v\n", err)
		return content
	}

	filtered, err := f.Backend.GenerateText(ctx, f.Model, buf.String())
	if err != nil {
		fmt.Fprintf(f.Log, "warning: evidence filter failed, keeping unfiltered text: %v\n", err)
		return content
	}

	filtered = strings.TrimSpace(filtered)
	if len(filtered) < f.MinUsable {
		// Filtering stripped too much; the unfiltered text remains the
		// citation source so a fetched source is never starved.
		return content
	}
	return filtered
}
