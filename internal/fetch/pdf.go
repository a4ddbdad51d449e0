// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// extractionPrompt asks the model to transcribe the factual content of an
// attached document. Both the file-reference and inline strategies use it.
const extractionPrompt = `Extract the full text content of the attached document. Preserve headings, section numbers, dates, names, and figures exactly as written. Output only the document text, with no commentary.`

// Backend is the model capability the PDF track needs.
type Backend interface {
	GenerateContent(ctx context.Context, model string, req llm.Request) (string, error)
}

// PDFFetcher acquires PDF content: first by public-URI reference (zero
// download cost), then via drive-link rewrites, finally by downloading
// and inlining the bytes.
type PDFFetcher struct {
	Backend Backend
	Model   string
	HTTP    *http.Client
	Config  types.FetchConfig
	Log     io.Writer
}

// Fetch runs the PDF cascade for one URL. The first success
// short-circuits; only exhaustion of all strategies yields a failure.
func (f *PDFFetcher) Fetch(ctx context.Context, url string) Outcome {
	var lastErr error

	// Strategy 1: reference the document by its public URI.
	content, err := f.extractByReference(ctx, url)
	if err == nil {
		return success(url, "pdf", content, "reference")
	}
	lastErr = err
	fmt.Fprintf(f.Log, "  pdf reference failed for %s: %v\n", url, err)

	// Strategy 2: alternate cloud-drive shapes, retried as references.
	rewrites := DriveRewrites(url)
	if len(rewrites) > maxDriveRewrites {
		rewrites = rewrites[:maxDriveRewrites]
	}
	for _, alt := range rewrites {
		if ctx.Err() != nil {
			return failure(url, "pdf", ctx.Err())
		}
		content, err = f.extractByReference(ctx, alt)
		if err == nil {
			return success(url, "pdf", content, "reference-rewrite")
		}
		lastErr = err
		fmt.Fprintf(f.Log, "  pdf reference failed for rewrite %s: %v\n", alt, err)
	}

	// Strategy 3: download and submit the bytes inline.
	content, err = f.extractInline(ctx, url)
	if err == nil {
		return success(url, "pdf", content, "inline")
	}
	lastErr = err
	fmt.Fprintf(f.Log, "  pdf download failed for %s: %v\n", url, err)

	return failure(url, "pdf", fmt.Errorf("all PDF strategies exhausted for %s: %w", url, lastErr))
}

// extractByReference sends the URL as fileData and asks for a transcription.
func (f *PDFFetcher) extractByReference(ctx context.Context, url string) (string, error) {
	req := llm.Request{Contents: []llm.Content{{
		Role: "user",
		Parts: []llm.Part{
			{FileData: &llm.FileData{FileURI: url, MIMEType: "application/pdf"}},
			{Text: extractionPrompt},
		},
	}}}

	content, err := f.Backend.GenerateContent(ctx, f.Model, req)
	if err != nil {
		return "", err
	}
	if err := usable(content, f.Config.MinUsableChars); err != nil {
		return "", err
	}
	return content, nil
}

// extractInline downloads the PDF and submits it as inline base64 data.
func (f *PDFFetcher) extractInline(ctx context.Context, url string) (string, error) {
	raw, err := f.Download(ctx, url)
	if err != nil {
		return "", err
	}

	req := llm.Request{Contents: []llm.Content{{
		Role: "user",
		Parts: []llm.Part{
			{InlineData: &llm.Blob{MIMEType: "application/pdf", Data: base64.StdEncoding.EncodeToString(raw)}},
			{Text: extractionPrompt},
		},
	}}}

	content, err := f.Backend.GenerateContent(ctx, f.Model, req)
	if err != nil {
		return "", err
	}
	if err := usable(content, f.Config.MinUsableChars); err != nil {
		return "", err
	}
	return content, nil
}

// InlineRequest rewrites every file-reference part of req into inline
// base64 data by downloading the referenced document. It backs the
// generation executor's reacquisition hook for models that cannot read
// the URI themselves. The bool reports whether any part changed.
func (f *PDFFetcher) InlineRequest(ctx context.Context, req llm.Request) (llm.Request, bool) {
	changed := false
	for ci, content := range req.Contents {
		for pi, part := range content.Parts {
			if part.FileData == nil {
				continue
			}
			raw, err := f.Download(ctx, part.FileData.FileURI)
			if err != nil {
				fmt.Fprintf(f.Log, "  inline reacquisition failed for %s: %v\n", part.FileData.FileURI, err)
				continue
			}
			req.Contents[ci].Parts[pi] = llm.Part{InlineData: &llm.Blob{
				MIMEType: part.FileData.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(raw),
			}}
			changed = true
		}
	}
	return req, changed
}

// Download fetches the PDF bytes, following redirects, capped at
// MaxPDFBytes. HTML bodies are rejected: they mean an auth wall or error
// page, not a document.
func (f *PDFFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", httputil.RandomUserAgent())
	req.Header.Set("Accept", "application/pdf,*/*")

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	maxBytes := f.Config.MaxPDFBytes
	if maxBytes <= 0 {
		maxBytes = 50 << 20
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading download: %w", err)
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("document exceeds %d byte cap", maxBytes)
	}

	if !looksLikePDF(resp.Header.Get("Content-Type"), raw) {
		return nil, fmt.Errorf("response from %s is not PDF content (auth wall or error page)", url)
	}
	return raw, nil
}

// looksLikePDF accepts a PDF content type or the %PDF magic prefix, and
// rejects HTML bodies outright.
func looksLikePDF(contentType string, body []byte) bool {
	if bytes.HasPrefix(body, []byte("%PDF")) {
		return true
	}
	if strings.Contains(contentType, "text/html") {
		return false
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return false
	}
	return strings.Contains(contentType, "application/pdf") ||
		strings.Contains(contentType, "application/octet-stream")
}
