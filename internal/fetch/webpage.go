// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// WebFetcher acquires web-page text: direct GET with browser headers,
// then the headless renderer, then a third-party extraction API. The
// renderer and extractor are optional; a nil client skips that strategy
// without failing the cascade.
type WebFetcher struct {
	HTTP      *http.Client
	Renderer  *RendererClient
	Extractor *ExtractAPIClient
	Config    types.FetchConfig
	Log       io.Writer
}

// Fetch runs the web-page cascade for one URL.
func (f *WebFetcher) Fetch(ctx context.Context, url string) Outcome {
	var lastErr error

	content, err := f.direct(ctx, url)
	if err == nil {
		return success(url, "webpage", content, "direct")
	}
	lastErr = err
	fmt.Fprintf(f.Log, "  direct fetch failed for %s: %v\n", url, err)

	// Blocking statuses and all other errors alike move to the renderer.
	if f.Renderer != nil {
		if ctx.Err() != nil {
			return failure(url, "webpage", ctx.Err())
		}
		content, err = f.Renderer.Render(ctx, url)
		if err == nil {
			if uerr := usable(content, f.Config.MinUsableChars); uerr == nil {
				return success(url, "webpage", content, "renderer")
			} else {
				err = uerr
			}
		}
		lastErr = err
		fmt.Fprintf(f.Log, "  renderer failed for %s: %v\n", url, err)
	}

	if f.Extractor != nil {
		if ctx.Err() != nil {
			return failure(url, "webpage", ctx.Err())
		}
		content, err = f.Extractor.Extract(ctx, url)
		if err == nil {
			if uerr := usable(content, f.Config.MinUsableChars); uerr == nil {
				return success(url, "webpage", content, "extract-api")
			} else {
				err = uerr
			}
		}
		lastErr = err
		fmt.Fprintf(f.Log, "  extraction API failed for %s: %v\n", url, err)
	}

	return failure(url, "webpage", fmt.Errorf("all web strategies exhausted for %s: %w", url, lastErr))
}

// direct performs a browser-like GET and extracts readable text.
func (f *WebFetcher) direct(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httputil.SetBrowserHeaders(req)

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("blocked with HTTP %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" &&
		!strings.Contains(ct, "html") && !strings.Contains(ct, "text/plain") {
		return "", fmt.Errorf("unsupported content type %q", ct)
	}

	text, err := ExtractText(resp.Body, f.Config.MaxTextChars)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	if err := usable(text, f.Config.MinUsableChars); err != nil {
		return "", err
	}
	return text, nil
}
