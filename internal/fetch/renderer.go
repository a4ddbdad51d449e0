// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RendererClient drives a browserless-style headless renderer over HTTP:
// the service loads the page in a full browser, waits for network idle,
// and returns the visible text of the rendered DOM.
type RendererClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewRendererClient returns a client for the renderer at baseURL, or nil
// when no renderer is configured.
func NewRendererClient(baseURL string, timeout time.Duration) *RendererClient {
	if baseURL == "" {
		return nil
	}
	return &RendererClient{BaseURL: baseURL, HTTP: &http.Client{Timeout: timeout}}
}

// renderRequest asks for the innerText of a main-content region, falling
// back to the document body.
type renderRequest struct {
	URL      string            `json:"url"`
	Elements []renderElement   `json:"elements"`
	GotoOpts map[string]string `json:"gotoOptions,omitempty"`
}

type renderElement struct {
	Selector string `json:"selector"`
}

type renderResponse struct {
	Data []struct {
		Results []struct {
			Text string `json:"text"`
		} `json:"results"`
	} `json:"data"`
}

// Render loads url in the headless browser and returns its visible text.
func (c *RendererClient) Render(ctx context.Context, url string) (string, error) {
	payload, err := json.Marshal(renderRequest{
		URL: url,
		Elements: []renderElement{
			{Selector: "main"},
			{Selector: "article"},
			{Selector: "body"},
		},
		GotoOpts: map[string]string{"waitUntil": "networkidle2"},
	})
	if err != nil {
		return "", fmt.Errorf("encoding render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/scrape", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("renderer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("renderer returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var parsed renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parsing renderer response: %w", err)
	}

	// First selector with text wins: main, then article, then body.
	for _, d := range parsed.Data {
		for _, r := range d.Results {
			if r.Text != "" {
				return r.Text, nil
			}
		}
	}
	return "", fmt.Errorf("renderer returned no text for %s", url)
}
