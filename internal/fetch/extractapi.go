// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultExtractAPIURL is the production endpoint of the scrapingbee-style
// extraction service; tests substitute their own.
const defaultExtractAPIURL = "https://app.scrapingbee.com/api/v1/"

// ExtractAPIClient calls a third-party content-extraction service, the
// last resort of the web-page cascade.
type ExtractAPIClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// NewExtractAPIClient returns a client, or nil when no key is configured.
func NewExtractAPIClient(apiKey string, timeout time.Duration) *ExtractAPIClient {
	if apiKey == "" {
		return nil
	}
	return &ExtractAPIClient{
		APIKey:  apiKey,
		BaseURL: defaultExtractAPIURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Extract asks the service for the readable text of pageURL.
func (c *ExtractAPIClient) Extract(ctx context.Context, pageURL string) (string, error) {
	q := url.Values{}
	q.Set("api_key", c.APIKey)
	q.Set("url", pageURL)
	q.Set("render_js", "true")
	q.Set("extract_rules", `{"text":"body"}`)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating extraction request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("reading extraction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extraction API returned HTTP %d", resp.StatusCode)
	}

	// The extract_rules parameter makes the service wrap the page text in
	// a JSON object. Fall back to the raw body for plain-text responses.
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && strings.TrimSpace(parsed.Text) != "" {
		return parsed.Text, nil
	}
	return string(body), nil
}
