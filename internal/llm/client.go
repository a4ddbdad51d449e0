// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is a hand-rolled client for the Gemini generateContent API:
// blocking and streaming generation, document attachment by public URI or
// inline base64, and typed error kinds for cascade branching.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultBaseURL is the Gemini API root. Tests point BaseURL at an
// httptest server instead.
const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Part is one piece of request or response content. Exactly one of the
// payload fields is set.
type Part struct {
	Text       string    `json:"text,omitempty"`
	FileData   *FileData `json:"fileData,omitempty"`
	InlineData *Blob     `json:"inlineData,omitempty"`

	// Thought marks reasoning-channel output in streaming responses.
	Thought bool `json:"thought,omitempty"`
}

// FileData references a document by public URI for the backend to fetch.
type FileData struct {
	FileURI  string `json:"fileUri"`
	MIMEType string `json:"mimeType"`
}

// Blob carries inline base64-encoded document bytes.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Content is a role-tagged list of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig holds per-request sampling settings.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// Request is the generateContent request body.
type Request struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// TextRequest builds a single-turn request from a plain prompt.
func TextRequest(prompt string, cfg *GenerationConfig) Request {
	return Request{
		Contents:         []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
		GenerationConfig: cfg,
	}
}

// Response is the generateContent response body.
type Response struct {
	Candidates []Candidate `json:"candidates"`
	Error      *apiStatus  `json:"error,omitempty"`
}

// Candidate is one completion in a response.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type apiStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Text joins the non-thought text parts of the first candidate.
func (r Response) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		if !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Client calls the Gemini API. Construct it once at process startup and
// pass it into each component; there are no lazy package-level clients.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a Client against the production endpoint.
func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: defaultBaseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// GenerateContent performs one blocking generation call and returns the
// joined candidate text.
func (c *Client) GenerateContent(ctx context.Context, model string, req Request) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.BaseURL, model)

	resp, err := c.post(ctx, endpoint, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("reading model response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, body)
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing model response: %w", err)
	}
	return parsed.Text(), nil
}

// GenerateText is a convenience wrapper for plain prompt-in, text-out calls.
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	return c.GenerateContent(ctx, model, TextRequest(prompt, nil))
}

func (c *Client) post(ctx context.Context, endpoint string, req Request) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &APIError{Kind: KindTimeout, Message: err.Error()}
		}
		return nil, fmt.Errorf("model API request: %w", err)
	}
	return resp, nil
}

// statusError converts a non-200 response into a typed APIError, pulling
// the message out of the error body when one is present.
func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var parsed Response
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		msg = parsed.Error.Message
	}
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return &APIError{Kind: kindForStatus(status), Status: status, Message: msg}
}
