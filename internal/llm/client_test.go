// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a Client pointed at ts.
func newTestClient(ts *httptest.Server) *Client {
	return &Client{APIKey: "test-key", BaseURL: ts.URL, HTTP: ts.Client()}
}

func TestGenerateContentJoinsParts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Hello "},{"text":"world"}]}}]}`)
	}))
	defer ts.Close()

	got, err := newTestClient(ts).GenerateText(context.Background(), "gemini-2.0-flash", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", got)
}

func TestGenerateContentSkipsThoughtParts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"thinking...","thought":true},{"text":"answer"}]}}]}`)
	}))
	defer ts.Close()

	got, err := newTestClient(ts).GenerateText(context.Background(), "m", "q")
	require.NoError(t, err)
	assert.Equal(t, "answer", got)
}

func TestGenerateContentErrorKinds(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusForbidden, KindPermissionDenied},
		{http.StatusUnauthorized, KindPermissionDenied},
		{http.StatusNotFound, KindNotFound},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindOther},
		{http.StatusGatewayTimeout, KindTimeout},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprintf(w, `{"error":{"code":%d,"message":"denied","status":"X"}}`, tt.status)
			}))
			defer ts.Close()

			_, err := newTestClient(ts).GenerateText(context.Background(), "m", "q")
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, "denied", apiErr.Message)
		})
	}
}

func TestKindOfDeadline(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", context.DeadlineExceeded)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Equal(t, KindOther, KindOf(errors.New("plain")))
}

func TestGenerateContentContextCancel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(ts).GenerateText(ctx, "m", "q")
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestStreamGenerateContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "alt=sse")
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"let me check\",\"thought\":true}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"The answer \"}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"is 42.\"}]}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer ts.Close()

	var answer, thinking string
	err := newTestClient(ts).StreamGenerateContent(context.Background(), "m", TextRequest("q", nil), func(c StreamChunk) error {
		if c.Thought {
			thinking += c.Text
		} else {
			answer += c.Text
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", answer)
	assert.Equal(t, "let me check", thinking)
}

func TestStreamGenerateContentMidStreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"partial\"}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"error\":{\"code\":429,\"message\":\"quota\",\"status\":\"RESOURCE_EXHAUSTED\"}}\n\n")
	}))
	defer ts.Close()

	var got string
	err := newTestClient(ts).StreamGenerateContent(context.Background(), "m", TextRequest("q", nil), func(c StreamChunk) error {
		got += c.Text
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.Equal(t, "partial", got)
}

func TestStreamConsumerAbort(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		for i := 0; i < 10; i++ {
			fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"chunk %d\"}]}}]}\n\n", i)
		}
	}))
	defer ts.Close()

	stop := errors.New("stop")
	calls := 0
	err := newTestClient(ts).StreamGenerateContent(context.Background(), "m", TextRequest("q", nil), func(StreamChunk) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
