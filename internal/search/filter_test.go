// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import "testing"

func TestIsBlocked(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://somecourtportal-login.example.gov", true},
		{"https://example.com/login", true},
		{"https://example.com/auth/session", true},
		{"https://example.com/page?jsessionid=abc", true},
		{"https://www.westlaw.com/document/123", true},
		{"https://efiling.district.gov/case", true},
		{"https://example.com/verify-captcha", true},
		{"https://indiankanoon.org/doc/123", false},
		{"https://main.sci.gov.in/judgments", false},
		{"https://some-unknown-blog.example.net/post", false},
		{"https://example.com/blogindex.html", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsBlocked(tt.url); got != tt.want {
				t.Errorf("IsBlocked(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestKnownSourceAdvisoryOnly(t *testing.T) {
	if label, ok := KnownSource("https://indiankanoon.org/doc/123"); !ok || label != "Indian Kanoon" {
		t.Errorf("KnownSource = %q, %v", label, ok)
	}

	// Unknown domains are not blocked: the allowlist is advisory.
	url := "https://obscure-legal-commentary.example.org/article"
	if _, ok := KnownSource(url); ok {
		t.Fatalf("unexpectedly known: %s", url)
	}
	if IsBlocked(url) {
		t.Errorf("unknown domain must not be blocked")
	}
}
