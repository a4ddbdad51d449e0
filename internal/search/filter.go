// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search finds candidate sources for a question: a primary web
// search provider, a model-simulated fallback, and the source filter that
// screens what either returns.
package search

import (
	"regexp"
	"strings"
)

// blockedPatterns is the authoritative denylist: URL shapes behind
// authentication, CAPTCHAs, or session-based portals that a fetch can
// never get useful content out of. Matched against the lowercased URL.
var blockedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`captcha`),
	regexp.MustCompile(`/(login|log-in|signin|sign-in|signup|sign-up|register)\b`),
	regexp.MustCompile(`[a-z0-9-]*login[a-z0-9-]*\.`),
	regexp.MustCompile(`accounts\.google\.`),
	regexp.MustCompile(`(jsessionid|sessionid)=`),
	regexp.MustCompile(`//(www\.)?(westlaw|lexisnexis|heinonline)\.`),
	regexp.MustCompile(`manupatra\.[a-z.]+/(members|login)`),
	regexp.MustCompile(`scconline\.[a-z.]+/(web/login|member)`),
	regexp.MustCompile(`efiling\.`),
	regexp.MustCompile(`/auth/`),
}

// knownSources is the advisory allowlist: hosts we recognize and label.
// It is monitoring-only; an unknown host is never blocked for being
// unknown, so legitimate but unlisted sources stay discoverable.
var knownSources = map[string]string{
	"indiankanoon.org":    "Indian Kanoon",
	"main.sci.gov.in":     "Supreme Court of India",
	"sci.gov.in":          "Supreme Court of India",
	"indiacode.nic.in":    "India Code",
	"egazette.gov.in":     "Gazette of India",
	"prsindia.org":        "PRS Legislative Research",
	"barandbench.com":     "Bar and Bench",
	"livelaw.in":          "LiveLaw",
	"arxiv.org":           "arXiv",
}

// IsBlocked reports whether url matches the denylist. It is a pure
// predicate with no network access.
func IsBlocked(url string) bool {
	lower := strings.ToLower(url)
	for _, p := range blockedPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

// KnownSource returns the label for a recognized host. The second return
// is informational only; callers must not gate on it.
func KnownSource(url string) (string, bool) {
	lower := strings.ToLower(url)
	for host, label := range knownSources {
		if strings.Contains(lower, host) {
			return label, true
		}
	}
	return "", false
}
