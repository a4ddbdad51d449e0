// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify pattern-matches a raw query for embedded URLs and
// request intent. Everything here is deterministic and side-effect-free.
package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// urlPattern matches http/https URLs embedded anywhere in free text.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// pdfPathSegments are path fragments that mark a URL as document-shaped
// even without a .pdf extension.
var pdfPathSegments = []string{"/pdf/", "/fulltext/", "/pdfs/", "/document/download"}

// pdfViewerShapes are host/path shapes of document viewers and cloud-drive
// share links that resolve to documents.
var pdfViewerShapes = []string{
	"docs.google.com/viewer",
	"drive.google.com/file/d/",
	"drive.google.com/open",
	"dropbox.com/s/",
	"/viewer?",
	"arxiv.org/abs/",
	"sci-hub.",
}

// nonDocumentExts are file extensions that are neither PDFs nor readable
// web pages; URLs ending in one are ignored by the classifier.
var nonDocumentExts = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".webp",
	".css", ".js", ".mp3", ".mp4", ".avi", ".zip", ".tar", ".gz", ".exe",
}

// searchTriggers are the explicit out-of-band phrases that request a web
// search. The list spans registers and languages the system is used in.
var searchTriggers = []string{
	"search the web",
	"search online",
	"search internet",
	"web search",
	"look up",
	"look it up",
	"find online",
	"find on the web",
	"google",
	"latest news",
	"recent news",
	"latest judgment",
	"latest judgement",
	"recent amendments",
	"current status of",
	"khojo",
	"dhundho",
	"internet par",
}

// Analyze classifies a raw query. When a URL is present, its kind decides
// the acquisition track and NeedsSearch stays false. With no URL, an
// explicit search-trigger phrase sets NeedsSearch; absent both, the query
// needs no acquisition at all.
func Analyze(query string) types.QueryAnalysis {
	if raw := urlPattern.FindString(query); raw != "" {
		u := strings.TrimRight(raw, `.,;:!?)]}"'`)
		switch kind := KindOfURL(u); kind {
		case types.URLNone:
			// Non-document file; ignore the URL and fall through to
			// the trigger-phrase check.
		default:
			return types.QueryAnalysis{
				HasDirectURL: true,
				URLKind:      kind,
				URL:          u,
				NeedsSearch:  false,
			}
		}
	}

	return types.QueryAnalysis{
		URLKind:     types.URLNone,
		NeedsSearch: hasSearchTrigger(query),
	}
}

// KindOfURL classifies a single URL as PDF-shaped, a generic web page, or
// neither. The PDF rules are ordered: extension, path segments, then
// viewer and share-link shapes.
func KindOfURL(rawURL string) types.URLKind {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return types.URLNone
	}

	lower := strings.ToLower(rawURL)
	path := strings.ToLower(u.Path)

	if strings.HasSuffix(path, ".pdf") {
		return types.URLPDF
	}
	for _, seg := range pdfPathSegments {
		if strings.Contains(path, seg) {
			return types.URLPDF
		}
	}
	for _, shape := range pdfViewerShapes {
		if strings.Contains(lower, shape) {
			return types.URLPDF
		}
	}
	for _, ext := range nonDocumentExts {
		if strings.HasSuffix(path, ext) {
			return types.URLNone
		}
	}
	return types.URLWebpage
}

// hasSearchTrigger reports whether the query contains any enumerated
// search-the-web phrase, case-insensitively.
func hasSearchTrigger(query string) bool {
	lower := strings.ToLower(query)
	for _, phrase := range searchTriggers {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
