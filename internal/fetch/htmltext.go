// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// skippedElements never contribute text: chrome, scripts, and embeds.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"iframe":   true,
	"svg":      true,
	"form":     true,
	"button":   true,
}

// mainContentMinChars is the plausibility floor for a detected
// main-content region; below it the whole body is used instead.
const mainContentMinChars = 200

// truncationMarker is appended when extracted text hits the length cap.
const truncationMarker = "\n[content truncated]"

// ExtractText parses HTML and returns readable text, preferring a
// detected main-content region over the full body. Text is capped at
// maxChars with a truncation marker.
func ExtractText(r io.Reader, maxChars int) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var text string
	if region := findMainContent(doc); region != nil {
		text = collectText(region)
	}
	if len(text) < mainContentMinChars {
		if body := findElement(doc, "body"); body != nil {
			text = collectText(body)
		} else {
			text = collectText(doc)
		}
	}

	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars] + truncationMarker
	}
	return text, nil
}

// findMainContent locates the first semantic content container:
// <main>, <article>, role="main", or a common content id/class.
func findMainContent(doc *html.Node) *html.Node {
	if n := findElement(doc, "main"); n != nil {
		return n
	}
	if n := findElement(doc, "article"); n != nil {
		return n
	}
	return findByAttr(doc, func(n *html.Node) bool {
		for _, a := range n.Attr {
			switch a.Key {
			case "role":
				if a.Val == "main" {
					return true
				}
			case "id", "class":
				v := strings.ToLower(a.Val)
				if v == "content" || v == "main-content" || strings.Contains(v, "article-body") ||
					strings.Contains(v, "post-content") || strings.Contains(v, "entry-content") {
					return true
				}
			}
		}
		return false
	})
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findByAttr(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByAttr(c, match); found != nil {
			return found
		}
	}
	return nil
}

// collectText walks the subtree, skipping chrome elements, and collapses
// whitespace. Block boundaries become newlines so sentence structure
// survives for chunking.
func collectText(n *html.Node) string {
	var b strings.Builder
	walkText(n, &b)
	return collapseWhitespace(b.String())
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "li": true, "td": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"br": true, "tr": true, "blockquote": true, "pre": true,
}

func walkText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && skippedElements[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, b)
	}
	if n.Type == html.ElementNode && blockElements[n.Data] {
		b.WriteString("\n")
	}
}

// collapseWhitespace squeezes runs of spaces/tabs and blank lines.
func collapseWhitespace(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}
