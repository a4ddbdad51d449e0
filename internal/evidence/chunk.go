// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence turns acquired text into bounded, provenance-carrying
// chunks and filters them down to factual content.
package evidence

import (
	"regexp"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

const (
	// maxChunkTokens bounds a chunk to roughly one idea's worth of text.
	maxChunkTokens = 500

	// minSentenceChars drops navigation crumbs and list fragments.
	minSentenceChars = 20

	// charsPerToken is the token estimate used throughout: 1 token ≈ 4 chars.
	charsPerToken = 4
)

// sentenceEndRe marks sentence boundaries: terminal punctuation followed
// by whitespace.
var sentenceEndRe = regexp.MustCompile(`[.!?]+\s+`)

// Chunk splits content on sentence boundaries and greedily accumulates
// sentences into chunks of at most ~500 tokens each. A single sentence
// over the budget becomes its own oversized chunk. The transformation is
// pure and deterministic.
func Chunk(content, source, url, date string) []types.EvidenceChunk {
	var chunks []types.EvidenceChunk
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, types.EvidenceChunk{
			Text:   strings.Join(current, " "),
			Source: source,
			URL:    url,
			Date:   date,
		})
		current = nil
		currentTokens = 0
	}

	for _, sentence := range SplitSentences(content) {
		tokens := estimateTokens(sentence)
		if currentTokens+tokens > maxChunkTokens {
			flush()
		}
		current = append(current, sentence)
		currentTokens += tokens
	}
	flush()

	return chunks
}

// SplitSentences returns the trimmed sentences of text, terminal
// punctuation included, with fragments under minSentenceChars dropped.
func SplitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		// Keep the punctuation, cut before the trailing whitespace.
		end := loc[0]
		for end < loc[1] && !isSpace(text[end]) {
			end++
		}
		appendSentence(&sentences, text[last:end])
		last = loc[1]
	}
	appendSentence(&sentences, text[last:])
	return sentences
}

func appendSentence(sentences *[]string, s string) {
	s = strings.TrimSpace(s)
	if len(s) >= minSentenceChars {
		*sentences = append(*sentences, s)
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func estimateTokens(s string) int {
	return len(s) / charsPerToken
}

// DistinctURLs returns the number of distinct source URLs in chunks.
func DistinctURLs(chunks []types.EvidenceChunk) int {
	seen := make(map[string]bool)
	for _, c := range chunks {
		seen[c.URL] = true
	}
	return len(seen)
}
