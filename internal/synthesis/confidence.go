// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"github.com/pdiddy/answer-engine/internal/evidence"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Confidence thresholds. The rating is computed from evidence shape
// alone; the model never sets it.
const (
	highMinURLs   = 3
	highMinChunks = 5
	lowMaxURLs    = 2 // below this is low
	lowMaxChunks  = 3 // below this is low
)

// ConfidenceFor rates an evidence set: high needs at least 3 distinct
// source URLs and 5 chunks; low applies under 2 distinct URLs or 3
// chunks; everything between is medium.
func ConfidenceFor(chunks []types.EvidenceChunk) types.Confidence {
	urls := evidence.DistinctURLs(chunks)

	switch {
	case urls < lowMaxURLs || len(chunks) < lowMaxChunks:
		return types.ConfidenceLow
	case urls >= highMinURLs && len(chunks) >= highMinChunks:
		return types.ConfidenceHigh
	default:
		return types.ConfidenceMedium
	}
}
