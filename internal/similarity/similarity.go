// Package similarity scores voiceprint embeddings with cosine similarity.
package similarity

import (
	"math"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/model"
)

// Score returns the cosine similarity of two embeddings in [-1, 1].
// A zero or empty vector fails with ErrInvalidEmbedding; vectors of
// different lengths fail with ErrDimensionMismatch.
func Score(a, b model.Embedding) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, errs.ErrInvalidEmbedding
	}
	if len(a) != len(b) {
		return 0, errs.ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 0, errs.ErrInvalidEmbedding
	}

	s := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to absorb floating point error.
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	return s, nil
}

// ScoreAgainstSet returns the maximum pairwise cosine similarity of the
// query against all references. The best match dominates: enrollment
// samples capture different vocal conditions, and a single good match is
// sufficient evidence of identity.
func ScoreAgainstSet(query model.Embedding, refs []model.Embedding) (float64, error) {
	if len(refs) == 0 {
		return 0, errs.ErrInvalidEmbedding
	}
	best := math.Inf(-1)
	for _, ref := range refs {
		s, err := Score(query, ref)
		if err != nil {
			return 0, err
		}
		if s > best {
			best = s
		}
	}
	return best, nil
}
