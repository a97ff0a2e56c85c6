// Package extract defines the acoustic embedding extractor contract.
package extract

import (
	"context"
	"errors"
	"time"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/model"
)

// Extractor computes a fixed-length voiceprint embedding from audio.
//
// Implementations must be deterministic for identical input and safe for
// concurrent use. Malformed or too-short audio fails with ErrExtractionFailed.
type Extractor interface {
	// Extract computes a speaker embedding from canonical audio.
	Extract(ctx context.Context, audio model.Audio) (model.Embedding, error)
	// Dimension returns the length of vectors produced by Extract.
	Dimension() int
}

// WithTimeout bounds every Extract call by d and surfaces a deadline overrun
// as ErrExtractionTimeout instead of hanging the request handler.
func WithTimeout(e Extractor, d time.Duration) Extractor {
	return &timeoutExtractor{inner: e, timeout: d}
}

type timeoutExtractor struct {
	inner   Extractor
	timeout time.Duration
}

func (t *timeoutExtractor) Extract(ctx context.Context, audio model.Audio) (model.Embedding, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	emb, err := t.inner.Extract(ctx, audio)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errs.ErrExtractionTimeout
		}
		return nil, err
	}
	return emb, nil
}

func (t *timeoutExtractor) Dimension() int { return t.inner.Dimension() }
