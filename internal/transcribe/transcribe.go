// Package transcribe defines the speech-to-text contract and its Whisper client.
package transcribe

import (
	"context"
	"errors"
	"time"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/model"
)

// Transcriber converts spoken audio to text. Latency and accuracy are outside
// the core's control; only the timeout is.
type Transcriber interface {
	Transcribe(ctx context.Context, audio model.Audio) (string, error)
}

// WithTimeout bounds every Transcribe call by d and surfaces a deadline
// overrun as ErrTranscriptionTimeout.
func WithTimeout(tr Transcriber, d time.Duration) Transcriber {
	return &timeoutTranscriber{inner: tr, timeout: d}
}

type timeoutTranscriber struct {
	inner   Transcriber
	timeout time.Duration
}

func (t *timeoutTranscriber) Transcribe(ctx context.Context, audio model.Audio) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	text, err := t.inner.Transcribe(ctx, audio)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", errs.ErrTranscriptionTimeout
		}
		return "", err
	}
	return text, nil
}
