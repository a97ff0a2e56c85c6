// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Input errors: rejected synchronously, never retried by the core.
var (
	// ErrInsufficientSamples indicates fewer enrollment samples than the configured minimum.
	ErrInsufficientSamples = errors.New("insufficient samples")

	// ErrDimensionMismatch indicates an embedding whose length differs from the enrolled set.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidEmbedding indicates a degenerate (zero or empty) embedding vector.
	ErrInvalidEmbedding = errors.New("invalid embedding")

	// ErrAlreadyExists indicates a unique constraint violation (identity id taken).
	ErrAlreadyExists = errors.New("already exists")
)

// Resource-state errors: surfaced as typed rejection reasons and always audited.
var (
	// ErrIdentityNotFound indicates the claimed identity has no enrollment.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrChallengeNotFound indicates an unknown challenge id.
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrChallengeExpired indicates the challenge ttl elapsed before consumption.
	ErrChallengeExpired = errors.New("challenge expired")

	// ErrChallengeConsumed indicates the challenge was already consumed.
	ErrChallengeConsumed = errors.New("challenge already consumed")

	// ErrRateLimited indicates temporary verification lock due to repeated failures.
	ErrRateLimited = errors.New("rate limited")
)

// Collaborator errors: infrastructure signals, distinct from biometric rejections.
var (
	// ErrExtractionFailed indicates the embedding extractor rejected or failed on the audio.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrExtractionTimeout indicates the extractor exceeded the caller-supplied timeout.
	ErrExtractionTimeout = errors.New("extraction timeout")

	// ErrTranscriptionFailed indicates the transcription service failed.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrTranscriptionTimeout indicates transcription exceeded the caller-supplied timeout.
	ErrTranscriptionTimeout = errors.New("transcription timeout")
)
