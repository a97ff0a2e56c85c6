// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Embedding is a fixed-length voiceprint vector with unit-comparable scale.
type Embedding []float32

// Audio is the canonical in-memory audio representation accepted by the core.
// The preprocessing pipeline is responsible for delivering resampled,
// denoised, VAD-trimmed samples at a fixed rate.
type Audio struct {
	Samples    []float32
	SampleRate int
}

// Identity is an enrolled speaker with its reference embeddings.
// Embeddings never mutate after insertion; re-enrollment appends new
// embeddings or replaces the whole set.
type Identity struct {
	ID         uuid.UUID
	Name       string
	Embeddings []Embedding
	CreatedAt  time.Time
}

// IdentitySummary is an identity without its embeddings (for listings).
type IdentitySummary struct {
	ID         uuid.UUID
	Name       string
	NumSamples int
	CreatedAt  time.Time
}

// ChallengeState is the lifecycle state of a liveness challenge.
type ChallengeState string

const (
	ChallengePending  ChallengeState = "pending"
	ChallengeConsumed ChallengeState = "consumed"
	ChallengeExpired  ChallengeState = "expired"
)

// Challenge is a single-use, time-boxed liveness challenge.
// IdentityID is nil for identity-agnostic challenges.
type Challenge struct {
	ID         uuid.UUID
	Sentence   string
	IdentityID *uuid.UUID
	IssuedAt   time.Time
	ExpiresAt  time.Time
	State      ChallengeState
}

// ExpiredAt reports whether the challenge ttl has elapsed at the given instant.
// Expiration is evaluated lazily on access, not by a background sweep.
func (c *Challenge) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// LivenessResult is the outcome of a challenge-response text match.
type LivenessResult struct {
	Matched    bool
	Score      float64
	Transcript string
	Sentence   string
}

// Mode distinguishes 1:1 verification from 1:N identification.
type Mode string

const (
	ModeVerify   Mode = "verify"
	ModeIdentify Mode = "identify"
)

// Decision is the final outcome of an attempt.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Reason codes recorded with each attempt.
const (
	ReasonAccepted          = "accepted"
	ReasonLowSimilarity     = "low_similarity"
	ReasonLivenessFailed    = "liveness_failed"
	ReasonIdentityNotFound  = "identity_not_found"
	ReasonChallengeNotFound = "challenge_not_found"
	ReasonChallengeExpired  = "challenge_expired"
	ReasonChallengeConsumed = "challenge_consumed"
	ReasonNoMatch           = "no_match"
)

// Attempt is an append-only audit record of a verification or
// identification attempt. Immutable once written.
type Attempt struct {
	ID          int64
	CreatedAt   time.Time
	Mode        Mode
	ClaimedID   *uuid.UUID // nil for identify
	ResultID    *uuid.UUID // nil if rejected / no match
	Similarity  float64
	ChallengeID *uuid.UUID // nil if no liveness challenge was supplied
	TextScore   *float64   // nil if no liveness challenge was supplied
	Decision    Decision
	Reason      string
}

// VerificationResult reports both the biometric and the liveness outcome,
// even when one of them fails, so callers always learn both scores.
type VerificationResult struct {
	Accepted   bool
	Similarity float64
	Liveness   *LivenessResult
	Reason     string
}

// Candidate is one ranked identification result.
type Candidate struct {
	Identity   IdentitySummary
	Similarity float64
}
