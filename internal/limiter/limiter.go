// Package limiter throttles repeated failed verification attempts.
package limiter

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Limiter controls verification attempts and temporary lockouts per
// (identity, ip). Brute-forcing a similarity threshold is the same attack
// class as password guessing.
type Limiter interface {
	// Allow reports whether verification is currently allowed and optional retry-after.
	Allow(ctx context.Context, identityID uuid.UUID, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after an accepted verification.
	Success(ctx context.Context, identityID uuid.UUID, ipHash []byte) error
	// Failure records a rejected attempt; may place a temporary block.
	Failure(ctx context.Context, identityID uuid.UUID, ipHash []byte) (bool, time.Duration, error)
}
