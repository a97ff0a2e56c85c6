package repository

import (
	"context"

	"github.com/dkhromov/voicegate/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ChallengeRepository owns Challenge records. State transitions are
// conditional so that concurrent consumers on the same id cannot both win.
type ChallengeRepository interface {
	// Create inserts a new pending challenge.
	Create(ctx context.Context, ch *model.Challenge) error
	// Get loads a challenge by id.
	Get(ctx context.Context, id uuid.UUID) (*model.Challenge, error)
	// Consume transitions pending -> consumed. It reports false when the
	// challenge was not pending (exactly one concurrent caller gets true).
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
	// Expire transitions pending -> expired. Already-terminal states are
	// left untouched.
	Expire(ctx context.Context, id uuid.UUID) error
}
