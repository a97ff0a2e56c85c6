package repository

import (
	"context"

	"github.com/dkhromov/voicegate/internal/model"
	"github.com/gofrs/uuid/v5"
)

// AttemptRepository is the append-only access log.
type AttemptRepository interface {
	// Append writes one attempt record. Records are immutable once written.
	Append(ctx context.Context, a *model.Attempt) error
	// List returns the most recent attempts, newest first, optionally
	// filtered by claimed identity.
	List(ctx context.Context, claimedID *uuid.UUID, limit int) ([]model.Attempt, error)
}
