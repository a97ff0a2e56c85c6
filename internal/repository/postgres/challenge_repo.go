package postgres

import (
	"context"
	"errors"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ChallengeRepo implements ChallengeRepository using PostgreSQL.
type ChallengeRepo struct{ db *DB }

// NewChallengeRepo constructs a challenge repository.
func NewChallengeRepo(db *DB) *ChallengeRepo { return &ChallengeRepo{db: db} }

// Create inserts a new pending challenge.
func (r *ChallengeRepo) Create(ctx context.Context, ch *model.Challenge) error {
	const q = `
INSERT INTO challenges (id, sentence, identity_id, issued_at, expires_at, state)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q, ch.ID, ch.Sentence, ch.IdentityID, ch.IssuedAt, ch.ExpiresAt, string(ch.State))
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Get loads a challenge by id.
func (r *ChallengeRepo) Get(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	const q = `
SELECT id, sentence, identity_id, issued_at, expires_at, state
FROM challenges WHERE id=$1`
	var (
		ch    model.Challenge
		state string
	)
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(&ch.ID, &ch.Sentence, &ch.IdentityID, &ch.IssuedAt, &ch.ExpiresAt, &state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrChallengeNotFound
		}
		return nil, err
	}
	ch.State = model.ChallengeState(state)
	return &ch, nil
}

// Consume transitions pending -> consumed. The conditional UPDATE guarantees
// exactly one concurrent caller observes the transition.
func (r *ChallengeRepo) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE challenges SET state='consumed' WHERE id=$1 AND state='pending'`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Expire transitions pending -> expired; terminal states are untouched.
func (r *ChallengeRepo) Expire(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE challenges SET state='expired' WHERE id=$1 AND state='pending'`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}
