package postgres

import (
	"context"

	"github.com/dkhromov/voicegate/internal/model"
	"github.com/gofrs/uuid/v5"
)

// AttemptRepo implements the append-only access log using PostgreSQL.
type AttemptRepo struct{ db *DB }

// NewAttemptRepo constructs an attempt log repository.
func NewAttemptRepo(db *DB) *AttemptRepo { return &AttemptRepo{db: db} }

// Append writes one attempt record.
func (r *AttemptRepo) Append(ctx context.Context, a *model.Attempt) error {
	const q = `
INSERT INTO attempts (mode, claimed_id, result_id, similarity, challenge_id, text_score, decision, reason)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Pool.Exec(ctx, q,
		string(a.Mode), a.ClaimedID, a.ResultID, a.Similarity,
		a.ChallengeID, a.TextScore, string(a.Decision), a.Reason)
	return err
}

// List returns the most recent attempts, newest first.
func (r *AttemptRepo) List(ctx context.Context, claimedID *uuid.UUID, limit int) ([]model.Attempt, error) {
	const base = `
SELECT id, created_at, mode, claimed_id, result_id, similarity, challenge_id, text_score, decision, reason
FROM attempts`

	var (
		q    string
		args []any
	)
	if claimedID != nil {
		q = base + ` WHERE claimed_id=$1 ORDER BY id DESC LIMIT $2`
		args = []any{*claimedID, limit}
	} else {
		q = base + ` ORDER BY id DESC LIMIT $1`
		args = []any{limit}
	}

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Attempt
	for rows.Next() {
		var (
			a        model.Attempt
			mode     string
			decision string
		)
		if err = rows.Scan(&a.ID, &a.CreatedAt, &mode, &a.ClaimedID, &a.ResultID,
			&a.Similarity, &a.ChallengeID, &a.TextScore, &decision, &a.Reason); err != nil {
			return nil, err
		}
		a.Mode = model.Mode(mode)
		a.Decision = model.Decision(decision)
		out = append(out, a)
	}
	return out, rows.Err()
}
