package postgres

import (
	"context"
	"errors"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// IdentityRepo implements IdentityRepository using PostgreSQL.
type IdentityRepo struct{ db *DB }

// NewIdentityRepo constructs an identity repository.
func NewIdentityRepo(db *DB) *IdentityRepo { return &IdentityRepo{db: db} }

// Create inserts the identity and its embedding set in one transaction.
func (r *IdentityRepo) Create(ctx context.Context, ident *model.Identity) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const ins = `INSERT INTO identities (id, name) VALUES ($1, $2)`
	if _, err = tx.Exec(ctx, ins, ident.ID, ident.Name); err != nil {
		if isUniqueViolation(err) {
			return errs.ErrAlreadyExists
		}
		return err
	}

	const insEmb = `INSERT INTO embeddings (identity_id, position, vector) VALUES ($1, $2, $3)`
	for i, emb := range ident.Embeddings {
		if _, err = tx.Exec(ctx, insEmb, ident.ID, i, []float32(emb)); err != nil {
			return err
		}
	}
	return nil
}

// Get loads an identity and all its embeddings ordered by position.
func (r *IdentityRepo) Get(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	const q = `SELECT id, name, created_at FROM identities WHERE id=$1`
	var ident model.Identity
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&ident.ID, &ident.Name, &ident.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrIdentityNotFound
		}
		return nil, err
	}

	embs, err := r.GetEmbeddings(ctx, id)
	if err != nil {
		return nil, err
	}
	ident.Embeddings = embs
	return &ident, nil
}

// GetEmbeddings returns the enrolled embedding set for an identity.
func (r *IdentityRepo) GetEmbeddings(ctx context.Context, id uuid.UUID) ([]model.Embedding, error) {
	const q = `SELECT vector FROM embeddings WHERE identity_id=$1 ORDER BY position ASC`
	rows, err := r.db.Pool.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Embedding
	for rows.Next() {
		var v []float32
		if err = rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, model.Embedding(v))
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errs.ErrIdentityNotFound
	}
	return out, nil
}

// AddEmbeddings appends embeddings under a row lock on the identity.
func (r *IdentityRepo) AddEmbeddings(ctx context.Context, id uuid.UUID, embs []model.Embedding) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	var next int
	if next, err = lockIdentity(ctx, tx, id); err != nil {
		return err
	}

	const ins = `INSERT INTO embeddings (identity_id, position, vector) VALUES ($1, $2, $3)`
	for i, emb := range embs {
		if _, err = tx.Exec(ctx, ins, id, next+i, []float32(emb)); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceEmbeddings swaps the whole embedding set atomically.
func (r *IdentityRepo) ReplaceEmbeddings(ctx context.Context, id uuid.UUID, embs []model.Embedding) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	if _, err = lockIdentity(ctx, tx, id); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, `DELETE FROM embeddings WHERE identity_id=$1`, id); err != nil {
		return err
	}
	const ins = `INSERT INTO embeddings (identity_id, position, vector) VALUES ($1, $2, $3)`
	for i, emb := range embs {
		if _, err = tx.Exec(ctx, ins, id, i, []float32(emb)); err != nil {
			return err
		}
	}
	return nil
}

// List returns summaries of all enrolled identities ordered by creation time.
func (r *IdentityRepo) List(ctx context.Context) ([]model.IdentitySummary, error) {
	const q = `
SELECT i.id, i.name, COUNT(e.id), i.created_at
FROM identities i
LEFT JOIN embeddings e ON e.identity_id = i.id
GROUP BY i.id, i.name, i.created_at
ORDER BY i.created_at ASC, i.id ASC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.IdentitySummary
	for rows.Next() {
		var s model.IdentitySummary
		if err = rows.Scan(&s.ID, &s.Name, &s.NumSamples, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes an identity with its embeddings (cascade). Idempotent.
func (r *IdentityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM identities WHERE id=$1`, id)
	return err
}

// lockIdentity takes a row lock on the identity and returns the next free
// embedding position.
func lockIdentity(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int, error) {
	const q = `SELECT id FROM identities WHERE id=$1 FOR UPDATE`
	var got uuid.UUID
	if err := tx.QueryRow(ctx, q, id).Scan(&got); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrIdentityNotFound
		}
		return 0, err
	}

	const next = `SELECT COALESCE(MAX(position), -1) + 1 FROM embeddings WHERE identity_id=$1`
	var pos int
	if err := tx.QueryRow(ctx, next, id).Scan(&pos); err != nil {
		return 0, err
	}
	return pos, nil
}
