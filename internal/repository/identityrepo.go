// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/dkhromov/voicegate/internal/model"
	"github.com/gofrs/uuid/v5"
)

// IdentityRepository owns Identity records and their enrollment embeddings.
type IdentityRepository interface {
	// Create inserts an identity with its initial embedding set atomically.
	Create(ctx context.Context, ident *model.Identity) error
	// Get loads an identity with all its embeddings.
	Get(ctx context.Context, id uuid.UUID) (*model.Identity, error)
	// GetEmbeddings returns the enrolled embedding set for an identity.
	GetEmbeddings(ctx context.Context, id uuid.UUID) ([]model.Embedding, error)
	// AddEmbeddings appends embeddings to an existing enrollment.
	AddEmbeddings(ctx context.Context, id uuid.UUID, embs []model.Embedding) error
	// ReplaceEmbeddings swaps the whole embedding set atomically.
	ReplaceEmbeddings(ctx context.Context, id uuid.UUID, embs []model.Embedding) error
	// List returns summaries of all enrolled identities.
	List(ctx context.Context) ([]model.IdentitySummary, error)
	// Delete removes an identity and its embeddings. Deleting an unknown
	// identity is a no-op, not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}
