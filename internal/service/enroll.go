// Package service contains application services for enrollment, liveness
// challenges and verification decisions.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/extract"
	"github.com/dkhromov/voicegate/internal/model"
	"github.com/dkhromov/voicegate/internal/repository"
)

// EnrollmentService registers speakers and manages their embedding sets.
type EnrollmentService interface {
	// Enroll creates an identity from audio samples, all-or-nothing.
	Enroll(ctx context.Context, name string, samples []model.Audio) (*model.Identity, error)
	// Update re-enrolls an existing identity: appends new embeddings, or
	// replaces the whole set when replace is true.
	Update(ctx context.Context, id uuid.UUID, samples []model.Audio, replace bool) (int, error)
	// Get loads one identity with its embeddings.
	Get(ctx context.Context, id uuid.UUID) (*model.Identity, error)
	// List returns summaries of all enrolled identities.
	List(ctx context.Context) ([]model.IdentitySummary, error)
	// Delete removes an enrollment. Idempotent.
	Delete(ctx context.Context, id uuid.UUID) error
}

type EnrollmentServiceImpl struct {
	identities repository.IdentityRepository
	extractor  extract.Extractor
	minSamples int
}

// NewEnrollmentService constructs EnrollmentService with required dependencies.
func NewEnrollmentService(identities repository.IdentityRepository, extractor extract.Extractor, minSamples int) *EnrollmentServiceImpl {
	if minSamples <= 0 {
		minSamples = 3
	}
	return &EnrollmentServiceImpl{identities: identities, extractor: extractor, minSamples: minSamples}
}

// Enroll extracts embeddings from every sample and stores the identity
// atomically. Fewer than minSamples valid samples enrolls nothing.
func (s *EnrollmentServiceImpl) Enroll(ctx context.Context, name string, samples []model.Audio) (*model.Identity, error) {
	if name == "" {
		return nil, errors.New("validation: empty name")
	}
	if len(samples) < s.minSamples {
		return nil, fmt.Errorf("%w: got %d, need at least %d", errs.ErrInsufficientSamples, len(samples), s.minSamples)
	}

	embs, err := s.extractAll(ctx, samples)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	ident := &model.Identity{ID: id, Name: name, Embeddings: embs}
	if err := s.identities.Create(ctx, ident); err != nil {
		return nil, err
	}
	return ident, nil
}

// Update appends embeddings to an enrollment, or replaces the set. A full
// replacement must satisfy the minimum sample count on its own.
func (s *EnrollmentServiceImpl) Update(ctx context.Context, id uuid.UUID, samples []model.Audio, replace bool) (int, error) {
	if id == uuid.Nil {
		return 0, errors.New("validation: empty identity id")
	}
	if len(samples) == 0 {
		return 0, errors.New("validation: no samples")
	}
	if replace && len(samples) < s.minSamples {
		return 0, fmt.Errorf("%w: got %d, need at least %d", errs.ErrInsufficientSamples, len(samples), s.minSamples)
	}

	existing, err := s.identities.GetEmbeddings(ctx, id)
	if err != nil {
		return 0, err
	}

	embs, err := s.extractAll(ctx, samples)
	if err != nil {
		return 0, err
	}
	if !replace && len(existing) > 0 && len(embs[0]) != len(existing[0]) {
		return 0, fmt.Errorf("%w: new %d dims, enrolled %d", errs.ErrDimensionMismatch, len(embs[0]), len(existing[0]))
	}

	if replace {
		if err := s.identities.ReplaceEmbeddings(ctx, id, embs); err != nil {
			return 0, err
		}
		return len(embs), nil
	}
	if err := s.identities.AddEmbeddings(ctx, id, embs); err != nil {
		return 0, err
	}
	return len(existing) + len(embs), nil
}

// Get loads one identity with its embeddings.
func (s *EnrollmentServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	if id == uuid.Nil {
		return nil, errors.New("validation: empty identity id")
	}
	return s.identities.Get(ctx, id)
}

// List returns summaries of all enrolled identities.
func (s *EnrollmentServiceImpl) List(ctx context.Context) ([]model.IdentitySummary, error) {
	return s.identities.List(ctx)
}

// Delete removes an enrollment. Deleting an unknown identity is a no-op.
func (s *EnrollmentServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("validation: empty identity id")
	}
	return s.identities.Delete(ctx, id)
}

// extractAll runs the extractor over every sample and enforces a uniform
// vector shape matching the extractor's declared dimension.
func (s *EnrollmentServiceImpl) extractAll(ctx context.Context, samples []model.Audio) ([]model.Embedding, error) {
	dim := s.extractor.Dimension()
	embs := make([]model.Embedding, 0, len(samples))
	for i, a := range samples {
		emb, err := s.extractor.Extract(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("sample[%d]: %w", i, err)
		}
		if len(emb) == 0 || isZero(emb) {
			return nil, fmt.Errorf("sample[%d]: %w", i, errs.ErrInvalidEmbedding)
		}
		if dim > 0 && len(emb) != dim {
			return nil, fmt.Errorf("sample[%d]: %w: got %d dims, want %d", i, errs.ErrDimensionMismatch, len(emb), dim)
		}
		embs = append(embs, emb)
	}
	return embs, nil
}

func isZero(e model.Embedding) bool {
	for _, v := range e {
		if v != 0 {
			return false
		}
	}
	return true
}
