package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/model"
)

func testAudio(n int) []model.Audio {
	out := make([]model.Audio, n)
	for i := range out {
		out[i] = model.Audio{Samples: []float32{0.1, 0.2, 0.3}, SampleRate: 16000}
	}
	return out
}

func TestEnroll(t *testing.T) {
	t.Parallel()

	repo := newFakeIdentities()
	ext := &fakeExtractor{emb: model.Embedding{1, 0, 0}}
	svc := NewEnrollmentService(repo, ext, 3)

	ident, err := svc.Enroll(context.Background(), "alice", testAudio(3))
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if ident.ID == uuid.Nil {
		t.Error("nil identity id")
	}
	if ident.Name != "alice" {
		t.Errorf("name = %q", ident.Name)
	}

	embs, err := repo.GetEmbeddings(context.Background(), ident.ID)
	if err != nil {
		t.Fatalf("GetEmbeddings: %v", err)
	}
	if len(embs) != 3 {
		t.Errorf("stored %d embeddings, want 3", len(embs))
	}
}

func TestEnrollInsufficientSamples(t *testing.T) {
	t.Parallel()

	repo := newFakeIdentities()
	ext := &fakeExtractor{emb: model.Embedding{1, 0, 0}}
	svc := NewEnrollmentService(repo, ext, 3)

	_, err := svc.Enroll(context.Background(), "bob", testAudio(2))
	if !errors.Is(err, errs.ErrInsufficientSamples) {
		t.Fatalf("err = %v, want ErrInsufficientSamples", err)
	}

	// All-or-nothing: nothing was persisted.
	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("identities persisted after rejected enrollment: %d", len(list))
	}
}

func TestEnrollExtractionFailureIsAtomic(t *testing.T) {
	t.Parallel()

	repo := newFakeIdentities()
	ext := &fakeExtractor{err: errs.ErrExtractionFailed, dim: 3}
	svc := NewEnrollmentService(repo, ext, 3)

	_, err := svc.Enroll(context.Background(), "carol", testAudio(3))
	if !errors.Is(err, errs.ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
	list, _ := repo.List(context.Background())
	if len(list) != 0 {
		t.Errorf("identities persisted after failed extraction: %d", len(list))
	}
}

func TestEnrollRejectsZeroVector(t *testing.T) {
	t.Parallel()

	repo := newFakeIdentities()
	ext := &fakeExtractor{emb: model.Embedding{0, 0, 0}}
	svc := NewEnrollmentService(repo, ext, 3)

	_, err := svc.Enroll(context.Background(), "dave", testAudio(3))
	if !errors.Is(err, errs.ErrInvalidEmbedding) {
		t.Fatalf("err = %v, want ErrInvalidEmbedding", err)
	}
}

func TestEnrollDimensionMismatch(t *testing.T) {
	t.Parallel()

	repo := newFakeIdentities()
	ext := &fakeExtractor{emb: model.Embedding{1, 0}, dim: 3}
	svc := NewEnrollmentService(repo, ext, 3)

	_, err := svc.Enroll(context.Background(), "erin", testAudio(3))
	if !errors.Is(err, errs.ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestUpdateAppend(t *testing.T) {
	t.Parallel()

	repo := newFakeIdentities()
	ext := &fakeExtractor{emb: model.Embedding{1, 0, 0}}
	svc := NewEnrollmentService(repo, ext, 3)

	ident, err := svc.Enroll(context.Background(), "alice", testAudio(3))
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	n, err := svc.Update(context.Background(), ident.ID, testAudio(2), false)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if n != 5 {
		t.Errorf("sample count = %d, want 5", n)
	}
}

func TestUpdateReplace(t *testing.T) {
	t.Parallel()

	repo := newFakeIdentities()
	ext := &fakeExtractor{emb: model.Embedding{1, 0, 0}}
	svc := NewEnrollmentService(repo, ext, 3)

	ident, err := svc.Enroll(context.Background(), "alice", testAudio(4))
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	// Replacement below the minimum is rejected.
	if _, err := svc.Update(context.Background(), ident.ID, testAudio(2), true); !errors.Is(err, errs.ErrInsufficientSamples) {
		t.Fatalf("err = %v, want ErrInsufficientSamples", err)
	}

	n, err := svc.Update(context.Background(), ident.ID, testAudio(3), true)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if n != 3 {
		t.Errorf("sample count = %d, want 3", n)
	}
}

func TestUpdateUnknownIdentity(t *testing.T) {
	t.Parallel()

	repo := newFakeIdentities()
	ext := &fakeExtractor{emb: model.Embedding{1, 0, 0}}
	svc := NewEnrollmentService(repo, ext, 3)

	_, err := svc.Update(context.Background(), uuid.Must(uuid.NewV4()), testAudio(1), false)
	if !errors.Is(err, errs.ErrIdentityNotFound) {
		t.Fatalf("err = %v, want ErrIdentityNotFound", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := newFakeIdentities()
	ext := &fakeExtractor{emb: model.Embedding{1, 0, 0}}
	svc := NewEnrollmentService(repo, ext, 3)

	ident, err := svc.Enroll(context.Background(), "alice", testAudio(3))
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if err := svc.Delete(context.Background(), ident.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), ident.ID); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}
