package service

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/limiter"
	"github.com/dkhromov/voicegate/internal/model"
	"github.com/dkhromov/voicegate/internal/repository"
)

type fakeIdentities struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Identity

	createErr error
}

var _ repository.IdentityRepository = (*fakeIdentities)(nil)

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{byID: map[uuid.UUID]*model.Identity{}}
}

func (f *fakeIdentities) Create(_ context.Context, ident *model.Identity) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[ident.ID]; ok {
		return errs.ErrAlreadyExists
	}
	cpy := *ident
	cpy.Embeddings = append([]model.Embedding(nil), ident.Embeddings...)
	f.byID[ident.ID] = &cpy
	return nil
}

func (f *fakeIdentities) Get(_ context.Context, id uuid.UUID) (*model.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrIdentityNotFound
	}
	cpy := *ident
	return &cpy, nil
}

func (f *fakeIdentities) GetEmbeddings(_ context.Context, id uuid.UUID) ([]model.Embedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrIdentityNotFound
	}
	return append([]model.Embedding(nil), ident.Embeddings...), nil
}

func (f *fakeIdentities) AddEmbeddings(_ context.Context, id uuid.UUID, embs []model.Embedding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident, ok := f.byID[id]
	if !ok {
		return errs.ErrIdentityNotFound
	}
	ident.Embeddings = append(ident.Embeddings, embs...)
	return nil
}

func (f *fakeIdentities) ReplaceEmbeddings(_ context.Context, id uuid.UUID, embs []model.Embedding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident, ok := f.byID[id]
	if !ok {
		return errs.ErrIdentityNotFound
	}
	ident.Embeddings = append([]model.Embedding(nil), embs...)
	return nil
}

func (f *fakeIdentities) List(_ context.Context) ([]model.IdentitySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.IdentitySummary, 0, len(f.byID))
	for _, ident := range f.byID {
		out = append(out, model.IdentitySummary{
			ID:         ident.ID,
			Name:       ident.Name,
			NumSamples: len(ident.Embeddings),
			CreatedAt:  ident.CreatedAt,
		})
	}
	return out, nil
}

func (f *fakeIdentities) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

type fakeChallenges struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Challenge
}

var _ repository.ChallengeRepository = (*fakeChallenges)(nil)

func newFakeChallenges() *fakeChallenges {
	return &fakeChallenges{byID: map[uuid.UUID]*model.Challenge{}}
}

func (f *fakeChallenges) Create(_ context.Context, ch *model.Challenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[ch.ID]; ok {
		return errs.ErrAlreadyExists
	}
	cpy := *ch
	f.byID[ch.ID] = &cpy
	return nil
}

func (f *fakeChallenges) Get(_ context.Context, id uuid.UUID) (*model.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrChallengeNotFound
	}
	cpy := *ch
	return &cpy, nil
}

func (f *fakeChallenges) Consume(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.byID[id]
	if !ok || ch.State != model.ChallengePending {
		return false, nil
	}
	ch.State = model.ChallengeConsumed
	return true, nil
}

func (f *fakeChallenges) Expire(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.byID[id]; ok && ch.State == model.ChallengePending {
		ch.State = model.ChallengeExpired
	}
	return nil
}

func (f *fakeChallenges) state(id uuid.UUID) model.ChallengeState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id].State
}

type fakeAttempts struct {
	mu      sync.Mutex
	records []model.Attempt

	appendErr error
}

var _ repository.AttemptRepository = (*fakeAttempts)(nil)

func (f *fakeAttempts) Append(_ context.Context, a *model.Attempt) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := *a
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeAttempts) List(_ context.Context, claimedID *uuid.UUID, limit int) ([]model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Attempt
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		r := f.records[i]
		if claimedID != nil && (r.ClaimedID == nil || *r.ClaimedID != *claimedID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeAttempts) last() model.Attempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[len(f.records)-1]
}

type fakeExtractor struct {
	emb model.Embedding
	err error
	dim int
}

func (f *fakeExtractor) Extract(context.Context, model.Audio) (model.Embedding, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.emb, nil
}

func (f *fakeExtractor) Dimension() int {
	if f.dim > 0 {
		return f.dim
	}
	return len(f.emb)
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(context.Context, model.Audio) (string, error) {
	return f.text, f.err
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	successCalls int
	failureCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, uuid.UUID, []byte) (bool, time.Duration, error) {
	return l.allowOK, 0, l.allowErr
}

func (l *fakeLimiter) Success(context.Context, uuid.UUID, []byte) error {
	l.successCalls++
	return nil
}

func (l *fakeLimiter) Failure(context.Context, uuid.UUID, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return false, 0, nil
}
