package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/model"
	"github.com/dkhromov/voicegate/internal/repository"
	"github.com/dkhromov/voicegate/internal/sentence"
	"github.com/dkhromov/voicegate/internal/textmatch"
)

// ChallengeService issues and consumes single-use, time-boxed liveness
// challenges. Expiration is evaluated lazily at access time.
type ChallengeService interface {
	// Generate issues a new pending challenge, optionally bound to an identity.
	Generate(ctx context.Context, identityID *uuid.UUID) (*model.Challenge, error)
	// Get loads challenge details, lazily marking it expired when the ttl
	// has elapsed.
	Get(ctx context.Context, id uuid.UUID) (*model.Challenge, error)
	// ValidateAndConsume fuzzy-matches the transcript against the challenge
	// sentence. The challenge is consumed only when the match clears the
	// threshold; a failed match leaves it pending and retryable within ttl.
	ValidateAndConsume(ctx context.Context, id uuid.UUID, transcript string, threshold float64) (model.LivenessResult, error)
}

type ChallengeServiceImpl struct {
	repo      repository.ChallengeRepository
	sentences *sentence.Generator
	ttl       time.Duration
	now       func() time.Time
}

// NewChallengeService constructs ChallengeService with the given sentence
// generator and ttl.
func NewChallengeService(repo repository.ChallengeRepository, g *sentence.Generator, ttl time.Duration) *ChallengeServiceImpl {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &ChallengeServiceImpl{repo: repo, sentences: g, ttl: ttl, now: time.Now}
}

// Generate issues a new pending challenge.
func (s *ChallengeServiceImpl) Generate(ctx context.Context, identityID *uuid.UUID) (*model.Challenge, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := s.now()
	ch := &model.Challenge{
		ID:         id,
		Sentence:   s.sentences.Generate(),
		IdentityID: identityID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
		State:      model.ChallengePending,
	}
	if err := s.repo.Create(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// Get loads a challenge, applying lazy expiration.
func (s *ChallengeServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	if id == uuid.Nil {
		return nil, errors.New("validation: empty challenge id")
	}
	ch, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch.State == model.ChallengePending && ch.ExpiredAt(s.now()) {
		// Best effort: a read of an expired-but-unmarked challenge still
		// reports expired even if the update fails.
		_ = s.repo.Expire(ctx, id)
		ch.State = model.ChallengeExpired
	}
	return ch, nil
}

// ValidateAndConsume validates the transcript and consumes the challenge on
// success. Burn-on-success prevents replay of a solved challenge; not burning
// on failure tolerates transcription noise without forcing a re-challenge.
func (s *ChallengeServiceImpl) ValidateAndConsume(ctx context.Context, id uuid.UUID, transcript string, threshold float64) (model.LivenessResult, error) {
	ch, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.LivenessResult{}, err
	}

	switch ch.State {
	case model.ChallengeExpired:
		return model.LivenessResult{}, errs.ErrChallengeExpired
	case model.ChallengeConsumed:
		return model.LivenessResult{}, errs.ErrChallengeConsumed
	}

	if ch.ExpiredAt(s.now()) {
		_ = s.repo.Expire(ctx, id)
		return model.LivenessResult{}, errs.ErrChallengeExpired
	}

	score := textmatch.Score(ch.Sentence, transcript)
	result := model.LivenessResult{
		Matched:    score >= threshold,
		Score:      score,
		Transcript: transcript,
		Sentence:   ch.Sentence,
	}
	if !result.Matched {
		// Challenge stays pending; the caller may retry until the ttl.
		return result, nil
	}

	ok, err := s.repo.Consume(ctx, id)
	if err != nil {
		return model.LivenessResult{}, err
	}
	if !ok {
		// Lost the race: another caller consumed it first.
		return model.LivenessResult{}, errs.ErrChallengeConsumed
	}
	return result, nil
}
