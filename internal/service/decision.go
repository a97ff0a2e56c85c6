package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gofrs/uuid/v5"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/extract"
	"github.com/dkhromov/voicegate/internal/limiter"
	"github.com/dkhromov/voicegate/internal/model"
	"github.com/dkhromov/voicegate/internal/repository"
	"github.com/dkhromov/voicegate/internal/similarity"
	"github.com/dkhromov/voicegate/internal/transcribe"
)

// Thresholds is the decision policy configuration.
type Thresholds struct {
	// Similarity is the biometric acceptance threshold in [-1, 1].
	Similarity float64
	// Liveness is the text-match acceptance threshold in [0, 1].
	Liveness float64
}

// VerifyRequest carries one 1:1 verification attempt.
type VerifyRequest struct {
	IdentityID  uuid.UUID
	Audio       model.Audio
	ChallengeID *uuid.UUID
	ClientIP    string
}

// DecisionService fuses biometric similarity with challenge-response liveness
// into auditable accept/reject decisions. It owns no persistent state.
type DecisionService interface {
	// Verify checks a claimed identity against a fresh audio sample,
	// optionally consuming a liveness challenge.
	Verify(ctx context.Context, req VerifyRequest) (model.VerificationResult, error)
	// Identify ranks enrolled identities against a fresh audio sample,
	// returning at most topK candidates by descending similarity.
	Identify(ctx context.Context, audio model.Audio, topK int) ([]model.Candidate, error)
	// AttemptLog returns recent attempt records, newest first.
	AttemptLog(ctx context.Context, claimedID *uuid.UUID, limit int) ([]model.Attempt, error)
}

type DecisionServiceImpl struct {
	identities  repository.IdentityRepository
	attempts    repository.AttemptRepository
	challenges  ChallengeService
	extractor   extract.Extractor
	transcriber transcribe.Transcriber
	lim         limiter.Limiter
	thresholds  Thresholds
}

// NewDecisionService constructs DecisionService with required dependencies.
func NewDecisionService(
	identities repository.IdentityRepository,
	attempts repository.AttemptRepository,
	challenges ChallengeService,
	extractor extract.Extractor,
	transcriber transcribe.Transcriber,
	lim limiter.Limiter,
	thresholds Thresholds,
) *DecisionServiceImpl {
	return &DecisionServiceImpl{
		identities:  identities,
		attempts:    attempts,
		challenges:  challenges,
		extractor:   extractor,
		transcriber: transcriber,
		lim:         lim,
		thresholds:  thresholds,
	}
}

// Verify implements the 1:1 decision flow. Both the similarity and the
// liveness outcome are computed and reported even when one fails, and every
// attempt that reaches a decision is written to the access log.
func (s *DecisionServiceImpl) Verify(ctx context.Context, req VerifyRequest) (model.VerificationResult, error) {
	if req.IdentityID == uuid.Nil {
		return model.VerificationResult{}, errors.New("validation: empty identity id")
	}

	ipHash := limiter.HashIP(req.ClientIP)
	allowed, _, err := s.lim.Allow(ctx, req.IdentityID, ipHash)
	if err != nil {
		return model.VerificationResult{}, err
	}
	if !allowed {
		return model.VerificationResult{}, errs.ErrRateLimited
	}

	refs, err := s.identities.GetEmbeddings(ctx, req.IdentityID)
	if err != nil {
		if errors.Is(err, errs.ErrIdentityNotFound) {
			rejErr := s.reject(ctx, model.Attempt{
				Mode:      model.ModeVerify,
				ClaimedID: &req.IdentityID,
				Reason:    model.ReasonIdentityNotFound,
			})
			if rejErr != nil {
				return model.VerificationResult{}, rejErr
			}
			return model.VerificationResult{Reason: model.ReasonIdentityNotFound}, errs.ErrIdentityNotFound
		}
		return model.VerificationResult{}, err
	}

	fresh, err := s.extractor.Extract(ctx, req.Audio)
	if err != nil {
		// Infrastructure failure, not a biometric rejection.
		return model.VerificationResult{}, err
	}

	sim, err := similarity.ScoreAgainstSet(fresh, refs)
	if err != nil {
		return model.VerificationResult{}, err
	}

	var liveness *model.LivenessResult
	if req.ChallengeID != nil {
		transcript, err := s.transcriber.Transcribe(ctx, req.Audio)
		if err != nil {
			return model.VerificationResult{}, err
		}
		lr, err := s.challenges.ValidateAndConsume(ctx, *req.ChallengeID, transcript, s.thresholds.Liveness)
		if err != nil {
			reason, known := challengeReason(err)
			if !known {
				return model.VerificationResult{}, err
			}
			rejErr := s.reject(ctx, model.Attempt{
				Mode:        model.ModeVerify,
				ClaimedID:   &req.IdentityID,
				Similarity:  sim,
				ChallengeID: req.ChallengeID,
				Reason:      reason,
			})
			if rejErr != nil {
				return model.VerificationResult{}, rejErr
			}
			_, _, _ = s.lim.Failure(ctx, req.IdentityID, ipHash)
			return model.VerificationResult{Similarity: sim, Reason: reason}, err
		}
		liveness = &lr
	}

	simOK := sim >= s.thresholds.Similarity
	livenessOK := liveness == nil || liveness.Matched
	accepted := simOK && livenessOK

	reason := model.ReasonAccepted
	switch {
	case accepted:
	case !simOK:
		reason = model.ReasonLowSimilarity
	default:
		reason = model.ReasonLivenessFailed
	}

	attempt := model.Attempt{
		Mode:        model.ModeVerify,
		ClaimedID:   &req.IdentityID,
		Similarity:  sim,
		ChallengeID: req.ChallengeID,
		Decision:    model.DecisionReject,
		Reason:      reason,
	}
	if liveness != nil {
		score := liveness.Score
		attempt.TextScore = &score
	}
	if accepted {
		attempt.Decision = model.DecisionAccept
		attempt.ResultID = &req.IdentityID
	}
	if err := s.attempts.Append(ctx, &attempt); err != nil {
		return model.VerificationResult{}, fmt.Errorf("append attempt: %w", err)
	}

	if accepted {
		_ = s.lim.Success(ctx, req.IdentityID, ipHash)
	} else {
		_, _, _ = s.lim.Failure(ctx, req.IdentityID, ipHash)
	}

	return model.VerificationResult{
		Accepted:   accepted,
		Similarity: sim,
		Liveness:   liveness,
		Reason:     reason,
	}, nil
}

// Identify implements the 1:N decision flow. The ranked list is returned
// regardless of the threshold; only the logged top-1 decision applies it.
func (s *DecisionServiceImpl) Identify(ctx context.Context, audio model.Audio, topK int) ([]model.Candidate, error) {
	if topK <= 0 {
		topK = 5
	}

	fresh, err := s.extractor.Extract(ctx, audio)
	if err != nil {
		return nil, err
	}

	summaries, err := s.identities.List(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]model.Candidate, 0, len(summaries))
	for _, sum := range summaries {
		refs, err := s.identities.GetEmbeddings(ctx, sum.ID)
		if err != nil {
			return nil, fmt.Errorf("identity %s: %w", sum.ID, err)
		}
		sim, err := similarity.ScoreAgainstSet(fresh, refs)
		if err != nil {
			return nil, fmt.Errorf("identity %s: %w", sum.ID, err)
		}
		candidates = append(candidates, model.Candidate{Identity: sum, Similarity: sim})
	}

	// Descending similarity; ties broken by id ascending for reproducibility.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return bytes.Compare(candidates[i].Identity.ID.Bytes(), candidates[j].Identity.ID.Bytes()) < 0
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	attempt := model.Attempt{
		Mode:     model.ModeIdentify,
		Decision: model.DecisionReject,
		Reason:   model.ReasonNoMatch,
	}
	if len(candidates) > 0 {
		attempt.Similarity = candidates[0].Similarity
		if candidates[0].Similarity >= s.thresholds.Similarity {
			top := candidates[0].Identity.ID
			attempt.Decision = model.DecisionAccept
			attempt.ResultID = &top
			attempt.Reason = model.ReasonAccepted
		}
	}
	if err := s.attempts.Append(ctx, &attempt); err != nil {
		return nil, fmt.Errorf("append attempt: %w", err)
	}
	return candidates, nil
}

// AttemptLog returns recent attempt records, newest first.
func (s *DecisionServiceImpl) AttemptLog(ctx context.Context, claimedID *uuid.UUID, limit int) ([]model.Attempt, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	return s.attempts.List(ctx, claimedID, limit)
}

// reject writes a rejection attempt record.
func (s *DecisionServiceImpl) reject(ctx context.Context, a model.Attempt) error {
	a.Decision = model.DecisionReject
	if err := s.attempts.Append(ctx, &a); err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

// challengeReason maps challenge lifecycle errors to audit reason codes.
func challengeReason(err error) (string, bool) {
	switch {
	case errors.Is(err, errs.ErrChallengeNotFound):
		return model.ReasonChallengeNotFound, true
	case errors.Is(err, errs.ErrChallengeExpired):
		return model.ReasonChallengeExpired, true
	case errors.Is(err, errs.ErrChallengeConsumed):
		return model.ReasonChallengeConsumed, true
	default:
		return "", false
	}
}
