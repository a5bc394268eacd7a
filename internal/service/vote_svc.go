package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/inkraft/inkraft-go/internal/metrics"
	"github.com/inkraft/inkraft-go/internal/model"
	"github.com/inkraft/inkraft-go/internal/repository"
)

// castAttempts bounds how often a cast that lost the uniqueness race on
// insert is retried as a read-then-update.
const castAttempts = 3

// Vote outcomes, as reported to metrics.
const (
	OutcomeCreated   = "created"
	OutcomeFlipped   = "flipped"
	OutcomeRetracted = "retracted"
)

type VoteService struct {
	votes   VoteStore
	posts   PostStore
	trust   *TrustService
	scores  *ScoreService
	fraud   *FraudDetector
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewVoteService(votes VoteStore, posts PostStore, trust *TrustService, scores *ScoreService,
	fraud *FraudDetector, m *metrics.Metrics, log zerolog.Logger) *VoteService {
	return &VoteService{
		votes:   votes,
		posts:   posts,
		trust:   trust,
		scores:  scores,
		fraud:   fraud,
		metrics: m,
		log:     log,
	}
}

// Cast applies a vote with toggle semantics:
//   - no existing vote: create one weighted by the caster's current trust
//   - same direction: retract the existing vote
//   - opposite direction: flip it and re-weight from current trust
//
// The post score is recomputed before Cast returns, so a read that follows
// sees the write.
func (s *VoteService) Cast(ctx context.Context, actor *model.Identity, postID string, dir model.Direction) (*model.CastResult, error) {
	if actor == nil || actor.ID == "" {
		return nil, ErrUnauthenticated
	}
	if !dir.Valid() {
		return nil, invalidInput("direction must be upvote or downvote")
	}

	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, errors.Wrapf(err, "load post %s", postID)
	}
	if post.Status != model.PostPublished {
		return nil, errors.Wrapf(repository.ErrNotFound, "post %s is not published", postID)
	}

	var result *model.CastResult
	var outcome string
	for attempt := 1; ; attempt++ {
		result, outcome, err = s.apply(ctx, actor.ID, postID, dir)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrConflict) || attempt == castAttempts {
			return nil, err
		}
		s.log.Debug().Str("postId", postID).Int("attempt", attempt).Msg("vote: insert lost race, retrying as update")
	}
	s.metrics.Vote(outcome)

	score, err := s.scores.Recompute(ctx, postID)
	if err != nil {
		return nil, err
	}
	result.Score = score

	if s.fraud != nil {
		s.fraud.Inspect(ctx, postID)
	}
	return result, nil
}

func (s *VoteService) apply(ctx context.Context, userID, postID string, dir model.Direction) (*model.CastResult, string, error) {
	existing, err := s.votes.GetVote(ctx, postID, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, "", errors.Wrap(err, "load existing vote")
	}

	if existing != nil && existing.Direction == dir {
		if err := s.votes.DeleteVote(ctx, postID, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Retracted concurrently; the end state is the same.
				return &model.CastResult{Accepted: true}, OutcomeRetracted, nil
			}
			return nil, "", errors.Wrap(err, "retract vote")
		}
		return &model.CastResult{Accepted: true}, OutcomeRetracted, nil
	}

	weight, err := s.trust.CurrentWeight(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		// A session whose user row is gone cannot vote.
		return nil, "", errors.Wrapf(ErrUnauthenticated, "voter %s not found", userID)
	}
	if err != nil {
		return nil, "", err
	}

	if existing != nil {
		existing.Direction = dir
		existing.Weight = weight
		if err := s.votes.UpdateVote(ctx, existing); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Retracted between read and write; retry as an insert.
				return nil, "", errors.Wrap(repository.ErrConflict, "vote vanished during update")
			}
			return nil, "", errors.Wrap(err, "flip vote")
		}
		return &model.CastResult{Accepted: true, CurrentDirection: dir, CurrentWeight: weight}, OutcomeFlipped, nil
	}

	v := &model.Vote{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    userID,
		Direction: dir,
		Weight:    weight,
		CreatedAt: time.Now(),
	}
	if err := s.votes.InsertVote(ctx, v); err != nil {
		return nil, "", errors.Wrap(err, "insert vote")
	}
	return &model.CastResult{Accepted: true, CurrentDirection: dir, CurrentWeight: weight}, OutcomeCreated, nil
}
