package service

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/inkraft/inkraft-go/internal/model"
)

const (
	ageWeight        = 0.30
	reputationWeight = 0.50
	volumeWeight     = 0.20

	// Full age factor after 60 days
	ageDaysMax = 60.0

	// Default reputation for authors with fewer than 3 published posts
	defaultReputation      = 0.5
	minPostsForReputation  = 3
	karmaPerPostForFullRep = 10.0

	// Full volume factor at 100 votes cast
	volumeVotesMax = 100.0
)

type TrustService struct {
	users UserStore
	now   func() time.Time
}

func NewTrustService(users UserStore) *TrustService {
	return &TrustService{users: users, now: time.Now}
}

// ComputeTrustScore calculates a user's trust score in [0, 100]:
//
//	trust_score = 100 * (age_factor * 0.30 + reputation_factor * 0.50 + volume_factor * 0.20)
func (s *TrustService) ComputeTrustScore(in model.TrustInputs) float64 {
	ageFactor := s.AgeFactor(in.CreatedAt)
	reputationFactor := s.ReputationFactor(in.NetKarma, in.PublishedPosts)
	volumeFactor := s.VolumeFactor(in.VotesCast)

	score := (ageFactor * ageWeight) + (reputationFactor * reputationWeight) + (volumeFactor * volumeWeight)
	return math.Min(score, 1.0) * model.MaxTrustScore
}

// AgeFactor returns a value between 0.0 and 1.0 based on account age.
// Full weight (1.0) after 60 days.
func (s *TrustService) AgeFactor(createdAt time.Time) float64 {
	days := s.now().Sub(createdAt).Hours() / 24
	return clamp(days/ageDaysMax, 0, 1)
}

// ReputationFactor maps the average net score of a user's published posts to
// [0, 1]. Authors with fewer than 3 published posts get the neutral 0.5.
func (s *TrustService) ReputationFactor(netKarma float64, publishedPosts int) float64 {
	if publishedPosts < minPostsForReputation {
		return defaultReputation
	}
	perPost := netKarma / float64(publishedPosts)
	return clamp(defaultReputation+perPost/(2*karmaPerPostForFullRep), 0, 1)
}

// VolumeFactor returns a value between 0.0 and 1.0 based on votes cast.
// Full weight (1.0) at 100+ votes.
func (s *TrustService) VolumeFactor(votesCast int) float64 {
	return math.Min(float64(votesCast)/volumeVotesMax, 1.0)
}

// WeightForScore maps a trust score onto a vote weight. The curve is
// piecewise linear through (0, 0.5), (50, 1.0) and (100, 2.0), clamped at
// both ends.
func WeightForScore(score float64) float64 {
	mid := (model.MinTrustScore + model.MaxTrustScore) / 2
	switch {
	case score <= model.MinTrustScore:
		return model.MinVoteWeight
	case score >= model.MaxTrustScore:
		return model.MaxVoteWeight
	case score <= mid:
		return model.MinVoteWeight + (score/mid)*(model.DefaultVoteWeight-model.MinVoteWeight)
	default:
		return model.DefaultVoteWeight + ((score-mid)/mid)*(model.MaxVoteWeight-model.DefaultVoteWeight)
	}
}

// EffectiveWeight returns the weight a new vote by u carries. Frozen users
// always get the minimum weight.
func (s *TrustService) EffectiveWeight(u *model.User) float64 {
	if u.TrustFrozen {
		return model.MinVoteWeight
	}
	return WeightForScore(u.TrustScore)
}

// CurrentWeight loads the user and returns EffectiveWeight.
func (s *TrustService) CurrentWeight(ctx context.Context, userID string) (float64, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return 0, errors.Wrapf(err, "load user %s", userID)
	}
	return s.EffectiveWeight(u), nil
}

// Lookup returns the public trust state of a user.
func (s *TrustService) Lookup(ctx context.Context, userID string) (*model.TrustResponse, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "load user %s", userID)
	}
	return &model.TrustResponse{
		UserID:      u.ID,
		TrustScore:  u.TrustScore,
		TrustFrozen: u.TrustFrozen,
		VoteWeight:  s.EffectiveWeight(u),
	}, nil
}

// RefreshAll recomputes and stores the trust score of every non-frozen user.
func (s *TrustService) RefreshAll(ctx context.Context) (int, error) {
	inputs, err := s.users.ListTrustInputs(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list trust inputs")
	}
	updated := 0
	for _, in := range inputs {
		if err := s.users.SetTrustScore(ctx, in.UserID, s.ComputeTrustScore(in)); err != nil {
			return updated, errors.Wrapf(err, "store trust score for %s", in.UserID)
		}
		updated++
	}
	return updated, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
