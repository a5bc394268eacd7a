package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/inkraft/inkraft-go/internal/metrics"
)

const maxReconcilePasses = 100

// ScoreService recomputes post scores from the vote ledger. The score stored
// on a post, and the copy in Redis, are caches of:
//
//	score = sum(weight of upvotes) - sum(weight of downvotes)
type ScoreService struct {
	posts   PostStore
	cache   *CacheService
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

func NewScoreService(posts PostStore, cache *CacheService, m *metrics.Metrics, log zerolog.Logger) *ScoreService {
	return &ScoreService{posts: posts, cache: cache, metrics: m, log: log, now: time.Now}
}

// Recompute derives the post's score from its current votes, stores it on
// the post and refreshes the cache.
func (s *ScoreService) Recompute(ctx context.Context, postID string) (float64, error) {
	start := time.Now()
	defer func() { s.metrics.ScoreRecalc(time.Since(start)) }()

	tally, err := s.posts.TallyPost(ctx, postID)
	if err != nil {
		return 0, errors.Wrapf(err, "tally post %s", postID)
	}
	if err := s.posts.SavePostScore(ctx, postID, tally, s.now()); err != nil {
		return 0, errors.Wrapf(err, "save score for post %s", postID)
	}

	if err := s.cache.SetScore(ctx, postID, tally.Score); err != nil {
		s.log.Warn().Err(err).Str("postId", postID).Msg("cache: set score failed")
		// A stale entry would shadow the new score; drop it.
		_ = s.cache.InvalidateScore(ctx, postID)
	}
	return tally.Score, nil
}

// Score returns the cached score of a post, reading through Redis.
func (s *ScoreService) Score(ctx context.Context, postID string) (float64, error) {
	if score, ok, err := s.cache.GetScore(ctx, postID); err != nil {
		s.log.Warn().Err(err).Str("postId", postID).Msg("cache: get score failed")
	} else if ok {
		s.metrics.CacheHit()
		return score, nil
	}
	s.metrics.CacheMiss()

	p, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return 0, errors.Wrapf(err, "load post %s", postID)
	}
	if err := s.cache.SetScore(ctx, postID, p.Score); err != nil {
		s.log.Warn().Err(err).Str("postId", postID).Msg("cache: set score failed")
	}
	return p.Score, nil
}

// ReconcileAll recomputes every post whose stored score drifted from its
// ledger, in batches of batchSize. It returns the number of posts repaired.
func (s *ScoreService) ReconcileAll(ctx context.Context, batchSize int) (int, error) {
	repaired := 0
	for pass := 0; pass < maxReconcilePasses; pass++ {
		ids, err := s.posts.ListDriftedPosts(ctx, batchSize)
		if err != nil {
			return repaired, errors.Wrap(err, "list drifted posts")
		}
		if len(ids) == 0 {
			return repaired, nil
		}
		for _, id := range ids {
			if _, err := s.Recompute(ctx, id); err != nil {
				return repaired, err
			}
			repaired++
		}
		if len(ids) < batchSize {
			return repaired, nil
		}
	}
	return repaired, nil
}
