package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/inkraft/inkraft-go/internal/metrics"
	"github.com/inkraft/inkraft-go/internal/model"
)

const (
	defaultNullifyReason = "Vote manipulation"
	defaultFreezeReason  = "Suspicious voting activity"

	defaultPageLimit = 20
	maxPageLimit     = 100
)

// MaxPage is the highest page number a listing accepts. It keeps the row
// offset within a 32-bit integer at the largest page size.
const MaxPage = math.MaxInt32 / maxPageLimit

// ModerationService carries out admin actions against votes and trust. Every
// action writes an audit entry in the same transaction as its effect.
type ModerationService struct {
	store   ModerationStore
	scores  *ScoreService
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

func NewModerationService(store ModerationStore, scores *ScoreService, m *metrics.Metrics, log zerolog.Logger) *ModerationService {
	return &ModerationService{store: store, scores: scores, metrics: m, log: log, now: time.Now}
}

func requireAdmin(actor *model.Identity) error {
	if actor == nil || actor.ID == "" {
		return ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (s *ModerationService) entry(action string, actor *model.Identity, reason string) model.ModerationEntry {
	return model.ModerationEntry{
		ID:        uuid.NewString(),
		Action:    action,
		ActorID:   actor.ID,
		Reason:    reason,
		CreatedAt: s.now(),
	}
}

// NullifyVotes removes every vote on the post, or only userID's vote when
// userID is non-empty, and returns how many were removed. The post score is
// recomputed afterwards.
func (s *ModerationService) NullifyVotes(ctx context.Context, actor *model.Identity, postID, userID, reason string) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultNullifyReason
	}

	e := s.entry(model.ActionNullifyVotes, actor, reason)
	e.TargetPostID = &postID
	if userID != "" {
		e.TargetUserID = &userID
	}

	n, err := s.store.NullifyVotes(ctx, model.NullifyScope{PostID: postID, UserID: userID}, e)
	if err != nil {
		return 0, errors.Wrapf(err, "nullify votes on post %s", postID)
	}
	s.metrics.Nullified(n)

	if _, err := s.scores.Recompute(ctx, postID); err != nil {
		// The votes are gone and audited; the score worker repairs the cache.
		s.log.Error().Err(err).Str("postId", postID).Msg("moderation: recompute after nullify failed")
	}

	s.log.Info().
		Str("actorId", actor.ID).
		Str("postId", postID).
		Str("userId", userID).
		Int("nullified", n).
		Msg("moderation: votes nullified")
	return n, nil
}

// FreezeUserTrust pins the user's vote weight to the minimum. Freezing an
// already frozen user restamps actor, reason and time.
func (s *ModerationService) FreezeUserTrust(ctx context.Context, actor *model.Identity, userID, reason string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultFreezeReason
	}

	e := s.entry(model.ActionFreezeTrust, actor, reason)
	e.TargetUserID = &userID
	f := model.TrustFreeze{FrozenAt: e.CreatedAt, FrozenBy: actor.ID, Reason: reason}
	if err := s.store.FreezeTrust(ctx, userID, f, e); err != nil {
		return errors.Wrapf(err, "freeze trust for user %s", userID)
	}
	s.metrics.TrustAction("freeze")

	s.log.Info().Str("actorId", actor.ID).Str("userId", userID).Msg("moderation: trust frozen")
	return nil
}

// UnfreezeUserTrust clears the freeze. Unfreezing a user that is not frozen
// succeeds.
func (s *ModerationService) UnfreezeUserTrust(ctx context.Context, actor *model.Identity, userID, reason string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	e := s.entry(model.ActionUnfreezeTrust, actor, strings.TrimSpace(reason))
	e.TargetUserID = &userID
	if err := s.store.UnfreezeTrust(ctx, userID, e); err != nil {
		return errors.Wrapf(err, "unfreeze trust for user %s", userID)
	}
	s.metrics.TrustAction("unfreeze")

	s.log.Info().Str("actorId", actor.ID).Str("userId", userID).Msg("moderation: trust unfrozen")
	return nil
}

// ApplyTrustAction dispatches a "freeze" or "unfreeze" action and returns a
// message describing the result.
func (s *ModerationService) ApplyTrustAction(ctx context.Context, actor *model.Identity, userID, action, reason string) (string, error) {
	switch action {
	case "freeze":
		if err := s.FreezeUserTrust(ctx, actor, userID, reason); err != nil {
			return "", err
		}
		return "User trust frozen", nil
	case "unfreeze":
		if err := s.UnfreezeUserTrust(ctx, actor, userID, reason); err != nil {
			return "", err
		}
		return "User trust unfrozen", nil
	default:
		if err := requireAdmin(actor); err != nil {
			return "", err
		}
		return "", invalidInput("action must be freeze or unfreeze")
	}
}

// History returns a page of the moderation audit trail.
func (s *ModerationService) History(ctx context.Context, actor *model.Identity, filter model.ModerationFilter) (*model.ModerationPage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var err error
	if filter.Page, filter.Limit, err = normalizePage(filter.Page, filter.Limit); err != nil {
		return nil, err
	}

	entries, total, err := s.store.ListModeration(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list moderation log")
	}
	return &model.ModerationPage{
		Entries:    entries,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Total:      total,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

func normalizePage(page, limit int) (int, int, error) {
	if page > MaxPage {
		return 0, 0, invalidInput(fmt.Sprintf("page must be at most %d", MaxPage))
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit, nil
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
