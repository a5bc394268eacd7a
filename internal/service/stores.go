package service

import (
	"context"
	"time"

	"github.com/inkraft/inkraft-go/internal/model"
)

// VoteStore is the durable vote ledger. Implementations enforce one entry per
// (post, user) and return repository.ErrConflict when an insert loses that
// race.
type VoteStore interface {
	GetVote(ctx context.Context, postID, userID string) (*model.Vote, error)
	InsertVote(ctx context.Context, v *model.Vote) error
	UpdateVote(ctx context.Context, v *model.Vote) error
	DeleteVote(ctx context.Context, postID, userID string) error
	CountVotesSince(ctx context.Context, postID string, since time.Time) (int, error)
}

// PostStore reads posts and stores their cached score.
type PostStore interface {
	GetPost(ctx context.Context, postID string) (*model.Post, error)
	TallyPost(ctx context.Context, postID string) (model.Tally, error)
	SavePostScore(ctx context.Context, postID string, t model.Tally, at time.Time) error
	ListDriftedPosts(ctx context.Context, limit int) ([]string, error)
}

// UserStore reads users and stores recomputed trust scores.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	ListTrustInputs(ctx context.Context) ([]model.TrustInputs, error)
	SetTrustScore(ctx context.Context, userID string, score float64) error
}

// ModerationStore applies admin actions atomically with their audit entry.
type ModerationStore interface {
	NullifyVotes(ctx context.Context, scope model.NullifyScope, entry model.ModerationEntry) (int, error)
	FreezeTrust(ctx context.Context, userID string, f model.TrustFreeze, entry model.ModerationEntry) error
	UnfreezeTrust(ctx context.Context, userID string, entry model.ModerationEntry) error
	ListModeration(ctx context.Context, filter model.ModerationFilter) ([]model.ModerationEntry, int, error)
}

// AlertStore persists admin alerts.
type AlertStore interface {
	InsertAlert(ctx context.Context, a *model.AdminAlert) error
	ListAlerts(ctx context.Context, filter model.AlertFilter) ([]model.AdminAlert, int, error)
	ResolveAlert(ctx context.Context, alertID, actorID string, at time.Time) (*model.AdminAlert, error)
	HasOpenAlert(ctx context.Context, alertType, postID string) (bool, error)
}
