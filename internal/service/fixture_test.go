package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkraft/inkraft-go/internal/metrics"
	"github.com/inkraft/inkraft-go/internal/model"
	"github.com/inkraft/inkraft-go/internal/repository/memstore"
)

const (
	postID   = "3f0c9a52-7a4e-4d39-9a51-1d1c1f6f0a01"
	draftID  = "3f0c9a52-7a4e-4d39-9a51-1d1c1f6f0a02"
	authorID = "9b6f7c10-2c1b-4e8e-8d2c-5b8f0e7a0001"
	userA    = "9b6f7c10-2c1b-4e8e-8d2c-5b8f0e7a000a"
	userB    = "9b6f7c10-2c1b-4e8e-8d2c-5b8f0e7a000b"
	adminID  = "9b6f7c10-2c1b-4e8e-8d2c-5b8f0e7a00ad"
)

var (
	admin  = &model.Identity{ID: adminID, Role: model.RoleAdmin}
	actorA = &model.Identity{ID: userA, Role: model.RoleUser}
	actorB = &model.Identity{ID: userB, Role: model.RoleUser}
)

type fixture struct {
	store      *memstore.Store
	metrics    *metrics.Metrics
	trust      *TrustService
	scores     *ScoreService
	alerts     *AlertService
	fraud      *FraudDetector
	votes      *VoteService
	moderation *ModerationService
}

// newFixture seeds a published post, a draft, an admin and two voters: A with
// the default trust score (weight 1.0) and B with 75 (weight 1.5).
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	created := time.Now().AddDate(0, -1, 0)
	store.PutUser(model.User{ID: authorID, Username: "author", Role: model.RoleUser, TrustScore: model.DefaultTrustScore, CreatedAt: created})
	store.PutUser(model.User{ID: userA, Username: "alice", Role: model.RoleUser, TrustScore: model.DefaultTrustScore, CreatedAt: created})
	store.PutUser(model.User{ID: userB, Username: "bob", Role: model.RoleUser, TrustScore: 75, CreatedAt: created})
	store.PutUser(model.User{ID: adminID, Username: "admin", Role: model.RoleAdmin, TrustScore: model.DefaultTrustScore, CreatedAt: created})
	store.PutPost(model.Post{ID: postID, AuthorID: authorID, Title: "Hello", Status: model.PostPublished, CreatedAt: created})
	store.PutPost(model.Post{ID: draftID, AuthorID: authorID, Title: "WIP", Status: model.PostDraft, CreatedAt: created})

	log := zerolog.Nop()
	m := metrics.New(nil)
	f := &fixture{store: store, metrics: m}
	f.trust = NewTrustService(store)
	f.scores = NewScoreService(store, &CacheService{}, m, log)
	f.alerts = NewAlertService(store, m, log)
	f.fraud = NewFraudDetector(store, store, f.alerts, 10*time.Minute, 50, log)
	f.votes = NewVoteService(store, store, f.trust, f.scores, f.fraud, m, log)
	f.moderation = NewModerationService(store, f.scores, m, log)
	return f
}

func (f *fixture) post(t *testing.T, id string) model.Post {
	t.Helper()
	p, err := f.store.GetPost(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPost(%s): %v", id, err)
	}
	return *p
}

func almostEqual(a, b, epsilon float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < epsilon
}
