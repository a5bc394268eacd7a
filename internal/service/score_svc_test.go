package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/inkraft/inkraft-go/internal/model"
	"github.com/inkraft/inkraft-go/internal/repository"
)

func TestRecomputeIsWeightedSum(t *testing.T) {
	tests := []struct {
		name  string
		votes []model.Vote
		want  model.Tally
	}{
		{"no votes", nil, model.Tally{}},
		{
			name: "single upvote",
			votes: []model.Vote{
				{UserID: userA, Direction: model.Upvote, Weight: 1.0},
			},
			want: model.Tally{Score: 1.0, Upvotes: 1},
		},
		{
			name: "mixed weights",
			votes: []model.Vote{
				{UserID: userA, Direction: model.Upvote, Weight: 1.0},
				{UserID: userB, Direction: model.Downvote, Weight: 1.5},
				{UserID: authorID, Direction: model.Upvote, Weight: 2.0},
				{UserID: adminID, Direction: model.Downvote, Weight: 0.5},
			},
			want: model.Tally{Score: 1.0, Upvotes: 2, Downvotes: 2},
		},
		{
			name: "downvotes only",
			votes: []model.Vote{
				{UserID: userA, Direction: model.Downvote, Weight: 0.5},
				{UserID: userB, Direction: model.Downvote, Weight: 0.75},
			},
			want: model.Tally{Score: -1.25, Downvotes: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			for _, v := range tt.votes {
				v.PostID = postID
				f.store.PutVote(v)
			}

			for i := 0; i < 2; i++ {
				got, err := f.scores.Recompute(ctx, postID)
				if err != nil {
					t.Fatalf("Recompute: %v", err)
				}
				if !almostEqual(got, tt.want.Score, 1e-9) {
					t.Errorf("Recompute pass %d = %.4f, want %.4f", i+1, got, tt.want.Score)
				}
			}

			p := f.post(t, postID)
			if !almostEqual(p.Score, tt.want.Score, 1e-9) || p.Upvotes != tt.want.Upvotes || p.Downvotes != tt.want.Downvotes {
				t.Errorf("stored post = {score %.4f, up %d, down %d}, want %+v", p.Score, p.Upvotes, p.Downvotes, tt.want)
			}
			if p.ScoredAt == nil {
				t.Error("ScoredAt not set after Recompute")
			}
		})
	}
}

func TestScoreReadsStoredScoreWithoutCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.PutVote(model.Vote{PostID: postID, UserID: userB, Direction: model.Upvote, Weight: 1.5})
	if _, err := f.scores.Recompute(ctx, postID); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	got, err := f.scores.Score(ctx, postID)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 1.5 {
		t.Errorf("Score = %.2f, want 1.50", got)
	}
	if misses := testutil.ToFloat64(f.metrics.CacheMisses); misses != 1 {
		t.Errorf("cache misses = %v, want 1", misses)
	}

	if _, err := f.scores.Score(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Score(missing) error = %v, want ErrNotFound", err)
	}
}

func TestReconcileAllRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Ledger writes that skipped the inline recompute.
	f.store.PutVote(model.Vote{PostID: postID, UserID: userA, Direction: model.Upvote, Weight: 1.0})
	f.store.PutVote(model.Vote{PostID: draftID, UserID: userB, Direction: model.Downvote, Weight: 1.5})

	repaired, err := f.scores.ReconcileAll(ctx, 1)
	if err != nil {
		t.Fatalf("ReconcileAll: %v", err)
	}
	if repaired != 2 {
		t.Errorf("ReconcileAll repaired %d posts, want 2", repaired)
	}
	if p := f.post(t, postID); p.Score != 1.0 {
		t.Errorf("post score = %.2f, want 1.00", p.Score)
	}
	if p := f.post(t, draftID); p.Score != -1.5 {
		t.Errorf("draft score = %.2f, want -1.50", p.Score)
	}

	repaired, err = f.scores.ReconcileAll(ctx, 10)
	if err != nil {
		t.Fatalf("second ReconcileAll: %v", err)
	}
	if repaired != 0 {
		t.Errorf("second ReconcileAll repaired %d posts, want 0", repaired)
	}
}

func TestRecomputeStorageFailure(t *testing.T) {
	f := newFixture(t)
	f.store.Fail = errors.New("connection refused")

	_, err := f.scores.Recompute(context.Background(), postID)
	if !errors.Is(err, repository.ErrUnavailable) {
		t.Errorf("Recompute error = %v, want ErrUnavailable", err)
	}
}
