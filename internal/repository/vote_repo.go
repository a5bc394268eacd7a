package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkraft/inkraft-go/internal/model"
)

type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

// GetVote returns the ledger entry for (postID, userID).
func (r *VoteRepo) GetVote(ctx context.Context, postID, userID string) (*model.Vote, error) {
	var v model.Vote
	err := r.pool.QueryRow(ctx, `
		SELECT id, post_id, user_id, direction, weight, created_at, updated_at
		FROM votes
		WHERE post_id = $1 AND user_id = $2`,
		postID, userID).Scan(&v.ID, &v.PostID, &v.UserID, &v.Direction, &v.Weight, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &v, nil
}

// InsertVote creates a ledger entry. A concurrent insert for the same pair
// loses on the unique index and returns ErrConflict.
func (r *VoteRepo) InsertVote(ctx context.Context, v *model.Vote) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO votes (id, post_id, user_id, direction, weight)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		v.ID, v.PostID, v.UserID, v.Direction, v.Weight).Scan(&v.CreatedAt, &v.UpdatedAt)
	return classify(err)
}

// UpdateVote rewrites direction and weight of the existing entry for the pair.
func (r *VoteRepo) UpdateVote(ctx context.Context, v *model.Vote) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE votes SET direction = $3, weight = $4, updated_at = NOW()
		WHERE post_id = $1 AND user_id = $2
		RETURNING id, created_at, updated_at`,
		v.PostID, v.UserID, v.Direction, v.Weight).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	return classify(err)
}

// DeleteVote removes the entry for the pair.
func (r *VoteRepo) DeleteVote(ctx context.Context, postID, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM votes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountVotesSince counts entries on a post created or changed after since.
func (r *VoteRepo) CountVotesSince(ctx context.Context, postID string, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM votes WHERE post_id = $1 AND updated_at > $2`,
		postID, since).Scan(&n)
	return n, classify(err)
}
