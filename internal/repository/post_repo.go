package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkraft/inkraft-go/internal/model"
)

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

// GetPost returns a post by id.
func (r *PostRepo) GetPost(ctx context.Context, postID string) (*model.Post, error) {
	var p model.Post
	err := r.pool.QueryRow(ctx, `
		SELECT id, author_id, title, status, score, upvotes, downvotes, scored_at, created_at
		FROM posts
		WHERE id = $1`,
		postID).Scan(&p.ID, &p.AuthorID, &p.Title, &p.Status, &p.Score, &p.Upvotes, &p.Downvotes, &p.ScoredAt, &p.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

// TallyPost sums the current ledger entries of a post.
func (r *PostRepo) TallyPost(ctx context.Context, postID string) (model.Tally, error) {
	var t model.Tally
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN direction = 'upvote' THEN weight ELSE -weight END), 0),
			COUNT(*) FILTER (WHERE direction = 'upvote'),
			COUNT(*) FILTER (WHERE direction = 'downvote')
		FROM votes
		WHERE post_id = $1`,
		postID).Scan(&t.Score, &t.Upvotes, &t.Downvotes)
	return t, classify(err)
}

// SavePostScore stores a tally as the post's cached score.
func (r *PostRepo) SavePostScore(ctx context.Context, postID string, t model.Tally, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE posts SET score = $2, upvotes = $3, downvotes = $4, scored_at = $5
		WHERE id = $1`,
		postID, t.Score, t.Upvotes, t.Downvotes, at)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDriftedPosts returns ids of posts whose cached score no longer matches
// their ledger.
func (r *PostRepo) ListDriftedPosts(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id
		FROM posts p
		LEFT JOIN (
			SELECT post_id,
			       SUM(CASE WHEN direction = 'upvote' THEN weight ELSE -weight END) AS score,
			       COUNT(*) FILTER (WHERE direction = 'upvote') AS upvotes,
			       COUNT(*) FILTER (WHERE direction = 'downvote') AS downvotes
			FROM votes
			GROUP BY post_id
		) v ON v.post_id = p.id
		WHERE ABS(p.score - COALESCE(v.score, 0)) > 1e-9
		   OR p.upvotes <> COALESCE(v.upvotes, 0)
		   OR p.downvotes <> COALESCE(v.downvotes, 0)
		LIMIT $1`, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classify(err)
		}
		ids = append(ids, id)
	}
	return ids, classify(rows.Err())
}
