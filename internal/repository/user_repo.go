package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkraft/inkraft-go/internal/model"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// GetUser returns a single user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID string) (*model.User, error) {
	query := `
		SELECT id, username, role, trust_score, trust_frozen,
		       trust_frozen_at, trust_frozen_by, trust_frozen_reason, created_at
		FROM users
		WHERE id = $1`

	var u model.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&u.ID, &u.Username, &u.Role, &u.TrustScore, &u.TrustFrozen,
		&u.TrustFrozenAt, &u.TrustFrozenBy, &u.TrustFrozenReason, &u.CreatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// ListTrustInputs returns activity figures for every user whose trust is not
// frozen.
func (r *UserRepo) ListTrustInputs(ctx context.Context) ([]model.TrustInputs, error) {
	query := `
		SELECT u.id, u.created_at,
		       (SELECT COUNT(*) FROM votes v WHERE v.user_id = u.id) AS votes_cast,
		       COUNT(p.id) AS published_posts,
		       COALESCE(SUM(p.score), 0) AS net_karma
		FROM users u
		LEFT JOIN posts p ON p.author_id = u.id AND p.status = 'published'
		WHERE u.trust_frozen = false
		GROUP BY u.id, u.created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.TrustInputs
	for rows.Next() {
		var in model.TrustInputs
		if err := rows.Scan(&in.UserID, &in.CreatedAt, &in.VotesCast, &in.PublishedPosts, &in.NetKarma); err != nil {
			return nil, classify(err)
		}
		out = append(out, in)
	}
	return out, classify(rows.Err())
}

// SetTrustScore stores a recomputed trust score. Frozen users are skipped.
func (r *UserRepo) SetTrustScore(ctx context.Context, userID string, score float64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET trust_score = $2
		WHERE id = $1 AND trust_frozen = false`,
		userID, score)
	return classify(err)
}
