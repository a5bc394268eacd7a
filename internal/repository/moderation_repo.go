package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkraft/inkraft-go/internal/db"
	"github.com/inkraft/inkraft-go/internal/model"
)

// ModerationRepo applies admin actions together with their audit entries,
// each in a single transaction.
type ModerationRepo struct {
	pool *pgxpool.Pool
}

func NewModerationRepo(pool *pgxpool.Pool) *ModerationRepo {
	return &ModerationRepo{pool: pool}
}

func insertEntry(ctx context.Context, tx pgx.Tx, e model.ModerationEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO moderation_log (id, action, actor_id, target_post_id, target_user_id, reason, affected_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Action, e.ActorID, e.TargetPostID, e.TargetUserID, e.Reason, e.AffectedCount, e.CreatedAt)
	return err
}

// NullifyVotes deletes the votes selected by scope and records entry with
// the deleted count. Nothing is written if any step fails.
func (r *ModerationRepo) NullifyVotes(ctx context.Context, scope model.NullifyScope, entry model.ModerationEntry) (int, error) {
	var n int
	err := db.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, scope.PostID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		query := `DELETE FROM votes WHERE post_id = $1`
		args := []any{scope.PostID}
		if scope.UserID != "" {
			query += ` AND user_id = $2`
			args = append(args, scope.UserID)
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		n = int(tag.RowsAffected())

		entry.AffectedCount = n
		return insertEntry(ctx, tx, entry)
	})
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// FreezeTrust stamps the freeze fields on a user and records entry.
// Re-freezing overwrites the previous stamp.
func (r *ModerationRepo) FreezeTrust(ctx context.Context, userID string, f model.TrustFreeze, entry model.ModerationEntry) error {
	err := db.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE users
			SET trust_frozen = true, trust_frozen_at = $2, trust_frozen_by = $3, trust_frozen_reason = $4
			WHERE id = $1`,
			userID, f.FrozenAt, f.FrozenBy, f.Reason)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		entry.AffectedCount = 1
		return insertEntry(ctx, tx, entry)
	})
	return classify(err)
}

// UnfreezeTrust clears the freeze fields on a user and records entry.
func (r *ModerationRepo) UnfreezeTrust(ctx context.Context, userID string, entry model.ModerationEntry) error {
	err := db.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE users
			SET trust_frozen = false, trust_frozen_at = NULL, trust_frozen_by = NULL, trust_frozen_reason = NULL
			WHERE id = $1`,
			userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		entry.AffectedCount = 1
		return insertEntry(ctx, tx, entry)
	})
	return classify(err)
}

// ListModeration returns one page of audit entries matching filter and the
// total match count.
func (r *ModerationRepo) ListModeration(ctx context.Context, filter model.ModerationFilter) ([]model.ModerationEntry, int, error) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Action != "" {
		add("action = $%d", filter.Action)
	}
	if filter.PostID != "" {
		add("target_post_id = $%d", filter.PostID)
	}
	if filter.UserID != "" {
		add("target_user_id = $%d", filter.UserID)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM moderation_log `+where, args...).Scan(&total); err != nil {
		return nil, 0, classify(err)
	}

	limit, offset := pageBounds(filter.Page, filter.Limit)
	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, action, actor_id, target_post_id, target_user_id, reason, affected_count, created_at
		FROM moderation_log %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, classify(err)
	}
	defer rows.Close()

	entries := []model.ModerationEntry{}
	for rows.Next() {
		var e model.ModerationEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorID, &e.TargetPostID, &e.TargetUserID,
			&e.Reason, &e.AffectedCount, &e.CreatedAt); err != nil {
			return nil, 0, classify(err)
		}
		entries = append(entries, e)
	}
	return entries, total, classify(rows.Err())
}
