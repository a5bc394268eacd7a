package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkraft/inkraft-go/internal/model"
)

type AlertRepo struct {
	pool *pgxpool.Pool
}

func NewAlertRepo(pool *pgxpool.Pool) *AlertRepo {
	return &AlertRepo{pool: pool}
}

const alertColumns = `id, type, severity, title, description, target_user_id, metadata,
	resolved, resolved_at, resolved_by, created_at`

func scanAlert(row pgx.Row) (*model.AdminAlert, error) {
	var a model.AdminAlert
	err := row.Scan(&a.ID, &a.Type, &a.Severity, &a.Title, &a.Description, &a.TargetUserID, &a.Metadata,
		&a.Resolved, &a.ResolvedAt, &a.ResolvedBy, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	return &a, nil
}

// InsertAlert appends an alert.
func (r *AlertRepo) InsertAlert(ctx context.Context, a *model.AdminAlert) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_alerts (id, type, severity, title, description, target_user_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Type, a.Severity, a.Title, a.Description, a.TargetUserID, a.Metadata, a.CreatedAt)
	return classify(err)
}

// ListAlerts returns one page of alerts matching filter and the total match
// count.
func (r *AlertRepo) ListAlerts(ctx context.Context, filter model.AlertFilter) ([]model.AdminAlert, int, error) {
	var conds []string
	var args []any
	switch filter.Status {
	case model.AlertStatusPending:
		conds = append(conds, "resolved = false")
	case model.AlertStatusResolved:
		conds = append(conds, "resolved = true")
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_alerts `+where, args...).Scan(&total); err != nil {
		return nil, 0, classify(err)
	}

	limit, offset := pageBounds(filter.Page, filter.Limit)
	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM admin_alerts %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, alertColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, classify(err)
	}
	defer rows.Close()

	alerts := []model.AdminAlert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, classify(err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, total, classify(rows.Err())
}

// ResolveAlert marks a pending alert resolved. Resolving an already resolved
// alert returns ErrConflict.
func (r *AlertRepo) ResolveAlert(ctx context.Context, alertID, actorID string, at time.Time) (*model.AdminAlert, error) {
	a, err := scanAlert(r.pool.QueryRow(ctx, `
		UPDATE admin_alerts SET resolved = true, resolved_at = $3, resolved_by = $2
		WHERE id = $1 AND resolved = false
		RETURNING `+alertColumns,
		alertID, actorID, at))
	if err == nil {
		return a, nil
	}
	if err = classify(err); !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM admin_alerts WHERE id = $1)`, alertID).Scan(&exists); err != nil {
		return nil, classify(err)
	}
	if exists {
		return nil, fmt.Errorf("%w: alert already resolved", ErrConflict)
	}
	return nil, ErrNotFound
}

// HasOpenAlert reports whether an unresolved alert of alertType exists for
// the post.
func (r *AlertRepo) HasOpenAlert(ctx context.Context, alertType, postID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM admin_alerts
			WHERE type = $1 AND resolved = false AND metadata->>'postId' = $2
		)`, alertType, postID).Scan(&exists)
	return exists, classify(err)
}
