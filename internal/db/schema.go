package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at startup. Every statement is idempotent.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS users (
		id                  UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username            VARCHAR(64) NOT NULL UNIQUE,
		role                VARCHAR(16) NOT NULL DEFAULT 'user',
		trust_score         DOUBLE PRECISION NOT NULL DEFAULT 50 CHECK (trust_score BETWEEN 0 AND 100),
		trust_frozen        BOOLEAN NOT NULL DEFAULT false,
		trust_frozen_at     TIMESTAMPTZ,
		trust_frozen_by     UUID,
		trust_frozen_reason TEXT,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		author_id  UUID NOT NULL REFERENCES users(id),
		title      TEXT NOT NULL,
		status     VARCHAR(16) NOT NULL DEFAULT 'draft',
		score      DOUBLE PRECISION NOT NULL DEFAULT 0,
		upvotes    INT NOT NULL DEFAULT 0,
		downvotes  INT NOT NULL DEFAULT 0,
		scored_at  TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS votes (
		id         UUID PRIMARY KEY,
		post_id    UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		direction  VARCHAR(8) NOT NULL CHECK (direction IN ('upvote', 'downvote')),
		weight     DOUBLE PRECISION NOT NULL DEFAULT 1 CHECK (weight BETWEEN 0.5 AND 2.0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (post_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS votes_post_created_idx ON votes (post_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS votes_user_idx ON votes (user_id)`,
	`CREATE TABLE IF NOT EXISTS admin_alerts (
		id             UUID PRIMARY KEY,
		type           VARCHAR(32) NOT NULL,
		severity       VARCHAR(16) NOT NULL,
		title          TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		target_user_id UUID,
		metadata       JSONB NOT NULL DEFAULT '{}'::jsonb,
		resolved       BOOLEAN NOT NULL DEFAULT false,
		resolved_at    TIMESTAMPTZ,
		resolved_by    UUID,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS admin_alerts_status_idx ON admin_alerts (resolved, type, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS moderation_log (
		id             UUID PRIMARY KEY,
		action         VARCHAR(32) NOT NULL,
		actor_id       UUID NOT NULL,
		target_post_id UUID,
		target_user_id UUID,
		reason         TEXT NOT NULL DEFAULT '',
		affected_count INT NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS moderation_log_created_idx ON moderation_log (created_at DESC)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, q := range schema {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
