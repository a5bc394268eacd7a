package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("storage unavailable")
)

// classify maps driver errors onto the repository sentinels so callers never
// depend on pgx types.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case "23503", "22P02": // foreign_key_violation, invalid_text_representation
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// pageBounds converts a 1-based page into LIMIT/OFFSET values.
func pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}
