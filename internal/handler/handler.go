package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/inkraft/inkraft-go/internal/middleware"
	"github.com/inkraft/inkraft-go/internal/repository"
	"github.com/inkraft/inkraft-go/internal/service"
)

// Options carries what every handler needs besides its service.
type Options struct {
	Log     zerolog.Logger
	Timeout time.Duration
}

type base struct {
	log     zerolog.Logger
	timeout time.Duration
}

func newBase(o Options) base {
	return base{log: o.Log, timeout: o.Timeout}
}

// ctx bounds a request's storage calls by the configured timeout.
func (b base) ctx(c fiber.Ctx) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(c.Context())
	}
	return context.WithTimeout(c.Context(), b.timeout)
}

// writeServiceError maps a service error onto the API error envelope.
// notFound is the message used for repository.ErrNotFound. Storage failures
// are logged and answered with a generic 500.
func (b base) writeServiceError(c fiber.Ctx, err error, notFound string) error {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
	case errors.Is(err, service.ErrForbidden):
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "FORBIDDEN", "Admin access required")
	case errors.Is(err, service.ErrInvalidInput):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", inputMessage(err))
	case errors.Is(err, repository.ErrNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", notFound)
	case errors.Is(err, repository.ErrConflict):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "CONFLICT", "The resource was modified concurrently or is already in that state")
	case errors.Is(err, repository.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		b.log.Error().Err(err).Str("request_id", middleware.RequestID(c)).Msg("storage unavailable")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	default:
		b.log.Error().Err(err).Str("request_id", middleware.RequestID(c)).Msg("request failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// inputMessage strips the sentinel suffix from an ErrInvalidInput error.
func inputMessage(err error) string {
	msg, found := strings.CutSuffix(err.Error(), ": "+service.ErrInvalidInput.Error())
	if !found || msg == "" {
		return "Invalid input"
	}
	return msg
}

// queryInt parses an optional integer query parameter in [1, upper].
func queryInt(c fiber.Ctx, name string, upper int) (int, string) {
	raw := c.Query(name)
	if raw == "" {
		return 0, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, name + " must be a positive integer"
	}
	if n > upper {
		return 0, fmt.Sprintf("%s must be at most %d", name, upper)
	}
	return n, ""
}
