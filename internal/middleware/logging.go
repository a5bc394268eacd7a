package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/lucsky/cuid"
	"github.com/rs/zerolog"

	"github.com/inkraft/inkraft-go/pkg/hash"
)

const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the id assigned to the current request by the request
// logger, or "" outside it.
func RequestID(c fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey{}).(string)
	return id
}

// sanitizePath replaces identifiers in the path with placeholders so user
// and post ids are never written to logs.
func sanitizePath(path string) string {
	parts := strings.Split(path, "/")
	for i := range parts {
		if i == 0 || parts[i] == "" {
			continue
		}
		switch parts[i-1] {
		case "users":
			parts[i] = ":userId"
		case "posts":
			parts[i] = ":postId"
		case "alerts":
			parts[i] = ":alertId"
		}
	}
	return strings.Join(parts, "/")
}

// NewRequestLogger returns a Fiber middleware that logs each request as
// structured JSON. Raw IPs are hashed with ipSalt; dynamic path segments are
// sanitized. A request id is taken from X-Request-ID or generated, and echoed
// back on the response.
func NewRequestLogger(log zerolog.Logger, ipSalt string) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		reqID := c.Get(HeaderRequestID)
		if reqID == "" || len(reqID) > 64 {
			reqID = cuid.New()
		}
		c.Locals(requestIDKey{}, reqID)
		c.Set(HeaderRequestID, reqID)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The app's error handler has not written the response yet.
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		evt := log.Info()
		if status >= 500 {
			evt = log.Error().Err(err)
		} else if status >= 400 {
			evt = log.Warn()
		}

		evt.
			Str("request_id", reqID).
			Str("method", c.Method()).
			Str("path", sanitizePath(c.Path())).
			Int("status", status).
			Dur("duration_ms", time.Since(start)).
			Str("ip_hash", hash.LogID(c.IP(), ipSalt)).
			Int("bytes_sent", len(c.Response().Body())).
			Msg("request")

		return err
	}
}
