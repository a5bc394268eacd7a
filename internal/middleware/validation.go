package middleware

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"

	"github.com/inkraft/inkraft-go/internal/validation"
)

// MaxReasonLen is the longest moderation reason kept, in characters. It
// matches the max=500 rule on the request bodies.
const MaxReasonLen = 500

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidatePostID checks that a post id is a UUID and canonicalizes it.
func ValidatePostID(id string) (string, string) {
	return validation.ID("postId", id)
}

// ValidateUserID checks that a user id is a UUID and canonicalizes it.
func ValidateUserID(id string) (string, string) {
	return validation.ID("userId", id)
}

// ValidateAlertID checks that an alert id is a UUID and canonicalizes it.
func ValidateAlertID(id string) (string, string) {
	return validation.ID("alertId", id)
}

// ValidateReason trims a free-text moderation reason and truncates it to
// MaxReasonLen runes.
func ValidateReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) <= MaxReasonLen {
		return reason
	}
	return strings.TrimSpace(string([]rune(reason)[:MaxReasonLen]))
}
