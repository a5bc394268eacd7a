// Package validation wraps go-playground/validator with the messages the API
// returns to clients.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	return validate.Struct(s)
}

// Message turns a validation error into a short client-facing message.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "uuid":
			msgs = append(msgs, fmt.Sprintf("%s must be a UUID", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

// ID checks that a path or body identifier is a UUID and returns it in
// canonical form.
func ID(name, id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", name + " is required"
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", name + " must be a UUID"
	}
	return parsed.String(), ""
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
