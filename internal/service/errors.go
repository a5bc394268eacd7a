package service

import "github.com/pkg/errors"

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
)

// invalidInput wraps ErrInvalidInput with a message that is safe to return
// to the client.
func invalidInput(msg string) error {
	return errors.Wrap(ErrInvalidInput, msg)
}
