// Package apperr holds the error taxonomy shared by the roster core and
// its collaborators, and the rules for turning an error into a chat reply.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad input typed by a human (date, number, name).
	ErrValidation = errors.New("validation")
	// ErrNotFound marks a missing template, person or pending offer.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate marks an attempt to sign up twice.
	ErrDuplicate = errors.New("duplicate")
	// ErrTransport marks a rejected send/edit/delete on the chat side.
	ErrTransport = errors.New("transport")
	// ErrPersistence marks an unreachable or inconsistent attendance store.
	ErrPersistence = errors.New("persistence")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Duplicate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDuplicate, fmt.Sprintf(format, args...))
}

// Transport wraps err so that both ErrTransport and err match errors.Is.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}

// Persistence wraps err so that both ErrPersistence and err match errors.Is.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// Detail strips the taxonomy prefix and returns the human part of err.
func Detail(err error) string {
	msg := err.Error()
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrDuplicate} {
		prefix := kind.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}

// Reply maps err to the text shown to the user who caused it.
// The bool reports whether the user should be asked to try again.
func Reply(err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, ErrValidation):
		return "❌ " + Detail(err) + "\nPlease try again:", true
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicate):
		return "⚠ " + Detail(err), false
	default:
		return "❌ Something went wrong, please try later", false
	}
}
