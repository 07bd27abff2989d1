package quiz

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidReference   = errors.New("invalid reference")
	ErrInvalidAccountName = errors.New("invalid account name")
	ErrStorage            = errors.New("storage failure")
)

var (
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	ErrUnknownQuiz  = fmt.Errorf("unknown quiz: %w", ErrInvalidReference)
	ErrNotJoined    = fmt.Errorf("quiz not joined: %w", ErrInvalidReference)
)

// IsDomainError reports whether err is one of the outcomes callers are
// expected to branch on, as opposed to an infrastructure failure.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrInvalidAccountName)
}
