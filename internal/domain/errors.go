package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrNoGames     = errors.New("no games on slate")
	ErrBadGameKey  = errors.New("malformed game key")
	ErrUnavailable = errors.New("source unavailable")
	ErrLockHeld    = errors.New("lock already held")
	ErrRateLimited = errors.New("rate limit reached")
)

// UnknownTeamError is returned when a team label cannot be mapped to an
// abbreviation.
type UnknownTeamError struct {
	Label string
}

func (e *UnknownTeamError) Error() string {
	return fmt.Sprintf("unknown team %q", e.Label)
}
