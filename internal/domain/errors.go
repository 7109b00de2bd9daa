package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a request selects no discovery mode.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrForbidden marks a subreddit the account may not access (private, quarantined, banned).
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a subreddit that does not exist.
	ErrNotFound = errors.New("not found")
)

// AuthError reports rejected credentials. It aborts a run.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "authentication failed"
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// ResolutionError wraps a per-subreddit lookup failure during explicit-list discovery.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve subreddit %s: %v", e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// IsSkippable reports whether err only affects a single subreddit lookup.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrNotFound)
}
