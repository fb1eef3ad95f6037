package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSubject means the observed page holds no analyzable listing.
	ErrNoSubject = errors.New("no analyzable subject on page")
	// ErrScoringExhausted means every permitted scoring attempt failed with a
	// transient error.
	ErrScoringExhausted = errors.New("scoring attempts exhausted")
	// ErrRequestRejected means the scoring service refused the request
	// (malformed or unauthorized). Never retried.
	ErrRequestRejected = errors.New("scoring request rejected")
	// ErrScoringTransient marks a single failed attempt that is safe to retry.
	ErrScoringTransient = errors.New("transient scoring failure")
)

// ScoringError carries the context a caller needs to decide retry-or-give-up:
// which subject failed, how, and after how many attempts.
type ScoringError struct {
	SubjectID string
	Attempts  int
	Kind      error // one of the sentinel errors above
	Cause     error
}

func (e *ScoringError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scoring subject %s failed after %d attempt(s): %v: %v", e.SubjectID, e.Attempts, e.Kind, e.Cause)
	}
	return fmt.Sprintf("scoring subject %s failed after %d attempt(s): %v", e.SubjectID, e.Attempts, e.Kind)
}

// Unwrap exposes the failure kind so errors.Is works against the sentinels.
func (e *ScoringError) Unwrap() error {
	return e.Kind
}
