package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTarget signals that the target URL is not an absolute
	// http/https URL.
	ErrInvalidTarget = errors.New("invalid target URL")
	// ErrInvalidCode signals that a requested custom code fails the format
	// policy (3-10 chars of letters, digits, '-' or '_').
	ErrInvalidCode = errors.New("invalid code")
	// ErrDuplicateCode signals that the code is already taken.
	ErrDuplicateCode = errors.New("code already exists")
	// ErrNotFound signals that no link exists for the given code.
	ErrNotFound = errors.New("link not found")
)

// DuplicateTargetError reports that the target URL is already shortened and
// carries the code of the existing link so callers can surface it.
type DuplicateTargetError struct {
	Code string
}

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("target URL already shortened as %q", e.Code)
}
