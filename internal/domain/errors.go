package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the record does not exist, or does not exist for this owner.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates an existing short code belongs to another owner.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable matches every *UnavailableError.
	ErrUnavailable = errors.New("link unavailable")

	// ErrAllocationExhausted indicates no free short code was found within the attempt budget.
	ErrAllocationExhausted = errors.New("short code allocation exhausted")
)

// UnavailableReason explains why a stored link can no longer be followed
type UnavailableReason string

const (
	ReasonExpired      UnavailableReason = "expired"
	ReasonLimitReached UnavailableReason = "limit_reached"
	ReasonDeactivated  UnavailableReason = "deactivated"
)

// UnavailableError is returned when a link exists but cannot be resolved
type UnavailableError struct {
	Reason UnavailableReason
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("link unavailable: %s", e.Reason)
}

// Is lets errors.Is(err, ErrUnavailable) match regardless of reason.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}
