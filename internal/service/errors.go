package service

import (
	"errors"
	"fmt"

	"soundgood-leasing/internal/repository"
)

var (
	ErrInvalidID         = errors.New("invalid identifier")
	ErrInvalidItemType   = errors.New("item type is required")
	ErrItemAlreadyLeased = errors.New("item is already leased")
	ErrLeaseLimitReached = errors.New("client has reached the maximum number of active leases")
	ErrLeaseNotFound     = errors.New("no active lease for this item and client")
)

// RefusedError is a workflow turned down because of current lease state.
// It matches both its Reason and repository.ErrMutation.
type RefusedError struct {
	Reason error
	Detail string
}

func (e *RefusedError) Error() string {
	return fmt.Sprintf("%v: %s", e.Reason, e.Detail)
}

func (e *RefusedError) Unwrap() []error {
	return []error{e.Reason, repository.ErrMutation}
}

func refused(reason error, format string, args ...any) error {
	return &RefusedError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
