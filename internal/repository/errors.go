package repository

import (
	"errors"
	"fmt"
)

// Kind classifies store failures.
type Kind int

const (
	KindConnection Kind = iota + 1
	KindQuery
	KindMutation
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindQuery:
		return "query"
	case KindMutation:
		return "mutation"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks against an *Error of the matching kind.
var (
	ErrConnection = errors.New("connection error")
	ErrQuery      = errors.New("query error")
	ErrMutation   = errors.New("mutation error")
	ErrResource   = errors.New("resource error")
)

// ErrRowCount is the cause of a MutationError whose statement touched zero
// or several rows instead of one.
var ErrRowCount = errors.New("unexpected number of affected rows")

// Error is the failure type returned by every LeaseStore operation.
type Error struct {
	Kind Kind
	Msg  string
	// Err is the primary cause, nil when the failure is a row count mismatch.
	Err error
	// Related holds a secondary failure, such as a failed rollback or a
	// cursor that could not be closed after the primary failure.
	Related error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Related != nil {
		errs = append(errs, e.Related)
	}
	return errs
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrConnection:
		return e.Kind == KindConnection
	case ErrQuery:
		return e.Kind == KindQuery
	case ErrMutation:
		return e.Kind == KindMutation
	case ErrResource:
		return e.Kind == KindResource
	}
	return false
}

func NewConnectionError(msg string, cause error) *Error {
	return &Error{Kind: KindConnection, Msg: msg, Err: cause}
}

func NewQueryError(msg string, cause error) *Error {
	return &Error{Kind: KindQuery, Msg: msg, Err: cause}
}

func NewMutationError(msg string, cause error) *Error {
	return &Error{Kind: KindMutation, Msg: msg, Err: cause}
}

func NewResourceError(msg string, cause error) *Error {
	return &Error{Kind: KindResource, Msg: msg, Err: cause}
}

// WithRollbackFailure annotates err with a failed rollback. The original
// failure stays primary; the rollback error becomes Related.
func WithRollbackFailure(err error, rollbackErr error) error {
	if rollbackErr == nil {
		return err
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		annotated := *storeErr
		annotated.Msg = fmt.Sprintf("%s. Failed to rollback: %v", storeErr.Msg, rollbackErr)
		annotated.Related = errors.Join(storeErr.Related, rollbackErr)
		return &annotated
	}
	return fmt.Errorf("%w. Failed to rollback: %w", err, rollbackErr)
}

// IsResourceOnly reports whether err is a ResourceError and nothing worse,
// meaning the operation itself succeeded.
func IsResourceOnly(err error) bool {
	var storeErr *Error
	return errors.As(err, &storeErr) && storeErr.Kind == KindResource
}
