package query

import (
	"errors"
	"fmt"

	"github.com/asaidimu/go-listquery/core/schema"
)

// Sentinel errors for matching with errors.Is.
var (
	ErrCoercion         = errors.New("coercion failed")
	ErrUnknownField     = errors.New("unknown field")
	ErrPaginationBounds = errors.New("pagination out of bounds")
	ErrBuilderReused    = errors.New("query builder already executed")
	ErrStoreExecution   = errors.New("store execution failed")
)

// CoercionError reports a raw value that could not be converted to its
// declared type.
type CoercionError struct {
	Field string
	Type  schema.FieldType
	Raw   string
	// Reason is a short human readable cause, e.g. "not a number".
	Reason string
}

func (e *CoercionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("cannot coerce %q to %s: %s", e.Raw, e.Type, e.Reason)
	}
	return fmt.Sprintf("cannot coerce %q to %s for field '%s': %s", e.Raw, e.Type, e.Field, e.Reason)
}

func (e *CoercionError) Is(target error) bool { return target == ErrCoercion }

// UnknownFieldError reports a request key or sort field that is not in the
// declared allow-list. It is informational: resolvers ignore such keys.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("field '%s' is not declared", e.Field)
}

func (e *UnknownFieldError) Is(target error) bool { return target == ErrUnknownField }

// PaginationBoundsError reports a page or size input that was replaced by a
// clamped or default value.
type PaginationBoundsError struct {
	Param   string
	Raw     string
	Applied int
}

func (e *PaginationBoundsError) Error() string {
	return fmt.Sprintf("%s %q out of bounds, using %d", e.Param, e.Raw, e.Applied)
}

func (e *PaginationBoundsError) Is(target error) bool { return target == ErrPaginationBounds }

// BuilderReuseError is returned by Execute on every call after the first.
type BuilderReuseError struct {
	Resource string
	Attempt  int
}

func (e *BuilderReuseError) Error() string {
	return fmt.Sprintf("query builder for '%s' already executed (attempt %d)", e.Resource, e.Attempt)
}

func (e *BuilderReuseError) Is(target error) bool { return target == ErrBuilderReused }

// StoreError wraps a failure returned by a store adapter. The adapter error
// stays in the chain unchanged, so context.Canceled and
// context.DeadlineExceeded remain detectable with errors.Is.
type StoreError struct {
	Op       string
	Resource string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s on '%s' failed: %v", e.Op, e.Resource, e.Err)
}

func (e *StoreError) Is(target error) bool { return target == ErrStoreExecution }

func (e *StoreError) Unwrap() error { return e.Err }
