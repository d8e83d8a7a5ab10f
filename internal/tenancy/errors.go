package tenancy

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced tenant does not exist.
	ErrNotFound = errors.New("tenancy: tenant not found")
	// ErrConflict indicates a tenant with the same id already exists.
	ErrConflict = errors.New("tenancy: tenant already exists")
	// ErrUnknownRoom indicates the tenant references a room that does not exist.
	ErrUnknownRoom = errors.New("tenancy: room does not exist")
	// ErrStoreFailure covers every other read or write failure.
	ErrStoreFailure = errors.New("tenancy: store failure")
	// ErrInvalidTenant indicates the tenant payload failed validation.
	ErrInvalidTenant = errors.New("tenancy: invalid tenant")
)

// ServiceError carries a stable "<operation>.<reason>" code, the classified kind and the
// underlying cause. errors.Is matches both the kind and the cause.
type ServiceError struct {
	code string
	kind error
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil || e.err == e.kind {
		return fmt.Sprintf("%s: %v", e.code, e.kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.code, e.kind, e.err)
}

func (e *ServiceError) Unwrap() []error {
	if e.err == nil || e.err == e.kind {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// Code returns the operation scoped error code.
func (e *ServiceError) Code() string {
	return e.code
}

// Kind returns the classified sentinel.
func (e *ServiceError) Kind() error {
	return e.kind
}

func newServiceError(operation, reason string, kind, cause error) *ServiceError {
	return &ServiceError{
		code: fmt.Sprintf("%s.%s", operation, reason),
		kind: kind,
		err:  cause,
	}
}

// classify picks the sentinel reported for a failure inside a transaction.
func classify(err error) error {
	for _, kind := range []error{ErrNotFound, ErrConflict, ErrUnknownRoom, ErrInvalidTenant} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrStoreFailure
}
