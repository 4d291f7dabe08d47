package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedOperation signals that a backend cannot perform the requested operation.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrUnknownQuery signals a query type the responder does not know.
	ErrUnknownQuery = errors.New("unknown query type")
	// ErrConfig signals a missing or invalid configuration value.
	ErrConfig = errors.New("configuration error")
	// ErrHeaderMissing signals that the bimport header template was not provisioned.
	ErrHeaderMissing = fmt.Errorf("bimport header file missing: %w", ErrConfig)
	// ErrLockHeld signals that another batch load holds the lock file.
	ErrLockHeld = errors.New("batch load lock is held")
	// ErrStaging signals that a customer record could not be staged for loading.
	ErrStaging = errors.New("staging failed")
	// ErrInvalidCustomer signals a customer record lacking a required field.
	ErrInvalidCustomer = errors.New("invalid customer")
)

// UnsupportedError wraps ErrUnsupportedOperation with the backend and operation names.
type UnsupportedError struct {
	Backend string
	Op      string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s cannot %s: %s", e.Backend, e.Op, ErrUnsupportedOperation.Error())
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupportedOperation }

// NewUnsupported creates an unsupported-operation error.
func NewUnsupported(backend, op string) error {
	return &UnsupportedError{Backend: backend, Op: op}
}
