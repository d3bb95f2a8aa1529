package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a referenced account, transaction or
	// subscription does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed input, before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrTransientStore is returned when the store fails mid unit of work.
	// The unit is rolled back.
	ErrTransientStore = errors.New("store failure")
)

type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// TransientStoreError wraps a driver failure with the operation that hit it.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() []error {
	return []error{ErrTransientStore, e.Err}
}

// StoreError wraps err as a TransientStoreError unless it already carries a
// ledger sentinel.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrTransientStore) {
		return err
	}

	return &TransientStoreError{Op: op, Err: err}
}

// Entity names carried by NotFoundError.
const (
	EntityAccount      = "account"
	EntityTransaction  = "transaction"
	EntitySubscription = "subscription"
)
