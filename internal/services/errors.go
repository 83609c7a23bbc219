package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ValidationError marks malformed caller input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError means another identity holds the requested handle.
type ConflictError struct {
	Handle string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("handle %q is already taken", e.Handle)
}

// NotFoundError marks a logical absence. Not retried.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// TransientError wraps a storage transport failure. Reads retry these with a
// bounded attempt count; non-idempotent writes surface them to the caller.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IntegrityError marks a detected violation of the order-contiguity
// invariant. Internal only: logged and repaired, never surfaced to users.
type IntegrityError struct {
	ProfileID string
	Detail    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("link order integrity violated for profile %s: %s", e.ProfileID, e.Detail)
}

// storeErr classifies a gorm error: record-not-found becomes a NotFoundError,
// anything else is treated as transient transport failure.
func storeErr(op, kind, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return &TransientError{Op: op, Err: err}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
