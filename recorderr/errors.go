// Package recorderr defines the error taxonomy surfaced by the record
// store, the consistency manager and the query facade.
//
// Match categories with errors.Is against the sentinels and read details
// with errors.As:
//
//	if errors.Is(err, recorderr.ErrNotFound) { ... }
//	var conflict *recorderr.ConflictError
//	if errors.As(err, &conflict) && conflict.Reason == recorderr.ReasonActiveLoan { ... }
//
// Cache failures are never part of this taxonomy.
package recorderr

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-library-records/model"
)

// Category sentinels.
var (
	ErrNotFound         = errors.New("record not found")
	ErrConflict         = errors.New("record conflict")
	ErrInvalidReference = errors.New("invalid reference")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// Reason qualifies a ConflictError.
type Reason string

const (
	ReasonDuplicateISBN     Reason = "duplicate_isbn"
	ReasonDuplicateEmail    Reason = "duplicate_email"
	ReasonActiveLoan        Reason = "active_loan"
	ReasonAlreadyReturned   Reason = "already_returned"
	ReasonInvalidTransition Reason = "invalid_transition"
	ReasonHasReferences     Reason = "has_references"
	ReasonTokenMismatch     Reason = "token_mismatch"

	// ReasonUnverified means the account has not confirmed its email yet.
	ReasonUnverified Reason = "unverified"

	// ReasonStale means the record changed between read and conditional write.
	ReasonStale Reason = "stale"
)

// NotFoundError reports an absent record.
type NotFoundError struct {
	Kind model.Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a write rejected by a uniqueness rule or by the
// current state of a record.
type ConflictError struct {
	Reason Reason
	Kind   model.Kind
	ID     string
}

func (e *ConflictError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s conflict: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s %s conflict: %s", e.Kind, e.ID, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// InvalidReferenceError reports a referenced id that does not resolve.
type InvalidReferenceError struct {
	Kind model.Kind
	ID   string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid %s reference %s", e.Kind, e.ID)
}

func (e *InvalidReferenceError) Is(target error) bool { return target == ErrInvalidReference }

// InvalidInputError wraps a field validation failure.
type InvalidInputError struct {
	Kind model.Kind
	Err  error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s input: %v", e.Kind, e.Err)
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// StoreUnavailableError wraps a failed record store call. It is fatal for
// the current operation and never retried internally.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("record store %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

func (e *StoreUnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

// NotFound builds a NotFoundError for kind and id.
func NotFound(kind model.Kind, id fmt.Stringer) error {
	return &NotFoundError{Kind: kind, ID: id.String()}
}

// Conflict builds a ConflictError.
func Conflict(reason Reason, kind model.Kind, id string) error {
	return &ConflictError{Reason: reason, Kind: kind, ID: id}
}

// InvalidReference builds an InvalidReferenceError.
func InvalidReference(kind model.Kind, id fmt.Stringer) error {
	return &InvalidReferenceError{Kind: kind, ID: id.String()}
}

// InvalidInput wraps a validation error for kind. A nil err yields nil.
func InvalidInput(kind model.Kind, err error) error {
	if err == nil {
		return nil
	}
	return &InvalidInputError{Kind: kind, Err: err}
}

// Unavailable wraps err as a StoreUnavailableError unless it already
// belongs to the taxonomy.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if InTaxonomy(err) {
		return err
	}
	return &StoreUnavailableError{Op: op, Err: err}
}

// InTaxonomy reports whether err matches one of the category sentinels.
func InTaxonomy(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrStoreUnavailable)
}

// HasReason reports whether err is a ConflictError with the given reason.
func HasReason(err error, reason Reason) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict) && conflict.Reason == reason
}
