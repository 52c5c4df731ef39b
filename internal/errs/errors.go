// Package errs provides the unified error type used across all of arkiv.
//
// Every subsystem (blobstore, docstore, searchindex, catalog, …) wraps its
// native errors into *errs.Error before returning them to callers. Callers
// use the Is* predicates to handle errors without importing driver-specific
// packages.
//
// Usage:
//
//	// In a driver — wrap native errors:
//	return errs.Wrap(errs.ErrKindPersistence, "insert failed", pgErr)
//
//	// In a handler — check error kind:
//	if errs.IsNotFound(err) {
//	    http.Error(w, "not found", http.StatusNotFound)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// All backends (Postgres, MySQL, MinIO, Redis, …) map their native errors
// to one of these kinds, giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown           ErrKind = iota
	ErrKindValidation                // malformed or missing caller input
	ErrKindNotFound                  // referenced id / object does not exist
	ErrKindStorage                   // object store call failed
	ErrKindPersistence               // document store call failed on an authoritative path
	ErrKindSearchUnavailable         // search backend failed on a read path
	ErrKindConflict                  // concurrent write detected (version mismatch, duplicate id)
	ErrKindTimeout                   // context deadline / cancellation
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindValidation:
		return "validation"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindStorage:
		return "storage"
	case ErrKindPersistence:
		return "persistence"
	case ErrKindSearchUnavailable:
		return "search_unavailable"
	case ErrKindConflict:
		return "conflict"
	case ErrKindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all arkiv subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsValidation reports whether err was caused by bad input from the caller.
func IsValidation(err error) bool {
	return KindOf(err) == ErrKindValidation
}

// IsNotFound reports whether err represents a "not found" result
// (no document, missing object, unknown bucket, …).
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsStorage reports whether err is an object-store operation failure.
func IsStorage(err error) bool {
	return KindOf(err) == ErrKindStorage
}

// IsPersistence reports whether err is a document-store operation failure.
func IsPersistence(err error) bool {
	return KindOf(err) == ErrKindPersistence
}

// IsSearchUnavailable reports whether err is a search-backend failure.
func IsSearchUnavailable(err error) bool {
	return KindOf(err) == ErrKindSearchUnavailable
}

// IsConflict reports whether err represents a concurrent-write conflict.
func IsConflict(err error) bool {
	return KindOf(err) == ErrKindConflict
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
