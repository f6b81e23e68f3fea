package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable is returned when the underlying store cannot
	// serve a request (missing table, closed or failing connection).
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Event errors
	// ErrEventNotFound is returned when no event has the requested ID
	ErrEventNotFound = errors.New("event not found")

	// Credential errors
	// ErrValidation is returned when input fails validation
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateRegistration is returned when registering while a
	// credential record exists and the policy is to reject
	ErrDuplicateRegistration = errors.New("a user is already registered")
	// ErrNoCredential is returned when no user has registered yet
	ErrNoCredential = errors.New("no registered user")
	// ErrCredentialMismatch is returned when login input does not match the
	// stored credential
	ErrCredentialMismatch = errors.New("credential mismatch")
)

// Kind classifies an error for callers that present it to users.
type Kind string

const (
	KindNone                  Kind = ""
	KindStorageUnavailable    Kind = "storage_unavailable"
	KindNotFound              Kind = "not_found"
	KindValidationFailed      Kind = "validation_failed"
	KindDuplicateRegistration Kind = "duplicate_registration"
	KindUnauthorized          Kind = "unauthorized"
	KindInternal              Kind = "internal"
)

// KindOf returns the kind of err. No-credential and mismatch both map to
// KindUnauthorized so callers cannot tell them apart by kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrEventNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidationFailed
	case errors.Is(err, ErrDuplicateRegistration):
		return KindDuplicateRegistration
	case errors.Is(err, ErrNoCredential), errors.Is(err, ErrCredentialMismatch):
		return KindUnauthorized
	case errors.Is(err, ErrStorageUnavailable):
		return KindStorageUnavailable
	default:
		return KindInternal
	}
}

// storageError wraps a driver error so that it matches ErrStorageUnavailable.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
