package models

import "errors"

// Error taxonomy shared by the service, storage, and transport layers.
// Wrap with fmt.Errorf("...: %w", err) and check with errors.Is.
var (
	// ErrConflict: starting a session while one is IN_PROGRESS, or an
	// invalid lifecycle transition (e.g. finishing a stopped session).
	ErrConflict = errors.New("conflict")

	// ErrNotFound: the session, exercise, or template does not exist or
	// does not belong to the requesting user.
	ErrNotFound = errors.New("not found")

	// ErrValidation: a completion or finish request is missing required
	// fields or confirmation.
	ErrValidation = errors.New("validation failed")

	// ErrTransient: a network or timeout failure with no confirmation of
	// whether the operation took effect. Mutations must not be blindly
	// retried; re-query session state first.
	ErrTransient = errors.New("transient failure")
)
