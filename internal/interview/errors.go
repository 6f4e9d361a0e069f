package interview

import "errors"

var (
	// ErrMissingInput is returned when the resume or the job description is
	// empty at session start. The session never starts.
	ErrMissingInput = errors.New("required input is missing")

	// ErrSchemaViolation is returned when a structured role output stays
	// unparseable after the stricter retry.
	ErrSchemaViolation = errors.New("role output violates its schema")

	// ErrInvalidTransition marks a phase lattice violation or an unrecognized
	// selector state. It indicates a bug, not an operational failure.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrAborted is returned when the session stops on an external signal
	// before reaching its normal terminal phase.
	ErrAborted = errors.New("session aborted")
)
