package domain

import "errors"

var (
	// ErrCorruptState means the stored snapshot could not be read back. It is
	// never treated as a first run.
	ErrCorruptState = errors.New("corrupt snapshot state")
	// ErrMissingObservation marks a required reading absent from the batch.
	ErrMissingObservation = errors.New("missing observation")
	// ErrReasoningServiceUnavailable is absorbed as INCONCLUSIVE verdicts.
	ErrReasoningServiceUnavailable = errors.New("reasoning service unavailable")
	// ErrConcurrentCycleConflict rejects a cycle racing another one on the same store.
	ErrConcurrentCycleConflict = errors.New("concurrent cycle conflict")

	ErrInvalidObservation = errors.New("invalid observation batch")
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid hypothesis transition")
	ErrMalformedVerdict   = errors.New("malformed reasoning verdict")
)
