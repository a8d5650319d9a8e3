package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoCredentials indicates no API key could be resolved. This is
	// a fatal precondition for any operation requiring network access.
	ErrNoCredentials = errors.New("no API key found")

	// ErrEmptyDocument indicates a source document produced zero
	// chunks (empty or whitespace-only content).
	ErrEmptyDocument = errors.New("document produced no chunks")

	// ErrClientRejected indicates a collaborator returned a 4xx
	// response. Never retried.
	ErrClientRejected = errors.New("request rejected")

	// ErrRetriesExhausted indicates a transient failure persisted
	// through every retry attempt.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// Pipeline stages for typed query failures.
const (
	StageRetrieval  = "retrieval"
	StageGeneration = "generation"
)

// PipelineError is a typed failure from the single-shot query path.
// It names the stage that failed so callers can distinguish a
// retrieval failure from a generation failure.
type PipelineError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying failure.
func (e *PipelineError) Unwrap() error { return e.Err }
