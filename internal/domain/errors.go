package domain

import (
	"errors"
	"fmt"
)

// Ingestion pipeline stages, used to name the failing stage in errors.
const (
	StageValidation = "validation"
	StageExtraction = "extraction"
	StageChunking   = "chunking"
	StageEmbedding  = "embedding"
	StageIndexing   = "indexing"
)

var (
	// ErrUnsupportedType rejects files whose extension is not allow-listed.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrFileTooLarge rejects files exceeding the configured size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrSessionNotFound reports an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError is surfaced to the caller immediately and never retried.
// No partial state is created before validation passes.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StageError identifies which ingestion stage failed. The operation is
// atomic from the caller's perspective: no chunks or index entries are
// committed when a stage fails.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingestion failed at %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with the name of the failing pipeline stage.
func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
