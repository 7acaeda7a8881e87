package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument signals a request that failed validation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIndexNotFound signals a missing session index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexAlreadyExists signals a create of an index that is already there.
	ErrIndexAlreadyExists = errors.New("index already exists")
	// ErrQuestionNotFound signals a missing question record.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrSearchEngineUnavailable signals that the search store could not serve the request.
	ErrSearchEngineUnavailable = errors.New("search engine unavailable")
)

// Invalid wraps err as a validation failure, keeping its message for the client.
func Invalid(err error) error {
	if err == nil || errors.Is(err, ErrInvalidArgument) {
		return err
	}
	return &ValidationError{err: err}
}

// Invalidf builds a validation failure from a format string.
func Invalidf(format string, args ...any) error {
	return &ValidationError{err: fmt.Errorf(format, args...)}
}

// ValidationError carries a client-safe validation message and matches ErrInvalidArgument.
type ValidationError struct {
	err error
}

func (e *ValidationError) Error() string { return e.err.Error() }

// Is reports ErrInvalidArgument so callers can match with errors.Is.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

func (e *ValidationError) Unwrap() error { return e.err }

// Unavailable marks a storage failure as ErrSearchEngineUnavailable, keeping the cause.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrSearchEngineUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSearchEngineUnavailable, err)
}
