package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling (OCP compliance).
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input. It is returned synchronously
	// and never mutates job or session state.
	ValidationError struct {
		Message string
	}

	// StaleReferenceError indicates a selection referenced a turn that is no
	// longer present in the transcript (evicted by the cap, or never existed).
	StaleReferenceError struct {
		TurnID string
	}

	// JobAlreadyRunningError indicates a generation start was attempted while
	// a non-terminal job exists for the same target. Duplicate starts are a
	// caller error, not a queued retry.
	JobAlreadyRunningError struct {
		TargetID string
		JobID    string
	}
)

// Error implementations
func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }
func (e *StaleReferenceError) Error() string {
	return "selection references turn " + e.TurnID + " which is no longer in the transcript"
}
func (e *JobAlreadyRunningError) Error() string {
	return "generation job " + e.JobID + " is already running for target " + e.TargetID
}

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int           { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int         { return http.StatusBadRequest }
func (e *StaleReferenceError) StatusCode() int     { return http.StatusConflict }
func (e *JobAlreadyRunningError) StatusCode() int  { return http.StatusConflict }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrStaleRef     = errors.New("stale reference")
	ErrJobRunning   = errors.New("job already running")
	ErrTimeout      = errors.New("generation timed out")
	ErrExternalCall = errors.New("generation call failed")
	ErrExtraction   = errors.New("no artifacts recoverable from response")
	ErrPersistence  = errors.New("persistence failed")
)

// Is allows errors.Is() matching against the sentinels for the typed errors.
func (e *StaleReferenceError) Is(target error) bool    { return target == ErrStaleRef }
func (e *JobAlreadyRunningError) Is(target error) bool { return target == ErrJobRunning }
func (e *ValidationError) Is(target error) bool        { return target == ErrValidation }
func (e *NotFoundError) Is(target error) bool          { return target == ErrNotFound }
