package domain

import (
	"errors"
	"net/http"
	"strconv"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
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

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrValidation       = errors.New("validation failed")
	ErrStoreUnavailable = errors.New("store unavailable")
)

func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError represents a resource conflict, e.g. a flow publish whose
// base version is stale.
type ConflictError struct {
	Message      string
	ResourceType string
	ResourceID   string
}

func (e *ConflictError) Error() string { return e.Message }

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// StepNotFoundError indicates a user's stored position points at a node
// that no longer exists in the published flow. It is kept distinct from an
// ordinary NotFoundError so callers can tell "the user's place was lost"
// apart from "no such resource" instead of silently restarting the user.
type StepNotFoundError struct {
	NodeID string
}

func (e *StepNotFoundError) Error() string {
	return "current step " + strconv.Quote(e.NodeID) + " not found in flow"
}

// StatusCode implements the HTTPError interface
func (e *StepNotFoundError) StatusCode() int { return http.StatusNotFound }

// Is allows errors.Is() to match against ErrNotFound
func (e *StepNotFoundError) Is(target error) bool { return target == ErrNotFound }

// StoreUnavailableError indicates a persistence read/write failed. It is
// surfaced distinctly so callers can retry; it is never masked behind a
// default value for navigation-affecting data.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return "store unavailable: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// StatusCode implements the HTTPError interface
func (e *StoreUnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// Is allows errors.Is() to match against ErrStoreUnavailable
func (e *StoreUnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }
