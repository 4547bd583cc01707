package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the coarse taxonomy category surfaced to callers.
type ErrorCode string

const (
	CodeUnsupportedType  ErrorCode = "unsupported_type"
	CodeFetchFailed      ErrorCode = "fetch_failed"
	CodeTimeout          ErrorCode = "timeout"
	CodeAccessDenied     ErrorCode = "access_denied"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeProcessingFailed ErrorCode = "processing_failed"
	CodeStorageFailed    ErrorCode = "storage_failed"
	CodeUnknown          ErrorCode = "unknown"
)

// Sentinel errors
var (
	// ErrUnresolved indicates every registry candidate abstained or failed.
	ErrUnresolved = errors.New("no candidate resolved the input")

	// ErrNoStrategy indicates no fetch strategy can handle the URL.
	ErrNoStrategy = errors.New("no strategy found for URL")

	// ErrDuplicateStrategy indicates a name collision on registration.
	ErrDuplicateStrategy = errors.New("strategy already registered")

	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrCacheMiss indicates a cache miss.
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited indicates rate limiting was encountered.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates a timeout occurred.
	ErrTimeout = errors.New("timeout")

	// ErrInvalidURL indicates an invalid URL was provided.
	ErrInvalidURL = errors.New("invalid URL")
)

// PipelineError carries the taxonomy code and the stage where the
// failure originated. Collaborators raise it at the point of failure so
// the orchestrator never has to guess the category from message text.
type PipelineError struct {
	Code  ErrorCode
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Code, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a PipelineError.
func NewPipelineError(code ErrorCode, stage Stage, err error) *PipelineError {
	return &PipelineError{Code: code, Stage: stage, Err: err}
}

// ClassifyError maps an error to a taxonomy code. Typed errors map
// exactly; anything else falls back to message-substring matching, which
// is best-effort only and kept as a last resort for errors raised by
// third-party code.
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		switch {
		case fe.StatusCode == 403:
			return CodeAccessDenied
		case fe.StatusCode == 429:
			return CodeRateLimited
		case fe.StatusCode > 0:
			return CodeFetchFailed
		}
	}

	switch {
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrNoStrategy), errors.Is(err, ErrUnresolved):
		return CodeUnsupportedType
	}

	// Last-resort heuristic for untyped errors.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return CodeTimeout
	case strings.Contains(msg, "403"), strings.Contains(msg, "forbidden"):
		return CodeAccessDenied
	case strings.Contains(msg, "429"), strings.Contains(msg, "too many requests"):
		return CodeRateLimited
	case strings.Contains(msg, "404"), strings.Contains(msg, "not found"):
		return CodeFetchFailed
	}

	return CodeUnknown
}

// FetchError represents an error during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError.
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{URL: url, StatusCode: statusCode, Err: err}
}

// RetryableError indicates an error that can be retried.
type RetryableError struct {
	Err        error
	RetryAfter int // Seconds to wait before retry, 0 if unknown
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("retryable error (retry after %ds): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error should be retried.
func IsRetryable(err error) bool {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.StatusCode {
		case 429, 503, 502, 504:
			return true
		}
		// Cloudflare errors
		if fetchErr.StatusCode >= 520 && fetchErr.StatusCode <= 530 {
			return true
		}
	}

	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}

// CandidateError records one failed candidate attempt inside a registry.
// It is collected by ResolveAll, never propagated from Resolve.
type CandidateError struct {
	Candidate string
	Err       error
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("candidate %s failed: %v", e.Candidate, e.Err)
}

func (e *CandidateError) Unwrap() error {
	return e.Err
}

// ValidationError represents an input validation error. These indicate
// programmer errors, not expected runtime failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
