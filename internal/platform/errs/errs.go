package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes application errors for HTTP status mapping.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the request was malformed (HTTP 400).
	InvalidInput
	// FetchFailed indicates the target could not be retrieved: a transport
	// failure or a non-200 response (HTTP 502, or 504 on timeout).
	FetchFailed
	// ParseFailed indicates the response body could not be read as a document (HTTP 422).
	ParseFailed
	// ExtractionFailed indicates one of the metric computations failed (HTTP 500).
	ExtractionFailed
	// NotFound indicates the requested record does not exist (HTTP 404).
	NotFound
	// Unauthorized indicates missing or invalid credentials (HTTP 401).
	Unauthorized
	// Conflict indicates a uniqueness violation such as a taken username (HTTP 409).
	Conflict
	// RateLimited indicates the caller exceeded the analysis quota (HTTP 429).
	RateLimited
)

var kindNames = map[Kind]string{
	Unknown:          "unknown",
	InvalidInput:     "invalid_input",
	FetchFailed:      "fetch_failed",
	ParseFailed:      "parse_failed",
	ExtractionFailed: "extraction_failed",
	NotFound:         "not_found",
	Unauthorized:     "unauthorized",
	Conflict:         "conflict",
	RateLimited:      "rate_limited",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// AppError carries a category, user message, and original cause.
type AppError struct {
	Kind           Kind
	Step           string // extraction step that failed, set for ExtractionFailed
	UpstreamStatus int    // HTTP status code returned by the target domain
	Timeout        bool   // fetch aborted by a deadline
	Message        string
	Cause          error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// E builds an AppError of the given kind with a formatted message.
func E(kind Kind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an AppError of the given kind around cause.
func Wrap(kind Kind, cause error, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the Kind of the first AppError in err's chain, or Unknown.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}

// Message returns the user-facing message of the first AppError in err's
// chain. Errors outside the taxonomy yield a generic message so internal
// details never reach the caller.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "An unexpected error occurred."
}
