// Package errors defines stable error codes for txlens failure modes.
//
// Resolution misses are NOT errors anywhere in the engine; they silently
// yield "flag absent". The codes here cover the failures that are surfaced
// to the user at the run boundary.
package errors

import "fmt"

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// RootNotFound indicates the requested root method does not exist
	RootNotFound ErrorCode = "ROOT_NOT_FOUND"
	// RootAmbiguous indicates a method query matched more than one identity
	RootAmbiguous ErrorCode = "ROOT_AMBIGUOUS"
	// ProviderFailure indicates the fact provider failed; fatal to the run
	ProviderFailure ErrorCode = "PROVIDER_FAILURE"
	// SourceUnreadable indicates the source tree could not be read or parsed
	SourceUnreadable ErrorCode = "SOURCE_UNREADABLE"
	// ConfigInvalid indicates the project configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// CatalogueInvalid indicates the call-shape catalogue failed to load
	CatalogueInvalid ErrorCode = "CATALOGUE_INVALID"
	// StoreFailure indicates the run store could not be opened or written
	StoreFailure ErrorCode = "STORE_FAILURE"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// AnalysisError is a txlens error with a stable code and optional cause.
type AnalysisError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *AnalysisError) Unwrap() error {
	return e.cause
}

// New creates an AnalysisError with a code and message.
func New(code ErrorCode, message string) *AnalysisError {
	return &AnalysisError{Code: code, Message: message}
}

// Newf creates an AnalysisError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AnalysisError {
	return &AnalysisError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an AnalysisError wrapping an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *AnalysisError {
	return &AnalysisError{Code: code, Message: message, cause: cause}
}

// CodeOf returns the stable code of an error, or InternalError for plain
// errors.
func CodeOf(err error) ErrorCode {
	if ae, ok := err.(*AnalysisError); ok {
		return ae.Code
	}
	return InternalError
}
