// Package errors provides the typed failures shared by the pipeline and
// their mapping to API responses.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Sentinels
// ==========================

var (
	ErrNotFound              = stderrors.New("NOT_FOUND")
	ErrDuplicateConstraint   = stderrors.New("DUPLICATE_CONSTRAINT")
	ErrExtractionUnavailable = stderrors.New("EXTRACTION_UNAVAILABLE")
	ErrExtractionDecodeError = stderrors.New("EXTRACTION_DECODE_ERROR")
	ErrSerialization         = stderrors.New("SERIALIZATION_ERROR")
	ErrValidation            = stderrors.New("VALIDATION_ERROR")
)

// ==========================
// 2. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrCodeDuplicateConstraint   ErrorCode = "DUPLICATE_CONSTRAINT"
	ErrCodeExtractionUnavailable ErrorCode = "EXTRACTION_UNAVAILABLE"
	ErrCodeExtractionDecode      ErrorCode = "EXTRACTION_DECODE_ERROR"
	ErrCodeSerialization         ErrorCode = "SERIALIZATION_ERROR"
	ErrCodeValidation            ErrorCode = "VALIDATION_ERROR"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound            ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 3. Error Constructors
// ==========================

// NewNotFoundError reports a missing owner or record.
func NewNotFoundError(resource string, id interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("%s %v does not exist", resource, id),
		Retryable: false,
		Metadata:  map[string]interface{}{"resource": resource, "id": id},
		Timestamp: time.Now().UTC(),
		cause:     ErrNotFound,
	}
}

// NewDuplicateConstraintError reports a violated uniqueness rule.
func NewDuplicateConstraintError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateConstraint,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     ErrDuplicateConstraint,
	}
}

// NewValidationError reports invalid caller input.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "Validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     ErrValidation,
	}
}

// NewExtractionUnavailableError wraps a failure to reach the extractor.
func NewExtractionUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionUnavailable,
		Message:   "Extraction service unavailable",
		Details:   detailsOf(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     ErrExtractionUnavailable,
	}
}

// NewQueryExecutionFailedError wraps a store failure.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   fmt.Sprintf("Query '%s' failed", operation),
		Details:   detailsOf(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSearchQueryFailedError wraps a search backend failure.
func NewSearchQueryFailedError(backend string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   fmt.Sprintf("Search on '%s' failed", backend),
		Details:   detailsOf(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Normalization & HTTP mapping
// ==========================

// Normalize converts any error into a StandardError, recognizing the
// sentinels wherever they sit in the wrap chain.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	code, retryable := ErrCodeInternal, false
	message := "Unexpected error"
	switch {
	case stderrors.Is(err, ErrNotFound):
		code, message = ErrCodeNotFound, "Resource not found"
	case stderrors.Is(err, ErrDuplicateConstraint):
		code, message = ErrCodeDuplicateConstraint, "Duplicate resource"
	case stderrors.Is(err, ErrValidation):
		code, message = ErrCodeValidation, "Validation failed"
	case stderrors.Is(err, ErrExtractionUnavailable):
		code, message, retryable = ErrCodeExtractionUnavailable, "Extraction service unavailable", true
	case stderrors.Is(err, ErrExtractionDecodeError):
		code, message = ErrCodeExtractionDecode, "Extraction response could not be decoded"
	case stderrors.Is(err, ErrSerialization):
		code, message = ErrCodeSerialization, "Serialization failed"
	}

	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   detailsOf(err),
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound, ErrCodeIndexNotFound:
		return http.StatusNotFound
	case ErrCodeDuplicateConstraint:
		return http.StatusConflict
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeExtractionUnavailable:
		return http.StatusBadGateway
	case ErrCodeExtractionDecode:
		return http.StatusUnprocessableEntity
	case ErrCodeQueryTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeDatabaseConnectionFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "EXTRACTION"):
		return "EXTRACTION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "DUPLICATE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	default:
		return "OTHER"
	}
}
