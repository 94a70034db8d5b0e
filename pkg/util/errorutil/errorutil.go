package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgInvalidTextRepresentation is raised when a parameter such as a uuid id is malformed.
const pgInvalidTextRepresentation = "22P02"

// Stable error codes surfaced to API callers.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeInvalidState         = "INVALID_STATE"
	CodeMissingJustification = "MISSING_JUSTIFICATION"
	CodeMissingEvidence      = "MISSING_EVIDENCE"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeCapacityExceeded     = "CAPACITY_EXCEEDED"
	CodeIllegalJump          = "ILLEGAL_JUMP"
	CodeMissingTechnician    = "MISSING_TECHNICIAN"
	CodeTicketNotPending     = "TICKET_NOT_PENDING"
	CodeInternal             = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewBadRequest builds a 400 error carrying a specific code.
func NewBadRequest(code, message string, details map[string]any) error {
	return NewDomainError(code, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewCapacityExceeded reports a technician at or over its workload limit.
func NewCapacityExceeded(message string, details map[string]any) error {
	return NewDomainError(CodeCapacityExceeded, message, http.StatusConflict, details)
}

// NewIllegalTransition reports a state machine rule violation.
func NewIllegalTransition(code, message string, details map[string]any) error {
	return NewDomainError(code, message, http.StatusUnprocessableEntity, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation {
		return NewValidationError("malformed identifier", map[string]any{"reason": pgErr.Message}).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// CodeForStatus picks a default error code for a bare HTTP status.
func CodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidationFailed
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	default:
		return CodeInternal
	}
}
