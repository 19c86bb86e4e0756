package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = new(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrPermissionDenied = new(ErrCodePermissionDenied, "permission denied")
	ErrHTTPClient       = new(ErrCodeHTTPClient, "http client error")
	ErrDatabase         = new(ErrCodeDatabase, "database error")
	ErrSystem           = new(ErrCodeSystemError, "system error")

	// Subscription lifecycle error kinds
	ErrAlreadySubscribed = new(ErrCodeAlreadySubscribed, "customer is already subscribed")
	ErrShouldNotRenew    = new(ErrCodeShouldNotRenew, "instance should not renew")
	ErrCannotRenew       = new(ErrCodeCannotRenew, "instance cannot renew")
	ErrFailedToRenew     = new(ErrCodeFailedToRenew, "instance failed to renew")
	ErrPaymentDeclined   = new(ErrCodePaymentDeclined, "payment was declined")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrHTTPClient:        http.StatusInternalServerError,
		ErrDatabase:          http.StatusInternalServerError,
		ErrNotFound:          http.StatusNotFound,
		ErrAlreadyExists:     http.StatusConflict,
		ErrValidation:        http.StatusBadRequest,
		ErrInvalidOperation:  http.StatusBadRequest,
		ErrPermissionDenied:  http.StatusForbidden,
		ErrSystem:            http.StatusInternalServerError,
		ErrAlreadySubscribed: http.StatusConflict,
		ErrShouldNotRenew:    http.StatusConflict,
		ErrCannotRenew:       http.StatusUnprocessableEntity,
		ErrFailedToRenew:     http.StatusPaymentRequired,
		ErrPaymentDeclined:   http.StatusPaymentRequired,
	}
)

const (
	ErrCodeHTTPClient       = "http_client_error"
	ErrCodeSystemError      = "system_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeDatabase         = "database_error"

	ErrCodeAlreadySubscribed = "already_subscribed"
	ErrCodeShouldNotRenew    = "should_not_renew"
	ErrCodeCannotRenew       = "cannot_renew"
	ErrCodeFailedToRenew     = "failed_to_renew"
	ErrCodePaymentDeclined   = "payment_declined"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// new creates a new InternalError
func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsAlreadySubscribed checks if an error is an already subscribed error
func IsAlreadySubscribed(err error) bool {
	return errors.Is(err, ErrAlreadySubscribed)
}

// IsShouldNotRenew checks if an error is a should not renew error
func IsShouldNotRenew(err error) bool {
	return errors.Is(err, ErrShouldNotRenew)
}

// IsCannotRenew checks if an error is a cannot renew error
func IsCannotRenew(err error) bool {
	return errors.Is(err, ErrCannotRenew)
}

// IsFailedToRenew checks if an error is a failed to renew error
func IsFailedToRenew(err error) bool {
	return errors.Is(err, ErrFailedToRenew)
}

// IsPaymentDeclined checks if an error is a payment declined error
func IsPaymentDeclined(err error) bool {
	return errors.Is(err, ErrPaymentDeclined)
}

// IsRenewalOutcome reports whether the error is one of the expected renewal
// outcomes which the batch runner treats as non-fatal
func IsRenewalOutcome(err error) bool {
	return IsShouldNotRenew(err) || IsCannotRenew(err) || IsFailedToRenew(err)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
