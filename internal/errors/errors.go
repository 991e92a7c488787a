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
	ErrVersionConflict  = new(ErrCodeVersionConflict, "version conflict")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrPermissionDenied = new(ErrCodePermissionDenied, "permission denied")
	ErrDatabase         = new(ErrCodeDatabase, "database error")
	ErrSystem           = new(ErrCodeSystemError, "system error")

	// Business-decision errors the caller must react to. These are the only
	// conditions the entitlement and usage components propagate as typed
	// failures; everything else in the catalog fails soft.
	ErrFeatureUnavailable  = new(ErrCodeFeatureUnavailable, "feature not available on the subscribed plan")
	ErrUsageLimitExceeded  = new(ErrCodeUsageLimitExceeded, "feature usage limit exceeded")
	ErrSubscriptionInvalid = new(ErrCodeSubscriptionInvalid, "subscription is not in a valid state")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrNotFound:            http.StatusNotFound,
		ErrAlreadyExists:       http.StatusConflict,
		ErrVersionConflict:     http.StatusConflict,
		ErrValidation:          http.StatusBadRequest,
		ErrInvalidOperation:    http.StatusBadRequest,
		ErrPermissionDenied:    http.StatusForbidden,
		ErrDatabase:            http.StatusInternalServerError,
		ErrSystem:              http.StatusInternalServerError,
		ErrFeatureUnavailable:  http.StatusForbidden,
		ErrUsageLimitExceeded:  http.StatusTooManyRequests,
		ErrSubscriptionInvalid: http.StatusConflict,
	}
)

const (
	ErrCodeSystemError         = "system_error"
	ErrCodeNotFound            = "not_found"
	ErrCodeAlreadyExists       = "already_exists"
	ErrCodeVersionConflict     = "version_conflict"
	ErrCodeValidation          = "validation_error"
	ErrCodeInvalidOperation    = "invalid_operation"
	ErrCodePermissionDenied    = "permission_denied"
	ErrCodeDatabase            = "database_error"
	ErrCodeFeatureUnavailable  = "feature_unavailable"
	ErrCodeUsageLimitExceeded  = "usage_limit_exceeded"
	ErrCodeSubscriptionInvalid = "subscription_invalid"
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

// IsFeatureUnavailable checks if an error reports a feature missing from the plan
func IsFeatureUnavailable(err error) bool {
	return errors.Is(err, ErrFeatureUnavailable)
}

// IsUsageLimitExceeded checks if an error reports a feature usage limit breach
func IsUsageLimitExceeded(err error) bool {
	return errors.Is(err, ErrUsageLimitExceeded)
}

// IsSubscriptionInvalid checks if an error reports a subscription in a state
// that does not allow the attempted operation
func IsSubscriptionInvalid(err error) bool {
	return errors.Is(err, ErrSubscriptionInvalid)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
