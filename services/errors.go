package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"

	// Token verification and authorization outcomes
	ErrorTypeMissingCredential    ErrorType = "missing_credential"
	ErrorTypeMalformedCredential  ErrorType = "malformed_credential"
	ErrorTypeExpiredToken         ErrorType = "expired_token"
	ErrorTypeInvalidSignature     ErrorType = "invalid_signature"
	ErrorTypeInvalidTokenType     ErrorType = "invalid_token_type"
	ErrorTypeInsufficientRole     ErrorType = "insufficient_role"
	ErrorTypeOwnershipViolation   ErrorType = "ownership_violation"
	ErrorTypeInternalVerification ErrorType = "internal_verification_error"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error.
// Call it on errors built with NewDomainError, never on the package sentinels.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrUserNotFound = NewDomainError(ErrorTypeNotFound, "user not found", nil)

	// Validation Errors
	ErrInvalidInput    = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidEmail    = NewDomainError(ErrorTypeValidation, "invalid email format", nil)
	ErrInvalidIdentity = NewDomainError(ErrorTypeValidation, "principal must carry a user id", nil)
	ErrPasswordTooLong = NewDomainError(ErrorTypeValidation, "password must be at most 72 bytes", nil)

	// Authentication Errors
	ErrUnauthorized       = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "invalid email or password", nil)

	// Token Errors
	ErrMissingCredential   = NewDomainError(ErrorTypeMissingCredential, "access token required", nil)
	ErrMalformedCredential = NewDomainError(ErrorTypeMalformedCredential, "authorization header must use the Bearer scheme", nil)
	ErrExpiredToken        = NewDomainError(ErrorTypeExpiredToken, "token has expired", nil)
	ErrInvalidSignature    = NewDomainError(ErrorTypeInvalidSignature, "invalid token", nil)
	ErrInvalidTokenType    = NewDomainError(ErrorTypeInvalidTokenType, "invalid token type", nil)
	ErrVerificationFailed  = NewDomainError(ErrorTypeInternalVerification, "token verification failed", nil)

	// Permission Errors
	ErrForbidden          = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrInsufficientRole   = NewDomainError(ErrorTypeInsufficientRole, "insufficient permissions", nil)
	ErrOwnershipViolation = NewDomainError(ErrorTypeOwnershipViolation, "you can only access your own resources", nil)

	// Rate Limit Errors
	ErrRateLimitExceeded = NewDomainError(ErrorTypeRateLimit, "too many requests, please try again later", nil)

	// Conflict Errors
	ErrDuplicateEmail    = NewDomainError(ErrorTypeConflict, "email already exists", nil)
	ErrDuplicateUsername = NewDomainError(ErrorTypeConflict, "username already exists", nil)

	// Internal Errors
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	return GetErrorType(err) == ErrorTypeRateLimit
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsInternalError checks if an error is an internal error, including
// internal verification failures.
func IsInternalError(err error) bool {
	t := GetErrorType(err)
	return t == ErrorTypeInternal || t == ErrorTypeInternalVerification
}

// IsCredentialError reports a missing or unparseable Authorization header
func IsCredentialError(err error) bool {
	t := GetErrorType(err)
	return t == ErrorTypeMissingCredential || t == ErrorTypeMalformedCredential
}

// IsTokenError reports a presented token that failed verification
func IsTokenError(err error) bool {
	switch GetErrorType(err) {
	case ErrorTypeExpiredToken, ErrorTypeInvalidSignature, ErrorTypeInvalidTokenType:
		return true
	}
	return false
}

// IsAuthorizationError reports a verified principal that was denied access
func IsAuthorizationError(err error) bool {
	switch GetErrorType(err) {
	case ErrorTypeForbidden, ErrorTypeInsufficientRole, ErrorTypeOwnershipViolation:
		return true
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// GetErrorMessage returns the client-facing message of a domain error
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
