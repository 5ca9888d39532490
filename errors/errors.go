// Package errors defines the application error taxonomy
package errors

import "fmt"

// ErrorType categorizes application errors for handling and HTTP mapping
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota

	// Domain errors
	ErrorTypeValidation
	ErrorTypeNotFound
	ErrorTypeAlreadyExists
	ErrorTypeToken

	// Infrastructure errors
	ErrorTypeDatabase
	ErrorTypeExternalAPI
	ErrorTypeEmail

	// System errors
	ErrorTypeConfiguration
)

// String returns the string representation of error type
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND_ERROR"
	case ErrorTypeAlreadyExists:
		return "ALREADY_EXISTS_ERROR"
	case ErrorTypeToken:
		return "TOKEN_ERROR"
	case ErrorTypeDatabase:
		return "DATABASE_ERROR"
	case ErrorTypeExternalAPI:
		return "EXTERNAL_API_ERROR"
	case ErrorTypeEmail:
		return "EMAIL_ERROR"
	case ErrorTypeConfiguration:
		return "CONFIGURATION_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// AppError is the error type returned by all application layers
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type.String(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

func Wrap(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// Domain error constructors
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

func NewNotFoundError(message string) *AppError {
	return New(ErrorTypeNotFound, message)
}

func NewAlreadyExistsError(message string) *AppError {
	return New(ErrorTypeAlreadyExists, message)
}

func NewTokenError(message string) *AppError {
	return New(ErrorTypeToken, message)
}

// Infrastructure error constructors
func NewDatabaseError(message string, cause error) *AppError {
	return Wrap(ErrorTypeDatabase, message, cause)
}

func NewExternalAPIError(message string, cause error) *AppError {
	return Wrap(ErrorTypeExternalAPI, message, cause)
}

func NewEmailError(message string, cause error) *AppError {
	return Wrap(ErrorTypeEmail, message, cause)
}

// System error constructors
func NewConfigurationError(message string, cause error) *AppError {
	return Wrap(ErrorTypeConfiguration, message, cause)
}
