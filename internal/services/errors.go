package services

import (
	"errors"

	apperrors "github.com/mathsia/memocard-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Memocard specific errors
	ErrMemocardNotFound  = errors.New("memocard not found")
	ErrMemocardInactive  = errors.New("memocard is inactive")
	ErrInvalidLevel      = errors.New("invalid school level")
	ErrInvalidDifficulty = errors.New("invalid difficulty level")
	ErrInvalidType       = errors.New("invalid memocard type")
	ErrTypeImmutable     = errors.New("memocard type cannot be changed after creation")

	// Grading specific errors
	// ErrUnknownMemocardType means a stored card carries a type outside the
	// closed set: data corruption, not a user mistake.
	ErrUnknownMemocardType = errors.New("unknown memocard type")
	ErrInvalidAnswerFormat = errors.New("answer format does not match memocard type")

	// Student specific errors
	ErrStudentNotFound = errors.New("student not found")
	ErrNotAStudent     = errors.New("user is not a student")
	ErrStudentNoLevel  = errors.New("student has no school level")
	ErrUsernameExists  = errors.New("username already exists")
	ErrEmailExists     = errors.New("email already exists")

	// Auth specific errors
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserInactive       = errors.New("user account is inactive")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMemocardNotFound) ||
		errors.Is(err, ErrStudentNotFound)
}

// IsInvalidInput checks if error represents a rejected-before-grading input:
// a malformed enum value, an answer shape incompatible with the card's type,
// or a struct validation failure.
func IsInvalidInput(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrInvalidLevel) ||
		errors.Is(err, ErrInvalidDifficulty) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrTypeImmutable) ||
		errors.Is(err, ErrInvalidAnswerFormat) ||
		errors.Is(err, ErrNotAStudent) ||
		errors.Is(err, ErrStudentNoLevel) ||
		errors.Is(err, ErrMemocardInactive) {
		return true
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *ValidationError
	return errors.As(err, &single)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUsernameExists) ||
		errors.Is(err, ErrEmailExists)
}

// IsUnauthorized checks if error represents an authentication failure
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrUserInactive)
}
