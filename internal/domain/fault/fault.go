package fault

import (
	"errors"
	"fmt"
)

// Error codes shared by every engine component. The HTTP adapter maps them
// to status codes; nothing in this package knows about transport.
const (
	CodeAuthentication = "AUTHENTICATION"
	CodeAuthorization  = "AUTHORIZATION"
	CodeNotFound       = "NOT_FOUND"
	CodeValidation     = "VALIDATION"
	CodeConflict       = "CONFLICT"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAuthenticationError(msg string) error {
	return &DomainError{Code: CodeAuthentication, Message: msg}
}

func NewAuthorizationError(msg string) error {
	return &DomainError{Code: CodeAuthorization, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &DomainError{Code: CodeNotFound, Message: msg}
}

func NewValidationError(msg string) error {
	return &DomainError{Code: CodeValidation, Message: msg}
}

func NewConflictError(msg string) error {
	return &DomainError{Code: CodeConflict, Message: msg}
}

// CodeOf returns the fault code carried by err, or "" for plain errors.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err carries the given fault code.
func IsCode(err error, code string) bool { return CodeOf(err) == code }
