package errdefs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrValidation           = errors.New("validation error")
	ErrInvalidTransition    = errors.New("action not allowed in current state")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrUnknownAction        = errors.New("unknown action")
	ErrSuperseded           = errors.New("superseded by a newer request")
	ErrFetch                = errors.New("fetch failed")
	ErrDecode               = errors.New("decode failed")
)

// FetchError is a non-2xx or success:false answer from the backend.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Is also matches the sentinel for the backend's 401, 403 and 404 answers.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrFetch:
		return true
	case ErrUnauthenticated:
		return e.Status == 401
	case ErrPermissionDenied:
		return e.Status == 403
	case ErrNotFound:
		return e.Status == 404
	}
	return false
}

// DecodeError is a backend payload that does not match the resource schema.
type DecodeError struct {
	Resource string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Resource, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects local form failures. It never reaches the backend.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
