package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid  ErrorCode = "invalid"
	ErrorNotFound ErrorCode = "not_found"
	ErrorInternal ErrorCode = "internal"
)

// ServiceError carries a stable code the transport layer maps to a status.
type ServiceError struct {
	Code    ErrorCode
	Message string
	// Err is the underlying cause; it is logged but never shown to callers.
	Err error
}

func (e *ServiceError) Error() string { return e.Message }

func (e *ServiceError) Unwrap() error { return e.Err }

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }

func NewInternalError(cause error) error {
	return &ServiceError{Code: ErrorInternal, Message: "internal error", Err: cause}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf returns the error code of err, treating foreign errors as internal.
func CodeOf(err error) ErrorCode {
	if se, ok := AsServiceError(err); ok {
		return se.Code
	}
	return ErrorInternal
}
