package common

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. The HTTP mapping lives in the response
// builder; model kinds are the only ones that do not fail the request.
type Kind string

const (
	KindInvalidPath       Kind = "InvalidPathError"
	KindNotFound          Kind = "NotFoundError"
	KindFetch             Kind = "FetchError"
	KindEmptyFile         Kind = "EmptyFileError"
	KindModelInvocation   Kind = "ModelInvocationError"
	KindModelTimeout      Kind = "ModelTimeoutError"
	KindMalformedResponse Kind = "MalformedResponseError"
)

// AppError is a classified pipeline error.
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError builds an AppError of the given kind.
func NewAppError(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

// Errorf builds an AppError without a cause.
func Errorf(kind Kind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first AppError in err's chain, or "" if none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsModelFailure reports whether err belongs to the degraded-success class.
func IsModelFailure(err error) bool {
	switch KindOf(err) {
	case KindModelInvocation, KindModelTimeout:
		return true
	}
	return false
}
