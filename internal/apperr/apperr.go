// Package apperr defines the application error taxonomy shared by the
// planning engine, the services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Type classifies an AppError.
type Type string

const (
	TypeValidation   Type = "validation"   // bad input, operation had no effect
	TypePrecondition Type = "precondition" // input fine, state does not allow it
	TypeNotFound     Type = "not_found"
	TypeConflict     Type = "conflict" // concurrent write lost the race
	TypeInternal     Type = "internal"
)

// AppError represents an application error with additional context.
type AppError struct {
	Type     Type
	Code     string
	Message  string
	Internal error
	Context  map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is matches another AppError on type and code, so sentinels declared with New
// keep matching after With has attached context.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// With returns a copy of the error carrying an extra context value. The
// receiver is left untouched so package-level sentinels stay immutable.
func (e *AppError) With(key string, value any) *AppError {
	cp := *e
	cp.Context = make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		cp.Context[k] = v
	}
	cp.Context[key] = value
	return &cp
}

// LogFields returns structured logging fields for slog.
func (e *AppError) LogFields() []any {
	fields := []any{
		"error_type", string(e.Type),
		"error_code", e.Code,
		"error_message", e.Message,
	}
	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}
	for k, v := range e.Context {
		fields = append(fields, k, v)
	}
	return fields
}

// New creates a new AppError.
func New(t Type, code, message string) *AppError {
	return &AppError{Type: t, Code: code, Message: message}
}

// Wrap wraps an existing error into an AppError.
func Wrap(err error, t Type, code, message string) *AppError {
	return &AppError{Type: t, Code: code, Message: message, Internal: err}
}

// Validation is a shorthand for a validation error with a free-form message.
func Validation(code, message string) *AppError {
	return New(TypeValidation, code, message)
}

// Precondition is a shorthand for a rejected state transition.
func Precondition(code, message string) *AppError {
	return New(TypePrecondition, code, message)
}

// TypeOf reports the Type of the first AppError in err's chain, or
// TypeInternal for anything else.
func TypeOf(err error) Type {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return TypeInternal
}

func IsValidation(err error) bool   { return err != nil && TypeOf(err) == TypeValidation }
func IsPrecondition(err error) bool { return err != nil && TypeOf(err) == TypePrecondition }
func IsNotFound(err error) bool     { return err != nil && TypeOf(err) == TypeNotFound }
func IsConflict(err error) bool     { return err != nil && TypeOf(err) == TypeConflict }
