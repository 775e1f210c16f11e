package core

import (
	"errors"
	"fmt"
)

// Error codes exposed to API clients.
const (
	CodeWrite       = "WRITE_ERROR"
	CodeRead        = "READ_ERROR"
	CodeValidation  = "VALIDATION_ERROR"
	CodeEmptyResult = "EMPTY_RESULT"
)

var (
	ErrWrite       = errors.New("write failed")
	ErrRead        = errors.New("read failed")
	ErrValidation  = errors.New("validation failed")
	ErrEmptyResult = errors.New("empty result")
)

// WriteError reports an append the store did not accept.
type WriteError struct {
	Op  string
	Err error
}

func NewWriteError(op string, err error) *WriteError {
	return &WriteError{Op: op, Err: err}
}

func (e *WriteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrWrite)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrWrite, e.Err)
}

func (e *WriteError) Unwrap() error        { return e.Err }
func (e *WriteError) Is(target error) bool { return target == ErrWrite }
func (e *WriteError) Code() string         { return CodeWrite }

// ReadError reports a failed fetch or subscription.
type ReadError struct {
	Op  string
	Err error
}

func NewReadError(op string, err error) *ReadError {
	return &ReadError{Op: op, Err: err}
}

func (e *ReadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrRead)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrRead, e.Err)
}

func (e *ReadError) Unwrap() error        { return e.Err }
func (e *ReadError) Is(target error) bool { return target == ErrRead }
func (e *ReadError) Code() string         { return CodeRead }

// ValidationError reports a missing or malformed field at the boundary.
type ValidationError struct {
	Field string
	Err   error
}

func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrValidation, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error        { return e.Err }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ValidationError) Code() string         { return CodeValidation }

// EmptyResultError reports a query that matched nothing where one record was required.
type EmptyResultError struct {
	Query string
}

func NewEmptyResultError(query string) *EmptyResultError {
	return &EmptyResultError{Query: query}
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s: %s", ErrEmptyResult, e.Query)
}

func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }
func (e *EmptyResultError) Code() string         { return CodeEmptyResult }

// ErrorCode returns the API code carried by err, or "" when it has none.
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
