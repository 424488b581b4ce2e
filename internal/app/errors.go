package service

import (
	"errors"
	"fmt"
)

// Sentinel kinds for service errors. Callers match them with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failed")
	ErrValidation  = errors.New("validation failed")
)

// OpError ties an error kind to the operation that produced it and the
// underlying cause.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Cause returns the underlying error, or the kind when there is none.
func (e *OpError) Cause() error {
	if e.Err == nil {
		return e.Kind
	}
	return e.Err
}

// WrapKind returns err tagged with op and kind.
func WrapKind(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}
