package service

import (
	"errors"
	"fmt"
)

// ErrKind separates bad input from model failures
type ErrKind string

const (
	ErrKindValidation ErrKind = "validation"
	ErrKindInference  ErrKind = "inference"
)

// ErrFieldRequired is returned when an input key is absent or blank
var ErrFieldRequired = errors.New("field is required")

// PredictionError is the single error type returned by PredictionService.
// Callers show Error() to the user as-is.
type PredictionError struct {
	Kind  ErrKind
	Field string // empty for inference failures
	Err   error
}

func (e *PredictionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return e.Err.Error()
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

func validationError(field string, err error) *PredictionError {
	return &PredictionError{Kind: ErrKindValidation, Field: field, Err: err}
}

func inferenceError(err error) *PredictionError {
	return &PredictionError{Kind: ErrKindInference, Err: fmt.Errorf("prediction failed: %w", err)}
}

// KindOf reports the kind of a PredictionError, or "" for other errors
func KindOf(err error) ErrKind {
	var pe *PredictionError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
