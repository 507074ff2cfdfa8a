package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidAction = errors.New("invalid action")
)

// ValidationError reports a payload that does not carry the fields its kind
// requires. It matches ErrInvalidAction.
type ValidationError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is required"
	}
	return fmt.Sprintf("invalid %s action: %s %s", e.Kind, e.Field, reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidAction
}

func required(kind Kind, field, value string) error {
	if value == "" {
		return &ValidationError{Kind: kind, Field: field}
	}
	return nil
}
