package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrHashing      = errors.New("password hashing failed")
	ErrNoPassword   = errors.New("no password set")
)

// FieldError describes one violated constraint. Rule is the name of the
// constraint (required, min, max, oneof, hashed) and Param its argument.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func (f FieldError) String() string {
	if f.Param == "" {
		return f.Field + " (" + f.Rule + ")"
	}

	return f.Field + " (" + f.Rule + "=" + f.Param + ")"
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}

	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Has reports whether field is among the offending fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}

	return false
}

// DuplicateKeyError is returned when a write would give a unique field a value
// another account already holds.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: %s is already in use", e.Field)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

type HashingError struct {
	Err error
}

func (e *HashingError) Error() string {
	return fmt.Sprintf("failed to hash password, %v", e.Err)
}

func (e *HashingError) Unwrap() error {
	return e.Err
}

func (e *HashingError) Is(target error) bool {
	return target == ErrHashing
}
