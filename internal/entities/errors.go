package entities

import (
	"errors"
	"fmt"
)

// ErrPlantNotFound is returned by operations that reference an unknown plant id
var ErrPlantNotFound = errors.New("plant not found")

// ValidationError reports an input field that was missing or could not be parsed
type ValidationError struct {
	Field string
	Value any
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %v", e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
