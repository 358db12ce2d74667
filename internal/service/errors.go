package service

import (
	"errors"
	"fmt"
	"strings"

	"artify-catalog/internal/repository"
)

var (
	// ErrProductNotFound is returned when the product does not exist.
	ErrProductNotFound = repository.ErrProductNotFound

	// ErrNotProductOwner is returned when an authenticated artist targets another artist's product.
	ErrNotProductOwner = errors.New("artist does not own this product")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed product input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// StoreError is a failure of the system of record. It is the only failure that aborts a mutation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// DownstreamError is a cache or event channel failure. It is logged and reported in Effects, never returned.
type DownstreamError struct {
	Collaborator string
	Op           string
	Err          error
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("%s: failed to %s: %v", e.Collaborator, e.Op, e.Err)
}

func (e *DownstreamError) Unwrap() error { return e.Err }
