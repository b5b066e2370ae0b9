package model

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrEmptyBatch    = errors.New("count of images must be greater than 0")
	ErrUnknownApp    = errors.New("application is not registered")
	ErrInvalidURL    = errors.New("invalid presigned url")
	ErrKeyMismatch   = errors.New("presigned url does not match image id")

	// ErrAlreadyExists is returned when a record with the image id is already committed.
	ErrAlreadyExists = errors.New("object already exists")
	// ErrNotUploaded is returned when the raw object is absent from the store.
	ErrNotUploaded = errors.New("object not uploaded to the storage")
)

// ValidationError reports malformed or missing input for a single field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
