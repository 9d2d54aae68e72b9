package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrRevisionConflict is returned when a session was saved by someone else since it was loaded
var ErrRevisionConflict = errors.New("session revision conflict")

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ModelError is returned by structured generation when the model times out,
// fails, or produces output that does not fit the requested schema.
type ModelError struct {
	Schema string
	Err    error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error (schema %s): %v", e.Schema, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func NewModelError(schema string, err error) *ModelError {
	return &ModelError{Schema: schema, Err: err}
}

// IsModelError reports whether err is or wraps a *ModelError
func IsModelError(err error) bool {
	var modelErr *ModelError
	return errors.As(err, &modelErr)
}

// ConfigError marks a component that cannot be constructed because
// required configuration is missing.
type ConfigError struct {
	Component string
	Missing   []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing %s configuration: ensure %s are set", e.Component, strings.Join(e.Missing, ", "))
}
