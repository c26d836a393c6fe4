package llm

import (
	"errors"
	"fmt"
)

// ClassificationError indicates that a user-supplied input value could not be
// classified as a URL, an existing file path, or a readable handle. It is
// always raised at message-construction time, before any network call.
type ClassificationError struct {
	Message string
}

func (e *ClassificationError) Error() string {
	return e.Message
}

// NewClassificationError creates a ClassificationError with a formatted message.
func NewClassificationError(format string, args ...any) *ClassificationError {
	return &ClassificationError{Message: fmt.Sprintf(format, args...)}
}

// IsClassificationError checks if an error is an input classification error.
func IsClassificationError(err error) bool {
	var ce *ClassificationError
	return errors.As(err, &ce)
}

// SchemaError indicates a malformed or unusable structured-output schema, or
// a response that cannot be parsed against an active schema.
type SchemaError struct {
	Message string
	Err     error // underlying JSON parser error, if any
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsSchemaError checks if an error is a schema error.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// ConfigError indicates an invalid configuration value (bad reasoning effort,
// bad verbosity, missing credential, credential/transport-mode mismatch).
// These fail fast, before any request is sent.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// IsConfigError checks if an error is a configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
