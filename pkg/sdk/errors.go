package sdk

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented marks a permanent capability gap. Callers must not retry.
	ErrNotImplemented = errors.New("not implemented")
	// ErrResourceNotFound is returned when a named resource is not running.
	ErrResourceNotFound = errors.New("resource not found")
)

// ConfigError rejects a resource configuration. It is fatal to that resource's instantiation.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid config: " + e.Reason
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }
