package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors raised by adapters.
var (
	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrUnsupportedFormat indicates an unknown catalog, answer sheet or
	// report format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrRenderFailed indicates that a report could not be rendered.
	ErrRenderFailed = errors.New("render failed")

	// ErrSinkFailed indicates that a rendered report could not be stored.
	ErrSinkFailed = errors.New("report sink failed")
)

// ConfigError represents a configuration-related error.
type ConfigError struct {
	// Key is the configuration key that caused the error.
	Key string

	// Value is the invalid value, if applicable.
	Value any

	// Reason explains why the configuration is invalid.
	Reason string
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("config error: key=%s, value=%v, reason=%s", e.Key, e.Value, e.Reason)
	}
	return fmt.Sprintf("config error: key=%s, reason=%s", e.Key, e.Reason)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(key string, value any, reason string) *ConfigError {
	return &ConfigError{Key: key, Value: value, Reason: reason}
}

// RenderError wraps a failure of a report renderer or sink.
type RenderError struct {
	// Format is the report format being produced.
	Format string

	// Stage is "render" or "write".
	Stage string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for RenderError.
func (e *RenderError) Error() string {
	return fmt.Sprintf("report error: format=%s, stage=%s, err=%v", e.Format, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error { return e.Err }

// NewRenderError creates a new RenderError.
func NewRenderError(format, stage string, err error) *RenderError {
	return &RenderError{Format: format, Stage: stage, Err: err}
}
