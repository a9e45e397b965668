// Package topology contains pure functions and types for deployment
// topology declarations. All functions here are side-effect free; the
// package never touches the network or the container engine.
package topology

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input validation errors
	ErrEmptyInput = errors.New("declaration is empty")

	// YAML parsing errors
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// Structure errors
	ErrNoServices = errors.New("declaration must define at least one service")

	// Service validation errors
	ErrServiceNoImage = errors.New("service must declare an image")
	ErrInvalidPort    = errors.New("invalid port binding")

	// Lookup errors
	ErrServiceNotFound = errors.New("service not found")
	ErrVolumeNotFound  = errors.New("volume not found")

	// Graph errors
	ErrDependencyCycle = errors.New("dependency cycle detected")

	// Port uniqueness errors
	ErrDuplicateHostPort = errors.New("host port declared more than once")

	// Unsupported declaration features
	ErrUnsupportedFeature = errors.New("unsupported declaration feature")
)

// ParseError wraps errors with context about where parsing failed.
type ParseError struct {
	Field   string // e.g., "services.gateway.ports[0]"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// ReferenceError reports a dangling reference found during validation:
// a service mounting an undeclared volume, or depending on an undeclared
// service.
type ReferenceError struct {
	From string // service holding the reference, e.g. "backend"
	Kind string // "service" or "volume"
	Name string // the missing referent
	Err  error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("service %q references unknown %s %q", e.From, e.Kind, e.Name)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// NewReferenceError creates a ReferenceError wrapping the given sentinel.
func NewReferenceError(from, kind, name string, err error) *ReferenceError {
	return &ReferenceError{
		From: from,
		Kind: kind,
		Name: name,
		Err:  err,
	}
}
