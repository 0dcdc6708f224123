// Package errors provides custom error types for the recordlink system.
// These errors enable programmatic error checking with errors.Is and
// errors.As while keeping messages readable for operators.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the recordlink system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotGlobal indicates a reference target is not a global record
	ErrNotGlobal = errors.New("record is not global")

	// ErrStoreIO indicates that the underlying document store failed
	ErrStoreIO = errors.New("store io failure")

	// ErrAuditWrite indicates an audit or enrichment log entry could not be written
	ErrAuditWrite = errors.New("audit write failed")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AlreadyExistsError represents a duplicate resource
type AlreadyExistsError struct {
	Resource string
	ID       string
	Message  string
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s already exists: %s", e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("%s %s already exists", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(resource, id, message string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, ID: id, Message: message}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NotGlobalError is returned when a reference is requested for a record
// that is not part of the global catalog.
type NotGlobalError struct {
	RecordID string
}

// Error implements the error interface
func (e *NotGlobalError) Error() string {
	return fmt.Sprintf("record %s is not global and cannot be referenced", e.RecordID)
}

// Is implements errors.Is support
func (e *NotGlobalError) Is(target error) bool {
	return target == ErrNotGlobal
}

// NewNotGlobalError creates a new NotGlobalError
func NewNotGlobalError(recordID string) *NotGlobalError {
	return &NotGlobalError{RecordID: recordID}
}

// StoreIOError wraps a failure returned by the document store.
// The cause is reachable through Unwrap unchanged.
type StoreIOError struct {
	Operation  string // "get", "query", "update", "add", "delete"
	Collection string
	ID         string
	Err        error
}

// Error implements the error interface
func (e *StoreIOError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s on %s/%s failed: %v", e.Operation, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s on %s failed: %v", e.Operation, e.Collection, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreIOError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreIOError) Is(target error) bool {
	return target == ErrStoreIO
}

// NewStoreIOError creates a new StoreIOError
func NewStoreIOError(operation, collection, id string, err error) *StoreIOError {
	return &StoreIOError{Operation: operation, Collection: collection, ID: id, Err: err}
}

// AuditWriteError reports that an advisory trail entry was lost.
// Callers log it and continue; it never rolls back the primary mutation.
type AuditWriteError struct {
	Sink     string // "audit_log" or "enrichment_logs"
	Action   string
	EntityID string
	Err      error
}

// Error implements the error interface
func (e *AuditWriteError) Error() string {
	return fmt.Sprintf("writing %s entry %s for %s: %v", e.Sink, e.Action, e.EntityID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *AuditWriteError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuditWriteError) Is(target error) bool {
	return target == ErrAuditWrite
}

// NewAuditWriteError creates a new AuditWriteError
func NewAuditWriteError(sink, action, entityID string, err error) *AuditWriteError {
	return &AuditWriteError{Sink: sink, Action: action, EntityID: entityID, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotGlobal checks if an error reports a non-global reference target
func IsNotGlobal(err error) bool {
	return errors.Is(err, ErrNotGlobal)
}

// IsStoreIO checks if an error came from the document store
func IsStoreIO(err error) bool {
	return errors.Is(err, ErrStoreIO)
}

// IsAuditWrite checks if an error is a swallowed audit failure
func IsAuditWrite(err error) bool {
	return errors.Is(err, ErrAuditWrite)
}

// WrapValidation wraps an error as a validation error
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapStore wraps a store failure unless it is already typed.
// Not-found and validation errors pass through unchanged.
func WrapStore(operation, collection, id string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsValidationError(err) || IsStoreIO(err) {
		return err
	}
	return NewStoreIOError(operation, collection, id, err)
}

// Is reports whether any error in err's chain matches target.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
var As = errors.As
