package ripple

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common failure cases.
var (
	// ErrConfiguration indicates a malformed relationship declaration.
	// Detected at model-build time and fatal to that model.
	ErrConfiguration = errors.New("ripple: invalid relationship configuration")

	// ErrTransientReference is returned when a required association
	// references a transient entity and no cascade policy covers save in
	// that direction.
	ErrTransientReference = errors.New("ripple: transient reference")

	// ErrCascade is returned when applying a queued cascade step fails.
	ErrCascade = errors.New("ripple: cascade failed")

	// ErrIdentityReassigned is returned when attempting to assign a new
	// identity to an entity that already has one.
	ErrIdentityReassigned = errors.New("ripple: entity identity cannot be reassigned")
)

// ConfigurationError represents a malformed relationship declaration, such
// as a uniqueness constraint on a non many-to-one association or a declared
// owner naming a type with no corresponding association.
type ConfigurationError struct {
	Type    string // Entity type name
	Rel     string // Relationship name (if applicable)
	Message string
	Cause   error
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("ripple: configuration error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Rel != "" {
		b.WriteString(" rel ")
		b.WriteString(e.Rel)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error { return e.Cause }

// Is reports whether the target matches the sentinel error for ConfigurationError.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(typeName, relName, message string) *ConfigurationError {
	return &ConfigurationError{Type: typeName, Rel: relName, Message: message}
}

// IsConfigurationError returns true if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e) || errors.Is(err, ErrConfiguration)
}

// TransientReferenceError is reported to the caller of a root save or
// update when a required association references a transient entity and the
// resolved policy for that direction does not cover save. No partial writes
// are performed for that root call.
type TransientReferenceError struct {
	Entity Entity // Entity holding the reference
	Rel    string // Relationship name
}

// Error returns the error string.
func (e *TransientReferenceError) Error() string {
	return fmt.Sprintf("ripple: rel %q on %s references a transient entity; save it first or cascade save",
		e.Rel, e.Entity.TypeName())
}

// Is reports whether the target matches the sentinel error for TransientReferenceError.
func (e *TransientReferenceError) Is(target error) bool { return target == ErrTransientReference }

// NewTransientReferenceError creates a new TransientReferenceError.
func NewTransientReferenceError(e Entity, relName string) *TransientReferenceError {
	return &TransientReferenceError{Entity: e, Rel: relName}
}

// IsTransientReference returns true if the error is a TransientReferenceError.
func IsTransientReference(err error) bool {
	if err == nil {
		return false
	}
	var e *TransientReferenceError
	return errors.As(err, &e) || errors.Is(err, ErrTransientReference)
}

// CascadeError wraps a persistence-layer failure encountered while applying
// a queued cascade step. It identifies which entity's operation failed; the
// entire root cascade is treated as failed and already-issued writes are
// expected to roll back at the ambient transaction boundary.
type CascadeError struct {
	Entity Entity // Entity whose operation failed
	Op     Op     // Operation that was being applied
	Err    error  // Underlying persistence error
}

// Error returns the error string.
func (e *CascadeError) Error() string {
	return fmt.Sprintf("ripple: cascade %s on %s: %v", e.Op, e.Entity.TypeName(), e.Err)
}

// Unwrap returns the underlying error.
func (e *CascadeError) Unwrap() error { return e.Err }

// Is reports whether the target matches the sentinel error for CascadeError.
func (e *CascadeError) Is(target error) bool { return target == ErrCascade }

// NewCascadeError creates a new CascadeError.
func NewCascadeError(entity Entity, op Op, err error) *CascadeError {
	return &CascadeError{Entity: entity, Op: op, Err: err}
}

// IsCascadeError returns true if the error is a CascadeError.
func IsCascadeError(err error) bool {
	if err == nil {
		return false
	}
	var e *CascadeError
	return errors.As(err, &e) || errors.Is(err, ErrCascade)
}
