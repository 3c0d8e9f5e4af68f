package shared

import (
	"errors"
	"strings"
)

// Kind classifies domain failures so transports can map them uniformly.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindForbidden     Kind = "forbidden"
	KindConflict      Kind = "conflict"
	KindConfiguration Kind = "configuration"
	KindInternal      Kind = "internal"
)

var (
	// ErrNotFound indicates the entity does not exist for the current company.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates a tenant mismatch.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a concurrent write or a referenced row blocking the change.
	ErrConflict = errors.New("conflict")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated indicates no user was resolved for the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNoTenantSelected indicates the user has no company selected or linked.
	ErrNoTenantSelected = errors.New("no company selected")
)

// Validation failure reasons.
const (
	ReasonMissingReference   = "missing_reference"
	ReasonAmbiguousReference = "ambiguous_reference"
	ReasonInvalidField       = "invalid_field"
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field level messages under a reason.
type ValidationError struct {
	Reason string
	Fields []FieldError
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(reason, field, message string) *ValidationError {
	v := &ValidationError{Reason: reason}
	v.Add(field, message)
	return v
}

// Add appends a field message.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Empty reports whether no field was rejected.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Err returns nil when nothing was rejected.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	msg := ErrValidation.Error()
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, "; ")
	}
	return msg
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// KindOf resolves the error kind of err.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrNoTenantSelected):
		return KindConfiguration
	default:
		return KindInternal
	}
}
