package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError reports an invalid value of a single field, keyed by its JSON name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned for input that breaks a data invariant, eg. a work item with more submissions than expected.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err *ValidationError) Error() string {
	msgs := make([]string, 0, len(err.Fields)+1)
	if err.Err != nil {
		msgs = append(msgs, err.Err.Error())
	}
	for _, fld := range err.Fields {
		msgs = append(msgs, fld.Field+": "+fld.Error)
	}
	return strings.Join(msgs, "; ")
}

func (err *ValidationError) Unwrap() error { return err.Err }

// FieldMap returns the field errors keyed by field; the first error of a field wins.
// It is nil when no field is at fault.
func (err *ValidationError) FieldMap() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	m := make(map[string]string, len(err.Fields))
	for _, fld := range err.Fields {
		if _, ok := m[fld.Field]; !ok {
			m[fld.Field] = fld.Error
		}
	}
	return m
}

type shutdown struct {
	message string
}

// NewShutdownError is returned by a handler that requires the server to stop.
func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s *shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
