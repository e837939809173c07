package message

import (
	"errors"
	"fmt"

	"github.com/danmuck/dictwire/internal/dictionary"
)

var (
	ErrUnknownField    = errors.New("message: field not in schema")
	ErrTypeMismatch    = errors.New("message: type mismatch")
	ErrShapeMismatch   = errors.New("message: shape mismatch")
	ErrMissingRequired = errors.New("message: required field missing")
	ErrNotEnumerated   = errors.New("message: value not enumerated")
)

// FieldError locates a strict-check violation.
type FieldError struct {
	Message string
	Field   string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Message, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Check verifies m against schema: every field must be declared with the
// value's shape and type, enum values must be enumerated, and required
// fields without a default must be present. Nested messages are checked
// against their field schema. The first violation is returned.
func Check(m *Message, schema *dictionary.FieldSchema) error {
	fail := func(field string, err error) error {
		return &FieldError{Message: m.Name, Field: field, Err: err}
	}

	var err error
	m.Range(func(name string, v Value) bool {
		fs, ok := schema.Field(name)
		if !ok {
			err = fail(name, ErrUnknownField)
			return false
		}
		if cerr := checkField(fs, v); cerr != nil {
			var fe *FieldError
			if errors.As(cerr, &fe) {
				err = cerr
			} else {
				err = fail(name, cerr)
			}
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	children, _ := schema.Fields()
	for _, fs := range children {
		if !fs.IsRequired() || m.Has(fs.Name()) {
			continue
		}
		if _, ok := fs.Default(); ok {
			continue
		}
		return fail(fs.Name(), ErrMissingRequired)
	}
	return nil
}

func checkField(fs *dictionary.FieldSchema, v Value) error {
	if fs.IsCollection() {
		items, ok := v.List()
		if !ok {
			return fmt.Errorf("%w: expected list, got %s", ErrShapeMismatch, v.Kind())
		}
		for i, item := range items {
			if err := checkItem(fs, item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	}
	return checkItem(fs, v)
}

func checkItem(fs *dictionary.FieldSchema, v Value) error {
	if fs.IsComplex() {
		nested, ok := v.Message()
		if !ok {
			return fmt.Errorf("%w: expected message, got %s", ErrShapeMismatch, v.Kind())
		}
		return Check(nested, fs)
	}
	s, ok := v.Scalar()
	if !ok {
		return fmt.Errorf("%w: expected scalar, got %s", ErrShapeMismatch, v.Kind())
	}
	if s.Type() != fs.Type() {
		return fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, fs.Type(), s.Type())
	}
	values, ok := fs.Values()
	if !ok {
		return nil
	}
	for _, ev := range values {
		if cast, err := ev.Value(); err == nil && cast.Equal(s) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotEnumerated, s)
}
