package validate

import (
	"fmt"
	"strings"
)

// Level locates a validation error within the dictionary.
type Level uint8

const (
	LevelDictionary Level = iota
	LevelMessage
	LevelField
)

func (l Level) String() string {
	switch l {
	case LevelDictionary:
		return "dictionary"
	case LevelMessage:
		return "message"
	case LevelField:
		return "field"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// Category classifies a validation error.
type Category string

const (
	// ErrDuplicateName indicates two siblings share a name.
	ErrDuplicateName Category = "ERR_DUPLICATE_NAME"
	// ErrRequiredField indicates a field a codec needs is not declared.
	ErrRequiredField Category = "ERR_REQUIRED_FIELD"
	// ErrRequiredAttribute indicates an attribute a codec needs is not declared.
	ErrRequiredAttribute Category = "ERR_REQUIRED_ATTRIBUTE"
	// ErrAttributeType indicates an attribute declared with an unexpected type.
	ErrAttributeType Category = "ERR_ATTRIBUTE_TYPE"
	// ErrAttributeValue indicates an attribute value outside the allowed set.
	ErrAttributeValue Category = "ERR_ATTRIBUTE_VALUE"
	// ErrValueType indicates a default, attribute or enum value that does not
	// parse as its declared type.
	ErrValueType Category = "ERR_VALUE_TYPE"
)

// ValidationError is one problem found in a dictionary.
type ValidationError struct {
	Message  string
	Field    string
	Text     string
	Level    Level
	Category Category
}

func (e ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validate: ")
	b.WriteString(string(e.Category))
	if e.Message != "" {
		fmt.Fprintf(&b, " message=%s", e.Message)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field=%s", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Text)
	return b.String()
}

// Errors is a collected list of validation errors.
type Errors []ValidationError

func (e Errors) Error() string {
	switch len(e) {
	case 0:
		return "validate: no errors"
	case 1:
		return e[0].Error()
	}
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Error())
	}
	return fmt.Sprintf("validate: %d errors:\n%s", len(e), strings.Join(parts, "\n"))
}

// Err returns nil for an empty list so callers can use it as a plain error.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Filter keeps the errors reported at level.
func (e Errors) Filter(level Level) Errors {
	var out Errors
	for _, v := range e {
		if v.Level == level {
			out = append(out, v)
		}
	}
	return out
}

// ByCategory keeps the errors of category c.
func (e Errors) ByCategory(c Category) Errors {
	var out Errors
	for _, v := range e {
		if v.Category == c {
			out = append(out, v)
		}
	}
	return out
}
