// Package validate checks dictionaries for structural and type problems.
// All applicable errors are collected; nothing fails fast.
package validate

import (
	"fmt"
	"slices"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/scalar"
	"github.com/rs/zerolog/log"
)

// Validate runs the duplicate-name and type-applicability checks over every
// message and field of d, in declaration order.
func Validate(d *dictionary.Dictionary) Errors {
	log.Debug().Msgf("validate.Validate namespace=%s messages=%d fields=%d",
		d.Namespace(), len(d.Messages()), len(d.Fields()))

	var errs Errors
	errs = append(errs, checkAttributes("", "", d.Attributes())...)
	errs = append(errs, duplicates(d.Messages(), func(name string) ValidationError {
		return ValidationError{Message: name, Level: LevelMessage}
	})...)
	errs = append(errs, duplicates(d.Fields(), func(name string) ValidationError {
		return ValidationError{Field: name, Level: LevelDictionary}
	})...)

	for _, f := range d.Fields() {
		errs = append(errs, checkField("", f)...)
	}
	for _, m := range d.Messages() {
		errs = append(errs, checkAttributes(m.Name(), "", m.Attributes())...)
		errs = append(errs, checkChildren(m.Name(), m)...)
	}

	for _, e := range errs {
		log.Warn().Msg(e.Error())
	}
	if len(errs) == 0 {
		log.Info().Msgf("validate.Validate ok namespace=%s", d.Namespace())
	}
	return errs
}

func checkChildren(msgName string, parent *dictionary.FieldSchema) Errors {
	children, ok := parent.Fields()
	if !ok {
		return nil
	}
	errs := duplicates(children, func(name string) ValidationError {
		return ValidationError{Message: msgName, Field: name, Level: LevelField}
	})
	for _, c := range children {
		errs = append(errs, checkField(msgName, c)...)
	}
	return errs
}

func checkField(msgName string, f *dictionary.FieldSchema) Errors {
	var errs Errors
	if def, ok := f.Default(); ok {
		errs = append(errs, checkValue(msgName, f.Name(), "default value", def)...)
	}
	errs = append(errs, checkAttributes(msgName, f.Name(), f.Attributes())...)
	if values, ok := f.Values(); ok {
		for _, v := range values {
			errs = append(errs, checkValue(msgName, f.Name(), "enum value "+v.Name(), v)...)
		}
	}
	errs = append(errs, checkChildren(msgName, f)...)
	return errs
}

// duplicates reports each name seen more than once exactly once.
func duplicates(list []*dictionary.FieldSchema, mk func(string) ValidationError) Errors {
	seen := make(map[string]int, len(list))
	var order []string
	for _, f := range list {
		seen[f.Name()]++
		if seen[f.Name()] == 2 {
			order = append(order, f.Name())
		}
	}
	var errs Errors
	for _, name := range order {
		e := mk(name)
		e.Category = ErrDuplicateName
		e.Text = fmt.Sprintf("name %q declared %d times", name, seen[name])
		errs = append(errs, e)
	}
	return errs
}

func checkAttributes(msgName, fieldName string, attrs []*dictionary.Attribute) Errors {
	var errs Errors
	for _, a := range attrs {
		errs = append(errs, checkValue(msgName, fieldName, "attribute "+a.Name(), a)...)
	}
	return errs
}

// checkValue verifies a raw string declared with a numeric, boolean,
// character or decimal type parses as that type. Failures are field level
// wherever the value hangs.
func checkValue(msgName, fieldName, what string, a *dictionary.Attribute) Errors {
	if !applicable(a.Type()) {
		return nil
	}
	if _, err := scalar.Parse(a.Type(), a.Raw()); err != nil {
		return Errors{{
			Message:  msgName,
			Field:    fieldName,
			Level:    LevelField,
			Category: ErrValueType,
			Text:     fmt.Sprintf("%s %q is not a valid %s", what, a.Raw(), a.Type()),
		}}
	}
	return nil
}

func applicable(t scalar.Type) bool {
	return t.Numeric() || t == scalar.Bool || t == scalar.Char
}

// RequiredField reports msg not declaring a child called name.
func RequiredField(msg *dictionary.FieldSchema, name string) Errors {
	if _, ok := msg.Field(name); ok {
		return nil
	}
	return Errors{{
		Message:  msg.Name(),
		Level:    LevelMessage,
		Category: ErrRequiredField,
		Text:     fmt.Sprintf("required field %q is missing", name),
	}}
}

// RequiredAttribute reports msg not declaring an attribute called name.
func RequiredAttribute(msg *dictionary.FieldSchema, name string) Errors {
	if _, ok := msg.Attribute(name); ok {
		return nil
	}
	return Errors{{
		Message:  msg.Name(),
		Level:    LevelMessage,
		Category: ErrRequiredAttribute,
		Text:     fmt.Sprintf("required attribute %q is missing", name),
	}}
}

// AttributeTypeValue checks the declared type of attribute name on msg and,
// when allowed is non-empty, that its raw value is one of allowed. A missing
// attribute is not reported here.
func AttributeTypeValue(msg *dictionary.FieldSchema, name string, typ scalar.Type, allowed ...string) Errors {
	a, ok := msg.Attribute(name)
	if !ok {
		return nil
	}
	if a.Type() != typ {
		return Errors{{
			Message:  msg.Name(),
			Level:    LevelMessage,
			Category: ErrAttributeType,
			Text:     fmt.Sprintf("attribute %q has type %s, expected %s", name, a.Type(), typ),
		}}
	}
	if len(allowed) > 0 && !slices.Contains(allowed, a.Raw()) {
		return Errors{{
			Message:  msg.Name(),
			Level:    LevelMessage,
			Category: ErrAttributeValue,
			Text:     fmt.Sprintf("attribute %q has value %q, expected one of %v", name, a.Raw(), allowed),
		}}
	}
	return nil
}
