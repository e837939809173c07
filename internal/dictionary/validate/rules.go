package validate

import (
	"fmt"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/scalar"
)

// FASTRules checks what the binary templated codec needs: every message
// declares a templateId of type long or int, and every field with a wire
// name declares it as a string.
func FASTRules(d *dictionary.Dictionary) Errors {
	var errs Errors
	for _, m := range d.Messages() {
		errs = append(errs, RequiredAttribute(m, dictionary.AttrTemplateID)...)
		if a, ok := m.Attribute(dictionary.AttrTemplateID); ok && a.Type() != scalar.Int {
			errs = append(errs, AttributeTypeValue(m, dictionary.AttrTemplateID, scalar.Long)...)
		}
		walkFields(m, func(f *dictionary.FieldSchema) {
			if a, ok := f.Attribute(dictionary.AttrFastName); ok && a.Type() != scalar.String {
				errs = append(errs, fieldError(m, f, ErrAttributeType,
					fmt.Sprintf("attribute %q has type %s, expected %s", a.Name(), a.Type(), scalar.String)))
			}
		})
	}
	if unit, ok := d.Attribute(dictionary.AttrDateTimeUnit); ok {
		if _, err := scalar.ParseUnit(unit.Raw()); err != nil {
			errs = append(errs, ValidationError{
				Level:    LevelDictionary,
				Category: ErrAttributeValue,
				Text:     fmt.Sprintf("attribute %q has value %q, expected a time unit", unit.Name(), unit.Raw()),
			})
		}
	}
	return errs
}

// FIXRules checks what the textual tag codec needs: every message declares a
// MessageType string attribute and every non-complex field an int tag.
// Collections of complex fields need a tag for their counter.
func FIXRules(d *dictionary.Dictionary) Errors {
	var errs Errors
	for _, m := range d.Messages() {
		errs = append(errs, RequiredAttribute(m, dictionary.AttrMessageType)...)
		errs = append(errs, AttributeTypeValue(m, dictionary.AttrMessageType, scalar.String)...)
		walkFields(m, func(f *dictionary.FieldSchema) {
			if f.IsComplex() && !f.IsCollection() {
				return
			}
			a, ok := f.Attribute(dictionary.AttrTag)
			if !ok {
				errs = append(errs, fieldError(m, f, ErrRequiredAttribute,
					fmt.Sprintf("required attribute %q is missing", dictionary.AttrTag)))
				return
			}
			if a.Type() != scalar.Int {
				errs = append(errs, fieldError(m, f, ErrAttributeType,
					fmt.Sprintf("attribute %q has type %s, expected %s", a.Name(), a.Type(), scalar.Int)))
			}
		})
	}
	return errs
}

func fieldError(m, f *dictionary.FieldSchema, c Category, text string) ValidationError {
	return ValidationError{Message: m.Name(), Field: f.Name(), Level: LevelField, Category: c, Text: text}
}

// walkFields visits every descendant of parent depth-first in declaration order.
func walkFields(parent *dictionary.FieldSchema, visit func(*dictionary.FieldSchema)) {
	children, ok := parent.Fields()
	if !ok {
		return
	}
	for _, c := range children {
		visit(c)
		walkFields(c, visit)
	}
}
