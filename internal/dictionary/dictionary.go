// Package dictionary owns the in-memory schema model: dictionaries, message
// and field schemas, attributes and enumerated values.
//
// A Dictionary is built once by a loader and is read-only afterwards, so it
// can be shared by concurrent codec calls without locking.
package dictionary

import (
	"github.com/danmuck/dictwire/internal/scalar"
)

type Dictionary struct {
	namespace   string
	description string
	messages    []*FieldSchema
	fields      []*FieldSchema
	attrs       []*Attribute
}

// DictionaryOption configures a Dictionary during construction.
type DictionaryOption func(*Dictionary)

func WithDictionaryDescription(desc string) DictionaryOption {
	return func(d *Dictionary) { d.description = desc }
}

// WithMessages appends message schemas. Non-message complex schemas are
// promoted to messages in the dictionary's copy; the arguments are untouched.
func WithMessages(msgs ...*FieldSchema) DictionaryOption {
	return func(d *Dictionary) { d.messages = append(d.messages, msgs...) }
}

// WithFields appends top-level reusable field schemas.
func WithFields(fields ...*FieldSchema) DictionaryOption {
	return func(d *Dictionary) { d.fields = append(d.fields, fields...) }
}

func WithDictionaryAttribute(name string, typ scalar.Type, raw string) DictionaryOption {
	return func(d *Dictionary) { d.attrs = setAttribute(d.attrs, NewAttribute(name, typ, raw)) }
}

func New(namespace string, opts ...DictionaryOption) *Dictionary {
	d := &Dictionary{namespace: namespace}
	for _, opt := range opts {
		opt(d)
	}
	// The dictionary owns its schema trees so later changes to the caller's
	// schemas cannot reach it.
	for i, f := range d.fields {
		d.fields[i] = f.inNamespace(namespace)
	}
	for i, m := range d.messages {
		d.messages[i] = m.inNamespace(namespace)
		d.messages[i].message = true
	}
	return d
}

func (d *Dictionary) Namespace() string   { return d.namespace }
func (d *Dictionary) Description() string { return d.description }

// Messages returns message schemas in declaration order, duplicates included.
func (d *Dictionary) Messages() []*FieldSchema { return d.messages }

// Fields returns top-level field schemas in declaration order.
func (d *Dictionary) Fields() []*FieldSchema { return d.fields }

func (d *Dictionary) Attributes() []*Attribute { return d.attrs }

func (d *Dictionary) Attribute(name string) (*Attribute, bool) {
	return findAttribute(d.attrs, name)
}

// Message returns the first message declared with name.
func (d *Dictionary) Message(name string) (*FieldSchema, bool) {
	return lookup(d.messages, name)
}

// Field returns the first top-level field declared with name.
func (d *Dictionary) Field(name string) (*FieldSchema, bool) {
	return lookup(d.fields, name)
}

// MessageNames lists distinct message names in declaration order.
func (d *Dictionary) MessageNames() []string {
	return distinctNames(d.messages)
}

// FieldNames lists distinct top-level field names in declaration order.
func (d *Dictionary) FieldNames() []string {
	return distinctNames(d.fields)
}

// MessageByAttribute returns the first message whose attribute name has the
// raw value raw.
func (d *Dictionary) MessageByAttribute(name, raw string) (*FieldSchema, bool) {
	for _, m := range d.messages {
		if a, ok := m.Attribute(name); ok && a.Raw() == raw {
			return m, true
		}
	}
	return nil, false
}

func lookup(list []*FieldSchema, name string) (*FieldSchema, bool) {
	for _, f := range list {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

func distinctNames(list []*FieldSchema) []string {
	seen := make(map[string]struct{}, len(list))
	names := make([]string, 0, len(list))
	for _, f := range list {
		if _, ok := seen[f.name]; ok {
			continue
		}
		seen[f.name] = struct{}{}
		names = append(names, f.name)
	}
	return names
}
