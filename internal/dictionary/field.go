package dictionary

import (
	"fmt"

	"github.com/danmuck/dictwire/internal/scalar"
)

// Kind is the structural kind of a field schema.
type Kind uint8

const (
	KindSimple Kind = iota
	KindComplex
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindComplex:
		return "complex"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// FieldSchema describes a field or, when built with NewMessage, a message.
// Schemas are immutable once constructed.
type FieldSchema struct {
	name        string
	description string
	namespace   string
	reference   string
	kind        Kind
	typ         scalar.Type
	required    bool
	collection  bool
	serviceName bool
	message     bool
	def         *Attribute
	fields      []*FieldSchema
	values      []*Attribute
	attrs       []*Attribute
}

// Option configures a FieldSchema during construction.
type Option func(*FieldSchema)

func WithDescription(desc string) Option {
	return func(f *FieldSchema) { f.description = desc }
}

func WithNamespace(ns string) Option {
	return func(f *FieldSchema) { f.namespace = ns }
}

func WithRequired() Option {
	return func(f *FieldSchema) { f.required = true }
}

func WithCollection() Option {
	return func(f *FieldSchema) { f.collection = true }
}

func WithServiceName() Option {
	return func(f *FieldSchema) { f.serviceName = true }
}

// WithReference records the name of the schema this one reuses.
func WithReference(name string) Option {
	return func(f *FieldSchema) { f.reference = name }
}

// WithDefault sets a default value typed by the field's declared type.
func WithDefault(raw string) Option {
	return func(f *FieldSchema) { f.def = NewAttribute("default", f.typ, raw) }
}

// WithAttribute adds an attribute, replacing one with the same name.
func WithAttribute(name string, typ scalar.Type, raw string) Option {
	return func(f *FieldSchema) { f.attrs = setAttribute(f.attrs, NewAttribute(name, typ, raw)) }
}

// WithAttributes adds prebuilt attributes, replacing same-named ones.
func WithAttributes(attrs ...*Attribute) Option {
	return func(f *FieldSchema) {
		for _, a := range attrs {
			f.attrs = setAttribute(f.attrs, a)
		}
	}
}

func NewSimple(name string, typ scalar.Type, opts ...Option) *FieldSchema {
	return build(&FieldSchema{name: name, kind: KindSimple, typ: typ}, opts)
}

// NewEnum builds an enumerated field. Each value is typed with typ.
func NewEnum(name string, typ scalar.Type, values []*Attribute, opts ...Option) *FieldSchema {
	f := &FieldSchema{name: name, kind: KindEnum, typ: typ}
	for _, v := range values {
		f.values = append(f.values, v.withType(typ))
	}
	return build(f, opts)
}

func NewComplex(name string, children []*FieldSchema, opts ...Option) *FieldSchema {
	f := &FieldSchema{name: name, kind: KindComplex}
	f.fields = append(f.fields, children...)
	return build(f, opts)
}

// NewMessage builds a complex schema registered as a message.
func NewMessage(name string, children []*FieldSchema, opts ...Option) *FieldSchema {
	f := NewComplex(name, children, opts...)
	f.message = true
	return f
}

// Derive builds a named instance of base: kind, type, children, values and
// attributes are inherited and the reference points at base.
func Derive(base *FieldSchema, name string, opts ...Option) *FieldSchema {
	f := &FieldSchema{
		name:        name,
		description: base.description,
		namespace:   base.namespace,
		reference:   base.name,
		kind:        base.kind,
		typ:         base.typ,
		def:         base.def,
		fields:      append([]*FieldSchema(nil), base.fields...),
		values:      append([]*Attribute(nil), base.values...),
		attrs:       append([]*Attribute(nil), base.attrs...),
	}
	return build(f, opts)
}

func build(f *FieldSchema, opts []Option) *FieldSchema {
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FieldSchema) Name() string        { return f.name }
func (f *FieldSchema) Description() string { return f.description }
func (f *FieldSchema) Namespace() string   { return f.namespace }
func (f *FieldSchema) Reference() string   { return f.reference }
func (f *FieldSchema) Kind() Kind          { return f.kind }
func (f *FieldSchema) IsComplex() bool     { return f.kind == KindComplex }
func (f *FieldSchema) IsEnum() bool        { return f.kind == KindEnum }
func (f *FieldSchema) IsMessage() bool     { return f.message }
func (f *FieldSchema) IsRequired() bool    { return f.required }
func (f *FieldSchema) IsCollection() bool  { return f.collection }
func (f *FieldSchema) IsServiceName() bool { return f.serviceName }

// Type is the declared scalar type; Invalid for complex schemas.
func (f *FieldSchema) Type() scalar.Type {
	if f.kind == KindComplex {
		return scalar.Invalid
	}
	return f.typ
}

func (f *FieldSchema) Default() (*Attribute, bool) {
	return f.def, f.def != nil
}

// Fields returns the ordered children; ok is false unless the schema is complex.
func (f *FieldSchema) Fields() ([]*FieldSchema, bool) {
	if f.kind != KindComplex {
		return nil, false
	}
	return f.fields, true
}

// Field returns the first child declared with name.
func (f *FieldSchema) Field(name string) (*FieldSchema, bool) {
	if f.kind != KindComplex {
		return nil, false
	}
	for _, c := range f.fields {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// FieldNames lists child names in declaration order, duplicates included.
func (f *FieldSchema) FieldNames() []string {
	names := make([]string, 0, len(f.fields))
	for _, c := range f.fields {
		names = append(names, c.name)
	}
	return names
}

// Values returns the enumerated values; ok is false unless the schema is an enum.
func (f *FieldSchema) Values() ([]*Attribute, bool) {
	if f.kind != KindEnum {
		return nil, false
	}
	return f.values, true
}

func (f *FieldSchema) Value(name string) (*Attribute, bool) {
	if f.kind != KindEnum {
		return nil, false
	}
	return findAttribute(f.values, name)
}

func (f *FieldSchema) Attributes() []*Attribute {
	return f.attrs
}

func (f *FieldSchema) Attribute(name string) (*Attribute, bool) {
	return findAttribute(f.attrs, name)
}

// AttributeFlag reports whether the named attribute is present and casts to true.
func (f *FieldSchema) AttributeFlag(name string) bool {
	a, ok := f.Attribute(name)
	if !ok {
		return false
	}
	if v, err := a.Value(); err == nil {
		if b, ok := v.Bool(); ok {
			return b
		}
	}
	b, _ := scalar.ParseBool(a.Raw())
	return b
}

func (f *FieldSchema) String() string {
	if f.kind == KindComplex {
		return fmt.Sprintf("%s{%s}", f.name, f.kind)
	}
	return fmt.Sprintf("%s{%s %s}", f.name, f.kind, f.typ)
}

// inNamespace copies f and its children, filling an empty namespace with ns.
// Attributes are shared.
func (f *FieldSchema) inNamespace(ns string) *FieldSchema {
	cp := *f
	if cp.namespace == "" {
		cp.namespace = ns
	}
	if f.fields != nil {
		cp.fields = make([]*FieldSchema, len(f.fields))
		for i, c := range f.fields {
			cp.fields[i] = c.inNamespace(ns)
		}
	}
	return &cp
}
