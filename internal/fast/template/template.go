// Package template holds binary message templates: the ordered field layout
// and wire types of each templated message, keyed by template id and name.
package template

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateTemplate = errors.New("template: duplicate template")
	ErrUnknownWireType   = errors.New("template: unknown wire type")
	ErrInvalidTemplate   = errors.New("template: invalid template")
)

// WireType is the encoding of one template field.
type WireType uint8

const (
	TypeInvalid WireType = iota
	TypeInt8
	TypeUInt8
	TypeInt32
	TypeUInt32
	TypeInt64
	TypeUInt64
	TypeDecimal
	TypeASCII
	TypeUnicode
	TypeByteVector
	TypeGroup
	TypeSequence
)

var wireTypeNames = [...]string{
	TypeInvalid:    "invalid",
	TypeInt8:       "int8",
	TypeUInt8:      "uInt8",
	TypeInt32:      "int32",
	TypeUInt32:     "uInt32",
	TypeInt64:      "int64",
	TypeUInt64:     "uInt64",
	TypeDecimal:    "decimal",
	TypeASCII:      "ascii",
	TypeUnicode:    "unicode",
	TypeByteVector: "byteVector",
	TypeGroup:      "group",
	TypeSequence:   "sequence",
}

func (t WireType) String() string {
	if int(t) < len(wireTypeNames) {
		return wireTypeNames[t]
	}
	return fmt.Sprintf("wiretype(%d)", uint8(t))
}

func (t WireType) Integer() bool { return t >= TypeInt8 && t <= TypeUInt64 }
func (t WireType) Signed() bool  { return t == TypeInt8 || t == TypeInt32 || t == TypeInt64 }
func (t WireType) Text() bool    { return t == TypeASCII || t == TypeUnicode }
func (t WireType) Nested() bool  { return t == TypeGroup || t == TypeSequence }

// Field is one template field. Group and sequence fields carry the layout of
// their nested group.
type Field struct {
	Name     string
	Type     WireType
	Optional bool
	Group    *Group
	// LengthName is the sequence's declared length field name, if any.
	LengthName string
}

// Group is an ordered list of fields.
type Group struct {
	Name   string
	Fields []*Field
}

// Index returns the position of the field named name.
func (g *Group) Index(name string) (int, bool) {
	for i, f := range g.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (g *Group) Field(name string) (*Field, bool) {
	i, ok := g.Index(name)
	if !ok {
		return nil, false
	}
	return g.Fields[i], true
}

// Template binds a group layout to a wire template id.
type Template struct {
	ID uint32
	Group
}

func (t *Template) String() string {
	return fmt.Sprintf("%s(%d)", t.Name, t.ID)
}

// Registry looks templates up by id and by name. It is read-only once built.
type Registry struct {
	byID   map[uint32]*Template
	byName map[string]*Template
	order  []*Template
}

func NewRegistry(templates ...*Template) (*Registry, error) {
	r := &Registry{byID: make(map[uint32]*Template), byName: make(map[string]*Template)}
	for _, t := range templates {
		if err := r.add(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(t *Template) error {
	if _, ok := r.byID[t.ID]; ok {
		return fmt.Errorf("%w: id %d", ErrDuplicateTemplate, t.ID)
	}
	if _, ok := r.byName[t.Name]; ok {
		return fmt.Errorf("%w: name %q", ErrDuplicateTemplate, t.Name)
	}
	r.byID[t.ID] = t
	r.byName[t.Name] = t
	r.order = append(r.order, t)
	return nil
}

func (r *Registry) ByID(id uint32) (*Template, bool) {
	t, ok := r.byID[id]
	return t, ok
}

func (r *Registry) ByName(name string) (*Template, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Templates lists templates in registration order.
func (r *Registry) Templates() []*Template {
	out := make([]*Template, len(r.order))
	copy(out, r.order)
	return out
}

// Merge returns a registry holding the templates of every input.
func Merge(regs ...*Registry) (*Registry, error) {
	var all []*Template
	for _, r := range regs {
		all = append(all, r.order...)
	}
	return NewRegistry(all...)
}
