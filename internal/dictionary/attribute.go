package dictionary

import (
	"sync"

	"github.com/danmuck/dictwire/internal/scalar"
)

// Well-known attribute names read by the codecs.
const (
	AttrTemplateID   = "templateId"
	AttrFastName     = "fastName"
	AttrIsLength     = "isLength"
	AttrTag          = "tag"
	AttrMessageType  = "MessageType"
	AttrDateTimeUnit = "dateTimeUnit"
	AttrBeginString  = "BeginString"
)

// Attribute is a named raw value with a declared type. The typed form is cast
// on first use and cached.
type Attribute struct {
	name string
	raw  string
	typ  scalar.Type

	once    sync.Once
	cast    scalar.Value
	castErr error
}

func NewAttribute(name string, typ scalar.Type, raw string) *Attribute {
	return &Attribute{name: name, raw: raw, typ: typ}
}

// EnumValue declares an enumerated value; its type is taken from the owning
// field when passed to NewEnum.
func EnumValue(name, raw string) *Attribute {
	return &Attribute{name: name, raw: raw}
}

func (a *Attribute) Name() string      { return a.name }
func (a *Attribute) Raw() string       { return a.raw }
func (a *Attribute) Type() scalar.Type { return a.typ }

// Value returns the raw value cast to the declared type.
func (a *Attribute) Value() (scalar.Value, error) {
	a.once.Do(func() {
		a.cast, a.castErr = scalar.Parse(a.typ, a.raw)
	})
	return a.cast, a.castErr
}

func (a *Attribute) withType(typ scalar.Type) *Attribute {
	return &Attribute{name: a.name, raw: a.raw, typ: typ}
}

func findAttribute(list []*Attribute, name string) (*Attribute, bool) {
	for _, a := range list {
		if a.name == name {
			return a, true
		}
	}
	return nil, false
}

func setAttribute(list []*Attribute, attr *Attribute) []*Attribute {
	for i, a := range list {
		if a.name == attr.name {
			out := append([]*Attribute(nil), list...)
			out[i] = attr
			return out
		}
	}
	return append(list, attr)
}
