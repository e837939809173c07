// Package wire holds the tokenized form of a templated binary message and
// its length-prefixed byte framing.
package wire

import (
	"errors"
	"fmt"
	"math"

	"github.com/danmuck/dictwire/internal/fast/template"
	"github.com/shopspring/decimal"
)

var (
	ErrFieldIndex   = errors.New("wire: field index out of range")
	ErrWrongType    = errors.New("wire: value does not fit wire type")
	ErrOutOfRange   = errors.New("wire: value out of range")
	ErrUndefined    = errors.New("wire: field not defined")
	ErrMissingField = errors.New("wire: mandatory field missing")
)

// GroupValue is one group instance bound to its template layout. Each field
// is either undefined or holds a value of its wire type.
type GroupValue struct {
	group  *template.Group
	values []any
}

func NewGroupValue(g *template.Group) *GroupValue {
	return &GroupValue{group: g, values: make([]any, len(g.Fields))}
}

// Layout is the template group gv is bound to.
func (gv *GroupValue) Layout() *template.Group { return gv.group }
func (gv *GroupValue) Len() int                { return len(gv.values) }

func (gv *GroupValue) Field(i int) *template.Field { return gv.group.Fields[i] }

// Index returns the position of the field with wire name name.
func (gv *GroupValue) Index(name string) (int, bool) { return gv.group.Index(name) }

func (gv *GroupValue) IsDefined(i int) bool {
	return i >= 0 && i < len(gv.values) && gv.values[i] != nil
}

func (gv *GroupValue) Undefine(i int) {
	if i >= 0 && i < len(gv.values) {
		gv.values[i] = nil
	}
}

func (gv *GroupValue) field(i int) (*template.Field, error) {
	if i < 0 || i >= len(gv.values) {
		return nil, fmt.Errorf("%w: %d in %s", ErrFieldIndex, i, gv.group.Name)
	}
	return gv.group.Fields[i], nil
}

func wrongType(f *template.Field, what string) error {
	return fmt.Errorf("%w: %s into %s field %q", ErrWrongType, what, f.Type, f.Name)
}

// SetInt stores v into an integer or decimal field.
func (gv *GroupValue) SetInt(i int, v int64) error {
	f, err := gv.field(i)
	if err != nil {
		return err
	}
	switch f.Type {
	case template.TypeDecimal:
		gv.values[i] = decimal.New(v, 0)
		return nil
	case template.TypeUInt8, template.TypeUInt32, template.TypeUInt64:
		if v < 0 {
			return fmt.Errorf("%w: %d into %s field %q", ErrOutOfRange, v, f.Type, f.Name)
		}
		return gv.SetUint(i, uint64(v))
	case template.TypeInt8, template.TypeInt32, template.TypeInt64:
		if !fitsSigned(f.Type, v) {
			return fmt.Errorf("%w: %d into %s field %q", ErrOutOfRange, v, f.Type, f.Name)
		}
		gv.values[i] = v
		return nil
	}
	return wrongType(f, "integer")
}

// SetUint stores v into an unsigned, signed or decimal field.
func (gv *GroupValue) SetUint(i int, v uint64) error {
	f, err := gv.field(i)
	if err != nil {
		return err
	}
	switch f.Type {
	case template.TypeUInt8, template.TypeUInt32, template.TypeUInt64:
		if !fitsUnsigned(f.Type, v) {
			return fmt.Errorf("%w: %d into %s field %q", ErrOutOfRange, v, f.Type, f.Name)
		}
		gv.values[i] = v
		return nil
	case template.TypeInt8, template.TypeInt32, template.TypeInt64, template.TypeDecimal:
		if v > math.MaxInt64 {
			return fmt.Errorf("%w: %d into %s field %q", ErrOutOfRange, v, f.Type, f.Name)
		}
		return gv.SetInt(i, int64(v))
	}
	return wrongType(f, "unsigned integer")
}

// SetDecimal stores d into a decimal field, or into an integer field when d
// has no fractional part.
func (gv *GroupValue) SetDecimal(i int, d decimal.Decimal) error {
	f, err := gv.field(i)
	if err != nil {
		return err
	}
	if f.Type == template.TypeDecimal {
		gv.values[i] = d
		return nil
	}
	if f.Type.Integer() {
		if !d.IsInteger() || !d.BigInt().IsInt64() {
			return fmt.Errorf("%w: %s into %s field %q", ErrOutOfRange, d, f.Type, f.Name)
		}
		return gv.SetInt(i, d.IntPart())
	}
	return wrongType(f, "decimal")
}

// SetString stores s into a text or byte vector field. ASCII fields reject
// non-ASCII bytes.
func (gv *GroupValue) SetString(i int, s string) error {
	f, err := gv.field(i)
	if err != nil {
		return err
	}
	switch f.Type {
	case template.TypeASCII:
		for j := 0; j < len(s); j++ {
			if s[j] > 0x7f {
				return fmt.Errorf("%w: non-ascii text into field %q", ErrOutOfRange, f.Name)
			}
		}
		gv.values[i] = s
	case template.TypeUnicode:
		gv.values[i] = s
	case template.TypeByteVector:
		gv.values[i] = []byte(s)
	default:
		return wrongType(f, "string")
	}
	return nil
}

// SetBytes stores a copy of b into a byte vector or unicode field.
func (gv *GroupValue) SetBytes(i int, b []byte) error {
	f, err := gv.field(i)
	if err != nil {
		return err
	}
	switch f.Type {
	case template.TypeByteVector:
		gv.values[i] = append([]byte(nil), b...)
	case template.TypeUnicode:
		gv.values[i] = string(b)
	default:
		return wrongType(f, "bytes")
	}
	return nil
}

// SetGroup defines a nested group field and returns its empty value.
func (gv *GroupValue) SetGroup(i int) (*GroupValue, error) {
	f, err := gv.field(i)
	if err != nil {
		return nil, err
	}
	if f.Type != template.TypeGroup {
		return nil, wrongType(f, "group")
	}
	nested := NewGroupValue(f.Group)
	gv.values[i] = nested
	return nested, nil
}

// SetSequence defines a sequence field with n empty elements.
func (gv *GroupValue) SetSequence(i, n int) ([]*GroupValue, error) {
	f, err := gv.field(i)
	if err != nil {
		return nil, err
	}
	if f.Type != template.TypeSequence {
		return nil, wrongType(f, "sequence")
	}
	elems := make([]*GroupValue, n)
	for j := range elems {
		elems[j] = NewGroupValue(f.Group)
	}
	gv.values[i] = elems
	return elems, nil
}

// Value returns the stored payload: int64, uint64, decimal.Decimal, string,
// []byte, *GroupValue or []*GroupValue.
func (gv *GroupValue) Value(i int) (any, error) {
	f, err := gv.field(i)
	if err != nil {
		return nil, err
	}
	if gv.values[i] == nil {
		return nil, fmt.Errorf("%w: %q", ErrUndefined, f.Name)
	}
	return gv.values[i], nil
}

func (gv *GroupValue) Group(i int) (*GroupValue, bool) {
	if !gv.IsDefined(i) {
		return nil, false
	}
	g, ok := gv.values[i].(*GroupValue)
	return g, ok
}

func (gv *GroupValue) Sequence(i int) ([]*GroupValue, bool) {
	if !gv.IsDefined(i) {
		return nil, false
	}
	s, ok := gv.values[i].([]*GroupValue)
	return s, ok
}

func fitsSigned(t template.WireType, v int64) bool {
	switch t {
	case template.TypeInt8:
		return v >= math.MinInt8 && v <= math.MaxInt8
	case template.TypeInt32:
		return v >= math.MinInt32 && v <= math.MaxInt32
	}
	return true
}

func fitsUnsigned(t template.WireType, v uint64) bool {
	switch t {
	case template.TypeUInt8:
		return v <= math.MaxUint8
	case template.TypeUInt32:
		return v <= math.MaxUint32
	}
	return true
}
