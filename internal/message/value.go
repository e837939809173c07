package message

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/dictwire/internal/scalar"
)

var ErrHeterogeneousList = errors.New("message: heterogeneous list")

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindScalar
	KindMessage
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMessage:
		return "message"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is a field value: a scalar, a nested message, or a homogeneous list
// of either.
type Value struct {
	kind   Kind
	scalar scalar.Value
	msg    *Message
	list   []Value
}

func ScalarOf(v scalar.Value) Value { return Value{kind: KindScalar, scalar: v} }
func MessageOf(m *Message) Value    { return Value{kind: KindMessage, msg: m} }

// Native wraps a Go value supported by scalar.Of.
func Native(v any) (Value, error) {
	s, err := scalar.Of(v)
	if err != nil {
		return Value{}, err
	}
	return ScalarOf(s), nil
}

// ListOf builds a list. Every item must share the first item's kind, and
// scalar items its scalar type.
func ListOf(items ...Value) (Value, error) {
	for i := 1; i < len(items); i++ {
		if !sameShape(items[0], items[i]) {
			return Value{}, fmt.Errorf("%w: item %d is %s, expected %s",
				ErrHeterogeneousList, i, items[i].describe(), items[0].describe())
		}
	}
	out := make([]Value, len(items))
	copy(out, items)
	return Value{kind: KindList, list: out}, nil
}

// MustList is ListOf for items known to be homogeneous.
func MustList(items ...Value) Value {
	v, err := ListOf(items...)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Scalar() (scalar.Value, bool) {
	return v.scalar, v.kind == KindScalar
}

func (v Value) Message() (*Message, bool) {
	return v.msg, v.kind == KindMessage
}

// List returns a copy of the items.
func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]Value, len(v.list))
	copy(out, v.list)
	return out, true
}

func (v Value) Len() int {
	if v.kind == KindList {
		return len(v.list)
	}
	return 0
}

// Equal compares kinds and contents; scalars compare typed, lists in order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return v.scalar.Equal(o.scalar)
	case KindMessage:
		return Equal(v.msg, o.msg)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return true
}

func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return v.scalar.String()
	case KindMessage:
		return v.msg.String()
	case KindList:
		parts := make([]string, 0, len(v.list))
		for _, item := range v.list {
			parts = append(parts, item.String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "<invalid>"
}

func (v Value) describe() string {
	if v.kind == KindScalar {
		return v.scalar.Type().String()
	}
	return v.kind.String()
}

func sameShape(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindScalar {
		return a.scalar.Type() == b.scalar.Type()
	}
	return true
}
