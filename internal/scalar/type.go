// Package scalar owns the declared value types of dictionary fields and the
// typed values carried by generic messages.
package scalar

import (
	"errors"
	"fmt"
	"strings"
)

// Type is a declared scalar type tag.
type Type uint8

const (
	Invalid Type = iota
	Bool
	Char
	Byte
	Short
	Int
	Long
	Float
	Double
	Decimal
	String
	DateTime
	Date
	Time
	Bytes
)

var ErrUnknownType = errors.New("scalar: unknown type")

var typeNames = [...]string{
	Invalid:  "invalid",
	Bool:     "bool",
	Char:     "char",
	Byte:     "byte",
	Short:    "short",
	Int:      "int",
	Long:     "long",
	Float:    "float",
	Double:   "double",
	Decimal:  "decimal",
	String:   "string",
	DateTime: "datetime",
	Date:     "date",
	Time:     "time",
	Bytes:    "bytes",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	return t > Invalid && int(t) < len(typeNames)
}

// Integral reports whether values of t are stored as signed integers.
func (t Type) Integral() bool {
	switch t {
	case Byte, Short, Int, Long:
		return true
	}
	return false
}

// Numeric covers integral, floating point and decimal types.
func (t Type) Numeric() bool {
	return t.Integral() || t == Float || t == Double || t == Decimal
}

// Temporal covers datetime, date and time.
func (t Type) Temporal() bool {
	return t == DateTime || t == Date || t == Time
}

// ParseType resolves a type name as written in dictionaries.
func ParseType(name string) (Type, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range typeNames {
		if i == int(Invalid) {
			continue
		}
		if candidate == n {
			return Type(i), nil
		}
	}
	return Invalid, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
