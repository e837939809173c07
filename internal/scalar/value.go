package scalar

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	DateTimeLayout = "2006-01-02T15:04:05.999999999"
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05.999999999"
)

var (
	ErrParse            = errors.New("scalar: cannot parse value")
	ErrUnsupportedValue = errors.New("scalar: unsupported go value")
)

// ParseError reports a raw string that does not fit its declared type.
type ParseError struct {
	Type Type
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scalar: cannot parse %q as %s: %v", e.Raw, e.Type, e.Err)
	}
	return fmt.Sprintf("scalar: cannot parse %q as %s", e.Raw, e.Type)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// Value is a typed scalar. The zero Value has type Invalid.
type Value struct {
	typ Type
	b   bool
	i   int64
	f   float64
	d   decimal.Decimal
	s   string
	t   time.Time
	raw []byte
}

func OfBool(v bool) Value      { return Value{typ: Bool, b: v} }
func OfChar(v rune) Value      { return Value{typ: Char, i: int64(v)} }
func OfByte(v int8) Value      { return Value{typ: Byte, i: int64(v)} }
func OfShort(v int16) Value    { return Value{typ: Short, i: int64(v)} }
func OfInt(v int32) Value      { return Value{typ: Int, i: int64(v)} }
func OfLong(v int64) Value     { return Value{typ: Long, i: v} }
func OfFloat(v float32) Value  { return Value{typ: Float, f: float64(v)} }
func OfDouble(v float64) Value { return Value{typ: Double, f: v} }
func OfString(v string) Value  { return Value{typ: String, s: v} }

func OfDecimal(v decimal.Decimal) Value { return Value{typ: Decimal, d: v} }

func OfDateTime(v time.Time) Value { return Value{typ: DateTime, t: v.UTC()} }

// OfDate keeps only the calendar day of v.
func OfDate(v time.Time) Value {
	v = v.UTC()
	return Value{typ: Date, t: time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)}
}

// OfTime keeps only the time of day of v, anchored on the unix epoch day.
func OfTime(v time.Time) Value {
	v = v.UTC()
	return Value{typ: Time, t: time.Date(1970, 1, 1, v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), time.UTC)}
}

func OfBytes(v []byte) Value {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Value{typ: Bytes, raw: buf}
}

// Of wraps a native Go value.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case bool:
		return OfBool(x), nil
	case int32:
		return OfInt(x), nil
	case int8:
		return OfByte(x), nil
	case int16:
		return OfShort(x), nil
	case int64:
		return OfLong(x), nil
	case int:
		return OfLong(int64(x)), nil
	case float32:
		return OfFloat(x), nil
	case float64:
		return OfDouble(x), nil
	case decimal.Decimal:
		return OfDecimal(x), nil
	case string:
		return OfString(x), nil
	case time.Time:
		return OfDateTime(x), nil
	case []byte:
		return OfBytes(x), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// MustOf is Of for literals known to be supported.
func MustOf(v any) Value {
	out, err := Of(v)
	if err != nil {
		panic(err)
	}
	return out
}

func (v Value) Type() Type    { return v.typ }
func (v Value) IsValid() bool { return v.typ.Valid() }

// Interface returns the native Go representation of v.
func (v Value) Interface() any {
	switch v.typ {
	case Bool:
		return v.b
	case Char:
		return rune(v.i)
	case Byte:
		return int8(v.i)
	case Short:
		return int16(v.i)
	case Int:
		return int32(v.i)
	case Long:
		return v.i
	case Float:
		return float32(v.f)
	case Double:
		return v.f
	case Decimal:
		return v.d
	case String:
		return v.s
	case DateTime, Date, Time:
		return v.t
	case Bytes:
		return v.Raw()
	default:
		return nil
	}
}

func (v Value) Bool() (bool, bool) {
	return v.b, v.typ == Bool
}

func (v Value) Char() (rune, bool) {
	return rune(v.i), v.typ == Char
}

// Int64 returns integral values widened to int64.
func (v Value) Int64() (int64, bool) {
	return v.i, v.typ.Integral()
}

// Float64 returns floating point values widened to float64.
func (v Value) Float64() (float64, bool) {
	return v.f, v.typ == Float || v.typ == Double
}

// Decimal returns any numeric value as a decimal.
func (v Value) Decimal() (decimal.Decimal, bool) {
	switch {
	case v.typ == Decimal:
		return v.d, true
	case v.typ.Integral():
		return decimal.NewFromInt(v.i), true
	case v.typ == Float:
		return decimal.NewFromFloat32(float32(v.f)), true
	case v.typ == Double:
		return decimal.NewFromFloat(v.f), true
	}
	return decimal.Decimal{}, false
}

func (v Value) Str() (string, bool) {
	return v.s, v.typ == String
}

func (v Value) Time() (time.Time, bool) {
	return v.t, v.typ.Temporal()
}

func (v Value) Raw() []byte {
	if v.typ != Bytes {
		return nil
	}
	buf := make([]byte, len(v.raw))
	copy(buf, v.raw)
	return buf
}

// String renders the canonical text form accepted back by Parse.
func (v Value) String() string {
	switch v.typ {
	case Bool:
		return strconv.FormatBool(v.b)
	case Char:
		return string(rune(v.i))
	case Byte, Short, Int, Long:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case Double:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Decimal:
		return v.d.String()
	case String:
		return v.s
	case DateTime:
		return v.t.Format(DateTimeLayout)
	case Date:
		return v.t.Format(DateLayout)
	case Time:
		return v.t.Format(TimeLayout)
	case Bytes:
		return hex.EncodeToString(v.raw)
	default:
		return ""
	}
}

// Equal compares type tags and payloads. Decimals compare numerically.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case Invalid:
		return true
	case Bool:
		return v.b == o.b
	case Char, Byte, Short, Int, Long:
		return v.i == o.i
	case Float, Double:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case Decimal:
		return v.d.Equal(o.d)
	case String:
		return v.s == o.s
	case DateTime, Date, Time:
		return v.t.Equal(o.t)
	case Bytes:
		return bytes.Equal(v.raw, o.raw)
	}
	return false
}

// Parse casts raw into a value of type t.
func Parse(t Type, raw string) (Value, error) {
	fail := func(err error) (Value, error) {
		return Value{}, &ParseError{Type: t, Raw: raw, Err: err}
	}
	switch t {
	case Bool:
		b, ok := ParseBool(raw)
		if !ok {
			return fail(nil)
		}
		return OfBool(b), nil
	case Char:
		if utf8.RuneCountInString(raw) != 1 {
			return fail(errors.New("expected exactly one character"))
		}
		r, _ := utf8.DecodeRuneInString(raw)
		return OfChar(r), nil
	case Byte, Short, Int, Long:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, bitSize(t))
		if err != nil {
			return fail(err)
		}
		return Value{typ: t, i: n}, nil
	case Float:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
		if err != nil {
			return fail(err)
		}
		return OfFloat(float32(f)), nil
	case Double:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fail(err)
		}
		return OfDouble(f), nil
	case Decimal:
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fail(err)
		}
		return OfDecimal(d), nil
	case String:
		return OfString(raw), nil
	case DateTime:
		tm, err := parseTime(raw, time.RFC3339Nano, DateTimeLayout)
		if err != nil {
			return fail(err)
		}
		return OfDateTime(tm), nil
	case Date:
		tm, err := parseTime(raw, DateLayout)
		if err != nil {
			return fail(err)
		}
		return OfDate(tm), nil
	case Time:
		tm, err := parseTime(raw, TimeLayout)
		if err != nil {
			return fail(err)
		}
		return OfTime(tm), nil
	case Bytes:
		b, err := hex.DecodeString(strings.TrimSpace(raw))
		if err != nil {
			return fail(err)
		}
		return Value{typ: Bytes, raw: b}, nil
	default:
		return fail(ErrUnknownType)
	}
}

// ParseBool accepts true/false and Y/N, case-insensitively.
func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "y":
		return true, true
	case "false", "n":
		return false, true
	}
	return false, false
}

func bitSize(t Type) int {
	switch t {
	case Byte:
		return 8
	case Short:
		return 16
	case Int:
		return 32
	default:
		return 64
	}
}

func parseTime(raw string, layouts ...string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range layouts {
		tm, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return tm, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
