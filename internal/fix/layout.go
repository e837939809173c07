package fix

import (
	"fmt"
	"strconv"
	"time"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/scalar"
)

// DefaultBeginString is used when the dictionary carries no BeginString
// attribute.
const DefaultBeginString = "FIX.4.4"

// Wire layouts of temporal values. Fractional seconds are optional on input.
const (
	UTCTimestampLayout = "20060102-15:04:05.999999999"
	UTCDateLayout      = "20060102"
	UTCTimeLayout      = "15:04:05.999999999"
)

type sessionField struct {
	tag  int
	name string
	typ  scalar.Type
}

var (
	sessionHeader = []sessionField{
		{TagBeginString, BeginStringName, scalar.String},
		{TagBodyLength, BodyLengthName, scalar.Int},
		{TagMsgType, MsgTypeName, scalar.String},
	}
	sessionTrailer = []sessionField{
		{TagCheckSum, CheckSumName, scalar.String},
	}
)

// sessionLayout returns msg with a header first and a trailer last, each
// carrying the session fields the schema does not declare itself.
func sessionLayout(msg *dictionary.FieldSchema) *dictionary.FieldSchema {
	children, _ := msg.Fields()
	var header, trailer *dictionary.FieldSchema
	body := make([]*dictionary.FieldSchema, 0, len(children)+2)
	for _, c := range children {
		switch {
		case c.Name() == HeaderName && c.IsComplex():
			header = c
		case c.Name() == TrailerName && c.IsComplex():
			trailer = c
		default:
			body = append(body, c)
		}
	}
	out := make([]*dictionary.FieldSchema, 0, len(body)+2)
	out = append(out, withSessionFields(HeaderName, header, sessionHeader))
	out = append(out, body...)
	out = append(out, withSessionFields(TrailerName, trailer, sessionTrailer))
	return dictionary.NewMessage(msg.Name(), out, dictionary.WithAttributes(msg.Attributes()...))
}

func withSessionFields(name string, part *dictionary.FieldSchema, std []sessionField) *dictionary.FieldSchema {
	var children []*dictionary.FieldSchema
	var opts []dictionary.Option
	if part != nil {
		children, _ = part.Fields()
		opts = append(opts, dictionary.WithAttributes(part.Attributes()...))
	}
	fields := make([]*dictionary.FieldSchema, 0, len(children)+len(std))
	for _, s := range std {
		if tagged(children, s.tag) == nil {
			fields = append(fields, dictionary.NewSimple(s.name, s.typ,
				dictionary.WithAttribute(dictionary.AttrTag, scalar.Int, strconv.Itoa(s.tag))))
		}
	}
	fields = append(fields, children...)
	return dictionary.NewComplex(name, fields, opts...)
}

// tagged returns the simple field among list whose tag is tag.
func tagged(list []*dictionary.FieldSchema, tag int) *dictionary.FieldSchema {
	for _, f := range list {
		if f.IsComplex() {
			continue
		}
		if t, err := tagOf(f); err == nil && t == tag {
			return f
		}
	}
	return nil
}

func tagOf(fs *dictionary.FieldSchema) (int, error) {
	attr, ok := fs.Attribute(dictionary.AttrTag)
	if !ok {
		return 0, fmt.Errorf("%w: no %s attribute", ErrNoTag, dictionary.AttrTag)
	}
	tag, err := strconv.Atoi(attr.Raw())
	if err != nil || tag <= 0 {
		return 0, fmt.Errorf("%w: %s %q", ErrNoTag, dictionary.AttrTag, attr.Raw())
	}
	return tag, nil
}

// owner returns the direct child of schema a token with tag belongs to:
// a simple child with that tag, a group whose counter has it, or a
// component containing it.
func owner(schema *dictionary.FieldSchema, tag int) *dictionary.FieldSchema {
	children, _ := schema.Fields()
	for _, c := range children {
		switch {
		case !c.IsComplex() || c.IsCollection():
			if t, err := tagOf(c); err == nil && t == tag {
				return c
			}
		case owner(c, tag) != nil:
			return c
		}
	}
	return nil
}

func formatValue(v scalar.Value) string {
	switch v.Type() {
	case scalar.Bool:
		if b, _ := v.Bool(); b {
			return "Y"
		}
		return "N"
	case scalar.DateTime:
		t, _ := v.Time()
		return t.Format(UTCTimestampLayout)
	case scalar.Date:
		t, _ := v.Time()
		return t.Format(UTCDateLayout)
	case scalar.Time:
		t, _ := v.Time()
		return t.Format(UTCTimeLayout)
	}
	return v.String()
}

func parseValue(typ scalar.Type, text string) (scalar.Value, error) {
	switch typ {
	case scalar.DateTime:
		t, err := time.ParseInLocation("20060102-15:04:05", text, time.UTC)
		if err != nil {
			return scalar.Value{}, &scalar.ParseError{Type: typ, Raw: text, Err: err}
		}
		return scalar.OfDateTime(t), nil
	case scalar.Date:
		t, err := time.ParseInLocation(UTCDateLayout, text, time.UTC)
		if err != nil {
			return scalar.Value{}, &scalar.ParseError{Type: typ, Raw: text, Err: err}
		}
		return scalar.OfDate(t), nil
	case scalar.Time:
		t, err := time.ParseInLocation("15:04:05", text, time.UTC)
		if err != nil {
			return scalar.Value{}, &scalar.ParseError{Type: typ, Raw: text, Err: err}
		}
		return scalar.OfTime(t), nil
	}
	return scalar.Parse(typ, text)
}
