package fast

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"unicode/utf8"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/fast/template"
	"github.com/danmuck/dictwire/internal/fast/wire"
	"github.com/danmuck/dictwire/internal/message"
	"github.com/danmuck/dictwire/internal/scalar"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultLengthName names a sequence length field when the template declares
// none.
const DefaultLengthName = "length"

// Decoder turns template-bound group values into generic messages. Nested
// groups and sequence elements become messages named
// <parent>_<field>; every sequence is preceded by a <sequence>_<length>
// field holding its size.
type Decoder struct {
	Dictionary *dictionary.Dictionary
	Unit       scalar.Unit
}

// Decode builds a new message from gv. Nothing is returned on failure.
func (d *Decoder) Decode(tpl *template.Template, gv *wire.GroupValue) (*message.Message, error) {
	schema, ok := d.Dictionary.MessageByAttribute(dictionary.AttrTemplateID, strconv.FormatUint(uint64(tpl.ID), 10))
	if !ok {
		schema, ok = d.Dictionary.Message(tpl.Name)
	}
	if !ok {
		return nil, &CodecError{Message: tpl.Name, Err: fmt.Errorf("%w: template %s", ErrSchemaNotFound, tpl)}
	}
	unit, err := dateTimeUnit(d.Dictionary, d.Unit)
	if err != nil {
		return nil, &CodecError{Message: schema.Name(), Err: err}
	}

	dec := groupDecoder{ns: d.Dictionary.Namespace(), unit: unit}
	m, err := dec.group(schema.Name(), schema, gv)
	if err != nil {
		log.Warn().Msgf("fast.Decode template=%s err=%v", tpl, err)
		return nil, err
	}
	log.Debug().Msgf("fast.Decode template=%s message=%s fields=%d", tpl, m.Name, m.Len())
	return m, nil
}

type groupDecoder struct {
	ns   string
	unit scalar.Unit
}

func (d groupDecoder) group(name string, schema *dictionary.FieldSchema, gv *wire.GroupValue) (*message.Message, error) {
	m := message.New(name, d.ns)
	for i := 0; i < gv.Len(); i++ {
		if !gv.IsDefined(i) {
			continue
		}
		f := gv.Field(i)
		fs := schemaField(schema, f.Name)
		fieldName := f.Name
		if fs != nil {
			fieldName = fs.Name()
		}
		fail := func(err error) error {
			if _, ok := err.(*CodecError); ok {
				return err
			}
			return &CodecError{Message: name, Field: fieldName, Err: err}
		}

		switch {
		case f.Type == template.TypeGroup:
			sub, _ := gv.Group(i)
			nested, err := d.group(name+"_"+fieldName, fs, sub)
			if err != nil {
				return nil, fail(err)
			}
			m.Set(fieldName, message.MessageOf(nested))

		case f.Type == template.TypeSequence:
			elems, _ := gv.Sequence(i)
			lengthName := f.LengthName
			if lengthName == "" {
				lengthName = DefaultLengthName
			}
			lengthField := fieldName + "_" + lengthName
			count, err := d.retype(scalar.OfLong(int64(len(elems))), schemaChild(schema, lengthField))
			if err != nil {
				return nil, &CodecError{Message: name, Field: lengthField, Err: err}
			}
			m.Set(lengthField, message.ScalarOf(count))

			items := make([]message.Value, 0, len(elems))
			for _, e := range elems {
				nested, err := d.group(name+"_"+fieldName, fs, e)
				if err != nil {
					return nil, fail(err)
				}
				items = append(items, message.MessageOf(nested))
			}
			list, err := message.ListOf(items...)
			if err != nil {
				return nil, fail(err)
			}
			m.Set(fieldName, list)

		default:
			raw, err := gv.Value(i)
			if err != nil {
				return nil, fail(err)
			}
			natural, err := naturalScalar(f, raw)
			if err != nil {
				return nil, fail(err)
			}
			v, err := d.retype(natural, fs)
			if err != nil {
				return nil, fail(err)
			}
			m.Set(fieldName, message.ScalarOf(v))
		}
	}
	return m, nil
}

// schemaField finds the child of schema whose fastName is wireName, falling
// back to a child named wireName.
func schemaField(schema *dictionary.FieldSchema, wireName string) *dictionary.FieldSchema {
	if schema == nil {
		return nil
	}
	children, _ := schema.Fields()
	for _, c := range children {
		if a, ok := c.Attribute(dictionary.AttrFastName); ok && a.Raw() == wireName {
			return c
		}
	}
	return schemaChild(schema, wireName)
}

func schemaChild(schema *dictionary.FieldSchema, name string) *dictionary.FieldSchema {
	if schema == nil {
		return nil
	}
	c, ok := schema.Field(name)
	if !ok {
		return nil
	}
	return c
}

// naturalScalar maps a wire payload to the scalar type that holds it without
// loss.
func naturalScalar(f *template.Field, raw any) (scalar.Value, error) {
	switch v := raw.(type) {
	case int64:
		switch f.Type {
		case template.TypeInt8:
			return scalar.OfByte(int8(v)), nil
		case template.TypeInt32:
			return scalar.OfInt(int32(v)), nil
		}
		return scalar.OfLong(v), nil
	case uint64:
		switch {
		case f.Type == template.TypeUInt8:
			return scalar.OfShort(int16(v)), nil
		case v <= math.MaxInt64:
			return scalar.OfLong(int64(v)), nil
		}
		return scalar.OfDecimal(decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)), nil
	case decimal.Decimal:
		return scalar.OfDecimal(v), nil
	case string:
		return scalar.OfString(v), nil
	case []byte:
		return scalar.OfBytes(v), nil
	}
	return scalar.Value{}, fmt.Errorf("%w: %s", ErrUnknownWireType, f.Type)
}

// retype converts a decoded scalar to the declared type of fs.
func (d groupDecoder) retype(v scalar.Value, fs *dictionary.FieldSchema) (scalar.Value, error) {
	if fs == nil || fs.IsComplex() || v.Type() == fs.Type() {
		return v, nil
	}
	target := fs.Type()
	fail := func() (scalar.Value, error) {
		return scalar.Value{}, fmt.Errorf("%w: %s %q as %s", ErrUnsupportedValue, v.Type(), v, target)
	}

	switch target {
	case scalar.Bool:
		if n, ok := v.Decimal(); ok {
			return scalar.OfBool(!n.IsZero()), nil
		}
	case scalar.Char:
		if s, ok := v.Str(); ok && utf8.RuneCountInString(s) == 1 {
			r, _ := utf8.DecodeRuneInString(s)
			return scalar.OfChar(r), nil
		}
		if n, ok := v.Int64(); ok {
			return scalar.OfChar(rune(n)), nil
		}
		return fail()
	case scalar.DateTime, scalar.Date, scalar.Time:
		n, ok := v.Decimal()
		if !ok || !n.IsInteger() {
			return fail()
		}
		t := d.unit.Time(n.IntPart())
		switch target {
		case scalar.Date:
			return scalar.OfDate(t), nil
		case scalar.Time:
			return scalar.OfTime(t), nil
		}
		return scalar.OfDateTime(t), nil
	case scalar.Bytes:
		if s, ok := v.Str(); ok {
			return scalar.OfBytes([]byte(s)), nil
		}
		return fail()
	case scalar.String:
		if v.Type() == scalar.Bytes {
			return scalar.OfString(string(v.Raw())), nil
		}
	}

	out, err := scalar.Parse(target, v.String())
	if err != nil {
		return scalar.Value{}, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}
	return out, nil
}
