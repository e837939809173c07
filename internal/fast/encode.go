package fast

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/fast/template"
	"github.com/danmuck/dictwire/internal/fast/wire"
	"github.com/danmuck/dictwire/internal/message"
	"github.com/danmuck/dictwire/internal/scalar"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Encoder turns generic messages into template-bound group values. The
// message's schema names its template through the templateId attribute and
// each field's wire name through fastName.
type Encoder struct {
	Dictionary *dictionary.Dictionary
	Registry   *template.Registry
	// Unit converts temporal values when the dictionary declares no
	// dateTimeUnit.
	Unit scalar.Unit
}

func (e *Encoder) Encode(m *message.Message) (*template.Template, *wire.GroupValue, error) {
	schema, ok := e.Dictionary.Message(m.Name)
	if !ok {
		return nil, nil, &CodecError{Message: m.Name, Err: ErrSchemaNotFound}
	}
	tpl, err := e.template(schema)
	if err != nil {
		return nil, nil, &CodecError{Message: m.Name, Err: err}
	}
	unit, err := dateTimeUnit(e.Dictionary, e.Unit)
	if err != nil {
		return nil, nil, &CodecError{Message: m.Name, Err: err}
	}

	gv := wire.NewGroupValue(&tpl.Group)
	enc := groupEncoder{unit: unit}
	if err := enc.group(schema, m, gv); err != nil {
		log.Warn().Msgf("fast.Encode message=%s template=%s err=%v", m.Name, tpl, err)
		return nil, nil, err
	}
	log.Debug().Msgf("fast.Encode message=%s template=%s fields=%d", m.Name, tpl, m.Len())
	return tpl, gv, nil
}

func (e *Encoder) template(schema *dictionary.FieldSchema) (*template.Template, error) {
	attr, ok := schema.Attribute(dictionary.AttrTemplateID)
	if !ok {
		return nil, fmt.Errorf("%w: no %s attribute", ErrTemplateNotFound, dictionary.AttrTemplateID)
	}
	id, err := strconv.ParseUint(attr.Raw(), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrTemplateNotFound, dictionary.AttrTemplateID, attr.Raw(), err)
	}
	tpl, ok := e.Registry.ByID(uint32(id))
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrTemplateNotFound, id)
	}
	return tpl, nil
}

// dateTimeUnit reads the dictionary's timestamp unit, fallback when absent.
func dateTimeUnit(d *dictionary.Dictionary, fallback scalar.Unit) (scalar.Unit, error) {
	attr, ok := d.Attribute(dictionary.AttrDateTimeUnit)
	if !ok {
		return fallback, nil
	}
	unit, err := scalar.ParseUnit(attr.Raw())
	if err != nil {
		return unit, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	return unit, nil
}

type groupEncoder struct {
	unit scalar.Unit
}

func (e groupEncoder) group(schema *dictionary.FieldSchema, m *message.Message, gv *wire.GroupValue) error {
	var err error
	m.Range(func(name string, v message.Value) bool {
		err = e.field(schema, m, gv, name, v)
		return err == nil
	})
	return err
}

func (e groupEncoder) field(schema *dictionary.FieldSchema, m *message.Message, gv *wire.GroupValue, name string, v message.Value) error {
	fail := func(err error) error {
		var ce *CodecError
		if errors.As(err, &ce) {
			return err
		}
		return &CodecError{Message: m.Name, Field: name, Err: err}
	}

	fs, ok := schema.Field(name)
	if !ok {
		return fail(fmt.Errorf("%w: field not in schema %s", ErrNoWireName, schema.Name()))
	}
	// Length fields are synthesized by the decoder from the sequence size.
	if fs.AttributeFlag(dictionary.AttrIsLength) {
		return nil
	}
	attr, ok := fs.Attribute(dictionary.AttrFastName)
	if !ok {
		return fail(fmt.Errorf("%w: no %s attribute", ErrNoWireName, dictionary.AttrFastName))
	}
	idx, ok := gv.Index(attr.Raw())
	if !ok {
		return fail(fmt.Errorf("%w: %q not in template group %s", ErrNoWireName, attr.Raw(), gv.Layout().Name))
	}

	switch v.Kind() {
	case message.KindScalar:
		s, _ := v.Scalar()
		if err := e.scalar(gv, idx, s); err != nil {
			return fail(err)
		}
	case message.KindMessage:
		nested, _ := v.Message()
		sub, err := gv.SetGroup(idx)
		if err != nil {
			return fail(fmt.Errorf("%w: %w", ErrUnsupportedValue, err))
		}
		if err := e.group(fs, nested, sub); err != nil {
			return fail(err)
		}
	case message.KindList:
		items, _ := v.List()
		elems, err := gv.SetSequence(idx, len(items))
		if err != nil {
			return fail(fmt.Errorf("%w: %w", ErrUnsupportedValue, err))
		}
		for i, item := range items {
			nested, ok := item.Message()
			if !ok {
				return fail(fmt.Errorf("%w: sequence item %d is %s", ErrUnsupportedValue, i, item.Kind()))
			}
			if err := e.group(fs, nested, elems[i]); err != nil {
				return fail(err)
			}
		}
	default:
		return fail(fmt.Errorf("%w: %s", ErrUnsupportedValue, v.Kind()))
	}
	return nil
}

func (e groupEncoder) scalar(gv *wire.GroupValue, idx int, s scalar.Value) error {
	var err error
	switch s.Type() {
	case scalar.Bool:
		b, _ := s.Bool()
		var n int64
		if b {
			n = 1
		}
		err = gv.SetInt(idx, n)
	case scalar.Char:
		r, _ := s.Char()
		if gv.Field(idx).Type.Text() {
			err = gv.SetString(idx, string(r))
		} else {
			err = gv.SetInt(idx, int64(r))
		}
	case scalar.Byte, scalar.Short, scalar.Int, scalar.Long:
		n, _ := s.Int64()
		err = gv.SetInt(idx, n)
	case scalar.Float, scalar.Double, scalar.Decimal:
		d, _ := s.Decimal()
		err = gv.SetDecimal(idx, d)
	case scalar.String:
		str, _ := s.Str()
		err = gv.SetString(idx, str)
	case scalar.Bytes:
		err = gv.SetBytes(idx, s.Raw())
	case scalar.DateTime, scalar.Date, scalar.Time:
		t, _ := s.Time()
		err = gv.SetDecimal(idx, decimal.NewFromInt(e.unit.Timestamp(t)))
	default:
		return fmt.Errorf("%w: scalar type %s", ErrUnsupportedValue, s.Type())
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}
	return nil
}
