package fix

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/message"
	"github.com/rs/zerolog/log"
)

// Encoder builds message trees from generic messages. Every simple field
// and every group counter needs a tag attribute; nested messages become
// components and lists of messages become groups.
type Encoder struct {
	Dictionary *dictionary.Dictionary
	Charset    Charset
}

// Encode builds, orders and completes the tree for m. The header gets the
// begin string and message type when m does not set them, and body length
// and checksum are derived unless m already carries them.
func (e *Encoder) Encode(m *message.Message) (*Message, error) {
	schema, ok := e.Dictionary.Message(m.Name)
	if !ok {
		return nil, &CodecError{Message: m.Name, Err: ErrSchemaNotFound}
	}
	layout := sessionLayout(schema)

	enc := treeEncoder{cs: e.Charset}
	root, err := enc.component(m.Name, layout, m)
	if err != nil {
		log.Warn().Msgf("fix.Encode message=%s err=%v", m.Name, err)
		return nil, err
	}
	out := NewMessage(root, e.Charset)
	if err := e.complete(out, layout); err != nil {
		log.Warn().Msgf("fix.Encode message=%s err=%v", m.Name, err)
		return nil, &CodecError{Message: m.Name, Err: err}
	}
	log.Debug().Msgf("fix.Encode message=%s length=%d checksum=%03d", m.Name, out.Length(), out.Checksum())
	return out, nil
}

func (e *Encoder) complete(out *Message, layout *dictionary.FieldSchema) error {
	headerSchema, _ := layout.Field(HeaderName)
	trailerSchema, _ := layout.Field(TrailerName)
	header := ensureComponent(out.Root, headerSchema)
	ensureComponent(out.Root, trailerSchema)

	headerFields, _ := headerSchema.Fields()
	if _, ok := header.Find(TagBeginString); !ok {
		begin := DefaultBeginString
		if attr, ok := e.Dictionary.Attribute(dictionary.AttrBeginString); ok {
			begin = attr.Raw()
		}
		f, err := NewSimple(TagBeginString, tagged(headerFields, TagBeginString).Name(), begin, e.Charset)
		if err != nil {
			return err
		}
		header.Insert(0, f)
	}
	if _, ok := header.Find(TagMsgType); !ok {
		attr, ok := layout.Attribute(dictionary.AttrMessageType)
		if !ok {
			return fmt.Errorf("%w: no %s attribute", ErrNoMessageType, dictionary.AttrMessageType)
		}
		f, err := NewSimple(TagMsgType, tagged(headerFields, TagMsgType).Name(), attr.Raw(), e.Charset)
		if err != nil {
			return err
		}
		header.Add(f)
	}

	out.EnsureOrder()
	if _, ok := header.Find(TagBodyLength); !ok {
		if err := out.insertBodyLength(tagged(headerFields, TagBodyLength).Name()); err != nil {
			return err
		}
	}
	trailer, _ := out.Trailer()
	if _, ok := trailer.Find(TagCheckSum); !ok {
		trailerFields, _ := trailerSchema.Fields()
		if err := out.appendChecksum(tagged(trailerFields, TagCheckSum).Name()); err != nil {
			return err
		}
	}
	return nil
}

func ensureComponent(root *Component, schema *dictionary.FieldSchema) *Component {
	if c, ok := root.Component(schema.Name()); ok {
		return c
	}
	c := NewComponent(schema.Name(), schema.FieldNames())
	root.Add(c)
	return c
}

type treeEncoder struct {
	cs Charset
}

func (e treeEncoder) component(name string, schema *dictionary.FieldSchema, m *message.Message) (*Component, error) {
	c := NewComponent(name, schema.FieldNames())
	var err error
	m.Range(func(field string, v message.Value) bool {
		var f Field
		f, err = e.field(schema, m, field, v)
		if err == nil {
			c.Add(f)
		}
		return err == nil
	})
	return c, err
}

func (e treeEncoder) field(schema *dictionary.FieldSchema, m *message.Message, name string, v message.Value) (Field, error) {
	fail := func(err error) error {
		var ce *CodecError
		if errors.As(err, &ce) {
			return err
		}
		return &CodecError{Message: m.Name, Field: name, Err: err}
	}

	fs, ok := schema.Field(name)
	if !ok {
		return nil, fail(fmt.Errorf("%w: not in schema %s", ErrUnknownField, schema.Name()))
	}

	switch v.Kind() {
	case message.KindScalar:
		if fs.IsComplex() {
			return nil, fail(fmt.Errorf("%w: scalar for complex field", ErrUnsupportedValue))
		}
		tag, err := tagOf(fs)
		if err != nil {
			return nil, fail(err)
		}
		s, _ := v.Scalar()
		f, err := NewSimple(tag, name, formatValue(s), e.cs)
		if err != nil {
			return nil, fail(err)
		}
		return f, nil

	case message.KindMessage:
		if !fs.IsComplex() || fs.IsCollection() {
			return nil, fail(fmt.Errorf("%w: message for %s field", ErrUnsupportedValue, fs.Kind()))
		}
		nested, _ := v.Message()
		c, err := e.component(name, fs, nested)
		if err != nil {
			return nil, fail(err)
		}
		return c, nil

	case message.KindList:
		if !fs.IsComplex() || !fs.IsCollection() {
			return nil, fail(fmt.Errorf("%w: list for non-group field", ErrUnsupportedValue))
		}
		tag, err := tagOf(fs)
		if err != nil {
			return nil, fail(err)
		}
		items, _ := v.List()
		counter, err := NewSimple(tag, name, strconv.Itoa(len(items)), e.cs)
		if err != nil {
			return nil, fail(err)
		}
		g := NewGroup(name, counter)
		children, _ := fs.Fields()
		for i, item := range items {
			nested, ok := item.Message()
			if !ok {
				return nil, fail(fmt.Errorf("%w: group entry %d is %s", ErrUnsupportedValue, i, item.Kind()))
			}
			// The first declared field delimits entries on the wire.
			if len(children) > 0 && !nested.Has(children[0].Name()) {
				return nil, fail(fmt.Errorf("%w: group entry %d lacks delimiter %s", ErrUnsupportedValue, i, children[0].Name()))
			}
			entry, err := e.component(name, fs, nested)
			if err != nil {
				return nil, fail(err)
			}
			g.Entries = append(g.Entries, entry)
		}
		return g, nil
	}
	return nil, fail(fmt.Errorf("%w: %s", ErrUnsupportedValue, v.Kind()))
}
