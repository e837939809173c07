package fix

import (
	"fmt"
	"strconv"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/message"
	"github.com/rs/zerolog/log"
)

// Decoder parses serialized messages back into generic messages. The
// message type tag selects the schema through its MessageType attribute.
// Components and group entries become messages named <parent>_<field>.
type Decoder struct {
	Dictionary *dictionary.Dictionary
	Charset    Charset
	// KeepDerived keeps body length and checksum in the decoded header and
	// trailer.
	KeepDerived bool
}

func (d *Decoder) Decode(data []byte) (*message.Message, error) {
	toks, err := Tokenize(data, d.Charset)
	if err != nil {
		return nil, &CodecError{Err: err}
	}
	if err := verify(toks); err != nil {
		log.Warn().Msgf("fix.Decode bytes=%d err=%v", len(data), err)
		return nil, &CodecError{Err: err}
	}
	msgType := ""
	for _, t := range toks {
		if t.Tag == TagMsgType {
			msgType = t.Value
			break
		}
	}
	if msgType == "" {
		return nil, &CodecError{Err: fmt.Errorf("%w: tag %d absent", ErrNoMessageType, TagMsgType)}
	}
	schema, ok := d.Dictionary.MessageByAttribute(dictionary.AttrMessageType, msgType)
	if !ok {
		return nil, &CodecError{Err: fmt.Errorf("%w: %s %q", ErrSchemaNotFound, dictionary.AttrMessageType, msgType)}
	}
	layout := sessionLayout(schema)

	p := parser{toks: toks, ns: d.Dictionary.Namespace()}
	m, err := p.component(schema.Name(), layout)
	if err != nil {
		log.Warn().Msgf("fix.Decode message=%s err=%v", schema.Name(), err)
		return nil, err
	}
	if p.pos < len(toks) {
		return nil, &CodecError{Message: schema.Name(), Err: fmt.Errorf("%w: %d at field %d", ErrUnknownTag, toks[p.pos].Tag, p.pos)}
	}
	if !d.KeepDerived {
		dropDerived(m, schema)
	}
	log.Debug().Msgf("fix.Decode message=%s msgType=%s fields=%d", m.Name, msgType, m.Len())
	return m, nil
}

type parser struct {
	toks []Token
	pos  int
	ns   string
}

// component consumes tokens owned by schema until one belongs elsewhere or
// repeats a field already read, which starts the next group entry.
func (p *parser) component(name string, schema *dictionary.FieldSchema) (*message.Message, error) {
	m := message.New(name, p.ns)
	for p.pos < len(p.toks) {
		tok := p.toks[p.pos]
		fs := owner(schema, tok.Tag)
		if fs == nil || m.Has(fs.Name()) {
			return m, nil
		}
		fail := func(err error) error {
			if _, ok := err.(*CodecError); ok {
				return err
			}
			return &CodecError{Message: name, Field: fs.Name(), Err: err}
		}

		switch {
		case !fs.IsComplex():
			v, err := parseValue(fs.Type(), tok.Value)
			if err != nil {
				return nil, fail(fmt.Errorf("%w: %w", ErrUnsupportedValue, err))
			}
			m.Set(fs.Name(), message.ScalarOf(v))
			p.pos++

		case fs.IsCollection():
			n, err := strconv.Atoi(tok.Value)
			if err != nil || n < 0 {
				return nil, fail(fmt.Errorf("%w: group counter %q", ErrMalformed, tok.Value))
			}
			p.pos++
			// Every entry takes at least one token.
			if left := len(p.toks) - p.pos; n > left {
				return nil, fail(fmt.Errorf("%w: group counter %d with %d fields left", ErrMalformed, n, left))
			}
			items := make([]message.Value, 0, n)
			for i := 0; i < n; i++ {
				start := p.pos
				entry, err := p.component(name+"_"+fs.Name(), fs)
				if err != nil {
					return nil, fail(err)
				}
				if p.pos == start {
					return nil, fail(fmt.Errorf("%w: group has %d of %d entries", ErrMalformed, i, n))
				}
				items = append(items, message.MessageOf(entry))
			}
			list, err := message.ListOf(items...)
			if err != nil {
				return nil, fail(err)
			}
			m.Set(fs.Name(), list)

		default:
			nested, err := p.component(name+"_"+fs.Name(), fs)
			if err != nil {
				return nil, fail(err)
			}
			m.Set(fs.Name(), message.MessageOf(nested))
		}
	}
	return m, nil
}

// dropDerived removes body length and checksum and the session fields schema
// does not declare. A header or trailer left empty, or one schema does not
// declare, is removed as well.
func dropDerived(m *message.Message, schema *dictionary.FieldSchema) {
	for _, part := range []struct {
		name string
		std  []sessionField
	}{{HeaderName, sessionHeader}, {TrailerName, sessionTrailer}} {
		v, ok := m.Get(part.name)
		if !ok {
			continue
		}
		nested, ok := v.Message()
		if !ok {
			continue
		}
		var declared []*dictionary.FieldSchema
		ps, hasPart := schema.Field(part.name)
		if hasPart && ps.IsComplex() {
			declared, _ = ps.Fields()
		} else {
			hasPart = false
		}
		for _, s := range part.std {
			f := tagged(declared, s.tag)
			switch {
			case f == nil:
				nested.Remove(s.name)
			case s.tag == TagBodyLength || s.tag == TagCheckSum:
				nested.Remove(f.Name())
			}
		}
		if !hasPart || nested.Len() == 0 {
			m.Remove(part.name)
		}
	}
}
