// Package fix assembles and parses delimited tag=value messages. A message
// is a tree of simple fields, named components and repeating groups; body
// length and checksum are derived from the serialized bytes of the tree.
package fix

import (
	"bytes"
	"fmt"
	"strconv"
)

// Session tags with fixed meaning in every message.
const (
	TagBeginString = 8
	TagBodyLength  = 9
	TagCheckSum    = 10
	TagMsgType     = 35
)

const (
	BeginStringName = "BeginString"
	BodyLengthName  = "BodyLength"
	CheckSumName    = "CheckSum"
	MsgTypeName     = "MsgType"

	HeaderName  = "header"
	TrailerName = "trailer"
)

// SOH terminates every tag=value pair.
const SOH byte = 0x01

// Field is a node of a message tree.
type Field interface {
	Name() string
	// AppendTo appends the serialized bytes of the subtree to buf.
	AppendTo(buf []byte) []byte
	walk(fn func(*Simple))
}

// Simple is one tag=value pair. Its bytes are encoded once, at construction.
type Simple struct {
	Tag   int
	name  string
	value string
	raw   []byte
}

func NewSimple(tag int, name, value string, cs Charset) (*Simple, error) {
	if tag <= 0 {
		return nil, fmt.Errorf("%w: tag %d", ErrNoTag, tag)
	}
	enc, err := cs.Encode(value)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(enc, SOH) >= 0 {
		return nil, fmt.Errorf("%w: tag %d value contains the field delimiter", ErrUnsupportedValue, tag)
	}
	raw := strconv.AppendInt(make([]byte, 0, len(enc)+8), int64(tag), 10)
	raw = append(raw, '=')
	raw = append(raw, enc...)
	raw = append(raw, SOH)
	return &Simple{Tag: tag, name: name, value: value, raw: raw}, nil
}

func (s *Simple) Name() string  { return s.name }
func (s *Simple) Value() string { return s.value }

func (s *Simple) Bytes() []byte {
	out := make([]byte, len(s.raw))
	copy(out, s.raw)
	return out
}

func (s *Simple) AppendTo(buf []byte) []byte { return append(buf, s.raw...) }
func (s *Simple) walk(fn func(*Simple))      { fn(s) }

// Component is a named ordered list of fields. Order lists the declared
// sequence of child names used by EnsureOrder.
type Component struct {
	Order []string

	name   string
	fields []Field
}

func NewComponent(name string, order []string, fields ...Field) *Component {
	return &Component{Order: order, name: name, fields: fields}
}

func (c *Component) Name() string { return c.name }

func (c *Component) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

func (c *Component) Len() int { return len(c.fields) }

func (c *Component) Add(fields ...Field) { c.fields = append(c.fields, fields...) }

// Insert places f at position i, clamped to the list bounds.
func (c *Component) Insert(i int, f Field) {
	i = max(0, min(i, len(c.fields)))
	c.fields = append(c.fields, nil)
	copy(c.fields[i+1:], c.fields[i:])
	c.fields[i] = f
}

// Find returns the direct simple child carrying tag.
func (c *Component) Find(tag int) (*Simple, bool) {
	_, s := c.index(tag)
	return s, s != nil
}

func (c *Component) index(tag int) (int, *Simple) {
	for i, f := range c.fields {
		if s, ok := f.(*Simple); ok && s.Tag == tag {
			return i, s
		}
	}
	return -1, nil
}

// Component returns the first direct child component called name.
func (c *Component) Component(name string) (*Component, bool) {
	for _, f := range c.fields {
		if sub, ok := f.(*Component); ok && sub.name == name {
			return sub, true
		}
	}
	return nil, false
}

func (c *Component) AppendTo(buf []byte) []byte {
	for _, f := range c.fields {
		buf = f.AppendTo(buf)
	}
	return buf
}

func (c *Component) walk(fn func(*Simple)) {
	for _, f := range c.fields {
		f.walk(fn)
	}
}

// Group is a repeating block: an optional counter followed by its entries.
type Group struct {
	Counter *Simple
	Entries []*Component

	name string
}

func NewGroup(name string, counter *Simple, entries ...*Component) *Group {
	return &Group{Counter: counter, Entries: entries, name: name}
}

func (g *Group) Name() string { return g.name }

func (g *Group) AppendTo(buf []byte) []byte {
	if g.Counter != nil {
		buf = g.Counter.AppendTo(buf)
	}
	for _, e := range g.Entries {
		buf = e.AppendTo(buf)
	}
	return buf
}

func (g *Group) walk(fn func(*Simple)) {
	if g.Counter != nil {
		fn(g.Counter)
	}
	for _, e := range g.Entries {
		e.walk(fn)
	}
}

// Checksum sums the bytes of every simple field under f except the checksum
// field, modulo 256.
func Checksum(f Field) int {
	sum := 0
	f.walk(func(s *Simple) {
		if s.Tag == TagCheckSum {
			return
		}
		for _, b := range s.raw {
			sum += int(b)
		}
	})
	return sum % 256
}

// Length counts the bytes of every simple field under f except begin string,
// body length and checksum.
func Length(f Field) int {
	n := 0
	f.walk(func(s *Simple) {
		switch s.Tag {
		case TagBeginString, TagBodyLength, TagCheckSum:
			return
		}
		n += len(s.raw)
	})
	return n
}
