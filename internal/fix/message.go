package fix

import (
	"bytes"
	"fmt"
	"strconv"
)

// Message is a root component holding the header, body and trailer fields.
type Message struct {
	Root    *Component
	Charset Charset
}

func NewMessage(root *Component, cs Charset) *Message {
	return &Message{Root: root, Charset: cs}
}

func (m *Message) Header() (*Component, bool)  { return m.Root.Component(HeaderName) }
func (m *Message) Trailer() (*Component, bool) { return m.Root.Component(TrailerName) }

func (m *Message) Checksum() int { return Checksum(m.Root) }
func (m *Message) Length() int   { return Length(m.Root) }

// CalculateBodyLength inserts the body length into the header, after the
// begin string when present.
func (m *Message) CalculateBodyLength() error {
	return m.insertBodyLength(BodyLengthName)
}

func (m *Message) insertBodyLength(name string) error {
	header, ok := m.Header()
	if !ok {
		return ErrNoHeader
	}
	if _, ok := header.Find(TagBodyLength); ok {
		return fmt.Errorf("%w: header tag %d", ErrAlreadyContains, TagBodyLength)
	}
	f, err := NewSimple(TagBodyLength, name, strconv.Itoa(m.Length()), m.Charset)
	if err != nil {
		return err
	}
	at, _ := header.index(TagBeginString)
	header.Insert(at+1, f)
	return nil
}

// CalculateChecksum appends the zero-padded checksum to the trailer.
func (m *Message) CalculateChecksum() error {
	return m.appendChecksum(CheckSumName)
}

func (m *Message) appendChecksum(name string) error {
	trailer, ok := m.Trailer()
	if !ok {
		return ErrNoTrailer
	}
	if _, ok := trailer.Find(TagCheckSum); ok {
		return fmt.Errorf("%w: trailer tag %d", ErrAlreadyContains, TagCheckSum)
	}
	f, err := NewSimple(TagCheckSum, name, fmt.Sprintf("%03d", m.Checksum()), m.Charset)
	if err != nil {
		return err
	}
	trailer.Add(f)
	return nil
}

func (m *Message) EnsureOrder() { m.Root.EnsureOrder() }

func (m *Message) Bytes() []byte { return m.Root.AppendTo(nil) }

// String renders the message with '|' in place of the field delimiter.
func (m *Message) String() string {
	raw := bytes.ReplaceAll(m.Bytes(), []byte{SOH}, []byte{'|'})
	s, err := m.Charset.Decode(raw)
	if err != nil {
		return string(raw)
	}
	return s
}
