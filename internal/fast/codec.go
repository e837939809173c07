// Package fast transcodes generic messages to and from a length-prefixed
// binary templated encoding. The dictionary is the contract: templateId
// selects a message's template and fastName maps fields to wire names.
package fast

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/fast/template"
	"github.com/danmuck/dictwire/internal/fast/wire"
	"github.com/danmuck/dictwire/internal/message"
	"github.com/danmuck/dictwire/internal/scalar"
)

// Codec pairs an Encoder and a Decoder over one dictionary and template
// registry, and frames the result as bytes.
type Codec struct {
	enc    Encoder
	dec    Decoder
	reg    *template.Registry
	limits wire.Limits
}

type Option func(*Codec)

// WithUnit sets the timestamp unit for dictionaries without a dateTimeUnit
// attribute.
func WithUnit(u scalar.Unit) Option {
	return func(c *Codec) {
		c.enc.Unit = u
		c.dec.Unit = u
	}
}

// WithLimits bounds frames read and written through streams.
func WithLimits(l wire.Limits) Option {
	return func(c *Codec) { c.limits = l }
}

func NewCodec(d *dictionary.Dictionary, reg *template.Registry, opts ...Option) *Codec {
	c := &Codec{
		enc:    Encoder{Dictionary: d, Registry: reg},
		dec:    Decoder{Dictionary: d},
		reg:    reg,
		limits: wire.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) Encode(m *message.Message) (*template.Template, *wire.GroupValue, error) {
	return c.enc.Encode(m)
}

func (c *Codec) Decode(tpl *template.Template, gv *wire.GroupValue) (*message.Message, error) {
	return c.dec.Decode(tpl, gv)
}

// Marshal encodes m into one framed byte slice.
func (c *Codec) Marshal(m *message.Message) ([]byte, error) {
	tpl, gv, err := c.enc.Encode(m)
	if err != nil {
		return nil, err
	}
	data, err := wire.Marshal(tpl, gv)
	if err != nil {
		return nil, &CodecError{Message: m.Name, Err: err}
	}
	return data, nil
}

// Unmarshal decodes one framed byte slice.
func (c *Codec) Unmarshal(data []byte) (*message.Message, error) {
	tpl, gv, err := wire.Unmarshal(c.reg, data)
	if err != nil {
		return nil, frameError(err)
	}
	return c.dec.Decode(tpl, gv)
}

// Write encodes m and writes it to w as one frame.
func (c *Codec) Write(w io.Writer, m *message.Message) error {
	tpl, gv, err := c.enc.Encode(m)
	if err != nil {
		return err
	}
	if err := wire.WriteFrame(w, tpl, gv, c.limits); err != nil {
		return &CodecError{Message: m.Name, Err: err}
	}
	return nil
}

// Read reads and decodes the next frame from r. It returns io.EOF when r
// holds no further frame.
func (c *Codec) Read(r io.Reader) (*message.Message, error) {
	tpl, gv, err := wire.ReadFrame(r, c.reg, c.limits)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, frameError(err)
	}
	return c.dec.Decode(tpl, gv)
}

func frameError(err error) error {
	if errors.Is(err, wire.ErrUnknownTemplate) {
		err = fmt.Errorf("%w: %w", ErrTemplateNotFound, err)
	}
	return &CodecError{Err: err}
}
