package fix

import (
	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/message"
)

// Codec pairs an Encoder and a Decoder over one dictionary and charset.
type Codec struct {
	enc Encoder
	dec Decoder
}

func NewCodec(d *dictionary.Dictionary, cs Charset, keepDerived bool) *Codec {
	return &Codec{
		enc: Encoder{Dictionary: d, Charset: cs},
		dec: Decoder{Dictionary: d, Charset: cs, KeepDerived: keepDerived},
	}
}

func (c *Codec) Encode(m *message.Message) (*Message, error) { return c.enc.Encode(m) }

func (c *Codec) Marshal(m *message.Message) ([]byte, error) {
	out, err := c.enc.Encode(m)
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (c *Codec) Unmarshal(data []byte) (*message.Message, error) { return c.dec.Decode(data) }
