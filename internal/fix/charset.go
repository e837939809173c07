package fix

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Charset is the character encoding of tag values on the wire. The zero
// value is ISO-8859-1.
type Charset struct {
	name string
	enc  encoding.Encoding
}

var (
	Latin1 = Charset{name: "ISO-8859-1", enc: charmap.ISO8859_1}
	UTF8   = Charset{name: "UTF-8", enc: unicode.UTF8}
)

// ParseCharset resolves an IANA charset name or alias. An empty name is
// ISO-8859-1.
func ParseCharset(name string) (Charset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Latin1, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return Charset{}, fmt.Errorf("%w: unsupported %q", ErrCharset, name)
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = name
	}
	return Charset{name: canonical, enc: enc}, nil
}

func (c Charset) Name() string {
	if c.enc == nil {
		return Latin1.name
	}
	return c.name
}

func (c Charset) String() string { return c.Name() }

func (c Charset) encoding() encoding.Encoding {
	if c.enc == nil {
		return Latin1.enc
	}
	return c.enc
}

// Encode converts s to wire bytes. Characters the charset cannot represent
// are an error.
func (c Charset) Encode(s string) ([]byte, error) {
	out, err := c.encoding().NewEncoder().String(s)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %q as %s: %v", ErrCharset, s, c.Name(), err)
	}
	return []byte(out), nil
}

func (c Charset) Decode(b []byte) (string, error) {
	out, err := c.encoding().NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: decode as %s: %v", ErrCharset, c.Name(), err)
	}
	return string(out), nil
}
