package fix

import (
	"bytes"
	"fmt"
	"strconv"
)

// Token is one tag=value pair as read from the wire. Raw keeps the pair's
// bytes including the delimiter.
type Token struct {
	Tag   int
	Value string
	Raw   []byte
}

// Tokenize splits data into tag=value pairs. Every pair must be terminated.
func Tokenize(data []byte, cs Charset) ([]Token, error) {
	var toks []Token
	for off := 0; off < len(data); {
		end := bytes.IndexByte(data[off:], SOH)
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated field at offset %d", ErrMalformed, off)
		}
		raw := data[off : off+end+1]
		eq := bytes.IndexByte(raw, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("%w: no tag at offset %d", ErrMalformed, off)
		}
		tag, err := strconv.Atoi(string(raw[:eq]))
		if err != nil || tag <= 0 {
			return nil, fmt.Errorf("%w: bad tag %q at offset %d", ErrMalformed, raw[:eq], off)
		}
		value, err := cs.Decode(raw[eq+1 : len(raw)-1])
		if err != nil {
			return nil, fmt.Errorf("tag %d: %w", tag, err)
		}
		toks = append(toks, Token{Tag: tag, Value: value, Raw: raw})
		off += end + 1
	}
	return toks, nil
}

// verify checks the session framing of toks: begin string, body length and
// checksum in place and consistent with the bytes.
func verify(toks []Token) error {
	if len(toks) < 3 || toks[0].Tag != TagBeginString || toks[1].Tag != TagBodyLength || toks[len(toks)-1].Tag != TagCheckSum {
		return fmt.Errorf("%w: expected tags %d, %d first and %d last", ErrMalformed, TagBeginString, TagBodyLength, TagCheckSum)
	}
	declared, err := strconv.Atoi(toks[1].Value)
	if err != nil {
		return fmt.Errorf("%w: body length %q", ErrMalformed, toks[1].Value)
	}
	last := len(toks) - 1
	counted := 0
	for _, t := range toks[2:last] {
		counted += len(t.Raw)
	}
	if declared != counted {
		return fmt.Errorf("%w: declared %d, counted %d", ErrBodyLengthMismatch, declared, counted)
	}

	want, err := strconv.Atoi(toks[last].Value)
	if err != nil {
		return fmt.Errorf("%w: checksum %q", ErrMalformed, toks[last].Value)
	}
	sum := 0
	for _, t := range toks[:last] {
		for _, b := range t.Raw {
			sum += int(b)
		}
	}
	if sum%256 != want {
		return fmt.Errorf("%w: declared %03d, computed %03d", ErrChecksumMismatch, want, sum%256)
	}
	return nil
}
