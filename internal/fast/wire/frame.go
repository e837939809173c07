package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/danmuck/dictwire/internal/fast/template"
	"github.com/shopspring/decimal"
)

const HeaderLen = 8

var (
	ErrShortHeader      = errors.New("wire: short frame header")
	ErrTruncated        = errors.New("wire: truncated payload")
	ErrTrailingBytes    = errors.New("wire: trailing bytes after payload")
	ErrPayloadTooLarge  = errors.New("wire: payload too large")
	ErrUnknownTemplate  = errors.New("wire: unknown template id")
	ErrTemplateMismatch = errors.New("wire: value not bound to template")
)

// Header is the fixed frame header.
type Header struct {
	TemplateID uint32
	PayloadLen uint32
}

// Limits constrains frame decode and encode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 8 * 1024 * 1024}
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.TemplateID)
	binary.BigEndian.PutUint32(buf[4:8], h.PayloadLen)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, ErrShortHeader
	}
	return Header{
		TemplateID: binary.BigEndian.Uint32(b[0:4]),
		PayloadLen: binary.BigEndian.Uint32(b[4:8]),
	}, nil
}

// Marshal frames gv, which must be bound to tpl's group.
func Marshal(tpl *template.Template, gv *GroupValue) ([]byte, error) {
	if gv.group != &tpl.Group {
		return nil, fmt.Errorf("%w: %s", ErrTemplateMismatch, tpl)
	}
	payload, err := appendGroup(nil, gv)
	if err != nil {
		return nil, err
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, ErrPayloadTooLarge
	}
	out := EncodeHeader(Header{TemplateID: tpl.ID, PayloadLen: uint32(len(payload))})
	return append(out, payload...), nil
}

// Unmarshal parses one complete frame using the templates in reg.
func Unmarshal(reg *template.Registry, data []byte) (*template.Template, *GroupValue, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, nil, err
	}
	body := data[HeaderLen:]
	if uint64(len(body)) < uint64(h.PayloadLen) {
		return nil, nil, fmt.Errorf("%w: header says %d bytes, have %d", ErrTruncated, h.PayloadLen, len(body))
	}
	if uint64(len(body)) > uint64(h.PayloadLen) {
		return nil, nil, fmt.Errorf("%w: %d", ErrTrailingBytes, uint64(len(body))-uint64(h.PayloadLen))
	}
	return decodePayload(reg, h, body)
}

// WriteFrame marshals gv and writes the frame to w.
func WriteFrame(w io.Writer, tpl *template.Template, gv *GroupValue, limits Limits) error {
	data, err := Marshal(tpl, gv)
	if err != nil {
		return err
	}
	if uint64(len(data)-HeaderLen) > uint64(limits.MaxPayloadBytes) {
		return ErrPayloadTooLarge
	}
	_, err = w.Write(data)
	return err
}

// ReadFrame reads one frame from r. It returns io.EOF when r ends cleanly
// before a frame starts.
func ReadFrame(r io.Reader, reg *template.Registry, limits Limits) (*template.Template, *GroupValue, error) {
	var fixed [HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil, ErrShortHeader
		}
		return nil, nil, err
	}
	h, _ := DecodeHeader(fixed[:])
	if h.PayloadLen > limits.MaxPayloadBytes {
		return nil, nil, ErrPayloadTooLarge
	}
	payload := make([]byte, h.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return decodePayload(reg, h, payload)
}

func decodePayload(reg *template.Registry, h Header, payload []byte) (*template.Template, *GroupValue, error) {
	tpl, ok := reg.ByID(h.TemplateID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownTemplate, h.TemplateID)
	}
	empty := len(payload)
	rd := reader{buf: payload, empty: &empty}
	gv, err := rd.group(&tpl.Group)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", tpl, err)
	}
	if rd.off != len(payload) {
		return nil, nil, fmt.Errorf("%w: %d", ErrTrailingBytes, len(payload)-rd.off)
	}
	return tpl, gv, nil
}

func appendGroup(out []byte, gv *GroupValue) ([]byte, error) {
	for i, f := range gv.group.Fields {
		v := gv.values[i]
		if v == nil {
			if !f.Optional {
				return nil, fmt.Errorf("%w: %q", ErrMissingField, f.Name)
			}
			out = append(out, 0)
			continue
		}
		out = append(out, 1)
		var err error
		if out, err = appendValue(out, f, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func appendValue(out []byte, f *template.Field, v any) ([]byte, error) {
	switch f.Type {
	case template.TypeInt8:
		return append(out, byte(int8(v.(int64)))), nil
	case template.TypeUInt8:
		return append(out, byte(v.(uint64))), nil
	case template.TypeInt32:
		return binary.BigEndian.AppendUint32(out, uint32(int32(v.(int64)))), nil
	case template.TypeUInt32:
		return binary.BigEndian.AppendUint32(out, uint32(v.(uint64))), nil
	case template.TypeInt64:
		return binary.BigEndian.AppendUint64(out, uint64(v.(int64))), nil
	case template.TypeUInt64:
		return binary.BigEndian.AppendUint64(out, v.(uint64)), nil
	case template.TypeDecimal:
		return appendDecimal(out, f, v.(decimal.Decimal))
	case template.TypeASCII, template.TypeUnicode:
		s := v.(string)
		out = binary.BigEndian.AppendUint32(out, uint32(len(s)))
		return append(out, s...), nil
	case template.TypeByteVector:
		b := v.([]byte)
		out = binary.BigEndian.AppendUint32(out, uint32(len(b)))
		return append(out, b...), nil
	case template.TypeGroup:
		nested, err := appendGroup(nil, v.(*GroupValue))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		out = binary.BigEndian.AppendUint32(out, uint32(len(nested)))
		return append(out, nested...), nil
	case template.TypeSequence:
		elems := v.([]*GroupValue)
		out = binary.BigEndian.AppendUint32(out, uint32(len(elems)))
		for j, e := range elems {
			var err error
			if out, err = appendGroup(out, e); err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", f.Name, j, err)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", template.ErrUnknownWireType, f.Type)
}

// appendDecimal writes an int8 exponent and an int64 mantissa, trimming
// trailing zeros from the mantissa when the exponent would overflow.
func appendDecimal(out []byte, f *template.Field, d decimal.Decimal) ([]byte, error) {
	coef := d.Coefficient()
	exp := d.Exponent()
	ten := big.NewInt(10)
	for exp < math.MinInt8 || !coef.IsInt64() {
		if coef.Sign() == 0 {
			exp = 0
			break
		}
		q, r := coef.QuoRem(coef, ten, new(big.Int))
		if r.Sign() != 0 {
			return nil, fmt.Errorf("%w: decimal %s in field %q", ErrOutOfRange, d, f.Name)
		}
		coef = q
		exp++
	}
	for exp > math.MaxInt8 {
		if !coef.IsInt64() {
			return nil, fmt.Errorf("%w: decimal %s in field %q", ErrOutOfRange, d, f.Name)
		}
		coef.Mul(coef, ten)
		exp--
	}
	if !coef.IsInt64() {
		return nil, fmt.Errorf("%w: decimal %s in field %q", ErrOutOfRange, d, f.Name)
	}
	out = append(out, byte(int8(exp)))
	return binary.BigEndian.AppendUint64(out, uint64(coef.Int64())), nil
}

type reader struct {
	buf []byte
	off int
	// empty counts the elements of field-less sequence groups still allowed
	// in this frame. Such elements carry no bytes, so the payload length
	// stands in as their bound.
	empty *int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || len(r.buf)-r.off < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncated, n, r.off)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) group(g *template.Group) (*GroupValue, error) {
	gv := NewGroupValue(g)
	for i, f := range g.Fields {
		p, err := r.take(1)
		if err != nil {
			return nil, err
		}
		if p[0] == 0 {
			if !f.Optional {
				return nil, fmt.Errorf("%w: %q", ErrMissingField, f.Name)
			}
			continue
		}
		v, err := r.value(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		gv.values[i] = v
	}
	return gv, nil
}

func (r *reader) value(f *template.Field) (any, error) {
	switch f.Type {
	case template.TypeInt8, template.TypeUInt8:
		b, err := r.take(1)
		if err != nil {
			return nil, err
		}
		if f.Type == template.TypeInt8 {
			return int64(int8(b[0])), nil
		}
		return uint64(b[0]), nil
	case template.TypeInt32, template.TypeUInt32:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		if f.Type == template.TypeInt32 {
			return int64(int32(n)), nil
		}
		return uint64(n), nil
	case template.TypeInt64, template.TypeUInt64:
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		n := binary.BigEndian.Uint64(b)
		if f.Type == template.TypeInt64 {
			return int64(n), nil
		}
		return n, nil
	case template.TypeDecimal:
		b, err := r.take(9)
		if err != nil {
			return nil, err
		}
		return decimal.New(int64(binary.BigEndian.Uint64(b[1:])), int32(int8(b[0]))), nil
	case template.TypeASCII, template.TypeUnicode, template.TypeByteVector:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		b, err := r.take(int(n))
		if err != nil {
			return nil, err
		}
		if f.Type == template.TypeByteVector {
			return append([]byte(nil), b...), nil
		}
		return string(b), nil
	case template.TypeGroup:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		b, err := r.take(int(n))
		if err != nil {
			return nil, err
		}
		nested := reader{buf: b, empty: r.empty}
		gv, err := nested.group(f.Group)
		if err != nil {
			return nil, err
		}
		if nested.off != len(b) {
			return nil, fmt.Errorf("%w: %d in group", ErrTrailingBytes, len(b)-nested.off)
		}
		return gv, nil
	case template.TypeSequence:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		// Each element spends one presence byte per field.
		if k := uint64(len(f.Group.Fields)); k > 0 {
			if uint64(n)*k > uint64(len(r.buf)-r.off) {
				return nil, fmt.Errorf("%w: %d elements", ErrTruncated, n)
			}
		} else {
			if uint64(n) > uint64(*r.empty) {
				return nil, fmt.Errorf("%w: %d empty elements", ErrTruncated, n)
			}
			*r.empty -= int(n)
		}
		elems := make([]*GroupValue, 0, n)
		for j := uint32(0); j < n; j++ {
			e, err := r.group(f.Group)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", j, err)
			}
			elems = append(elems, e)
		}
		return elems, nil
	}
	return nil, fmt.Errorf("%w: %s", template.ErrUnknownWireType, f.Type)
}
