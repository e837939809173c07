package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/dictwire/internal/fast/template"
	"github.com/danmuck/dictwire/internal/testutil/testlog"
	"github.com/shopspring/decimal"
)

func orderTemplate() *template.Template {
	leg := &template.Group{Name: "Legs", Fields: []*template.Field{
		{Name: "Sym", Type: template.TypeASCII},
		{Name: "Ratio", Type: template.TypeUInt32},
	}}
	party := &template.Group{Name: "Party", Fields: []*template.Field{
		{Name: "Id", Type: template.TypeUnicode},
	}}
	return &template.Template{ID: 7, Group: template.Group{Name: "Order", Fields: []*template.Field{
		{Name: "Px", Type: template.TypeDecimal},
		{Name: "Qty", Type: template.TypeInt64, Optional: true},
		{Name: "Tiny", Type: template.TypeInt8, Optional: true},
		{Name: "Blob", Type: template.TypeByteVector, Optional: true},
		{Name: "Party", Type: template.TypeGroup, Group: party, Optional: true},
		{Name: "Legs", Type: template.TypeSequence, Group: leg, LengthName: "NoLegs", Optional: true},
	}}}
}

func mustRegistry(t *testing.T, tpls ...*template.Template) *template.Registry {
	t.Helper()
	reg, err := template.NewRegistry(tpls...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	testlog.Start(t)
	tpl := orderTemplate()
	gv := NewGroupValue(&tpl.Group)
	if err := gv.SetDecimal(0, decimal.RequireFromString("-10.525")); err != nil {
		t.Fatalf("set px: %v", err)
	}
	if err := gv.SetInt(2, -5); err != nil {
		t.Fatalf("set tiny: %v", err)
	}
	if err := gv.SetBytes(3, []byte{0, 1, 2}); err != nil {
		t.Fatalf("set blob: %v", err)
	}
	party, err := gv.SetGroup(4)
	if err != nil {
		t.Fatalf("set party: %v", err)
	}
	if err := party.SetString(0, "jürgen"); err != nil {
		t.Fatalf("set party id: %v", err)
	}
	legs, err := gv.SetSequence(5, 2)
	if err != nil {
		t.Fatalf("set legs: %v", err)
	}
	for i, leg := range legs {
		if err := leg.SetString(0, "L"); err != nil {
			t.Fatalf("set leg sym: %v", err)
		}
		if err := leg.SetUint(1, uint64(i+1)); err != nil {
			t.Fatalf("set leg ratio: %v", err)
		}
	}

	data, err := Marshal(tpl, gv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	h, _ := DecodeHeader(data)
	if h.TemplateID != 7 || int(h.PayloadLen) != len(data)-HeaderLen {
		t.Fatalf("unexpected header %+v for %d bytes", h, len(data))
	}

	got, out, err := Unmarshal(mustRegistry(t, tpl), data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != tpl {
		t.Fatalf("unexpected template %s", got)
	}
	if out.IsDefined(1) {
		t.Fatalf("undefined field must stay undefined")
	}
	px, _ := out.Value(0)
	if !px.(decimal.Decimal).Equal(decimal.RequireFromString("-10.525")) {
		t.Fatalf("px mismatch: %v", px)
	}
	if tiny, _ := out.Value(2); tiny.(int64) != -5 {
		t.Fatalf("tiny mismatch: %v", tiny)
	}
	if blob, _ := out.Value(3); !bytes.Equal(blob.([]byte), []byte{0, 1, 2}) {
		t.Fatalf("blob mismatch: %v", blob)
	}
	p, ok := out.Group(4)
	if !ok {
		t.Fatalf("party missing")
	}
	if id, _ := p.Value(0); id.(string) != "jürgen" {
		t.Fatalf("party id mismatch: %v", id)
	}
	seq, ok := out.Sequence(5)
	if !ok || len(seq) != 2 {
		t.Fatalf("legs mismatch: %v", seq)
	}
	if r, _ := seq[1].Value(1); r.(uint64) != 2 {
		t.Fatalf("leg ratio mismatch: %v", r)
	}
}

func TestSettersEnforceWireTypes(t *testing.T) {
	testlog.Start(t)
	tpl := orderTemplate()
	gv := NewGroupValue(&tpl.Group)
	if err := gv.SetInt(2, 300); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected int8 range error, got %v", err)
	}
	if err := gv.SetString(0, "x"); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected wrong type, got %v", err)
	}
	if err := gv.SetDecimal(1, decimal.RequireFromString("1.5")); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected fractional decimal to be rejected for int64, got %v", err)
	}
	if err := gv.SetDecimal(1, decimal.RequireFromString("15")); err != nil {
		t.Fatalf("integral decimal must fit int64: %v", err)
	}
	legs, _ := gv.SetSequence(5, 1)
	if err := legs[0].SetString(0, "é"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ascii error, got %v", err)
	}
	if err := gv.SetInt(99, 1); !errors.Is(err, ErrFieldIndex) {
		t.Fatalf("expected index error, got %v", err)
	}
}

func TestMarshalRequiresMandatoryFields(t *testing.T) {
	testlog.Start(t)
	tpl := orderTemplate()
	if _, err := Marshal(tpl, NewGroupValue(&tpl.Group)); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing field error, got %v", err)
	}
}

func TestUnmarshalRejectsMalformedFrames(t *testing.T) {
	testlog.Start(t)
	tpl := orderTemplate()
	reg := mustRegistry(t, tpl)
	gv := NewGroupValue(&tpl.Group)
	_ = gv.SetInt(0, 1)
	data, err := Marshal(tpl, gv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if _, _, err := Unmarshal(reg, data[:3]); !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected short header, got %v", err)
	}
	if _, _, err := Unmarshal(reg, data[:len(data)-1]); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected truncated, got %v", err)
	}
	if _, _, err := Unmarshal(reg, append(append([]byte(nil), data...), 0)); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected trailing bytes, got %v", err)
	}
	other := append([]byte(nil), data...)
	other[3] = 9
	if _, _, err := Unmarshal(reg, other); !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("expected unknown template, got %v", err)
	}
}

func TestReadWriteFrame(t *testing.T) {
	testlog.Start(t)
	tpl := orderTemplate()
	gv := NewGroupValue(&tpl.Group)
	_ = gv.SetInt(0, 42)
	var buf bytes.Buffer
	if err := WriteFrame(&buf, tpl, gv, DefaultLimits()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := ReadFrame(bytes.NewReader(buf.Bytes()), mustRegistry(t, tpl), Limits{MaxPayloadBytes: 4}); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected limit error, got %v", err)
	}
	_, out, err := ReadFrame(&buf, mustRegistry(t, tpl), DefaultLimits())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	px, _ := out.Value(0)
	if !px.(decimal.Decimal).Equal(decimal.NewFromInt(42)) {
		t.Fatalf("px mismatch: %v", px)
	}
	if _, _, err := ReadFrame(&buf, mustRegistry(t, tpl), DefaultLimits()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF at end of stream, got %v", err)
	}
	if _, _, err := ReadFrame(bytes.NewReader([]byte{0, 0}), mustRegistry(t, tpl), DefaultLimits()); !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected short header, got %v", err)
	}
}

func TestUnmarshalBoundsSequenceCounts(t *testing.T) {
	testlog.Start(t)
	tpl := &template.Template{ID: 3, Group: template.Group{Name: "Marks", Fields: []*template.Field{
		{Name: "Marks", Type: template.TypeSequence, Group: &template.Group{Name: "Mark"}, Optional: true},
	}}}
	reg := mustRegistry(t, tpl)

	gv := NewGroupValue(&tpl.Group)
	if _, err := gv.SetSequence(0, 3); err != nil {
		t.Fatalf("set sequence: %v", err)
	}
	data, err := Marshal(tpl, gv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, out, err := Unmarshal(reg, data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if seq, _ := out.Sequence(0); len(seq) != 3 {
		t.Fatalf("expected 3 empty elements, got %d", len(seq))
	}

	huge := append(EncodeHeader(Header{TemplateID: 3, PayloadLen: 5}), 1, 0xff, 0xff, 0xff, 0xff)
	if _, _, err := Unmarshal(reg, huge); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected truncated for empty-element count, got %v", err)
	}

	legs := mustRegistry(t, orderTemplate())
	payload := append(make([]byte, 10), 0, 0, 0, 0, 1, 0x40, 0, 0, 0)
	payload[0] = 1
	bad := append(EncodeHeader(Header{TemplateID: 7, PayloadLen: uint32(len(payload))}), payload...)
	if _, _, err := Unmarshal(legs, bad); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected truncated for element count, got %v", err)
	}
}
