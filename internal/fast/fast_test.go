package fast

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/fast/template"
	"github.com/danmuck/dictwire/internal/fast/wire"
	"github.com/danmuck/dictwire/internal/message"
	"github.com/danmuck/dictwire/internal/scalar"
	"github.com/danmuck/dictwire/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

const templatesDoc = `<templates>
  <template id="7" name="OrderTpl">
    <decimal name="Px"/>
    <int64 name="Qty" presence="optional"/>
    <uInt8 name="Urgent" presence="optional"/>
    <string name="Side" presence="optional"/>
    <decimal name="SentAt" presence="optional"/>
    <int64 name="TradeDate" presence="optional"/>
    <string name="Note" charset="unicode" presence="optional"/>
    <group name="Party" presence="optional">
      <string name="Id"/>
    </group>
    <sequence name="Legs" presence="optional">
      <length name="NoLegs"/>
      <string name="Sym"/>
      <int32 name="Ratio"/>
    </sequence>
  </template>
  <template id="8" name="BasketTpl">
    <sequence name="Items">
      <string name="Sku"/>
    </sequence>
  </template>
  <template id="9" name="Orphan">
    <int32 name="X"/>
  </template>
</templates>`

func fastName(name string) dictionary.Option {
	return dictionary.WithAttribute(dictionary.AttrFastName, scalar.String, name)
}

func testDictionary() *dictionary.Dictionary {
	side := dictionary.NewEnum("Side", scalar.Char, []*dictionary.Attribute{
		dictionary.EnumValue("Buy", "1"),
		dictionary.EnumValue("Sell", "2"),
	})
	return dictionary.New("ORD",
		dictionary.WithDictionaryAttribute(dictionary.AttrDateTimeUnit, scalar.String, "ms"),
		dictionary.WithFields(side),
		dictionary.WithMessages(
			dictionary.NewMessage("Order", []*dictionary.FieldSchema{
				dictionary.NewSimple("price", scalar.Decimal, fastName("Px")),
				dictionary.NewSimple("qty", scalar.Long, fastName("Qty")),
				dictionary.NewSimple("urgent", scalar.Bool, fastName("Urgent")),
				dictionary.Derive(side, "side", fastName("Side")),
				dictionary.NewSimple("sentAt", scalar.DateTime, fastName("SentAt")),
				dictionary.NewSimple("tradeDate", scalar.Date, fastName("TradeDate")),
				dictionary.NewSimple("note", scalar.String, fastName("Note")),
				dictionary.NewComplex("party", []*dictionary.FieldSchema{
					dictionary.NewSimple("id", scalar.String, fastName("Id")),
				}, fastName("Party")),
				dictionary.NewSimple("legs_NoLegs", scalar.Long,
					dictionary.WithAttribute(dictionary.AttrIsLength, scalar.Bool, "true")),
				dictionary.NewComplex("legs", []*dictionary.FieldSchema{
					dictionary.NewSimple("sym", scalar.String, fastName("Sym")),
					dictionary.NewSimple("ratio", scalar.Int, fastName("Ratio")),
				}, dictionary.WithCollection(), fastName("Legs")),
				dictionary.NewSimple("internal", scalar.String),
			}, dictionary.WithAttribute(dictionary.AttrTemplateID, scalar.Long, "7")),
			dictionary.NewMessage("Basket", []*dictionary.FieldSchema{
				dictionary.NewComplex("items", []*dictionary.FieldSchema{
					dictionary.NewSimple("sku", scalar.String, fastName("Sku")),
				}, dictionary.WithCollection(), fastName("Items")),
			}, dictionary.WithAttribute(dictionary.AttrTemplateID, scalar.Long, "8")),
			dictionary.NewMessage("Untemplated", nil),
		),
	)
}

func testCodec(t *testing.T) *Codec {
	t.Helper()
	reg, err := template.Load(strings.NewReader(templatesDoc))
	if err != nil {
		t.Fatalf("load templates: %v", err)
	}
	return NewCodec(testDictionary(), reg)
}

func set(t *testing.T, m *message.Message, name string, v any) {
	t.Helper()
	if err := m.SetNative(name, v); err != nil {
		t.Fatalf("set %s: %v", name, err)
	}
}

func fullOrder(t *testing.T) *message.Message {
	m := message.New("Order", "ORD")
	set(t, m, "price", decimal.RequireFromString("10.5"))
	set(t, m, "qty", int64(300))
	set(t, m, "urgent", true)
	m.Set("side", message.ScalarOf(scalar.OfChar('2')))
	set(t, m, "sentAt", time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC))
	m.Set("tradeDate", message.ScalarOf(scalar.OfDate(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC))))
	set(t, m, "note", "ünïcode")

	party := message.New("Order_party", "ORD")
	set(t, party, "id", "P-1")
	m.Set("party", message.MessageOf(party))

	legs := make([]message.Value, 0, 2)
	for i, sym := range []string{"AAA", "BBB"} {
		leg := message.New("Order_legs", "ORD")
		set(t, leg, "sym", sym)
		set(t, leg, "ratio", int32(i+1))
		legs = append(legs, message.MessageOf(leg))
	}
	set(t, m, "legs_NoLegs", int64(2))
	m.Set("legs", message.MustList(legs...))
	return m
}

func TestRoundTripFullMessage(t *testing.T) {
	testlog.Start(t)
	c := testCodec(t)
	in := fullOrder(t)
	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := c.Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !message.Equal(in, out) {
		t.Fatalf("round trip mismatch:\n in=%s\nout=%s", in, out)
	}
}

func TestPriceScenario(t *testing.T) {
	testlog.Start(t)
	c := testCodec(t)
	in := message.New("Order", "ORD")
	set(t, in, "price", decimal.RequireFromString("10.5"))
	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := c.Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"price"}, out.Names()); diff != "" {
		t.Fatalf("undefined fields must be skipped (-want +got):\n%s", diff)
	}
	price, _ := out.Get("price")
	s, _ := price.Scalar()
	if !s.Equal(scalar.OfDecimal(decimal.RequireFromString("10.5"))) {
		t.Fatalf("price mismatch: %s", s)
	}
}

func TestSequenceLengthDefaultsToLength(t *testing.T) {
	testlog.Start(t)
	c := testCodec(t)
	in := message.New("Basket", "ORD")
	item := message.New("Basket_items", "ORD")
	set(t, item, "sku", "X1")
	in.Set("items", message.MustList(message.MessageOf(item)))

	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := c.Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"items_length", "items"}, out.Names()); diff != "" {
		t.Fatalf("unexpected fields (-want +got):\n%s", diff)
	}
	n, _ := out.Get("items_length")
	if s, _ := n.Scalar(); !s.Equal(scalar.OfLong(1)) {
		t.Fatalf("unexpected length %s", s)
	}
}

func TestEncodeErrors(t *testing.T) {
	testlog.Start(t)
	c := testCodec(t)

	cases := []struct {
		name  string
		msg   func() *message.Message
		want  error
		field string
	}{
		{"unknown message", func() *message.Message { return message.New("Nope", "ORD") }, ErrSchemaNotFound, ""},
		{"no template", func() *message.Message { return message.New("Untemplated", "ORD") }, ErrTemplateNotFound, ""},
		{"no wire name", func() *message.Message {
			m := message.New("Order", "ORD")
			set(t, m, "internal", "x")
			return m
		}, ErrNoWireName, "internal"},
		{"unknown field", func() *message.Message {
			m := message.New("Order", "ORD")
			set(t, m, "bogus", "x")
			return m
		}, ErrNoWireName, "bogus"},
		{"scalar sequence", func() *message.Message {
			m := message.New("Order", "ORD")
			m.Set("legs", message.MustList(message.ScalarOf(scalar.OfInt(1))))
			return m
		}, ErrUnsupportedValue, "legs"},
		{"wrong wire type", func() *message.Message {
			m := message.New("Order", "ORD")
			set(t, m, "price", "cheap")
			return m
		}, ErrUnsupportedValue, "price"},
	}
	for _, tc := range cases {
		_, _, err := c.Encode(tc.msg())
		var ce *CodecError
		if !errors.As(err, &ce) || !errors.Is(err, tc.want) || ce.Field != tc.field {
			t.Fatalf("%s: expected %v on %q, got %v", tc.name, tc.want, tc.field, err)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	testlog.Start(t)
	c := testCodec(t)
	if _, err := c.Unmarshal([]byte{0, 0, 0, 42, 0, 0, 0, 0}); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	orphan, _ := c.reg.ByID(9)
	gv := wire.NewGroupValue(&orphan.Group)
	_ = gv.SetInt(0, 1)
	if _, err := c.Decode(orphan, gv); !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound, got %v", err)
	}
}

func TestDecodeRetypesToSchema(t *testing.T) {
	testlog.Start(t)
	c := testCodec(t)
	tpl, _ := c.reg.ByID(7)
	gv := wire.NewGroupValue(&tpl.Group)
	_ = gv.SetInt(0, 3)
	_ = gv.SetUint(2, 0)
	_ = gv.SetString(3, "1")
	_ = gv.SetInt(5, time.Date(2020, 2, 2, 0, 0, 0, 0, time.UTC).UnixMilli())

	out, err := c.Decode(tpl, gv)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := message.New("Order", "ORD")
	want.Set("price", message.ScalarOf(scalar.OfDecimal(decimal.NewFromInt(3))))
	want.Set("urgent", message.ScalarOf(scalar.OfBool(false)))
	want.Set("side", message.ScalarOf(scalar.OfChar('1')))
	want.Set("tradeDate", message.ScalarOf(scalar.OfDate(time.Date(2020, 2, 2, 0, 0, 0, 0, time.UTC))))
	if !message.Equal(want, out) {
		t.Fatalf("unexpected decode:\nwant=%s\n got=%s", want, out)
	}
}

func TestStreamFrames(t *testing.T) {
	testlog.Start(t)
	reg, err := template.Load(strings.NewReader(templatesDoc))
	if err != nil {
		t.Fatalf("load templates: %v", err)
	}
	c := NewCodec(testDictionary(), reg, WithUnit(scalar.Second))

	first := fullOrder(t)
	second := message.New("Order", "ORD")
	set(t, second, "price", decimal.RequireFromString("99"))
	var buf bytes.Buffer
	for _, m := range []*message.Message{first, second} {
		if err := c.Write(&buf, m); err != nil {
			t.Fatalf("write %s: %v", m, err)
		}
	}
	for i, want := range []*message.Message{first, second} {
		got, err := c.Read(&buf)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if !message.Equal(want, got) {
			t.Fatalf("frame %d mismatch:\nwant=%s\n got=%s", i, want, got)
		}
	}
	if _, err := c.Read(&buf); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestUnitFallback(t *testing.T) {
	testlog.Start(t)
	reg, _ := template.Load(strings.NewReader(templatesDoc))
	d := dictionary.New("ORD", dictionary.WithMessages(
		dictionary.NewMessage("Order", []*dictionary.FieldSchema{
			dictionary.NewSimple("price", scalar.Decimal, fastName("Px")),
			dictionary.NewSimple("tradeDate", scalar.Date, fastName("TradeDate")),
		}, dictionary.WithAttribute(dictionary.AttrTemplateID, scalar.Long, "7")),
	))
	c := NewCodec(d, reg, WithUnit(scalar.Day))

	in := message.New("Order", "ORD")
	set(t, in, "price", decimal.NewFromInt(1))
	in.Set("tradeDate", message.ScalarOf(scalar.OfDate(time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC))))
	_, gv, err := c.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if v, _ := gv.Value(5); v != int64(2) {
		t.Fatalf("expected day count 2, got %v", v)
	}
}
