package xmldict

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/dictionary/diff"
	"github.com/danmuck/dictwire/internal/scalar"
	"github.com/danmuck/dictwire/internal/testutil/testlog"
)

const orderDoc = `<?xml version="1.0" encoding="UTF-8"?>
<dictionary name="ORD">
  <description>order flow</description>
  <attribute name="dateTimeUnit">ms</attribute>
  <fields>
    <field id="F1" name="Side" type="char">
      <description>order side</description>
      <value name="Buy">1</value>
      <value name="Sell">2</value>
    </field>
    <field id="F2" name="Party">
      <field name="id" type="string"/>
      <field name="role" type="int" defaultvalue="3"/>
    </field>
  </fields>
  <messages>
    <message id="M1" name="Order">
      <attribute name="templateId" type="long">7</attribute>
      <field name="price" type="decimal" isRequired="true" defaultvalue="0">
        <attribute name="fastName">Px</attribute>
      </field>
      <field name="side" reference="F1"/>
      <field name="parties" reference="F2" isCollection="true"/>
      <field name="sentAt" type="datetime"/>
    </message>
    <message id="M2" name="Reply" reference="M1">
      <attribute name="templateId" type="long">8</attribute>
    </message>
  </messages>
</dictionary>
`

func TestLoadResolvesReferences(t *testing.T) {
	testlog.Start(t)
	d, err := Load(strings.NewReader(orderDoc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Namespace() != "ORD" || d.Description() != "order flow" {
		t.Fatalf("unexpected dictionary identity %q %q", d.Namespace(), d.Description())
	}
	order, ok := d.Message("Order")
	if !ok {
		t.Fatalf("missing Order")
	}
	side, ok := order.Field("side")
	if !ok || !side.IsEnum() || side.Reference() != "Side" || side.Type() != scalar.Char {
		t.Fatalf("unexpected side schema: %v", side)
	}
	if v, ok := side.Value("Sell"); !ok || v.Raw() != "2" {
		t.Fatalf("side values not inherited")
	}
	parties, _ := order.Field("parties")
	if !parties.IsComplex() || !parties.IsCollection() || len(parties.FieldNames()) != 2 {
		t.Fatalf("unexpected parties schema: %v", parties)
	}
	price, _ := order.Field("price")
	if a, ok := price.Attribute(dictionary.AttrFastName); !ok || a.Raw() != "Px" {
		t.Fatalf("fastName not loaded")
	}
	reply, _ := d.Message("Reply")
	if tid, _ := reply.Attribute(dictionary.AttrTemplateID); tid.Raw() != "8" {
		t.Fatalf("own attribute must override the referenced one, got %s", tid.Raw())
	}
	if got := reply.FieldNames(); len(got) != 4 {
		t.Fatalf("reply must inherit Order fields, got %v", got)
	}
	if !reply.IsMessage() {
		t.Fatalf("reply must be a message")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	testlog.Start(t)
	d, err := Load(strings.NewReader(orderDoc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	path := filepath.Join(t.TempDir(), "order.xml")
	if err := SaveFile(path, d); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := LoadFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	l, got := diff.Collect()
	diff.Compare(l, d, again, diff.Options{DeepCheck: true, CompareFieldOrder: true})
	if len(*got) != 0 {
		t.Fatalf("round trip changed the dictionary: %v", *got)
	}
	side, _ := again.Field("Side")
	if side.Description() != "order side" {
		t.Fatalf("description lost: %q", side.Description())
	}
}

func TestSaveProgrammaticDictionary(t *testing.T) {
	testlog.Start(t)
	side := dictionary.NewEnum("Side", scalar.Char, []*dictionary.Attribute{dictionary.EnumValue("Buy", "1")})
	d := dictionary.New("P",
		dictionary.WithDictionaryAttribute(dictionary.AttrDateTimeUnit, scalar.String, "us"),
		dictionary.WithFields(side),
		dictionary.WithMessages(dictionary.NewMessage("M", []*dictionary.FieldSchema{
			dictionary.Derive(side, "side", dictionary.WithRequired()),
			dictionary.NewComplex("empty", nil),
			dictionary.NewSimple("note", scalar.String, dictionary.WithDefault(""), dictionary.WithNamespace("other")),
		})),
	)
	var buf bytes.Buffer
	if err := Save(&buf, d); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := Load(&buf)
	if err != nil {
		t.Fatalf("reload: %v\n%s", err, buf.String())
	}
	l, got := diff.Collect()
	diff.Compare(l, d, again, diff.Options{DeepCheck: true, CompareFieldOrder: true})
	if len(*got) != 0 {
		t.Fatalf("round trip changed the dictionary: %v", *got)
	}
	m, _ := again.Message("M")
	note, _ := m.Field("note")
	if note.Namespace() != "other" {
		t.Fatalf("explicit namespace lost: %q", note.Namespace())
	}
	if def, ok := note.Default(); !ok || def.Raw() != "" {
		t.Fatalf("empty default lost")
	}
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"xsd": `<dictionary name="X"><bogus/></dictionary>`,
		"reference": `<dictionary name="X"><messages>
			<message name="M"><field name="a" reference="nope"/></message>
		</messages></dictionary>`,
		"type": `<dictionary name="X"><messages>
			<message name="M"><field name="a" type="widget"/></message>
		</messages></dictionary>`,
		"mixed": `<dictionary name="X"><messages>
			<message name="M"><field name="a" type="int"><value name="v">1</value><field name="b" type="int"/></field></message>
		</messages></dictionary>`,
		"cycle": `<dictionary name="X"><fields>
			<field id="A" name="a" reference="B"/>
			<field id="B" name="b" reference="A"/>
		</fields></dictionary>`,
		"duplicate id": `<dictionary name="X"><fields>
			<field id="A" name="a" type="int"/>
			<field id="A" name="b" type="int"/>
		</fields></dictionary>`,
	}
	for name, doc := range cases {
		_, err := Load(strings.NewReader(doc))
		if !errors.Is(err, ErrInvalidDocument) {
			t.Fatalf("%s: expected ErrInvalidDocument, got %v", name, err)
		}
	}
}

func TestLoadKeepsDuplicateSiblings(t *testing.T) {
	testlog.Start(t)
	doc := `<dictionary name="X"><messages>
		<message name="M"><field name="a" type="int"/><field name="a" type="int"/></message>
	</messages></dictionary>`
	d, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m, _ := d.Message("M")
	if got := m.FieldNames(); len(got) != 2 {
		t.Fatalf("duplicate siblings must survive loading, got %v", got)
	}
}
