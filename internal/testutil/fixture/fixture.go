// Package fixture holds dictionary and template documents shared by tests.
package fixture

import (
	"os"
	"path/filepath"
	"testing"
)

// FIXDictionary describes a single order message for the textual codec.
const FIXDictionary = `<?xml version="1.0" encoding="UTF-8"?>
<dictionary name="FIX44">
  <attribute name="BeginString">FIX.4.4</attribute>
  <fields>
    <field id="F54" name="Side" type="char">
      <attribute name="tag" type="int">54</attribute>
      <value name="Buy">1</value>
      <value name="Sell">2</value>
    </field>
  </fields>
  <messages>
    <message id="M1" name="NewOrderSingle">
      <attribute name="MessageType">D</attribute>
      <field name="header">
        <field name="BeginString" type="string"><attribute name="tag" type="int">8</attribute></field>
        <field name="BodyLength" type="int"><attribute name="tag" type="int">9</attribute></field>
        <field name="MsgType" type="string"><attribute name="tag" type="int">35</attribute></field>
        <field name="SenderCompID" type="string"><attribute name="tag" type="int">49</attribute></field>
      </field>
      <field name="ClOrdID" type="string"><attribute name="tag" type="int">11</attribute></field>
      <field name="Side" reference="F54"/>
      <field name="Price" type="decimal"><attribute name="tag" type="int">44</attribute></field>
      <field name="Parties" isCollection="true">
        <attribute name="tag" type="int">453</attribute>
        <field name="PartyID" type="string"><attribute name="tag" type="int">448</attribute></field>
      </field>
      <field name="trailer">
        <field name="CheckSum" type="string"><attribute name="tag" type="int">10</attribute></field>
      </field>
    </message>
  </messages>
</dictionary>
`

// FASTDictionary describes a single order message for the binary codec,
// bound to template 7 of Templates.
const FASTDictionary = `<?xml version="1.0" encoding="UTF-8"?>
<dictionary name="ORD">
  <attribute name="dateTimeUnit">ms</attribute>
  <messages>
    <message id="M1" name="Order">
      <attribute name="templateId" type="long">7</attribute>
      <field name="price" type="decimal"><attribute name="fastName">Px</attribute></field>
      <field name="qty" type="long"><attribute name="fastName">Qty</attribute></field>
    </message>
  </messages>
</dictionary>
`

// FASTDictionaryV2 is FASTDictionary with qty retyped and a new field.
const FASTDictionaryV2 = `<?xml version="1.0" encoding="UTF-8"?>
<dictionary name="ORD2">
  <attribute name="dateTimeUnit">ms</attribute>
  <messages>
    <message id="M1" name="Order">
      <attribute name="templateId" type="long">7</attribute>
      <field name="price" type="decimal"><attribute name="fastName">Px</attribute></field>
      <field name="qty" type="int"><attribute name="fastName">Qty</attribute></field>
      <field name="note" type="string"/>
    </message>
  </messages>
</dictionary>
`

const Templates = `<templates>
  <template id="7" name="OrderTpl">
    <decimal name="Px"/>
    <int64 name="Qty" presence="optional"/>
  </template>
</templates>
`

// Write stores content as dir/name and returns the path.
func Write(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}
