// Package xmldict loads and saves dictionaries as XML documents. Documents
// are validated against an embedded XSD before they are decoded.
package xmldict

import (
	"bytes"
	"embed"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jacoelho/xsd"
	xsderrors "github.com/jacoelho/xsd/errors"
)

//go:embed dictionary.xsd
var schemaFS embed.FS

var ErrInvalidDocument = errors.New("xmldict: invalid document")

type xmlDictionary struct {
	XMLName     xml.Name       `xml:"dictionary"`
	Name        string         `xml:"name,attr"`
	Description string         `xml:"description,omitempty"`
	Attributes  []xmlAttribute `xml:"attribute"`
	Fields      []xmlField     `xml:"fields>field"`
	Messages    []xmlField     `xml:"messages>message"`
}

type xmlAttribute struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr,omitempty"`
	Value string `xml:",chardata"`
}

type xmlValue struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlField struct {
	ID            string  `xml:"id,attr,omitempty"`
	Name          string  `xml:"name,attr"`
	Type          string  `xml:"type,attr,omitempty"`
	Reference     string  `xml:"reference,attr,omitempty"`
	Namespace     string  `xml:"namespace,attr,omitempty"`
	DefaultValue  *string `xml:"defaultvalue,attr,omitempty"`
	IsCollection  bool    `xml:"isCollection,attr,omitempty"`
	IsRequired    bool    `xml:"isRequired,attr,omitempty"`
	IsServiceName bool    `xml:"isServiceName,attr,omitempty"`

	Description string         `xml:"description,omitempty"`
	Attributes  []xmlAttribute `xml:"attribute"`
	Values      []xmlValue     `xml:"value"`
	Fields      []xmlField     `xml:"field"`
}

var documentSchema = sync.OnceValues(func() (*xsd.Schema, error) {
	return xsd.Load(schemaFS, "dictionary.xsd")
})

// validateDocument checks raw against the embedded dictionary XSD.
func validateDocument(raw []byte) error {
	schema, err := documentSchema()
	if err != nil {
		return fmt.Errorf("xmldict: compile document schema: %w", err)
	}
	err = schema.Validate(bytes.NewReader(raw))
	if err == nil {
		return nil
	}
	violations, ok := xsderrors.AsValidations(err)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	msgs := make([]string, 0, len(violations))
	for _, v := range violations {
		msgs = append(msgs, v.Error())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}
