package xmldict

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/scalar"
)

// idGenerator hands out element ids for a single Save call.
type idGenerator struct {
	next int
}

func (g *idGenerator) id(prefix string) string {
	g.next++
	return fmt.Sprintf("%s%d", prefix, g.next)
}

// SaveFile writes d to path, replacing any existing file.
func SaveFile(path string, d *dictionary.Dictionary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("xmldict: create %s: %w", path, err)
	}
	if err := Save(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Save encodes d as an indented document that Load accepts. Fields built
// from a reference are written as references to the referenced top-level
// element.
func Save(w io.Writer, d *dictionary.Dictionary) error {
	s := saver{ns: d.Namespace(), ids: make(map[string]string)}
	var gen idGenerator

	doc := xmlDictionary{Name: d.Namespace(), Description: d.Description()}
	doc.Attributes = attributes(d.Attributes())

	topFields := make([]string, 0, len(d.Fields()))
	for _, f := range d.Fields() {
		id := gen.id("F")
		topFields = append(topFields, id)
		if _, ok := s.ids[f.Name()]; !ok {
			s.ids[f.Name()] = id
		}
	}
	topMessages := make([]string, 0, len(d.Messages()))
	for _, m := range d.Messages() {
		id := gen.id("M")
		topMessages = append(topMessages, id)
		if _, ok := s.ids[m.Name()]; !ok {
			s.ids[m.Name()] = id
		}
	}

	for i, f := range d.Fields() {
		x := s.field(f)
		x.ID = topFields[i]
		doc.Fields = append(doc.Fields, x)
	}
	for i, m := range d.Messages() {
		x := s.field(m)
		x.ID = topMessages[i]
		doc.Messages = append(doc.Messages, x)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("xmldict: write: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("xmldict: encode %s: %w", d.Namespace(), err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("xmldict: write: %w", err)
	}
	return nil
}

type saver struct {
	ns  string
	ids map[string]string
}

func (s saver) field(f *dictionary.FieldSchema) xmlField {
	x := xmlField{
		Name:          f.Name(),
		Description:   f.Description(),
		IsCollection:  f.IsCollection(),
		IsRequired:    f.IsRequired(),
		IsServiceName: f.IsServiceName(),
		Attributes:    attributes(f.Attributes()),
	}
	if f.Namespace() != s.ns {
		x.Namespace = f.Namespace()
	}
	if def, ok := f.Default(); ok {
		raw := def.Raw()
		x.DefaultValue = &raw
	}
	if id, ok := s.ids[f.Reference()]; ok && f.Reference() != "" {
		x.Reference = id
		return x
	}

	if !f.IsComplex() {
		x.Type = f.Type().String()
	}
	if values, ok := f.Values(); ok {
		for _, v := range values {
			x.Values = append(x.Values, xmlValue{Name: v.Name(), Value: v.Raw()})
		}
	}
	if children, ok := f.Fields(); ok {
		for _, c := range children {
			x.Fields = append(x.Fields, s.field(c))
		}
	}
	return x
}

func attributes(list []*dictionary.Attribute) []xmlAttribute {
	out := make([]xmlAttribute, 0, len(list))
	for _, a := range list {
		x := xmlAttribute{Name: a.Name(), Value: a.Raw()}
		if a.Type() != scalar.String && a.Type().Valid() {
			x.Type = a.Type().String()
		}
		out = append(out, x)
	}
	return out
}
