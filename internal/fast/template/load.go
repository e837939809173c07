package template

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []xmlNode  `xml:",any"`
}

func (n xmlNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// LoadFile reads a template document from path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("template: open %s: %w", path, err)
	}
	defer f.Close()
	r, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Load parses a <templates> document. Each <template id name> lists its
// fields as elements named by wire type: int8, uInt8, int32, uInt32, int64,
// uInt64, decimal, string (charset="unicode" for unicode text), byteVector,
// group and sequence. A sequence may declare <length name="..."/> as its
// first child. presence="optional" marks optional fields.
func Load(r io.Reader) (*Registry, error) {
	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if root.XMLName.Local != "templates" {
		return nil, fmt.Errorf("%w: root element %q", ErrInvalidTemplate, root.XMLName.Local)
	}
	reg, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, n := range root.Nodes {
		if n.XMLName.Local != "template" {
			return nil, fmt.Errorf("%w: unexpected element %q", ErrInvalidTemplate, n.XMLName.Local)
		}
		id, err := strconv.ParseUint(n.attr("id"), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: template %q id: %v", ErrInvalidTemplate, n.attr("name"), err)
		}
		t := &Template{ID: uint32(id)}
		t.Name = n.attr("name")
		if t.Fields, err = fields(n.Nodes); err != nil {
			return nil, fmt.Errorf("template %q: %w", t.Name, err)
		}
		if err := reg.add(t); err != nil {
			return nil, err
		}
	}
	log.Debug().Msgf("template.Load templates=%d", len(reg.order))
	return reg, nil
}

func fields(nodes []xmlNode) ([]*Field, error) {
	out := make([]*Field, 0, len(nodes))
	for _, n := range nodes {
		f := &Field{Name: n.attr("name"), Optional: n.attr("presence") == "optional"}
		if f.Name == "" {
			return nil, fmt.Errorf("%w: unnamed %s field", ErrInvalidTemplate, n.XMLName.Local)
		}
		switch n.XMLName.Local {
		case "int8":
			f.Type = TypeInt8
		case "uInt8":
			f.Type = TypeUInt8
		case "int32":
			f.Type = TypeInt32
		case "uInt32":
			f.Type = TypeUInt32
		case "int64":
			f.Type = TypeInt64
		case "uInt64":
			f.Type = TypeUInt64
		case "decimal":
			f.Type = TypeDecimal
		case "string":
			f.Type = TypeASCII
			if n.attr("charset") == "unicode" {
				f.Type = TypeUnicode
			}
		case "byteVector":
			f.Type = TypeByteVector
		case "group", "sequence":
			f.Type = TypeGroup
			children := n.Nodes
			if n.XMLName.Local == "sequence" {
				f.Type = TypeSequence
				if len(children) > 0 && children[0].XMLName.Local == "length" {
					f.LengthName = children[0].attr("name")
					children = children[1:]
				}
			}
			nested, err := fields(children)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			f.Group = &Group{Name: f.Name, Fields: nested}
		default:
			return nil, fmt.Errorf("%w: %q on field %q", ErrUnknownWireType, n.XMLName.Local, f.Name)
		}
		out = append(out, f)
	}
	return out, nil
}
