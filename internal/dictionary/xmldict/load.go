package xmldict

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/scalar"
	"github.com/rs/zerolog/log"
)

// LoadFile reads and decodes the dictionary document at path.
func LoadFile(path string) (*dictionary.Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("xmldict: open %s: %w", path, err)
	}
	defer f.Close()
	d, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Load validates and decodes a dictionary document. References are resolved
// against the ids of top-level fields and messages, in any declaration order.
func Load(r io.Reader) (*dictionary.Dictionary, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("xmldict: read: %w", err)
	}
	if err := validateDocument(raw); err != nil {
		return nil, err
	}
	var doc xmlDictionary
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	a, err := newArena(&doc)
	if err != nil {
		return nil, err
	}
	opts := []dictionary.DictionaryOption{dictionary.WithDictionaryDescription(doc.Description)}
	for _, x := range doc.Attributes {
		typ, err := attributeType(x.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: dictionary attribute %q: %v", ErrInvalidDocument, x.Name, err)
		}
		opts = append(opts, dictionary.WithDictionaryAttribute(x.Name, typ, x.Value))
	}
	for i := range doc.Fields {
		f, err := a.top(&doc.Fields[i], false)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dictionary.WithFields(f))
	}
	for i := range doc.Messages {
		m, err := a.top(&doc.Messages[i], true)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dictionary.WithMessages(m))
	}

	d := dictionary.New(doc.Name, opts...)
	log.Debug().Msgf("xmldict.Load ns=%s messages=%d fields=%d", d.Namespace(), len(d.Messages()), len(d.Fields()))
	return d, nil
}

type entry struct {
	x       *xmlField
	message bool
}

// arena builds top-level schemas on demand so a reference may point at an
// element declared later in the document.
type arena struct {
	byID     map[string]entry
	built    map[*xmlField]*dictionary.FieldSchema
	visiting map[*xmlField]bool
}

func newArena(doc *xmlDictionary) (*arena, error) {
	a := &arena{
		byID:     make(map[string]entry),
		built:    make(map[*xmlField]*dictionary.FieldSchema),
		visiting: make(map[*xmlField]bool),
	}
	add := func(list []xmlField, message bool) error {
		for i := range list {
			x := &list[i]
			if x.ID == "" {
				continue
			}
			if _, dup := a.byID[x.ID]; dup {
				return fmt.Errorf("%w: duplicate id %q", ErrInvalidDocument, x.ID)
			}
			a.byID[x.ID] = entry{x: x, message: message}
		}
		return nil
	}
	if err := add(doc.Fields, false); err != nil {
		return nil, err
	}
	if err := add(doc.Messages, true); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *arena) top(x *xmlField, message bool) (*dictionary.FieldSchema, error) {
	if f, ok := a.built[x]; ok {
		return f, nil
	}
	if a.visiting[x] {
		return nil, fmt.Errorf("%w: %q references itself", ErrInvalidDocument, x.Name)
	}
	a.visiting[x] = true
	defer delete(a.visiting, x)

	f, err := a.field(x, message)
	if err != nil {
		return nil, err
	}
	a.built[x] = f
	return f, nil
}

func (a *arena) resolve(id string) (*dictionary.FieldSchema, error) {
	e, ok := a.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: unresolved reference %q", ErrInvalidDocument, id)
	}
	return a.top(e.x, e.message)
}

func (a *arena) field(x *xmlField, message bool) (*dictionary.FieldSchema, error) {
	opts, err := options(x)
	if err != nil {
		return nil, err
	}

	if x.Reference != "" {
		if len(x.Values) > 0 || len(x.Fields) > 0 || x.Type != "" {
			return nil, fmt.Errorf("%w: %q references %q and declares its own type or members",
				ErrInvalidDocument, x.Name, x.Reference)
		}
		base, err := a.resolve(x.Reference)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", x.Name, err)
		}
		return dictionary.Derive(base, x.Name, opts...), nil
	}

	if len(x.Values) > 0 && len(x.Fields) > 0 {
		return nil, fmt.Errorf("%w: %q has both values and fields", ErrInvalidDocument, x.Name)
	}
	if message && (x.Type != "" || len(x.Values) > 0) {
		return nil, fmt.Errorf("%w: message %q must be complex", ErrInvalidDocument, x.Name)
	}

	if len(x.Fields) > 0 || x.Type == "" {
		children := make([]*dictionary.FieldSchema, 0, len(x.Fields))
		for i := range x.Fields {
			c, err := a.field(&x.Fields[i], false)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		if x.Type != "" {
			return nil, fmt.Errorf("%w: complex field %q declares type %q", ErrInvalidDocument, x.Name, x.Type)
		}
		if message {
			return dictionary.NewMessage(x.Name, children, opts...), nil
		}
		return dictionary.NewComplex(x.Name, children, opts...), nil
	}

	typ, err := scalar.ParseType(x.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidDocument, x.Name, err)
	}
	if len(x.Values) > 0 {
		values := make([]*dictionary.Attribute, 0, len(x.Values))
		for _, v := range x.Values {
			values = append(values, dictionary.EnumValue(v.Name, v.Value))
		}
		return dictionary.NewEnum(x.Name, typ, values, opts...), nil
	}
	return dictionary.NewSimple(x.Name, typ, opts...), nil
}

func options(x *xmlField) ([]dictionary.Option, error) {
	var opts []dictionary.Option
	if x.Description != "" {
		opts = append(opts, dictionary.WithDescription(x.Description))
	}
	if x.Namespace != "" {
		opts = append(opts, dictionary.WithNamespace(x.Namespace))
	}
	if x.IsRequired {
		opts = append(opts, dictionary.WithRequired())
	}
	if x.IsCollection {
		opts = append(opts, dictionary.WithCollection())
	}
	if x.IsServiceName {
		opts = append(opts, dictionary.WithServiceName())
	}
	if x.DefaultValue != nil {
		opts = append(opts, dictionary.WithDefault(*x.DefaultValue))
	}
	for _, attr := range x.Attributes {
		typ, err := attributeType(attr.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %q attribute %q: %v", ErrInvalidDocument, x.Name, attr.Name, err)
		}
		opts = append(opts, dictionary.WithAttribute(attr.Name, typ, attr.Value))
	}
	return opts, nil
}

// attributeType defaults an undeclared attribute type to string.
func attributeType(name string) (scalar.Type, error) {
	if name == "" {
		return scalar.String, nil
	}
	return scalar.ParseType(name)
}
