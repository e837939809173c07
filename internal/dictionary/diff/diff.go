// Package diff compares two dictionaries structurally and streams every
// difference it finds to a listener.
package diff

import (
	"fmt"
	"strings"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/rs/zerolog/log"
)

// Kind classifies a distinction.
type Kind uint8

const (
	KindExisting Kind = iota
	KindNamespace
	KindDescription
	KindDefaultValue
	KindValueType
	KindIsCollection
	KindIsRequired
	KindIsServiceName
	KindIsComplex
	KindIsEnum
	KindAttributeValue
	KindEnumValue
	KindFieldOrder
)

var kindNames = [...]string{
	KindExisting:       "Existing",
	KindNamespace:      "Namespace",
	KindDescription:    "Description",
	KindDefaultValue:   "DefaultValue",
	KindValueType:      "ValueType",
	KindIsCollection:   "IsCollection",
	KindIsRequired:     "IsRequired",
	KindIsServiceName:  "IsServiceName",
	KindIsComplex:      "IsComplex",
	KindIsEnum:         "IsEnum",
	KindAttributeValue: "AttributeValue",
	KindEnumValue:      "EnumValue",
	KindFieldOrder:     "FieldOrder",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Path locates a distinction: dictionary, message, field chain, then the
// attribute or value name.
type Path []string

func (p Path) String() string { return strings.Join(p, " -> ") }

func (p Path) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p Path) with(seg string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Listener receives distinctions as they are found. a and b may be nil when
// one side is absent.
type Listener func(path Path, kind Kind, a, b any)

// Distinction is a collected listener call.
type Distinction struct {
	Path Path `json:"path"`
	Kind Kind `json:"kind"`
	A    any  `json:"a"`
	B    any  `json:"b"`
}

func (d Distinction) String() string {
	return fmt.Sprintf("%s [%s] %v != %v", d.Path, d.Kind, d.A, d.B)
}

// Collect returns a listener that appends to the returned slice.
func Collect() (Listener, *[]Distinction) {
	out := &[]Distinction{}
	return func(path Path, kind Kind, a, b any) {
		*out = append(*out, Distinction{Path: path, Kind: kind, A: a, B: b})
	}, out
}

// Options selects what Compare looks at.
type Options struct {
	// CompareFieldOrder reports children declared at different positions.
	CompareFieldOrder bool
	// CheckByFirst only considers names present in the first dictionary.
	CheckByFirst bool
	// DeepCheck compares schema contents; without it only presence is compared.
	DeepCheck bool
	// TypedCheck compares default and enum values after casting them to their
	// declared type instead of as raw strings.
	TypedCheck bool
}

// Compare streams the distinctions between a and b to l.
func Compare(l Listener, a, b *dictionary.Dictionary, opts Options) {
	log.Debug().Msgf("diff.Compare a=%s b=%s deep=%t order=%t by_first=%t",
		a.Namespace(), b.Namespace(), opts.DeepCheck, opts.CompareFieldOrder, opts.CheckByFirst)

	root := Path{a.Namespace()}
	// A shallow diff reports presence only.
	if opts.DeepCheck {
		if a.Namespace() != b.Namespace() {
			l(root, KindNamespace, a.Namespace(), b.Namespace())
		}
		if a.Description() != b.Description() {
			l(root, KindDescription, a.Description(), b.Description())
		}
	}

	c := comparer{l: l, opts: opts}
	for _, name := range candidates(a.MessageNames(), b.MessageNames(), opts.CheckByFirst) {
		ma, _ := a.Message(name)
		mb, _ := b.Message(name)
		c.node(root.with(name), ma, mb, false)
	}
	fieldsRoot := root.with("fields")
	for _, name := range candidates(a.FieldNames(), b.FieldNames(), opts.CheckByFirst) {
		fa, _ := a.Field(name)
		fb, _ := b.Field(name)
		c.node(fieldsRoot.with(name), fa, fb, false)
	}
}

// CompareFields compares two schemas without recursing into their children.
func CompareFields(l Listener, a, b *dictionary.FieldSchema, opts Options) {
	name := ""
	switch {
	case a != nil:
		name = a.Name()
	case b != nil:
		name = b.Name()
	}
	c := comparer{l: l, opts: opts}
	c.node(Path{name}, a, b, true)
}

type comparer struct {
	l    Listener
	opts Options
}

func (c comparer) node(path Path, a, b *dictionary.FieldSchema, fieldScoped bool) {
	if a == nil || b == nil {
		c.l(path, KindExisting, nameOrNil(a), nameOrNil(b))
		return
	}
	if !c.opts.DeepCheck {
		return
	}

	if a.Description() != b.Description() {
		c.l(path, KindDescription, a.Description(), b.Description())
	}
	c.defaults(path, a, b)
	if a.Type() != b.Type() {
		c.l(path, KindValueType, a.Type(), b.Type())
	}
	if a.IsCollection() != b.IsCollection() {
		c.l(path, KindIsCollection, a.IsCollection(), b.IsCollection())
	}
	if a.IsRequired() != b.IsRequired() {
		c.l(path, KindIsRequired, a.IsRequired(), b.IsRequired())
	}
	if a.IsServiceName() != b.IsServiceName() {
		c.l(path, KindIsServiceName, a.IsServiceName(), b.IsServiceName())
	}
	if a.IsComplex() != b.IsComplex() {
		c.l(path, KindIsComplex, a.IsComplex(), b.IsComplex())
	}
	if a.IsEnum() != b.IsEnum() {
		c.l(path, KindIsEnum, a.IsEnum(), b.IsEnum())
	}

	c.attributes(path, KindAttributeValue, a.Attributes(), b.Attributes(), false)
	va, _ := a.Values()
	vb, _ := b.Values()
	c.attributes(path, KindEnumValue, va, vb, c.opts.TypedCheck)

	if fieldScoped {
		return
	}
	c.children(path, a, b)
}

func (c comparer) defaults(path Path, a, b *dictionary.FieldSchema) {
	da, okA := a.Default()
	db, okB := b.Default()
	switch {
	case !okA && !okB:
		return
	case !okA || !okB:
		c.l(path, KindDefaultValue, rawOrNil(da, okA), rawOrNil(db, okB))
	case !sameValue(da, db, c.opts.TypedCheck):
		c.l(path, KindDefaultValue, da.Raw(), db.Raw())
	}
}

func (c comparer) attributes(path Path, kind Kind, a, b []*dictionary.Attribute, typed bool) {
	for _, name := range candidates(attrNames(a), attrNames(b), c.opts.CheckByFirst) {
		aa, okA := findAttr(a, name)
		ab, okB := findAttr(b, name)
		switch {
		case !okA || !okB:
			c.l(path.with(name), kind, rawOrNil(aa, okA), rawOrNil(ab, okB))
		case !sameValue(aa, ab, typed):
			c.l(path.with(name), kind, aa.Raw(), ab.Raw())
		}
	}
}

func (c comparer) children(path Path, a, b *dictionary.FieldSchema) {
	ca, _ := a.Fields()
	cb, _ := b.Fields()
	namesA := fieldNames(ca)
	namesB := fieldNames(cb)
	for _, name := range candidates(namesA, namesB, c.opts.CheckByFirst) {
		fa, _ := a.Field(name)
		fb, _ := b.Field(name)
		c.node(path.with(name), fa, fb, false)

		if !c.opts.CompareFieldOrder {
			continue
		}
		posA := indexOf(namesA, name)
		posB := indexOf(namesB, name)
		if posA < 0 {
			posA = posB
		}
		if posB < 0 {
			posB = posA
		}
		if posA != posB {
			c.l(path.with(name), KindFieldOrder, nameAt(namesA, posA), nameAt(namesB, posA))
		}
	}
}

func sameValue(a, b *dictionary.Attribute, typed bool) bool {
	if typed {
		va, errA := a.Value()
		vb, errB := b.Value()
		if errA == nil && errB == nil {
			return va.Equal(vb)
		}
	}
	return a.Raw() == b.Raw()
}

// candidates lists names of a, then names only in b unless byFirst is set.
func candidates(a, b []string, byFirst bool) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	add := func(names []string) {
		for _, n := range names {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	add(a)
	if !byFirst {
		add(b)
	}
	return out
}

func fieldNames(list []*dictionary.FieldSchema) []string {
	out := make([]string, 0, len(list))
	for _, f := range list {
		out = append(out, f.Name())
	}
	return out
}

func attrNames(list []*dictionary.Attribute) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Name())
	}
	return out
}

func findAttr(list []*dictionary.Attribute, name string) (*dictionary.Attribute, bool) {
	for _, a := range list {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func nameAt(names []string, i int) any {
	if i < 0 || i >= len(names) {
		return nil
	}
	return names[i]
}

func nameOrNil(f *dictionary.FieldSchema) any {
	if f == nil {
		return nil
	}
	return f.Name()
}

func rawOrNil(a *dictionary.Attribute, ok bool) any {
	if !ok {
		return nil
	}
	return a.Raw()
}
