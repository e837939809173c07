package diff

import (
	"testing"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/scalar"
	"github.com/danmuck/dictwire/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

func baseDictionary() *dictionary.Dictionary {
	side := dictionary.NewEnum("Side", scalar.Char, []*dictionary.Attribute{
		dictionary.EnumValue("Buy", "1"),
		dictionary.EnumValue("Sell", "2"),
	})
	return dictionary.New("A",
		dictionary.WithDictionaryDescription("base"),
		dictionary.WithFields(side),
		dictionary.WithMessages(
			dictionary.NewMessage("Order", []*dictionary.FieldSchema{
				dictionary.NewSimple("price", scalar.Decimal, dictionary.WithDefault("1.0")),
				dictionary.NewSimple("qty", scalar.Long, dictionary.WithRequired()),
				dictionary.Derive(side, "side"),
				dictionary.NewComplex("party", []*dictionary.FieldSchema{
					dictionary.NewSimple("id", scalar.String),
					dictionary.NewSimple("role", scalar.Int),
				}),
			}, dictionary.WithAttribute(dictionary.AttrTemplateID, scalar.Long, "1")),
			dictionary.NewMessage("Cancel", []*dictionary.FieldSchema{
				dictionary.NewSimple("id", scalar.String),
			}),
		),
	)
}

func TestCompareSameDictionaryIsEmpty(t *testing.T) {
	testlog.Start(t)
	for _, opts := range []Options{
		{DeepCheck: true},
		{DeepCheck: true, CompareFieldOrder: true},
		{DeepCheck: true, CheckByFirst: true, TypedCheck: true},
		{DeepCheck: true, CompareFieldOrder: true, CheckByFirst: true},
	} {
		l, got := Collect()
		d := baseDictionary()
		Compare(l, d, d, opts)
		if len(*got) != 0 {
			t.Fatalf("opts %+v: expected no distinctions, got %v", opts, *got)
		}
	}
}

func TestCompareShallowReportsExistenceOnly(t *testing.T) {
	testlog.Start(t)
	a := baseDictionary()
	b := dictionary.New("B",
		dictionary.WithDictionaryDescription("other"),
		dictionary.WithMessages(
			dictionary.NewMessage("Order", []*dictionary.FieldSchema{
				dictionary.NewSimple("price", scalar.Double),
			}),
			dictionary.NewMessage("Trade", nil),
		),
	)
	l, got := Collect()
	Compare(l, a, b, Options{})
	want := []Distinction{
		{Path: Path{"A", "Cancel"}, Kind: KindExisting, A: "Cancel", B: nil},
		{Path: Path{"A", "Trade"}, Kind: KindExisting, A: nil, B: "Trade"},
		{Path: Path{"A", "fields", "Side"}, Kind: KindExisting, A: "Side", B: nil},
	}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Fatalf("unexpected distinctions (-want +got):\n%s", diff)
	}

	l, got = Collect()
	Compare(l, a, b, Options{CheckByFirst: true})
	for _, d := range *got {
		if d.Kind != KindExisting || d.B != nil {
			t.Fatalf("check-by-first must only report names missing from b, got %v", d)
		}
	}
	if len(*got) != 2 {
		t.Fatalf("expected 2 distinctions, got %v", *got)
	}
}

func TestCompareDeepReportsEachKind(t *testing.T) {
	testlog.Start(t)
	a := baseDictionary()
	side := dictionary.NewEnum("Side", scalar.Char, []*dictionary.Attribute{
		dictionary.EnumValue("Buy", "1"),
		dictionary.EnumValue("Sell", "3"),
	})
	b := dictionary.New("A",
		dictionary.WithDictionaryDescription("base"),
		dictionary.WithFields(side),
		dictionary.WithMessages(
			dictionary.NewMessage("Order", []*dictionary.FieldSchema{
				dictionary.NewSimple("price", scalar.Double, dictionary.WithDefault("2.0")),
				dictionary.NewSimple("qty", scalar.Long, dictionary.WithCollection()),
				dictionary.Derive(side, "side"),
				dictionary.NewComplex("party", []*dictionary.FieldSchema{
					dictionary.NewSimple("id", scalar.String),
				}),
			}, dictionary.WithAttribute(dictionary.AttrTemplateID, scalar.Long, "2")),
			dictionary.NewMessage("Cancel", []*dictionary.FieldSchema{
				dictionary.NewSimple("id", scalar.String),
			}),
		),
	)
	l, got := Collect()
	Compare(l, a, b, Options{DeepCheck: true})
	kinds := map[string]Kind{}
	for _, d := range *got {
		kinds[d.Path.String()+"/"+d.Kind.String()] = d.Kind
	}
	for _, key := range []string{
		"A -> Order -> templateId/AttributeValue",
		"A -> Order -> price/DefaultValue",
		"A -> Order -> price/ValueType",
		"A -> Order -> qty/IsCollection",
		"A -> Order -> qty/IsRequired",
		"A -> Order -> side -> Sell/EnumValue",
		"A -> Order -> party -> role/Existing",
		"A -> fields -> Side -> Sell/EnumValue",
	} {
		if _, ok := kinds[key]; !ok {
			t.Fatalf("missing distinction %s in %v", key, *got)
		}
	}
	if len(*got) != 8 {
		t.Fatalf("expected 8 distinctions, got %d: %v", len(*got), *got)
	}
}

func TestCompareTypedDefaultValues(t *testing.T) {
	testlog.Start(t)
	mk := func(def string) *dictionary.Dictionary {
		return dictionary.New("T", dictionary.WithMessages(dictionary.NewMessage("M", []*dictionary.FieldSchema{
			dictionary.NewSimple("px", scalar.Decimal, dictionary.WithDefault(def)),
		})))
	}
	l, got := Collect()
	Compare(l, mk("1.50"), mk("1.5"), Options{DeepCheck: true})
	if len(*got) != 1 || (*got)[0].Kind != KindDefaultValue {
		t.Fatalf("raw compare must differ, got %v", *got)
	}
	l, got = Collect()
	Compare(l, mk("1.50"), mk("1.5"), Options{DeepCheck: true, TypedCheck: true})
	if len(*got) != 0 {
		t.Fatalf("typed compare must match, got %v", *got)
	}
}

func TestCompareFieldOrder(t *testing.T) {
	testlog.Start(t)
	mk := func(names ...string) *dictionary.Dictionary {
		children := make([]*dictionary.FieldSchema, 0, len(names))
		for _, n := range names {
			children = append(children, dictionary.NewSimple(n, scalar.String))
		}
		return dictionary.New("O", dictionary.WithMessages(dictionary.NewMessage("M", children)))
	}
	l, got := Collect()
	Compare(l, mk("a", "b", "c"), mk("b", "a", "c"), Options{DeepCheck: true, CompareFieldOrder: true})
	want := []Distinction{
		{Path: Path{"O", "M", "a"}, Kind: KindFieldOrder, A: "a", B: "b"},
		{Path: Path{"O", "M", "b"}, Kind: KindFieldOrder, A: "b", B: "a"},
	}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Fatalf("unexpected order distinctions (-want +got):\n%s", diff)
	}

	l, got = Collect()
	Compare(l, mk("a", "b"), mk("a", "b", "c"), Options{DeepCheck: true, CompareFieldOrder: true})
	if len(*got) != 1 || (*got)[0].Kind != KindExisting {
		t.Fatalf("appended field must only report existence, got %v", *got)
	}
}

func TestCompareFieldsIsFieldScoped(t *testing.T) {
	testlog.Start(t)
	a := dictionary.NewComplex("party", []*dictionary.FieldSchema{dictionary.NewSimple("id", scalar.String)})
	b := dictionary.NewComplex("party", nil, dictionary.WithDescription("changed"))
	l, got := Collect()
	CompareFields(l, a, b, Options{DeepCheck: true})
	if len(*got) != 1 || (*got)[0].Kind != KindDescription {
		t.Fatalf("expected description only, got %v", *got)
	}
}

func TestCompareToleratesMixedKinds(t *testing.T) {
	testlog.Start(t)
	a := dictionary.NewSimple("x", scalar.Int)
	b := dictionary.NewComplex("x", []*dictionary.FieldSchema{dictionary.NewSimple("y", scalar.Int)})
	l, got := Collect()
	c := comparer{l: l, opts: Options{DeepCheck: true}}
	c.node(Path{"x"}, a, b, false)
	kinds := make([]Kind, 0, len(*got))
	for _, d := range *got {
		kinds = append(kinds, d.Kind)
	}
	want := []Kind{KindValueType, KindIsComplex, KindExisting}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("unexpected kinds (-want +got):\n%s", diff)
	}
}
