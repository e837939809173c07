package fix

import (
	"cmp"
	"slices"
)

const (
	tierHeader = iota
	tierListed
	tierUnlisted
	tierTrailer
)

type rankedField struct {
	f    Field
	tier int
	rank int
}

// EnsureOrder sorts the children of c by c.Order and recurses into nested
// components and group entries. The nth field of a given name takes the
// position of the nth occurrence of that name in the order list. Fields
// the list does not place sort after the listed ones, by name. An unlisted
// header sorts first and an unlisted trailer last.
func (c *Component) EnsureOrder() {
	c.fields = sortFields(c.fields, c.Order)
	for _, f := range c.fields {
		switch f := f.(type) {
		case *Component:
			f.EnsureOrder()
		case *Group:
			for _, e := range f.Entries {
				e.EnsureOrder()
			}
		}
	}
}

func sortFields(fields []Field, order []string) []Field {
	positions := make(map[string][]int, len(order))
	for i, name := range order {
		positions[name] = append(positions[name], i)
	}
	seen := make(map[string]int, len(fields))
	ranked := make([]rankedField, len(fields))
	for i, f := range fields {
		name := f.Name()
		nth := seen[name]
		seen[name]++
		pos := positions[name]
		r := rankedField{f: f, tier: tierUnlisted}
		switch {
		case name == HeaderName && len(pos) == 0:
			r.tier = tierHeader
		case name == TrailerName && len(pos) == 0:
			r.tier = tierTrailer
		case nth < len(pos):
			r.tier, r.rank = tierListed, pos[nth]
		}
		ranked[i] = r
	}

	slices.SortStableFunc(ranked, func(a, b rankedField) int {
		if a.tier != b.tier {
			return cmp.Compare(a.tier, b.tier)
		}
		switch a.tier {
		case tierListed:
			return cmp.Compare(a.rank, b.rank)
		case tierUnlisted:
			return cmp.Compare(a.f.Name(), b.f.Name())
		}
		return 0
	})

	out := make([]Field, len(ranked))
	for i, r := range ranked {
		out[i] = r.f
	}
	return out
}
