// Package message holds the generic message value that dictionaries describe
// and codecs populate. A Message is not bound to a schema; Check verifies one
// against a schema on request.
package message

import (
	"fmt"
	"strings"
)

// Message is a named, namespaced set of fields kept in insertion order.
type Message struct {
	Name      string
	Namespace string

	names  []string
	values map[string]Value
}

func New(name, namespace string) *Message {
	return &Message{Name: name, Namespace: namespace, values: make(map[string]Value)}
}

// Set stores v under name. Overwriting keeps the original position.
func (m *Message) Set(name string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = v
}

// SetNative stores a Go value supported by scalar.Of.
func (m *Message) SetNative(name string, v any) error {
	val, err := Native(v)
	if err != nil {
		return fmt.Errorf("message: field %q: %w", name, err)
	}
	m.Set(name, val)
	return nil
}

func (m *Message) Get(name string) (Value, bool) {
	v, ok := m.values[name]
	return v, ok
}

func (m *Message) Has(name string) bool {
	_, ok := m.values[name]
	return ok
}

func (m *Message) Remove(name string) bool {
	if _, ok := m.values[name]; !ok {
		return false
	}
	delete(m.values, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i:i], m.names[i+1:]...)
			break
		}
	}
	return true
}

// Names lists field names in insertion order.
func (m *Message) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

func (m *Message) Len() int { return len(m.names) }

// Range calls fn for each field in order until fn returns false.
func (m *Message) Range(fn func(name string, v Value) bool) {
	for _, n := range m.names {
		if !fn(n, m.values[n]) {
			return
		}
	}
}

func (m *Message) String() string {
	if m == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteString("{")
	for i, n := range m.names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(n)
		b.WriteString(": ")
		b.WriteString(m.values[n].String())
	}
	b.WriteString("}")
	return b.String()
}

// Equal reports whether a and b carry the same name, namespace and fields in
// the same order with typed-equal values.
func Equal(a, b *Message) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || a.Namespace != b.Namespace || len(a.names) != len(b.names) {
		return false
	}
	for i, n := range a.names {
		if b.names[i] != n {
			return false
		}
		if !a.values[n].Equal(b.values[n]) {
			return false
		}
	}
	return true
}
