package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danmuck/dictwire/internal/scalar"
)

var ErrInvalidJSON = errors.New("message: invalid json")

const (
	jsonTypeMessage = "message"
	jsonTypeList    = "list"
)

type jsonMessage struct {
	Name      string      `json:"name"`
	Namespace string      `json:"namespace,omitempty"`
	Fields    []jsonField `json:"fields"`
}

type jsonField struct {
	Name string `json:"name"`
	jsonValue
}

// jsonValue carries the scalar type name, "message" or "list" in Type.
type jsonValue struct {
	Type    string      `json:"type"`
	Value   *string     `json:"value,omitempty"`
	Message *Message    `json:"message,omitempty"`
	List    []jsonValue `json:"list,omitempty"`
}

// MarshalJSON keeps field order and scalar types.
func (m *Message) MarshalJSON() ([]byte, error) {
	out := jsonMessage{Name: m.Name, Namespace: m.Namespace, Fields: make([]jsonField, 0, len(m.names))}
	for _, n := range m.names {
		out.Fields = append(out.Fields, jsonField{Name: n, jsonValue: toJSON(m.values[n])})
	}
	return json.Marshal(out)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var in jsonMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	decoded := New(in.Name, in.Namespace)
	for _, f := range in.Fields {
		v, err := fromJSON(f.jsonValue)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
		decoded.Set(f.Name, v)
	}
	*m = *decoded
	return nil
}

func toJSON(v Value) jsonValue {
	switch v.kind {
	case KindMessage:
		return jsonValue{Type: jsonTypeMessage, Message: v.msg}
	case KindList:
		items := make([]jsonValue, 0, len(v.list))
		for _, item := range v.list {
			items = append(items, toJSON(item))
		}
		return jsonValue{Type: jsonTypeList, List: items}
	default:
		text := v.scalar.String()
		return jsonValue{Type: v.scalar.Type().String(), Value: &text}
	}
}

func fromJSON(j jsonValue) (Value, error) {
	switch j.Type {
	case jsonTypeMessage:
		if j.Message == nil {
			return Value{}, fmt.Errorf("%w: message value without body", ErrInvalidJSON)
		}
		return MessageOf(j.Message), nil
	case jsonTypeList:
		items := make([]Value, 0, len(j.List))
		for i, item := range j.List {
			v, err := fromJSON(item)
			if err != nil {
				return Value{}, fmt.Errorf("item %d: %w", i, err)
			}
			items = append(items, v)
		}
		return ListOf(items...)
	}
	typ, err := scalar.ParseType(j.Type)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if j.Value == nil {
		return Value{}, fmt.Errorf("%w: %s value missing", ErrInvalidJSON, typ)
	}
	s, err := scalar.Parse(typ, *j.Value)
	if err != nil {
		return Value{}, err
	}
	return ScalarOf(s), nil
}
