package token

import (
	"encoding/json"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Payload is an ordered set of claims carried by a Token.
//
// A Payload is a value: With returns a modified copy and never touches the
// receiver, so a Payload handed to a Token cannot be changed afterwards.
// Values are stored as given; callers must not mutate reference values
// (maps, slices) after adding them.
type Payload struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewPayload returns an empty Payload.
func NewPayload() Payload {
	return Payload{m: orderedmap.New[string, any]()}
}

// PayloadFromMap builds a Payload from an unordered map. Keys are added in
// lexical order so the result is deterministic.
func PayloadFromMap(values map[string]any) Payload {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := NewPayload()
	for _, k := range keys {
		p.m.Set(k, values[k])
	}
	return p
}

// With returns a copy of p with key set to value. An existing key keeps its
// position.
func (p Payload) With(key string, value any) Payload {
	out := p.clone()
	out.m.Set(key, value)
	return out
}

// Get returns the value stored under key.
func (p Payload) Get(key string) (any, bool) {
	if p.m == nil {
		return nil, false
	}
	return p.m.Get(key)
}

// String returns the value stored under key if it is a string.
func (p Payload) String(key string) string {
	v, _ := p.Get(key)
	s, _ := v.(string)
	return s
}

// Len returns the number of claims.
func (p Payload) Len() int {
	if p.m == nil {
		return 0
	}
	return p.m.Len()
}

// Keys returns the claim names in insertion order.
func (p Payload) Keys() []string {
	keys := make([]string, 0, p.Len())
	p.Range(func(k string, _ any) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Range calls fn for each claim in insertion order until fn returns false.
func (p Payload) Range(fn func(key string, value any) bool) {
	if p.m == nil {
		return
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Map returns the claims as a plain map. Order is lost.
func (p Payload) Map() map[string]any {
	out := make(map[string]any, p.Len())
	p.Range(func(k string, v any) bool {
		out[k] = v
		return true
	})
	return out
}

// MarshalJSON encodes the claims as a JSON object in insertion order.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.m == nil {
		return []byte("{}"), nil
	}
	return p.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping the key order of the input.
func (p *Payload) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, any]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	p.m = m
	return nil
}

func (p Payload) clone() Payload {
	out := NewPayload()
	p.Range(func(k string, v any) bool {
		out.m.Set(k, v)
		return true
	})
	return out
}

var (
	_ json.Marshaler   = Payload{}
	_ json.Unmarshaler = (*Payload)(nil)
)
