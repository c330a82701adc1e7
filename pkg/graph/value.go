package graph

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the property value union.
type Kind uint8

const (
	// KindInvalid is the zero Kind; it never appears in a stored value.
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool

	// KindOpaque wraps structured data (slices, maps, arbitrary JSON).
	// Opaque values are stored and returned verbatim but never enter the
	// exact-match or range indexes — they remain queryable only by
	// scanning the entity's own properties. This is a deliberate
	// space/precision trade-off, not a defect.
	KindOpaque
)

// Value is the tagged union used for entity properties.
//
// Modeling properties as a closed union (rather than map[string]any)
// lets the property index distinguish indexable scalars from opaque
// payloads statically instead of probing hashability at runtime:
//
//   - String, Int, Float, Bool participate in the exact-match index.
//   - Int and Float additionally feed the numeric range index.
//   - Opaque is excluded from every index.
//
// Construct values with the String/Int/Float/Bool/Opaque helpers. The
// zero Value is invalid and rejected by the index layer.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	any  interface{}
}

// Properties maps property names to tagged values. Keys are unique by
// construction of the map type.
type Properties map[string]Value

// Clone returns an independent copy. Opaque payloads are shared, which
// is safe under the convention that property payloads are never mutated
// after being handed to a store.
func (p Properties) Clone() Properties {
	if p == nil {
		return Properties{}
	}
	c := make(Properties, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// String wraps a string scalar.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int wraps an integer scalar.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a floating-point scalar.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool wraps a boolean scalar.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Opaque wraps arbitrary structured data that should be stored but not
// indexed.
func Opaque(v interface{}) Value { return Value{kind: KindOpaque, any: v} }

// Kind reports the union tag.
func (v Value) Kind() Kind { return v.kind }

// Indexable reports whether the value participates in exact-match
// indexing.
func (v Value) Indexable() bool {
	switch v.kind {
	case KindString, KindInt, KindFloat, KindBool:
		return true
	}
	return false
}

// Numeric reports the value as a float64 when it is Int or Float.
// Both numeric kinds share one sorted range index, so Int(5) and
// Float(5.0) are neighbors for range queries even though they remain
// distinct for exact matches.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Interface returns the underlying Go value.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindOpaque:
		return v.any
	}
	return nil
}

// ValueKey is the comparable form of an indexable Value, usable as a
// map key in the exact-match index. Opaque values have no key.
type ValueKey struct {
	Kind Kind
	S    string
	I    int64
	F    float64
	B    bool
}

// MapKey returns the comparable key for an indexable value. ok is false
// for Opaque and invalid values, which the index layer skips.
func (v Value) MapKey() (ValueKey, bool) {
	if !v.Indexable() {
		return ValueKey{}, false
	}
	return ValueKey{Kind: v.kind, S: v.s, I: v.i, F: v.f, B: v.b}, true
}

// Equal reports exact equality: same kind, same payload. Opaque values
// are never equal to anything, mirroring their exclusion from the
// exact-match index.
func (v Value) Equal(o Value) bool {
	a, okA := v.MapKey()
	b, okB := o.MapKey()
	return okA && okB && a == b
}

// String renders the value for logs and error messages.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindOpaque:
		return fmt.Sprintf("%v", v.any)
	}
	return "<invalid>"
}

// valueJSON is the wire form used for export and snapshots. The tag
// preserves the union kind across a round trip; plain JSON numbers
// would otherwise collapse Int into Float on reload.
type valueJSON struct {
	Kind  string      `json:"t"`
	Value interface{} `json:"v"`
}

var kindNames = map[Kind]string{
	KindString: "string",
	KindInt:    "int",
	KindFloat:  "float",
	KindBool:   "bool",
	KindOpaque: "opaque",
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	name, ok := kindNames[v.kind]
	if !ok {
		return nil, fmt.Errorf("graph: cannot marshal invalid value")
	}
	return json.Marshal(valueJSON{Kind: name, Value: v.Interface()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw valueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case "string":
		s, ok := raw.Value.(string)
		if !ok {
			return fmt.Errorf("graph: string value holds %T", raw.Value)
		}
		*v = String(s)
	case "int":
		// encoding/json decodes numbers as float64.
		f, ok := raw.Value.(float64)
		if !ok {
			return fmt.Errorf("graph: int value holds %T", raw.Value)
		}
		*v = Int(int64(f))
	case "float":
		f, ok := raw.Value.(float64)
		if !ok {
			return fmt.Errorf("graph: float value holds %T", raw.Value)
		}
		*v = Float(f)
	case "bool":
		b, ok := raw.Value.(bool)
		if !ok {
			return fmt.Errorf("graph: bool value holds %T", raw.Value)
		}
		*v = Bool(b)
	case "opaque":
		*v = Opaque(raw.Value)
	default:
		return fmt.Errorf("graph: unknown value kind %q", raw.Kind)
	}
	return nil
}
