package property

import (
	"fmt"
	"sort"
	"strings"
)

// Value is a tagged variant over the value kinds the engine can send or
// receive for a component property: null, bool, number, string, array,
// object, secret-wrapped value, not-yet-known marker ("computed"), and a
// reference to a component the engine already manages.
type Value struct {
	v interface{}
}

// Secret wraps a value whose contents must never be displayed or persisted in
// the clear. Secret wrapping may nest around any other kind, including a
// computed value.
type Secret struct {
	Element Value
}

// Computed marks a value whose concrete form is not yet determined, e.g.
// during a dry-run pass.
type Computed struct{}

// Reference points at a component managed by the engine, identified by URN
// and an optional provider-assigned ID.
type Reference struct {
	URN string
	ID  string
}

// Map is a string-keyed property map with unique keys.
type Map map[string]Value

// NewNull creates a null property value.
func NewNull() Value { return Value{} }

// NewBool creates a bool property value.
func NewBool(b bool) Value { return Value{v: b} }

// NewNumber creates a number property value.
func NewNumber(f float64) Value { return Value{v: f} }

// NewString creates a string property value.
func NewString(s string) Value { return Value{v: s} }

// NewArray creates an array property value.
func NewArray(elems []Value) Value { return Value{v: elems} }

// NewObject creates an object property value.
func NewObject(obj Map) Value { return Value{v: obj} }

// NewSecret wraps a value as a secret.
func NewSecret(elem Value) Value { return Value{v: Secret{Element: elem}} }

// NewComputed creates a not-yet-known marker value.
func NewComputed() Value { return Value{v: Computed{}} }

// NewReference creates a component reference value.
func NewReference(urn, id string) Value { return Value{v: Reference{URN: urn, ID: id}} }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.v == nil }

// IsBool reports whether the value is a bool.
func (v Value) IsBool() bool { _, ok := v.v.(bool); return ok }

// IsNumber reports whether the value is a number.
func (v Value) IsNumber() bool { _, ok := v.v.(float64); return ok }

// IsString reports whether the value is a string.
func (v Value) IsString() bool { _, ok := v.v.(string); return ok }

// IsArray reports whether the value is an array.
func (v Value) IsArray() bool { _, ok := v.v.([]Value); return ok }

// IsObject reports whether the value is an object.
func (v Value) IsObject() bool { _, ok := v.v.(Map); return ok }

// IsSecret reports whether the value is secret-wrapped.
func (v Value) IsSecret() bool { _, ok := v.v.(Secret); return ok }

// IsComputed reports whether the value is a not-yet-known marker.
func (v Value) IsComputed() bool { _, ok := v.v.(Computed); return ok }

// IsReference reports whether the value is a component reference.
func (v Value) IsReference() bool { _, ok := v.v.(Reference); return ok }

// BoolValue returns the underlying bool; it panics on other kinds.
func (v Value) BoolValue() bool { return v.v.(bool) }

// NumberValue returns the underlying number; it panics on other kinds.
func (v Value) NumberValue() float64 { return v.v.(float64) }

// StringValue returns the underlying string; it panics on other kinds.
func (v Value) StringValue() string { return v.v.(string) }

// ArrayValue returns the underlying array; it panics on other kinds.
func (v Value) ArrayValue() []Value { return v.v.([]Value) }

// ObjectValue returns the underlying object; it panics on other kinds.
func (v Value) ObjectValue() Map { return v.v.(Map) }

// SecretValue returns the secret wrapper; it panics on other kinds.
func (v Value) SecretValue() Secret { return v.v.(Secret) }

// ReferenceValue returns the component reference; it panics on other kinds.
func (v Value) ReferenceValue() Reference { return v.v.(Reference) }

// Unsecret strips any secret wrapping, however deeply nested, and returns the
// innermost value.
func (v Value) Unsecret() Value {
	for v.IsSecret() {
		v = v.SecretValue().Element
	}
	return v
}

// ContainsUnknown reports whether the value is, or transitively contains, a
// not-yet-known marker.
func (v Value) ContainsUnknown() bool {
	switch {
	case v.IsComputed():
		return true
	case v.IsSecret():
		return v.SecretValue().Element.ContainsUnknown()
	case v.IsArray():
		for _, e := range v.ArrayValue() {
			if e.ContainsUnknown() {
				return true
			}
		}
	case v.IsObject():
		for _, e := range v.ObjectValue() {
			if e.ContainsUnknown() {
				return true
			}
		}
	}
	return false
}

// Equal reports deep equality of two values, including secrecy wrapping.
func (v Value) Equal(o Value) bool {
	switch {
	case v.IsNull():
		return o.IsNull()
	case v.IsBool():
		return o.IsBool() && v.BoolValue() == o.BoolValue()
	case v.IsNumber():
		return o.IsNumber() && v.NumberValue() == o.NumberValue()
	case v.IsString():
		return o.IsString() && v.StringValue() == o.StringValue()
	case v.IsComputed():
		return o.IsComputed()
	case v.IsSecret():
		return o.IsSecret() && v.SecretValue().Element.Equal(o.SecretValue().Element)
	case v.IsReference():
		return o.IsReference() && v.ReferenceValue() == o.ReferenceValue()
	case v.IsArray():
		if !o.IsArray() || len(v.ArrayValue()) != len(o.ArrayValue()) {
			return false
		}
		for i, e := range v.ArrayValue() {
			if !e.Equal(o.ArrayValue()[i]) {
				return false
			}
		}
		return true
	case v.IsObject():
		return v.ObjectValue().Equal(o.ObjectValue())
	}
	return false
}

// String renders the value for logs. Secrets render as a redaction marker so
// a debug line can never leak one.
func (v Value) String() string {
	switch {
	case v.IsNull():
		return "null"
	case v.IsSecret():
		return "secret(...)"
	case v.IsComputed():
		return "unknown"
	case v.IsReference():
		ref := v.ReferenceValue()
		return fmt.Sprintf("reference(%s)", ref.URN)
	case v.IsArray():
		return fmt.Sprintf("array[%d]", len(v.ArrayValue()))
	case v.IsObject():
		return fmt.Sprintf("object[%d]", len(v.ObjectValue()))
	default:
		return fmt.Sprintf("%v", v.v)
	}
}

// StableKeys returns the map's keys in sorted order so enumeration is
// deterministic.
func (m Map) StableKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep equality of two maps.
func (m Map) Equal(o Map) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// internalKeyPrefix marks keys that carry non-public bridge data, such as the
// implicit receiver of a component method call.
const internalKeyPrefix = "__"

// SelfKey is the internal argument key carrying the implicit receiver of a
// component method invocation.
const SelfKey = "__self__"

// IsInternalKey reports whether a property key is reserved for bridge
// internals by the naming convention.
func IsInternalKey(key string) bool {
	return strings.HasPrefix(key, internalKeyPrefix)
}
