package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface representing the plain values an answer can
// carry. Only Null, String, Int, Float, Bool, Array, Object and Unbound
// implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents a JSON null. Answers never contain it; it exists so that
// decoded expectations round-trip.
type Null struct{}

func (Null) irValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String is a symbol or string atom.
type String string

func (String) irValue() {}

// Int is an integer atom.
type Int int64

func (Int) irValue() {}

// Float is a floating point atom. Non-finite values cannot be serialized.
type Float float64

func (Float) irValue() {}

// Bool is a boolean atom.
type Bool bool

func (Bool) irValue() {}

// Array is a compound term projected to its argument values.
type Array []Value

func (Array) irValue() {}

// Object maps names to values. Answers and tag sets are Objects.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// Unbound is a variable the proof never bound (an underconstrained query).
type Unbound struct {
	Name string
}

func (Unbound) irValue() {}

// MarshalJSON renders an unbound variable as {"$var": name}.
func (u Unbound) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{UnboundKey: u.Name})
}

// UnboundKey is the single key of the JSON form of an Unbound.
const UnboundKey = "$var"

// Pair is a key-value pair for typed Object construction.
type Pair struct {
	Key   string
	Value Value
}

// O is a shorthand for Pair.
// Example: NewObject(O("X", String("mary")), O("N", Int(5)))
func O(key string, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// NewObject creates an Object from key-value pairs.
func NewObject(pairs ...Pair) Object {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 byte order, which differs outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// MarshalJSON implements json.Marshaler for Object with sorted keys.
// This is NOT canonical marshaling; use MarshalCanonical for hashing.
func (obj Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalValue marshals a Value to JSON bytes.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Int:
		return json.Marshal(int64(val))
	case Float:
		return marshalFloat(float64(val))
	case Bool:
		return json.Marshal(bool(val))
	case Array:
		return marshalArray(val)
	case Object:
		return val.MarshalJSON()
	case Unbound:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

func marshalArray(arr Array) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalFloat renders a finite float so that it never reads back as an
// integer: 1 becomes 1.0.
func marshalFloat(f float64) ([]byte, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("non-finite float %v cannot be serialized", f)
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	if !bytes.ContainsAny(b, ".eE") {
		b = append(b, '.', '0')
	}
	return b, nil
}

// UnmarshalValue decodes JSON into a Value. Integral numbers without a
// fraction or exponent become Int, other numbers Float. An object whose
// only key is "$var" becomes Unbound.
func UnmarshalValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromGo(raw)
}

// FromGo recursively converts a decoded JSON or YAML value into a Value.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("number out of int64 range: %d", val)
		}
		return Int(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			f, err := val.Float64()
			if err != nil {
				return nil, fmt.Errorf("invalid number %s: %w", s, err)
			}
			return Float(f), nil
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return Int(n), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			e, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case map[string]any:
		if name, ok := val[UnboundKey].(string); ok && len(val) == 1 {
			return Unbound{Name: name}, nil
		}
		obj := make(Object, len(val))
		for k, elem := range val {
			e, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts a Value back into plain Go values (string, int64, float64,
// bool, []any, map[string]any). Unbound becomes map{"$var": name}.
func ToGo(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = ToGo(e)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = ToGo(e)
		}
		return out
	case Unbound:
		return map[string]any{UnboundKey: val.Name}
	default:
		return nil
	}
}

// Equal reports deep equality of two values. Int and Float never compare
// equal, matching atom equality in the term model.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Object:
		y, ok := b.(Object)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
