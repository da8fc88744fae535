package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// IRValue is a sealed interface representing JSON-compatible query values.
// Only IRNull, IRString, IRInt, IRFloat, IRBool, IRArray, and IRObject
// implement this.
//
// Integers and floats are kept apart: a JSON literal without a fraction or
// exponent decodes to IRInt, everything else to IRFloat. The distinction
// matters for range predicates, which only apply to float columns.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents a JSON null value in the IR.
// Using an explicit type ensures all IRValues satisfy the sealed interface.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString represents a string value in the IR.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value in the IR.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a floating-point value in the IR.
type IRFloat float64

func (IRFloat) irValue() {}

// IRBool represents a boolean value in the IR.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an array of IRValue elements.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRField is one key/value entry of an IRObject.
type IRField struct {
	Key   string
	Value IRValue
}

// IRObject is an ordered mapping of string keys to IRValue elements.
//
// Key order is the order in which keys appeared in the source document.
// Query evaluation visits keys in this order, so decoders must preserve
// it. Use SortedKeys() when a deterministic, order-independent view is
// needed (canonical encoding).
type IRObject []IRField

func (IRObject) irValue() {}

// F is a shorthand for IRField for ergonomic construction.
// Example: NewIRObject(F("layer", IRInt(4)), F("mtype", IRString("L4_PC")))
func F(key string, value IRValue) IRField {
	return IRField{Key: key, Value: value}
}

// NewIRObject creates an IRObject from fields, keeping their order.
// A repeated key overwrites the earlier value in place.
func NewIRObject(fields ...IRField) IRObject {
	obj := make(IRObject, 0, len(fields))
	for _, f := range fields {
		obj = obj.With(f.Key, f.Value)
	}
	return obj
}

// Get returns the value stored under key.
func (obj IRObject) Get(key string) (IRValue, bool) {
	for _, f := range obj {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (obj IRObject) Has(key string) bool {
	_, ok := obj.Get(key)
	return ok
}

// Keys returns the keys in document order.
func (obj IRObject) Keys() []string {
	keys := make([]string, len(obj))
	for i, f := range obj {
		keys[i] = f.Key
	}
	return keys
}

// With returns a copy of obj where key is bound to value. An existing key
// keeps its position; a new key is appended.
func (obj IRObject) With(key string, value IRValue) IRObject {
	out := slices.Clone(obj)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, IRField{Key: key, Value: value})
}

// Without returns a copy of obj with key removed.
func (obj IRObject) Without(key string) IRObject {
	out := make(IRObject, 0, len(obj))
	for _, f := range obj {
		if f.Key != key {
			out = append(out, f)
		}
	}
	return out
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (obj IRObject) SortedKeys() []string {
	keys := obj.Keys()
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// AsFloat returns the numeric value of v as float64.
// Reports false for non-numeric values.
func AsFloat(v IRValue) (float64, bool) {
	switch n := v.(type) {
	case IRInt:
		return float64(n), true
	case IRFloat:
		return float64(n), true
	default:
		return 0, false
	}
}

// AsInt returns v as int64 when it is an integer, or a float with no
// fractional part that fits in an int64.
func AsInt(v IRValue) (int64, bool) {
	switch n := v.(type) {
	case IRInt:
		return int64(n), true
	case IRFloat:
		f := float64(n)
		if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

// IsNumber reports whether v is an IRInt or IRFloat.
func IsNumber(v IRValue) bool {
	_, ok := AsFloat(v)
	return ok
}

// TypeName returns a short human-readable name for the kind of v.
func TypeName(v IRValue) string {
	switch v.(type) {
	case IRNull:
		return "null"
	case IRString:
		return "string"
	case IRInt:
		return "int"
	case IRFloat:
		return "float"
	case IRBool:
		return "bool"
	case IRArray:
		return "array"
	case IRObject:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// MarshalJSON implements json.Marshaler for IRObject, keeping document order.
// Use MarshalCanonical for a key-order independent encoding.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, f := range obj {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(f.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", f.Key, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalIRValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", f.Key, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler for IRObject.
// Key order of the input document is preserved.
func (obj *IRObject) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	o, ok := v.(IRObject)
	if !ok {
		return fmt.Errorf("expected JSON object, got %s", TypeName(v))
	}
	*obj = o
	return nil
}

// MarshalIRValue marshals an IRValue to JSON bytes.
// Uses type-switch dispatch to handle all IRValue types correctly.
// NOTE: This is NOT canonical marshaling. Use MarshalCanonical for hashing.
func MarshalIRValue(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case IRNull:
		return []byte("null"), nil
	case IRString:
		return json.Marshal(string(val))
	case IRInt:
		return json.Marshal(int64(val))
	case IRFloat:
		return marshalFloat(float64(val))
	case IRBool:
		return json.Marshal(bool(val))
	case IRArray:
		return marshalIRArray(val)
	case IRObject:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}

// marshalFloat keeps a decimal point on integral floats so that the value
// decodes back to IRFloat.
func marshalFloat(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("unsupported float value: %v", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

// marshalIRArray marshals an IRArray to JSON bytes.
func marshalIRArray(arr IRArray) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalIRValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalIRValue deserializes a single JSON document into an IRValue.
// Object key order is preserved; trailing data after the document is an
// error.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

// decodeValue reads one value from the token stream.
func decodeValue(dec *json.Decoder) (IRValue, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty JSON value")
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return IRString(t), nil
	case bool:
		return IRBool(t), nil
	case nil:
		return IRNull{}, nil
	case json.Number:
		return ParseNumber(string(t))
	default:
		return nil, fmt.Errorf("unexpected JSON token: %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (IRValue, error) {
	obj := IRObject{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("IRObject key %q: %w", key, err)
		}
		obj = obj.With(key, val)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) (IRValue, error) {
	arr := IRArray{}
	for i := 0; dec.More(); i++ {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("IRArray index %d: %w", i, err)
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return nil, err
	}
	return arr, nil
}

// ParseNumber converts a numeric literal into IRInt or IRFloat.
// Literals with a fraction or exponent are floats.
func ParseNumber(s string) (IRValue, error) {
	if !strings.ContainsAny(s, ".eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IRInt(n), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return IRFloat(f), nil
}

// FromAny converts decoded Go values (as produced by encoding/json,
// yaml.v3 or cue Decode into `any`) into an IRValue.
//
// Go maps carry no key order, so map keys are emitted in canonical order.
// Decoders that need document order build IRObject directly.
func FromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("number out of int64 range: %d", val)
		}
		return IRInt(val), nil
	case float32:
		return IRFloat(val), nil
	case float64:
		return IRFloat(val), nil
	case json.Number:
		return ParseNumber(string(val))
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysRFC8785)
		obj := make(IRObject, 0, len(val))
		for _, k := range keys {
			irElem, err := FromAny(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj = append(obj, IRField{Key: k, Value: irElem})
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
