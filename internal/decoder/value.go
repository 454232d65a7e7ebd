package decoder

import "math/big"

// MapEntry is one key/value pair of a decoded Map, in encoded order. Keys
// are always strings: the format allows a key to be encoded as a pointer to
// a string, but the decoder resolves that before the entry is produced.
type MapEntry struct {
	Key   string
	Value Value
}

// Value is a decoded MMDB data-section value. It is a tagged union: callers
// must check Kind before calling the accessor for that kind. Values are
// fully materialized and own their own contents; re-reading the same
// offset through a fresh decode produces an equal Value (spec round-trip
// property).
//
// A Value's Kind is never KindPointer, KindExtended, KindContainer or
// KindEndMarker: the decoder resolves pointers (exactly one hop) before
// producing a Value, and the two reserved types are rejected as decode
// errors rather than surfaced.
type Value struct {
	kind Kind

	str   string
	bytes []byte
	f64   float64
	f32   float32
	u64   uint64
	u128  *big.Int
	i32   int32
	b     bool
	slice []Value
	mp    []MapEntry
}

func stringValue(s string) Value  { return Value{kind: KindString, str: s} }
func bytesValue(b []byte) Value   { return Value{kind: KindBytes, bytes: b} }
func float64Value(f float64) Value { return Value{kind: KindFloat64, f64: f} }
func float32Value(f float32) Value { return Value{kind: KindFloat32, f32: f} }
func uint16Value(u uint64) Value  { return Value{kind: KindUint16, u64: u} }
func uint32Value(u uint64) Value  { return Value{kind: KindUint32, u64: u} }
func uint64Value(u uint64) Value  { return Value{kind: KindUint64, u64: u} }
func uint128Value(u *big.Int) Value { return Value{kind: KindUint128, u128: u} }
func int32Value(i int32) Value    { return Value{kind: KindInt32, i32: i} }
func boolValue(b bool) Value      { return Value{kind: KindBool, b: b} }
func sliceValue(v []Value) Value  { return Value{kind: KindSlice, slice: v} }
func mapValueOf(m []MapEntry) Value { return Value{kind: KindMap, mp: m} }

// Kind reports the decoded type of v.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether v is the zero Value (no decode ever populated it).
func (v Value) IsZero() bool { return v.kind == KindExtended && v.str == "" && v.slice == nil && v.mp == nil }

// String returns v's payload as a string. ok is false if v.Kind() != KindString.
func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Bytes returns v's payload as a byte slice. ok is false if v.Kind() != KindBytes.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.bytes, true
}

// Float64 returns v's payload as a float64. ok is false if v.Kind() != KindFloat64.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindFloat64 {
		return 0, false
	}
	return v.f64, true
}

// Float32 returns v's payload as a float32. ok is false if v.Kind() != KindFloat32.
func (v Value) Float32() (float32, bool) {
	if v.kind != KindFloat32 {
		return 0, false
	}
	return v.f32, true
}

// Uint16 returns v's payload as a uint16. ok is false if v.Kind() != KindUint16.
func (v Value) Uint16() (uint16, bool) {
	if v.kind != KindUint16 {
		return 0, false
	}
	return uint16(v.u64), true
}

// Uint32 returns v's payload as a uint32. ok is false if v.Kind() != KindUint32.
func (v Value) Uint32() (uint32, bool) {
	if v.kind != KindUint32 {
		return 0, false
	}
	return uint32(v.u64), true
}

// Uint64 returns v's payload as a uint64. ok is false if v.Kind() != KindUint64.
func (v Value) Uint64() (uint64, bool) {
	if v.kind != KindUint64 {
		return 0, false
	}
	return v.u64, true
}

// Uint128 returns v's payload as a *big.Int. ok is false if v.Kind() != KindUint128.
func (v Value) Uint128() (*big.Int, bool) {
	if v.kind != KindUint128 {
		return nil, false
	}
	return v.u128, true
}

// Int32 returns v's payload as an int32. ok is false if v.Kind() != KindInt32.
func (v Value) Int32() (int32, bool) {
	if v.kind != KindInt32 {
		return 0, false
	}
	return v.i32, true
}

// Bool returns v's payload as a bool. ok is false if v.Kind() != KindBool.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Slice returns v's payload as an ordered slice of Values. ok is false if
// v.Kind() != KindSlice.
func (v Value) Slice() ([]Value, bool) {
	if v.kind != KindSlice {
		return nil, false
	}
	return v.slice, true
}

// Map returns v's payload as an ordered slice of key/value entries. ok is
// false if v.Kind() != KindMap.
func (v Value) Map() ([]MapEntry, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.mp, true
}

// MapValue looks up key in v, which must be a KindMap value. It returns the
// first matching entry's Value and true, or the zero Value and false if v is
// not a map or has no entry with that key.
func (v Value) MapValue(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	for _, e := range v.mp {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}
