// Package mmdbdata provides types and interfaces for working with MaxMind DB data.
package mmdbdata

import "github.com/geodb-oss/mmdbreader/internal/decoder"

// Kind represents MMDB data kinds.
type Kind = decoder.Kind

// Decoder provides step-wise, low-level methods for decoding MMDB data
// without materializing an intermediate Value tree. Types implementing
// Unmarshaler receive one of these.
type Decoder = decoder.Decoder

// Value is a fully decoded MMDB data-section value: a tagged union over the
// kinds below. It is the product of the core decode path and never has
// Kind() == KindPointer, KindExtended, KindContainer or KindEndMarker.
type Value = decoder.Value

// MapEntry is one key/value pair of a decoded Map, in encoded order.
type MapEntry = decoder.MapEntry

// Unmarshaler is implemented by types that can decode themselves from a
// Decoder, bypassing the generic Value tree for performance-sensitive
// callers. It mirrors encoding/json's json.Unmarshaler.
type Unmarshaler interface {
	UnmarshalMaxMindDB(d *Decoder) error
}

// Kind constants for MMDB data.
const (
	KindExtended  = decoder.KindExtended
	KindPointer   = decoder.KindPointer
	KindString    = decoder.KindString
	KindFloat64   = decoder.KindFloat64
	KindBytes     = decoder.KindBytes
	KindUint16    = decoder.KindUint16
	KindUint32    = decoder.KindUint32
	KindMap       = decoder.KindMap
	KindInt32     = decoder.KindInt32
	KindUint64    = decoder.KindUint64
	KindUint128   = decoder.KindUint128
	KindSlice     = decoder.KindSlice
	KindContainer = decoder.KindContainer
	KindEndMarker = decoder.KindEndMarker
	KindBool      = decoder.KindBool
	KindFloat32   = decoder.KindFloat32
)
