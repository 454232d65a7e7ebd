package decoder

// Kind identifies the decoded type of an MMDB data-section value. It mirrors
// the type codes in the MaxMind DB format, after extended-type resolution
// (control byte TTT == 0 plus an extension byte).
type Kind int

const (
	// KindExtended never appears on a resolved value; TTT == 0 is always
	// followed by an extension byte that yields one of the kinds below.
	KindExtended Kind = iota
	// KindPointer never appears on a value returned to a caller: the
	// decoder transparently follows exactly one pointer before returning.
	KindPointer
	KindString
	KindFloat64
	KindBytes
	KindUint16
	KindUint32
	KindMap
	KindInt32
	KindUint64
	KindUint128
	KindSlice
	// KindContainer (DataCacheContainer) and KindEndMarker are reserved by
	// the format. Conforming databases never produce them inside a value
	// tree; encountering one there is a decode error.
	KindContainer
	KindEndMarker
	KindBool
	KindFloat32
)

func (k Kind) String() string {
	switch k {
	case KindExtended:
		return "extended"
	case KindPointer:
		return "pointer"
	case KindString:
		return "string"
	case KindFloat64:
		return "float64"
	case KindBytes:
		return "bytes"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindMap:
		return "map"
	case KindInt32:
		return "int32"
	case KindUint64:
		return "uint64"
	case KindUint128:
		return "uint128"
	case KindSlice:
		return "slice"
	case KindContainer:
		return "container"
	case KindEndMarker:
		return "end_marker"
	case KindBool:
		return "bool"
	case KindFloat32:
		return "float32"
	default:
		return "unknown"
	}
}
