// Package decoder implements the MMDB data-section value reader: the
// control-byte/length decoder, the pointer resolver and the recursive
// assembly of a Value tree. It has no knowledge of the search tree or of the
// file's metadata section beyond being handed a byte slice to decode from.
package decoder

import (
	"encoding/binary"
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/geodb-oss/mmdbreader/internal/mmdberrors"
)

// maximumDataStructureDepth bounds recursive Map/Slice nesting so a hostile
// or corrupt database cannot exhaust the goroutine stack. This is the value
// used by libmaxminddb and by the teacher's reflective decoder.
const maximumDataStructureDepth = 1024

// DataDecoder decodes values out of a single contiguous byte slice — either
// the data section of an MMDB file, or (with its own slice) the metadata
// section. All offsets it accepts and returns are relative to the start of
// that slice; pointers resolve relative to the same base.
type DataDecoder struct {
	buffer []byte
}

// New creates a DataDecoder over buffer. buffer is not copied; the caller
// must keep it alive and immutable for the DataDecoder's lifetime.
func New(buffer []byte) DataDecoder {
	return DataDecoder{buffer: buffer}
}

// Decode decodes the value at offset, following at most one pointer, and
// returns the resulting Value plus the offset of the byte immediately after
// the encoded value (after the pointer's own bytes, if a pointer was
// followed — not after the pointed-to value).
func (d *DataDecoder) Decode(offset uint) (Value, uint, error) {
	return d.decode(offset, 0)
}

// VerifyDataSection checks every value reachable from offsets, then walks
// the whole data section from its first byte to its last, decoding each
// value it finds in turn. The forward walk catches corruption in bytes the
// search tree never points to directly, and confirms every map key decodes
// to a string by virtue of going through the normal decode path.
func (d *DataDecoder) VerifyDataSection(offsets map[uint]bool) error {
	for offset := range offsets {
		if _, _, err := d.Decode(offset); err != nil {
			return err
		}
	}

	end := uint(len(d.buffer))
	for offset := uint(0); offset < end; {
		_, next, err := d.Decode(offset)
		if err != nil {
			return err
		}
		offset = next
	}
	return nil
}

func (d *DataDecoder) decode(offset uint, depth int) (Value, uint, error) {
	if depth > maximumDataStructureDepth {
		return Value{}, 0, mmdberrors.New(
			mmdberrors.KindMalformed,
			"exceeded maximum data structure depth; database is likely corrupt",
		)
	}

	typeNum, size, dataOffset, err := d.decodeCtrlData(offset)
	if err != nil {
		return Value{}, 0, err
	}

	if typeNum == KindPointer {
		target, afterPointer, err := d.decodePointer(size, dataOffset)
		if err != nil {
			return Value{}, 0, err
		}
		targetType, targetSize, targetDataOffset, err := d.decodeCtrlData(target)
		if err != nil {
			return Value{}, 0, err
		}
		if targetType == KindPointer {
			return Value{}, 0, mmdberrors.New(
				mmdberrors.KindBadPointer,
				"pointer at offset %d resolves to another pointer at offset %d",
				offset, target,
			)
		}
		v, _, err := d.decodeFromType(targetType, targetSize, targetDataOffset, depth+1)
		if err != nil {
			return Value{}, 0, err
		}
		return v, afterPointer, nil
	}

	v, next, err := d.decodeFromType(typeNum, size, dataOffset, depth+1)
	return v, next, err
}

// decodeFromType dispatches on a resolved (non-pointer) type code.
func (d *DataDecoder) decodeFromType(
	typeNum Kind,
	size uint,
	offset uint,
	depth int,
) (Value, uint, error) {
	switch typeNum {
	case KindBool:
		return boolValue(size != 0), offset, nil
	case KindString:
		s, next, err := d.decodeString(size, offset)
		if err != nil {
			return Value{}, 0, err
		}
		return stringValue(s), next, nil
	case KindFloat64:
		f, next, err := d.decodeFloat64(size, offset)
		if err != nil {
			return Value{}, 0, err
		}
		return float64Value(f), next, nil
	case KindFloat32:
		f, next, err := d.decodeFloat32(size, offset)
		if err != nil {
			return Value{}, 0, err
		}
		return float32Value(f), next, nil
	case KindBytes:
		b, next, err := d.decodeBytes(size, offset)
		if err != nil {
			return Value{}, 0, err
		}
		return bytesValue(b), next, nil
	case KindUint16:
		if size > 2 {
			return Value{}, 0, mmdberrors.New(mmdberrors.KindBadLength,
				"uint16 payload of %d bytes exceeds natural width 2", size)
		}
		u, next, err := d.decodeUint(size, offset)
		if err != nil {
			return Value{}, 0, err
		}
		return uint16Value(u), next, nil
	case KindUint32:
		if size > 4 {
			return Value{}, 0, mmdberrors.New(mmdberrors.KindBadLength,
				"uint32 payload of %d bytes exceeds natural width 4", size)
		}
		u, next, err := d.decodeUint(size, offset)
		if err != nil {
			return Value{}, 0, err
		}
		return uint32Value(u), next, nil
	case KindUint64:
		if size > 8 {
			return Value{}, 0, mmdberrors.New(mmdberrors.KindBadLength,
				"uint64 payload of %d bytes exceeds natural width 8", size)
		}
		u, next, err := d.decodeUint(size, offset)
		if err != nil {
			return Value{}, 0, err
		}
		return uint64Value(u), next, nil
	case KindUint128:
		if size > 16 {
			return Value{}, 0, mmdberrors.New(mmdberrors.KindBadLength,
				"uint128 payload of %d bytes exceeds natural width 16", size)
		}
		u, next, err := d.decodeUint128(size, offset)
		if err != nil {
			return Value{}, 0, err
		}
		return uint128Value(u), next, nil
	case KindInt32:
		if size > 4 {
			return Value{}, 0, mmdberrors.New(mmdberrors.KindBadLength,
				"int32 payload of %d bytes exceeds natural width 4", size)
		}
		i, next, err := d.decodeInt32(size, offset)
		if err != nil {
			return Value{}, 0, err
		}
		return int32Value(i), next, nil
	case KindMap:
		return d.decodeMap(size, offset, depth)
	case KindSlice:
		return d.decodeSlice(size, offset, depth)
	default:
		return Value{}, 0, mmdberrors.New(mmdberrors.KindBadType,
			"unknown or reserved type code %d (%s)", int(typeNum), typeNum)
	}
}

// decodeCtrlData reads the control byte at offset (and its extension byte
// and extended-length bytes, if any) and returns the resolved type, the
// decoded length, and the offset of the payload that follows. For pointers
// the "length" returned is the raw 5-bit SSVVV field, interpreted later by
// decodePointer — pointers do not use the shared length-extension law.
func (d *DataDecoder) decodeCtrlData(offset uint) (Kind, uint, uint, error) {
	if offset >= uint(len(d.buffer)) {
		return 0, 0, 0, mmdberrors.NewOffsetError()
	}
	ctrlByte := d.buffer[offset]
	newOffset := offset + 1

	typeNum := Kind(ctrlByte >> 5)

	if typeNum == KindExtended {
		if newOffset >= uint(len(d.buffer)) {
			return 0, 0, 0, mmdberrors.NewOffsetError()
		}
		extByte := d.buffer[newOffset]
		ext := Kind(int(extByte) + 7)
		newOffset++
		if ext < KindPointer || ext > KindFloat32 {
			return 0, 0, 0, mmdberrors.New(mmdberrors.KindBadType,
				"extended type byte resolves to unknown code %d", int(extByte)+7)
		}
		size, afterSize, err := d.sizeFromCtrlByte(ctrlByte, newOffset)
		if err != nil {
			return 0, 0, 0, err
		}
		return ext, size, afterSize, nil
	}

	if typeNum == KindPointer {
		return KindPointer, uint(ctrlByte & 0x1f), newOffset, nil
	}

	size, afterSize, err := d.sizeFromCtrlByte(ctrlByte, newOffset)
	if err != nil {
		return 0, 0, 0, err
	}
	return typeNum, size, afterSize, nil
}

// sizeFromCtrlByte applies the 5-bit length extension law of spec.md §4.3.
func (d *DataDecoder) sizeFromCtrlByte(ctrlByte byte, offset uint) (uint, uint, error) {
	size := uint(ctrlByte & 0x1f)
	if size < 29 {
		return size, offset, nil
	}

	bytesToRead := size - 28
	newOffset := offset + bytesToRead
	if newOffset > uint(len(d.buffer)) {
		return 0, 0, mmdberrors.NewOffsetError()
	}
	ext := d.buffer[offset:newOffset]

	switch size {
	case 29:
		return 29 + uint(ext[0]), newOffset, nil
	case 30:
		return 285 + uintFromBytes(ext), newOffset, nil
	default: // 31
		return 65821 + uintFromBytes(ext), newOffset, nil
	}
}

// decodePointer applies the pointer-size bias law of spec.md §4.4 and
// returns the target offset (relative to this DataDecoder's own buffer) and
// the offset immediately after the pointer's tail bytes.
func (d *DataDecoder) decodePointer(sizeField uint, offset uint) (uint, uint, error) {
	pointerSize := (sizeField >> 3) & 0x3
	tailLen := pointerSize + 1
	newOffset := offset + tailLen
	if newOffset > uint(len(d.buffer)) {
		return 0, 0, mmdberrors.NewOffsetError()
	}
	tail := d.buffer[offset:newOffset]

	var prefix uint
	if pointerSize != 3 {
		prefix = sizeField & 0x7
	}
	value := uintFromBytesPrefixed(prefix, tail)

	var bias uint
	switch pointerSize {
	case 1:
		bias = 2048
	case 2:
		bias = 526336
	}

	target := value + bias
	if target >= uint(len(d.buffer)) {
		return 0, 0, mmdberrors.New(mmdberrors.KindBadPointer,
			"pointer targets offset %d, outside the %d-byte data section", target, len(d.buffer))
	}
	return target, newOffset, nil
}

func (d *DataDecoder) decodeBytes(size, offset uint) ([]byte, uint, error) {
	next := offset + size
	if next > uint(len(d.buffer)) {
		return nil, 0, mmdberrors.NewOffsetError()
	}
	out := make([]byte, size)
	copy(out, d.buffer[offset:next])
	return out, next, nil
}

func (d *DataDecoder) decodeString(size, offset uint) (string, uint, error) {
	next := offset + size
	if next > uint(len(d.buffer)) {
		return "", 0, mmdberrors.NewOffsetError()
	}
	raw := d.buffer[offset:next]
	if !utf8.Valid(raw) {
		return "", 0, mmdberrors.New(mmdberrors.KindBadUtf8,
			"string payload at offset %d is not valid UTF-8", offset)
	}
	return string(raw), next, nil
}

func (d *DataDecoder) decodeFloat64(size, offset uint) (float64, uint, error) {
	if size != 8 {
		return 0, 0, mmdberrors.New(mmdberrors.KindBadLength,
			"double payload must be exactly 8 bytes, got %d", size)
	}
	next := offset + size
	if next > uint(len(d.buffer)) {
		return 0, 0, mmdberrors.NewOffsetError()
	}
	bits := binary.BigEndian.Uint64(d.buffer[offset:next])
	return math.Float64frombits(bits), next, nil
}

func (d *DataDecoder) decodeFloat32(size, offset uint) (float32, uint, error) {
	if size != 4 {
		return 0, 0, mmdberrors.New(mmdberrors.KindBadLength,
			"float payload must be exactly 4 bytes, got %d", size)
	}
	next := offset + size
	if next > uint(len(d.buffer)) {
		return 0, 0, mmdberrors.NewOffsetError()
	}
	bits := binary.BigEndian.Uint32(d.buffer[offset:next])
	return math.Float32frombits(bits), next, nil
}

func (d *DataDecoder) decodeInt32(size, offset uint) (int32, uint, error) {
	next := offset + size
	if next > uint(len(d.buffer)) {
		return 0, 0, mmdberrors.NewOffsetError()
	}
	var val int32
	for _, b := range d.buffer[offset:next] {
		val = (val << 8) | int32(b)
	}
	return val, next, nil
}

func (d *DataDecoder) decodeUint(size, offset uint) (uint64, uint, error) {
	next := offset + size
	if next > uint(len(d.buffer)) {
		return 0, 0, mmdberrors.NewOffsetError()
	}
	var val uint64
	for _, b := range d.buffer[offset:next] {
		val = (val << 8) | uint64(b)
	}
	return val, next, nil
}

func (d *DataDecoder) decodeUint128(size, offset uint) (*big.Int, uint, error) {
	next := offset + size
	if next > uint(len(d.buffer)) {
		return nil, 0, mmdberrors.NewOffsetError()
	}
	val := new(big.Int).SetBytes(d.buffer[offset:next])
	return val, next, nil
}

func (d *DataDecoder) decodeMap(size, offset uint, depth int) (Value, uint, error) {
	entries := make([]MapEntry, 0, size)
	for i := uint(0); i < size; i++ {
		key, keyNext, err := d.decodeMapKey(offset)
		if err != nil {
			return Value{}, 0, err
		}
		val, valNext, err := d.decode(keyNext, depth)
		if err != nil {
			return Value{}, 0, err
		}
		entries = append(entries, MapEntry{Key: key, Value: val})
		offset = valNext
	}
	return mapValueOf(entries), offset, nil
}

// decodeMapKey decodes a map key, which is a string that may be encoded as
// a single pointer to a string (resolved here, not left as a Pointer Value).
func (d *DataDecoder) decodeMapKey(offset uint) (string, uint, error) {
	typeNum, size, dataOffset, err := d.decodeCtrlData(offset)
	if err != nil {
		return "", 0, err
	}
	if typeNum == KindPointer {
		target, afterPointer, err := d.decodePointer(size, dataOffset)
		if err != nil {
			return "", 0, err
		}
		targetType, targetSize, targetDataOffset, err := d.decodeCtrlData(target)
		if err != nil {
			return "", 0, err
		}
		if targetType == KindPointer {
			return "", 0, mmdberrors.New(mmdberrors.KindBadPointer,
				"map key pointer at offset %d resolves to another pointer", offset)
		}
		if targetType != KindString {
			return "", 0, mmdberrors.New(mmdberrors.KindMalformed,
				"map key pointer resolves to a non-string value (type %s)", targetType)
		}
		key, _, err := d.decodeString(targetSize, targetDataOffset)
		return key, afterPointer, err
	}
	if typeNum != KindString {
		return "", 0, mmdberrors.New(mmdberrors.KindMalformed,
			"map key is not a string (type %s)", typeNum)
	}
	key, next, err := d.decodeString(size, dataOffset)
	return key, next, err
}

func (d *DataDecoder) decodeSlice(size, offset uint, depth int) (Value, uint, error) {
	values := make([]Value, 0, size)
	for i := uint(0); i < size; i++ {
		val, next, err := d.decode(offset, depth)
		if err != nil {
			return Value{}, 0, err
		}
		values = append(values, val)
		offset = next
	}
	return sliceValue(values), offset, nil
}

func uintFromBytes(b []byte) uint {
	var v uint
	for _, c := range b {
		v = (v << 8) | uint(c)
	}
	return v
}

func uintFromBytesPrefixed(prefix uint, b []byte) uint {
	v := prefix
	for _, c := range b {
		v = (v << 8) | uint(c)
	}
	return v
}
