package decoder

import (
	"math/big"

	"github.com/geodb-oss/mmdbreader/internal/mmdberrors"
)

// Decoder lets a caller decode a single value at a specific offset
// step-by-step, without building an intermediate Value tree. It backs both
// the Unmarshaler fast path and the Database.Decoder convenience method.
type Decoder struct {
	d DataDecoder

	offset uint

	hasNextOffset bool
	nextOffset    uint
}

// NewDecoder creates a Decoder for the value at offset within d.
func NewDecoder(d DataDecoder, offset uint) *Decoder {
	return &Decoder{d: d, offset: offset}
}

func (d *Decoder) reset(offset uint) {
	d.offset = offset
	d.hasNextOffset = false
	d.nextOffset = 0
}

func (d *Decoder) new(offset uint) *Decoder {
	return &Decoder{d: d.d, offset: offset}
}

func (d *Decoder) setNextOffset(offset uint) {
	if !d.hasNextOffset {
		d.hasNextOffset = true
		d.nextOffset = offset
	}
}

// Next advances the decoder past numberToSkip values without decoding them.
func (d *Decoder) Next(numberToSkip uint) error {
	if numberToSkip > 1 || !d.hasNextOffset {
		offset, err := d.d.nextValueOffset(d.offset, numberToSkip)
		if err != nil {
			return d.wrapError(err)
		}
		d.reset(offset)
		return nil
	}
	d.reset(d.nextOffset)
	return nil
}

func unexpectedKindErr(expected, actual Kind) error {
	return mmdberrors.New(mmdberrors.KindMalformed,
		"unexpected type %s, expected %s", actual, expected)
}

// followToKind reads the control data at d.offset, transparently following
// at most one pointer, and requires the resolved type to equal want.
func (d *Decoder) followToKind(want Kind) (uint, uint, error) {
	offset := d.offset
	typeNum, size, dataOffset, err := d.d.decodeCtrlData(offset)
	if err != nil {
		return 0, 0, err
	}
	if typeNum == KindPointer {
		target, nextOffset, err := d.d.decodePointer(size, dataOffset)
		if err != nil {
			return 0, 0, err
		}
		targetType, targetSize, targetDataOffset, err := d.d.decodeCtrlData(target)
		if err != nil {
			return 0, 0, err
		}
		if targetType == KindPointer {
			return 0, 0, mmdberrors.New(mmdberrors.KindBadPointer,
				"pointer at offset %d resolves to another pointer", offset)
		}
		if targetType != want {
			return 0, 0, unexpectedKindErr(want, targetType)
		}
		d.setNextOffset(nextOffset)
		return targetSize, targetDataOffset, nil
	}
	if typeNum != want {
		return 0, 0, unexpectedKindErr(want, typeNum)
	}
	return size, dataOffset, nil
}

// DecodeBool decodes the value at the decoder's offset as a bool.
func (d *Decoder) DecodeBool() (bool, error) {
	size, offset, err := d.followToKind(KindBool)
	if err != nil {
		return false, d.wrapError(err)
	}
	d.setNextOffset(offset)
	return size != 0, nil
}

// DecodeString decodes the value at the decoder's offset as a string.
func (d *Decoder) DecodeString() (string, error) {
	size, offset, err := d.followToKind(KindString)
	if err != nil {
		return "", d.wrapError(err)
	}
	s, next, err := d.d.decodeString(size, offset)
	if err != nil {
		return "", d.wrapError(err)
	}
	d.setNextOffset(next)
	return s, nil
}

// DecodeBytes decodes the value at the decoder's offset as raw bytes.
func (d *Decoder) DecodeBytes() ([]byte, error) {
	size, offset, err := d.followToKind(KindBytes)
	if err != nil {
		return nil, d.wrapError(err)
	}
	b, next, err := d.d.decodeBytes(size, offset)
	if err != nil {
		return nil, d.wrapError(err)
	}
	d.setNextOffset(next)
	return b, nil
}

// DecodeFloat32 decodes the value at the decoder's offset as a float32.
func (d *Decoder) DecodeFloat32() (float32, error) {
	size, offset, err := d.followToKind(KindFloat32)
	if err != nil {
		return 0, d.wrapError(err)
	}
	v, next, err := d.d.decodeFloat32(size, offset)
	if err != nil {
		return 0, d.wrapError(err)
	}
	d.setNextOffset(next)
	return v, nil
}

// DecodeFloat64 decodes the value at the decoder's offset as a float64.
func (d *Decoder) DecodeFloat64() (float64, error) {
	size, offset, err := d.followToKind(KindFloat64)
	if err != nil {
		return 0, d.wrapError(err)
	}
	v, next, err := d.d.decodeFloat64(size, offset)
	if err != nil {
		return 0, d.wrapError(err)
	}
	d.setNextOffset(next)
	return v, nil
}

// DecodeInt32 decodes the value at the decoder's offset as an int32.
func (d *Decoder) DecodeInt32() (int32, error) {
	size, offset, err := d.followToKind(KindInt32)
	if err != nil {
		return 0, d.wrapError(err)
	}
	if size > 4 {
		return 0, d.wrapError(mmdberrors.New(mmdberrors.KindBadLength,
			"int32 payload of %d bytes exceeds natural width 4", size))
	}
	v, next, err := d.d.decodeInt32(size, offset)
	if err != nil {
		return 0, d.wrapError(err)
	}
	d.setNextOffset(next)
	return v, nil
}

// DecodeUint16 decodes the value at the decoder's offset as a uint16.
func (d *Decoder) DecodeUint16() (uint16, error) {
	size, offset, err := d.followToKind(KindUint16)
	if err != nil {
		return 0, d.wrapError(err)
	}
	if size > 2 {
		return 0, d.wrapError(mmdberrors.New(mmdberrors.KindBadLength,
			"uint16 payload of %d bytes exceeds natural width 2", size))
	}
	v, next, err := d.d.decodeUint(size, offset)
	if err != nil {
		return 0, d.wrapError(err)
	}
	d.setNextOffset(next)
	return uint16(v), nil
}

// DecodeUint32 decodes the value at the decoder's offset as a uint32.
func (d *Decoder) DecodeUint32() (uint32, error) {
	size, offset, err := d.followToKind(KindUint32)
	if err != nil {
		return 0, d.wrapError(err)
	}
	if size > 4 {
		return 0, d.wrapError(mmdberrors.New(mmdberrors.KindBadLength,
			"uint32 payload of %d bytes exceeds natural width 4", size))
	}
	v, next, err := d.d.decodeUint(size, offset)
	if err != nil {
		return 0, d.wrapError(err)
	}
	d.setNextOffset(next)
	return uint32(v), nil
}

// DecodeUint64 decodes the value at the decoder's offset as a uint64.
func (d *Decoder) DecodeUint64() (uint64, error) {
	size, offset, err := d.followToKind(KindUint64)
	if err != nil {
		return 0, d.wrapError(err)
	}
	if size > 8 {
		return 0, d.wrapError(mmdberrors.New(mmdberrors.KindBadLength,
			"uint64 payload of %d bytes exceeds natural width 8", size))
	}
	v, next, err := d.d.decodeUint(size, offset)
	if err != nil {
		return 0, d.wrapError(err)
	}
	d.setNextOffset(next)
	return v, nil
}

// DecodeUint128 decodes the value at the decoder's offset as a uint128.
func (d *Decoder) DecodeUint128() (*big.Int, error) {
	size, offset, err := d.followToKind(KindUint128)
	if err != nil {
		return nil, d.wrapError(err)
	}
	if size > 16 {
		return nil, d.wrapError(mmdberrors.New(mmdberrors.KindBadLength,
			"uint128 payload of %d bytes exceeds natural width 16", size))
	}
	v, next, err := d.d.decodeUint128(size, offset)
	if err != nil {
		return nil, d.wrapError(err)
	}
	d.setNextOffset(next)
	return v, nil
}

// DecodeMap decodes the value at the decoder's offset as a map, invoking cb
// for each key in encoded order. Returning ok == false from cb stops the
// iteration early and skips the remaining encoded entries without decoding
// them.
func (d *Decoder) DecodeMap(cb func(key string, value *Decoder) (bool, error)) error {
	size, offset, err := d.followToKind(KindMap)
	if err != nil {
		return d.wrapError(err)
	}

	dec := d.new(offset)
	for i := uint(0); i < size; i++ {
		key, keyNext, err := dec.d.decodeMapKey(dec.offset)
		if err != nil {
			return d.wrapError(err)
		}
		dec.reset(keyNext)

		ok, cbErr := cb(key, dec)

		if err := dec.Next(1); err != nil {
			return d.wrapError(err)
		}

		if cbErr != nil {
			return cbErr
		}
		if !ok {
			return dec.Next((size - i - 1) * 2)
		}
	}

	d.setNextOffset(dec.offset)
	return nil
}

// DecodeSlice decodes the value at the decoder's offset as a slice,
// invoking cb for each element in order. Returning ok == false from cb stops
// the iteration early and skips the remaining encoded elements.
func (d *Decoder) DecodeSlice(cb func(value *Decoder) (bool, error)) error {
	size, offset, err := d.followToKind(KindSlice)
	if err != nil {
		return d.wrapError(err)
	}

	dec := d.new(offset)
	for i := uint(0); i < size; i++ {
		ok, cbErr := cb(dec)

		if err := dec.Next(1); err != nil {
			return d.wrapError(err)
		}

		if cbErr != nil {
			return cbErr
		}
		if !ok {
			return dec.Next(size - i - 1)
		}
	}

	d.setNextOffset(dec.offset)
	return nil
}

// nextValueOffset skips numberToSkip encoded values starting at offset,
// following the map/slice fan-out rule: a map counts as 2*size values
// (key+value pairs) and a slice as size values.
func (d *DataDecoder) nextValueOffset(offset, numberToSkip uint) (uint, error) {
	if numberToSkip == 0 {
		return offset, nil
	}
	typeNum, size, offset, err := d.decodeCtrlData(offset)
	if err != nil {
		return 0, err
	}
	switch typeNum {
	case KindPointer:
		_, offset, err = d.decodePointer(size, offset)
		if err != nil {
			return 0, err
		}
	case KindMap:
		numberToSkip += 2 * size
	case KindSlice:
		numberToSkip += size
	case KindBool:
	default:
		offset += size
	}
	return d.nextValueOffset(offset, numberToSkip-1)
}
