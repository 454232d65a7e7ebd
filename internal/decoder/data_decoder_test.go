package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeControlByteString(t *testing.T) {
	buf := []byte{0x43, 0x61, 0x62, 0x63}
	d := New(buf)
	v, next, err := d.Decode(0)
	require.NoError(t, err)
	assert.Equal(t, uint(4), next)
	s, ok := v.String()
	require.True(t, ok)
	assert.Equal(t, "abc", s)
}

func TestDecodeExtendedLengthString(t *testing.T) {
	payload := make([]byte, 29)
	for i := range payload {
		payload[i] = 'a'
	}
	buf := append([]byte{0x5D, 0x00}, payload...)
	d := New(buf)
	v, _, err := d.Decode(0)
	require.NoError(t, err)
	s, ok := v.String()
	require.True(t, ok)
	assert.Equal(t, string(payload), s)
}

func TestDecodeUint32_500(t *testing.T) {
	buf := []byte{0xC2, 0x01, 0xF4}
	d := New(buf)
	v, next, err := d.Decode(0)
	require.NoError(t, err)
	assert.Equal(t, uint(3), next)
	u, ok := v.Uint32()
	require.True(t, ok)
	assert.Equal(t, uint32(500), u)
}

func TestDecodePointerSize0(t *testing.T) {
	// Pointer control byte (TTT=001 Pointer) with SS=00, VVV=001:
	// byte 0 = 0b001_00_001 = 0x21, byte 1 = 0x23. Target = (1<<8)|0x23 = 0x123.
	buf := make([]byte, 0x124)
	buf[0] = 0x21
	buf[1] = 0x23
	buf[0x123] = 0x40 // a zero-length string at the target offset
	d := New(buf)
	v, next, err := d.Decode(0)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next, "next offset follows the pointer's own bytes, not the target")
	s, ok := v.String()
	require.True(t, ok)
	assert.Equal(t, "", s)
}

func TestDecodeUintZeroPayload(t *testing.T) {
	buf := []byte{0xC0} // uint32 type (6<<5), length 0
	d := New(buf)
	v, _, err := d.Decode(0)
	require.NoError(t, err)
	u, ok := v.Uint32()
	require.True(t, ok)
	assert.Equal(t, uint32(0), u)
}

func TestDecodeBool(t *testing.T) {
	// Bool (kind 14) needs the extended-type encoding: ctrl byte carries
	// the bool's own value in LLLLL, followed by an extension byte of 7
	// (14 - 7) to select the bool kind.
	for _, tc := range []struct {
		b    []byte
		want bool
	}{
		{[]byte{0x00, 0x07}, false},
		{[]byte{0x01, 0x07}, true},
	} {
		d := New(tc.b)
		v, _, err := d.Decode(0)
		require.NoError(t, err)
		got, ok := v.Bool()
		require.True(t, ok)
		assert.Equal(t, tc.want, got)
	}
}

func TestDecodeRejectsPointerChain(t *testing.T) {
	// offset 0: pointer -> offset 2. offset 2: pointer -> offset 4.
	buf := []byte{
		0x20, 0x02, // pointer to offset 2
		0x20, 0x04, // pointer to offset 4
		0x40, // zero-length string
	}
	d := New(buf)
	_, _, err := d.Decode(0)
	require.Error(t, err)
}

func TestDecodeMapAndSlice(t *testing.T) {
	// {"a": [1, 2]}
	buf := []byte{
		0xE1,       // map, size 1
		0x41, 'a',  // key "a"
		0x02, 0x04, // extended type: size 2, ext byte 4 => slice (7+4=11)
		0xC1, 0x01, // uint32 size 1 = 1
		0xC1, 0x02, // uint32 size 1 = 2
	}
	d := New(buf)
	v, _, err := d.Decode(0)
	require.NoError(t, err)
	require.Equal(t, KindMap, v.Kind())

	inner, ok := v.MapValue("a")
	require.True(t, ok)
	elems, ok := inner.Slice()
	require.True(t, ok)
	require.Len(t, elems, 2)
	u0, _ := elems[0].Uint32()
	u1, _ := elems[1].Uint32()
	assert.Equal(t, uint32(1), u0)
	assert.Equal(t, uint32(2), u1)
}

func TestDecodeBadUtf8(t *testing.T) {
	buf := []byte{0x41, 0xFF}
	d := New(buf)
	_, _, err := d.Decode(0)
	require.Error(t, err)
}

func TestVerifyDataSectionWalksWholeBuffer(t *testing.T) {
	// Two sibling values, back to back: "a" then "bb". Neither offset is in
	// the supplied set, so only the forward scan can catch a problem.
	buf := []byte{
		0x41, 'a',
		0x42, 'b', 'b',
	}
	d := New(buf)
	require.NoError(t, d.VerifyDataSection(map[uint]bool{}))
}

func TestVerifyDataSectionCatchesUnreachableCorruption(t *testing.T) {
	buf := []byte{
		0x41, 'a',
		0x00, 0xFF, // unknown extended type, never pointed to by offsets
	}
	d := New(buf)
	assert.Error(t, d.VerifyDataSection(map[uint]bool{0: true}))
}

func TestDecodeUnknownType(t *testing.T) {
	// Extension byte 255 resolves to code 262, outside the valid extended
	// type range (Pointer..Float32).
	buf := []byte{0x00, 0xFF}
	d := New(buf)
	_, _, err := d.Decode(0)
	require.Error(t, err)
}
