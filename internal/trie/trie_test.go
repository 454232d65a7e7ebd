package trie

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree24 lays out nodeCount 24-bit records, 6 bytes per node, from a
// flat list of (left, right) pairs.
func buildTree24(records [][2]uint32) []byte {
	buf := make([]byte, len(records)*6)
	for i, r := range records {
		off := i * 6
		buf[off+0] = byte(r[0] >> 16)
		buf[off+1] = byte(r[0] >> 8)
		buf[off+2] = byte(r[0])
		buf[off+3] = byte(r[1] >> 16)
		buf[off+4] = byte(r[1] >> 8)
		buf[off+5] = byte(r[1])
	}
	return buf
}

func TestLookupIPv4RecordSize24(t *testing.T) {
	// node 0 = [00 00 01 | 00 00 02], node 1 = [00 00 13 | 00 00 00],
	// node 2 unused. node_count=3, so a record of 19 (node_count+16) is
	// the data offset 0 pointer.
	buf := buildTree24([][2]uint32{
		{1, 2},
		{19, 0},
		{0, 0},
	})
	nav := New(buf, 3, 24, 4)

	record, prefixLen, err := nav.Lookup(netip.MustParseAddr("0.0.0.0"))
	require.NoError(t, err)
	assert.Equal(t, uint(19), record)
	assert.Equal(t, 98, prefixLen)

	offset, err := nav.DataOffset(record)
	require.NoError(t, err)
	assert.Equal(t, uint(0), offset)
}

func TestLookupMiss(t *testing.T) {
	// Both records equal node_count itself, the empty-record sentinel, so
	// the walk terminates immediately with a miss regardless of query bits.
	buf := buildTree24([][2]uint32{
		{1, 1},
	})
	nav := New(buf, 1, 24, 4)

	record, _, err := nav.Lookup(netip.MustParseAddr("1.2.3.4"))
	require.NoError(t, err)
	assert.Equal(t, uint(1), record, "record == node_count means not found")
}

func TestLookupVersionMismatch(t *testing.T) {
	buf := buildTree24([][2]uint32{{0, 0}})
	nav := New(buf, 1, 24, 4)

	_, _, err := nav.Lookup(netip.MustParseAddr("2001:db8::1"))
	require.Error(t, err)
}

func TestDataOffsetRejectsNodeValue(t *testing.T) {
	buf := buildTree24([][2]uint32{{0, 0}})
	nav := New(buf, 1, 24, 4)

	_, err := nav.DataOffset(0)
	require.Error(t, err)
}

func TestReadRecord28Bit(t *testing.T) {
	// One 28-bit node occupies 7 bytes: left in the high nibble of byte 3
	// plus bytes 0-2, right in the low nibble of byte 3 plus bytes 4-6.
	buf := []byte{
		0x00, 0x00, 0x01, // left low 24 bits = 1
		0x20,             // high nibble (left) = 2, low nibble (right) = 0
		0x00, 0x00, 0x02, // right low 24 bits = 2
	}
	nav := New(buf, 1, 28, 4)

	left := nav.readRecord(0, 0)
	right := nav.readRecord(0, 1)
	assert.Equal(t, uint(0x2000001), left)
	assert.Equal(t, uint(0x0000002), right)
}

func TestReadRecord32Bit(t *testing.T) {
	buf := []byte{
		0x00, 0x00, 0x00, 0x05, // left
		0x00, 0x00, 0x00, 0x06, // right
	}
	nav := New(buf, 1, 32, 4)

	assert.Equal(t, uint(5), nav.readRecord(0, 0))
	assert.Equal(t, uint(6), nav.readRecord(0, 1))
}

func TestWalkSkipsAliasedNetworksByDefault(t *testing.T) {
	// A 96-node chain of all-left (bit 0) records reaches ::/96 at depth
	// 96, where the final node's left record is a data pointer. Every
	// right record is the empty sentinel, so the only network the walk
	// can report is ::/96 itself, the first aliased range.
	const nodeCount = 96
	records := make([][2]uint32, nodeCount)
	for i := 0; i < nodeCount-1; i++ {
		records[i] = [2]uint32{uint32(i + 1), nodeCount}
	}
	records[nodeCount-1] = [2]uint32{nodeCount + 16, nodeCount}
	buf := buildTree24(records)
	nav := New(buf, nodeCount, 24, 6)

	var seen []netip.Prefix
	for entry := range nav.Walk(false) {
		seen = append(seen, entry.Prefix)
	}
	assert.Empty(t, seen, "::/96 is aliased and should be skipped by default")

	seen = nil
	for entry := range nav.Walk(true) {
		seen = append(seen, entry.Prefix)
	}
	require.Len(t, seen, 1)
	assert.Equal(t, "::/96", seen[0].String())
}
