package mmdbreader

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestDatabase assembles a complete, minimal MMDB byte buffer by hand:
// a one-node IPv4 search tree, a zeroed separator, a data section holding a
// single map value, the metadata marker, and an encoded metadata map.
//
// The tree's only node sends every address whose first bit is 0 to the data
// record; every other address misses.
func buildTestDatabase(t *testing.T) []byte {
	t.Helper()

	tree := []byte{
		0x00, 0x00, 0x11, // left: node_count(1) + 16 = 17, a data pointer
		0x00, 0x00, 0x01, // right: node_count(1), an empty record (miss)
	}
	separator := make([]byte, 16)

	// {"iso_code": "GB"}
	data := []byte{
		0xE1,                                         // map, size 1
		0x48, 'i', 's', 'o', '_', 'c', 'o', 'd', 'e', // key "iso_code"
		0x42, 'G', 'B', // value "GB"
	}

	marker := []byte("\xAB\xCD\xEFMaxMind.com")

	appendStr := func(buf []byte, s string) []byte {
		buf = append(buf, byte(0x40|len(s)))
		return append(buf, []byte(s)...)
	}
	var meta []byte
	meta = append(meta, 0xE7) // map, size 7
	meta = appendStr(meta, "database_type")
	meta = appendStr(meta, "Test")
	meta = appendStr(meta, "binary_format_major_version")
	meta = append(meta, 0xA1, 0x02)
	meta = appendStr(meta, "binary_format_minor_version")
	meta = append(meta, 0xA0)
	meta = appendStr(meta, "ip_version")
	meta = append(meta, 0xA1, 0x04)
	meta = appendStr(meta, "record_size")
	meta = append(meta, 0xA1, 0x18)
	meta = appendStr(meta, "node_count")
	meta = append(meta, 0xC1, 0x01)
	meta = appendStr(meta, "description")
	meta = append(meta, 0xE1) // map, size 1
	meta = appendStr(meta, "en")
	meta = appendStr(meta, "Test Database")

	buf := append([]byte{}, tree...)
	buf = append(buf, separator...)
	buf = append(buf, data...)
	buf = append(buf, marker...)
	buf = append(buf, meta...)
	return buf
}

func TestFromBytesLookupAndDecode(t *testing.T) {
	db, err := FromBytes(buildTestDatabase(t))
	require.NoError(t, err)

	assert.Equal(t, "Test", db.Metadata.DatabaseType)
	assert.Equal(t, uint(1), db.Metadata.NodeCount)
	assert.Equal(t, uint(24), db.Metadata.RecordSize)

	var record struct {
		ISOCode string `maxminddb:"iso_code"`
	}
	err = db.Lookup(netip.MustParseAddr("0.0.0.0")).Decode(&record)
	require.NoError(t, err)
	assert.Equal(t, "GB", record.ISOCode)
}

func TestFromBytesLookupMiss(t *testing.T) {
	db, err := FromBytes(buildTestDatabase(t))
	require.NoError(t, err)

	result := db.Lookup(netip.MustParseAddr("128.0.0.0"))
	require.NoError(t, result.Err())
	assert.False(t, result.Found())

	var record struct {
		ISOCode string `maxminddb:"iso_code"`
	}
	require.NoError(t, result.Decode(&record))
	assert.Empty(t, record.ISOCode, "a miss leaves the target unchanged")
}

func TestFromBytesDecodePath(t *testing.T) {
	db, err := FromBytes(buildTestDatabase(t))
	require.NoError(t, err)

	var isoCode string
	err = db.Lookup(netip.MustParseAddr("0.0.0.0")).DecodePath(&isoCode, "iso_code")
	require.NoError(t, err)
	assert.Equal(t, "GB", isoCode)
}

func TestFromBytesDecodePathMissingKeyReportsPath(t *testing.T) {
	db, err := FromBytes(buildTestDatabase(t))
	require.NoError(t, err)

	var s string
	err = db.Lookup(netip.MustParseAddr("0.0.0.0")).DecodePath(&s, "country", "iso_code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/country")
}

func TestFromBytesVerify(t *testing.T) {
	db, err := FromBytes(buildTestDatabase(t))
	require.NoError(t, err)
	assert.NoError(t, db.Verify())
}

func TestFromBytesNetworks(t *testing.T) {
	db, err := FromBytes(buildTestDatabase(t))
	require.NoError(t, err)

	var prefixes []netip.Prefix
	for net := range db.Networks() {
		require.NoError(t, net.Err())
		prefixes = append(prefixes, net.Prefix)
	}
	require.Len(t, prefixes, 1)
	assert.Equal(t, "0.0.0.0/1", prefixes[0].String())
}

func TestFromBytesRejectsTruncatedFile(t *testing.T) {
	_, err := FromBytes([]byte("not an mmdb file"))
	require.Error(t, err)
}
