package layout

import (
	"testing"

	"github.com/geodb-oss/mmdbreader/internal/bytesource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMetadata encodes a minimal valid MMDB file: a zeroed search tree and
// separator, the metadata marker, then an encoded metadata map.
func buildMetadata(nodeCount, recordSize, ipVersion uint) []byte {
	searchTreeSize := nodeCount * (recordSize / 4)
	buf := make([]byte, searchTreeSize+16)
	buf = append(buf, []byte("\xAB\xCD\xEFMaxMind.com")...)

	// map, size 4
	buf = append(buf, 0xE4)
	appendStr := func(s string) {
		buf = append(buf, byte(0x40|len(s))) // string type (2<<5) | length
		buf = append(buf, []byte(s)...)
	}
	appendUint16 := func(key string, v uint16) {
		appendStr(key)
		buf = append(buf, 0xA1, byte(v)) // uint16 type (5<<5) | 1, 1-byte payload
	}
	appendUint32 := func(key string, v uint32) {
		appendStr(key)
		buf = append(buf, 0xC1, byte(v))
	}

	appendStr("database_type")
	appendStr("Test")
	appendUint16("ip_version", uint16(ipVersion))
	appendUint16("record_size", uint16(recordSize))
	appendUint32("node_count", uint32(nodeCount))

	return buf
}

func TestScanValidMetadata(t *testing.T) {
	buf := buildMetadata(3, 24, 4)
	src := bytesource.New(buf)

	lay, err := Scan(src)
	require.NoError(t, err)
	assert.Equal(t, uint(3), lay.Metadata.NodeCount)
	assert.Equal(t, uint(24), lay.Metadata.RecordSize)
	assert.Equal(t, uint(4), lay.Metadata.IPVersion)
	assert.Equal(t, "Test", lay.Metadata.DatabaseType)
	assert.Equal(t, uint(3*6), lay.SearchTreeSize)
}

func TestScanMissingMarker(t *testing.T) {
	src := bytesource.New([]byte("not an mmdb file"))
	_, err := Scan(src)
	require.Error(t, err)
}

func TestScanRejectsBadRecordSize(t *testing.T) {
	buf := buildMetadata(3, 20, 4)
	src := bytesource.New(buf)
	_, err := Scan(src)
	require.Error(t, err)
}

func TestScanRejectsTrailingBytes(t *testing.T) {
	buf := buildMetadata(3, 24, 4)
	buf = append(buf, 0x00) // garbage after the metadata map's last byte
	src := bytesource.New(buf)
	_, err := Scan(src)
	require.Error(t, err)
}
