// Package layout bootstraps an opened MMDB file: it locates the metadata
// section, decodes it, and derives the search tree and data section
// boundaries that the trie navigator and value decoder need.
package layout

import (
	"time"

	"github.com/geodb-oss/mmdbreader/internal/bytesource"
	"github.com/geodb-oss/mmdbreader/internal/decoder"
	"github.com/geodb-oss/mmdbreader/internal/mmdberrors"
)

var metadataStartMarker = []byte("\xAB\xCD\xEFMaxMind.com")

// dataSectionSeparatorSize is the width, in bytes, of the all-zero region
// that separates the search tree from the data section.
const dataSectionSeparatorSize = 16

// Metadata holds the metadata decoded from an MMDB file's metadata section.
type Metadata struct {
	// Description holds localized database descriptions, keyed by language code.
	Description map[string]string
	// DatabaseType indicates the structure of the data records associated
	// with IP addresses, e.g. "GeoIP2-City".
	DatabaseType string
	// Languages lists locale codes for which this database may contain
	// localized data.
	Languages []string
	// BinaryFormatMajorVersion is the major version of the MaxMind DB
	// binary format.
	BinaryFormatMajorVersion uint
	// BinaryFormatMinorVersion is the minor version of the MaxMind DB
	// binary format.
	BinaryFormatMinorVersion uint
	// BuildEpoch is the database build timestamp, in Unix epoch seconds.
	BuildEpoch uint
	// IPVersion is 4 for an IPv4-only database, 6 for one that also
	// carries IPv6 networks.
	IPVersion uint
	// NodeCount is the number of nodes in the search tree.
	NodeCount uint
	// RecordSize is the width, in bits, of each record in the search
	// tree: 24, 28 or 32.
	RecordSize uint
}

// BuildTime returns the database's build time as a time.Time.
func (m Metadata) BuildTime() time.Time {
	return time.Unix(int64(m.BuildEpoch), 0)
}

// Layout is the bootstrapped geometry of an opened MMDB file.
type Layout struct {
	Metadata Metadata

	// SearchTreeSize is the total size, in bytes, of the search tree.
	SearchTreeSize uint

	// Data decodes values relative to the start of the data section.
	Data decoder.DataDecoder
}

// Scan locates the metadata marker within src, decodes the metadata map, and
// derives the search tree / data section boundaries from it.
func Scan(src bytesource.Source) (Layout, error) {
	markerAt := src.FindLast(metadataStartMarker)
	if markerAt == -1 {
		return Layout{}, mmdberrors.New(mmdberrors.KindNotAnMmdb,
			"error opening database: invalid MaxMind DB file")
	}
	metadataStart := uint(markerAt) + uint(len(metadataStartMarker))

	metadataBuf, err := src.ReadAt(metadataStart, uint(src.Len())-metadataStart)
	if err != nil {
		return Layout{}, err
	}

	metadataDecoder := decoder.New(metadataBuf)
	raw, next, err := metadataDecoder.Decode(0)
	if err != nil {
		return Layout{}, err
	}
	if next != uint(len(metadataBuf)) {
		return Layout{}, mmdberrors.New(mmdberrors.KindMalformed,
			"%d trailing byte(s) after the metadata value", uint(len(metadataBuf))-next)
	}
	metadata, err := metadataFromValue(raw)
	if err != nil {
		return Layout{}, err
	}

	searchTreeSize := metadata.NodeCount * (metadata.RecordSize / 4)
	dataStart := searchTreeSize + dataSectionSeparatorSize
	dataEnd := metadataStart - uint(len(metadataStartMarker))
	if dataStart > dataEnd {
		return Layout{}, mmdberrors.New(mmdberrors.KindMalformed,
			"the MaxMind DB contains invalid metadata")
	}

	dataBuf, err := src.ReadAt(dataStart, dataEnd-dataStart)
	if err != nil {
		return Layout{}, err
	}

	return Layout{
		Metadata:       metadata,
		SearchTreeSize: searchTreeSize,
		Data:           decoder.New(dataBuf),
	}, nil
}

// metadataFromValue extracts a Metadata from the decoded root Value, which
// must be a map. Missing keys decode to their zero value: the format does
// not require every key to be present in every database.
func metadataFromValue(v decoder.Value) (Metadata, error) {
	if v.Kind() != decoder.KindMap {
		return Metadata{}, mmdberrors.New(mmdberrors.KindMalformed,
			"metadata section does not contain a map")
	}

	var m Metadata
	if s, ok := v.MapValue("database_type"); ok {
		m.DatabaseType, _ = s.String()
	}
	if s, ok := v.MapValue("binary_format_major_version"); ok {
		u, _ := s.Uint16()
		m.BinaryFormatMajorVersion = uint(u)
	}
	if s, ok := v.MapValue("binary_format_minor_version"); ok {
		u, _ := s.Uint16()
		m.BinaryFormatMinorVersion = uint(u)
	}
	if s, ok := v.MapValue("build_epoch"); ok {
		u, _ := s.Uint64()
		m.BuildEpoch = uint(u)
	}
	if s, ok := v.MapValue("ip_version"); ok {
		u, _ := s.Uint16()
		m.IPVersion = uint(u)
	}
	if s, ok := v.MapValue("node_count"); ok {
		u, _ := s.Uint32()
		m.NodeCount = uint(u)
	}
	if s, ok := v.MapValue("record_size"); ok {
		u, _ := s.Uint16()
		m.RecordSize = uint(u)
	}
	if s, ok := v.MapValue("languages"); ok {
		if elems, ok := s.Slice(); ok {
			m.Languages = make([]string, 0, len(elems))
			for _, e := range elems {
				if str, ok := e.String(); ok {
					m.Languages = append(m.Languages, str)
				}
			}
		}
	}
	if s, ok := v.MapValue("description"); ok {
		if entries, ok := s.Map(); ok {
			m.Description = make(map[string]string, len(entries))
			for _, e := range entries {
				if str, ok := e.Value.String(); ok {
					m.Description[e.Key] = str
				}
			}
		}
	}

	if m.RecordSize != 24 && m.RecordSize != 28 && m.RecordSize != 32 {
		return Metadata{}, mmdberrors.New(mmdberrors.KindMalformed,
			"unsupported record size: %d", m.RecordSize)
	}
	if m.IPVersion != 4 && m.IPVersion != 6 {
		return Metadata{}, mmdberrors.New(mmdberrors.KindMalformed,
			"unsupported ip version: %d", m.IPVersion)
	}

	return m, nil
}
