// Package mmdbreader provides a reader for the MaxMind DB file format.
//
// This package provides an API for reading MaxMind GeoIP2 and GeoLite2
// databases in the MaxMind DB file format (.mmdb files). The API is designed
// to be simple to use while providing high performance for IP geolocation
// lookups and related data.
//
// # Basic Usage
//
// The most common use case is looking up geolocation data for an IP address:
//
//	db, err := mmdbreader.Open("GeoLite2-City.mmdb")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	ip, err := netip.ParseAddr("81.2.69.142")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	var record struct {
//		Country struct {
//			ISOCode string            `maxminddb:"iso_code"`
//			Names   map[string]string `maxminddb:"names"`
//		} `maxminddb:"country"`
//		City struct {
//			Names map[string]string `maxminddb:"names"`
//		} `maxminddb:"city"`
//	}
//
//	err = db.Lookup(ip).Decode(&record)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Custom Unmarshaling
//
// For custom decoding logic, implement the mmdbdata.Unmarshaler interface,
// similar to how encoding/json's json.Unmarshaler works. Types implementing
// this interface use their own decode logic instead of the reflective
// convenience path when used with Result.Decode.
//
// # Network Iteration
//
// Networks walks every network in the database:
//
//	for net := range db.Networks() {
//		var record struct {
//			Country struct {
//				ISOCode string `maxminddb:"iso_code"`
//			} `maxminddb:"country"`
//		}
//		if err := net.Decode(&record); err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("%s: %s\n", net.Prefix, record.Country.ISOCode)
//	}
//
// # Thread Safety
//
// All Database methods are safe for concurrent use once Open or FromBytes
// has returned. Close must not race with an in-flight Lookup, Decoder or
// Networks call.
package mmdbreader

import (
	"errors"
	"io"
	"net/netip"
	"os"
	"runtime"

	"github.com/geodb-oss/mmdbreader/internal/bytesource"
	"github.com/geodb-oss/mmdbreader/internal/decoder"
	"github.com/geodb-oss/mmdbreader/internal/layout"
	"github.com/geodb-oss/mmdbreader/internal/trie"
)

const dataSectionSeparatorSize = 16

// Metadata holds the metadata decoded from the MaxMind DB file.
//
// Key fields include:
//   - DatabaseType: indicates the structure of data records (e.g., "GeoIP2-City")
//   - Description: localized descriptions in various languages
//   - Languages: locale codes for which the database may contain localized data
//   - BuildEpoch: database build timestamp as Unix epoch seconds
//   - IPVersion: supported IP version (4 for IPv4-only, 6 for IPv4/IPv6)
//   - NodeCount: number of nodes in the search tree
//   - RecordSize: size in bits of each record in the search tree (24, 28, or 32)
type Metadata = layout.Metadata

// Database holds the data corresponding to an opened MaxMind DB file. Its
// only public field is Metadata, the file's decoded metadata.
//
// All methods on Database are thread-safe; the struct may be safely shared
// across goroutines.
type Database struct {
	buffer   []byte
	src      bytesource.Source
	data     decoder.DataDecoder
	trie     *trie.Navigator
	Metadata Metadata

	hasMappedFile bool
}

type readerOptions struct{}

// ReaderOption are options for [Open] and [FromBytes].
//
// This was added to allow for future options, e.g., for caching, without
// causing a breaking API change.
type ReaderOption func(*readerOptions)

// Open takes a string path to a MaxMind DB file and any options. It returns a
// Database or an error. The database file is opened using a memory map on
// supported platforms. On platforms without memory map support, or if the
// memory map attempt fails due to lack of support from the filesystem, the
// database is loaded into memory. Use Close to return resources to the
// system.
func Open(file string, options ...ReaderOption) (*Database, error) {
	mapFile, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer mapFile.Close() //nolint:errcheck // error is generally not relevant

	stats, err := mapFile.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stats.Size()
	// mmapping an empty file returns -EINVAL on Unix platforms,
	// and ERROR_FILE_INVALID on Windows.
	if size64 == 0 {
		return nil, errors.New("file is empty")
	}

	size := int(size64)
	if int64(size) != size64 {
		return nil, errors.New("file too large")
	}

	data, err := mmap(int(mapFile.Fd()), size)
	if err != nil {
		if errors.Is(err, errors.ErrUnsupported) {
			data, err = openFallback(mapFile, size)
			if err != nil {
				return nil, err
			}
			return FromBytes(data, options...)
		}
		return nil, err
	}

	db, err := FromBytes(data, options...)
	if err != nil {
		_ = munmap(data)
		return nil, err
	}

	db.hasMappedFile = true
	runtime.SetFinalizer(db, (*Database).Close)
	return db, nil
}

func openFallback(f *os.File, size int) (data []byte, err error) {
	data = make([]byte, size)
	_, err = io.ReadFull(f, data)
	return data, err
}

// Close returns the resources used by the database to the system.
func (db *Database) Close() error {
	var err error
	if db.hasMappedFile {
		runtime.SetFinalizer(db, nil)
		db.hasMappedFile = false
		err = munmap(db.buffer)
	}
	db.buffer = nil
	return err
}

// FromBytes takes a byte slice corresponding to a MaxMind DB file and any
// options. It returns a Database or an error.
func FromBytes(buffer []byte, options ...ReaderOption) (*Database, error) {
	opts := &readerOptions{}
	for _, option := range options {
		option(opts)
	}

	src := bytesource.New(buffer)
	lay, err := layout.Scan(src)
	if err != nil {
		return nil, err
	}

	treeBuf, err := src.ReadAt(0, lay.SearchTreeSize)
	if err != nil {
		return nil, err
	}

	db := &Database{
		buffer:   buffer,
		src:      src,
		data:     lay.Data,
		trie:     trie.New(treeBuf, lay.Metadata.NodeCount, lay.Metadata.RecordSize, lay.Metadata.IPVersion),
		Metadata: lay.Metadata,
	}

	return db, nil
}

// Lookup retrieves the database record for ip and returns a Result, which can
// be used to decode the data.
func (db *Database) Lookup(ip netip.Addr) Result {
	if db.buffer == nil {
		return Result{err: errors.New("cannot call Lookup on a closed database")}
	}

	record, prefixLen, err := db.trie.Lookup(ip)
	if err != nil {
		return Result{ip: ip, prefixLen: uint8(prefixLen), err: err}
	}
	if record == db.trie.NodeCount() {
		return Result{ip: ip, prefixLen: uint8(prefixLen), offset: notFound}
	}

	offset, err := db.trie.DataOffset(record)
	return Result{
		data:      db.data,
		ip:        ip,
		offset:    offset,
		prefixLen: uint8(prefixLen),
		err:       err,
	}
}

// LookupOffset returns the Result for the specified data section offset.
// The netip.Prefix returned by Result.Network will be invalid when using
// LookupOffset, since no tree walk produced it.
func (db *Database) LookupOffset(offset uintptr) Result {
	if db.buffer == nil {
		return Result{err: errors.New("cannot call LookupOffset on a closed database")}
	}
	return Result{data: db.data, offset: uint(offset)}
}

// Decoder returns a step-wise Decoder for the single value stored at offset,
// typically obtained from Result.RecordOffset.
func (db *Database) Decoder(offset uintptr) *Decoder {
	return decoder.NewDecoder(db.data, uint(offset))
}
