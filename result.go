package mmdbreader

import (
	"math"
	"net/netip"

	"github.com/geodb-oss/mmdbreader/internal/decoder"
	"github.com/geodb-oss/mmdbreader/internal/mmdberrors"
	"github.com/geodb-oss/mmdbreader/mmdbdata"
)

const notFound uint = math.MaxUint

// Result is returned by Database.Lookup and Database.LookupOffset. It holds
// either an error from the lookup itself, or the position of a data section
// record ready to be decoded.
type Result struct {
	data      decoder.DataDecoder
	ip        netip.Addr
	err       error
	offset    uint
	prefixLen uint8
}

// Decode unmarshals the data from the data section into the value pointed to
// by v. If v is nil or not a pointer, an error is returned. If the data in
// the database record cannot be stored in v because of type differences, an
// UnmarshalTypeError is returned. If the database is invalid or otherwise
// cannot be read, an InvalidDatabaseError is returned.
//
// An error will also be returned if there was an error during the
// Database.Lookup call.
//
// If the Lookup call did not find a value for the IP address, no error is
// returned and v is left unchanged.
//
// If v implements mmdbdata.Unmarshaler, its UnmarshalMaxMindDB method is
// used instead of the reflective decode path.
func (r Result) Decode(v any) error {
	if r.err != nil {
		return r.err
	}
	if r.offset == notFound {
		return nil
	}

	if u, ok := v.(mmdbdata.Unmarshaler); ok {
		return u.UnmarshalMaxMindDB(decoder.NewDecoder(r.data, r.offset))
	}

	value, _, err := r.data.Decode(r.offset)
	if err != nil {
		return err
	}
	return value.Unmarshal(v)
}

// DecodePath unmarshals a value from the data section into v, following the
// specified path of map keys (string) and/or slice indices (int).
//
// If the path is empty, the entire data structure is decoded into v.
//
// If a step in the path cannot be resolved, the returned error is a
// mmdberrors.ContextualError reporting the offset of the record and the
// JSON-pointer-like path DecodePath had walked so far, e.g.
// "at offset 1234, path /location/city/names/en: path element not found: en".
//
// Example usage:
//
//	var city string
//	err := result.DecodePath(&city, "location", "city", "names", "en")
func (r Result) DecodePath(v any, path ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.offset == notFound {
		return nil
	}

	value, _, err := r.data.Decode(r.offset)
	if err != nil {
		return err
	}

	for i, step := range path {
		switch key := step.(type) {
		case string:
			next, ok := value.MapValue(key)
			if !ok {
				return mmdberrors.WrapWithContext(
					mmdberrors.New(mmdberrors.KindMalformed, "path element not found: %s", key),
					r.offset, pathTracker(path[:i+1]))
			}
			value = next
		case int:
			elems, ok := value.Slice()
			if !ok || key < 0 || key >= len(elems) {
				return mmdberrors.WrapWithContext(
					mmdberrors.New(mmdberrors.KindMalformed, "path index out of range: %d", key),
					r.offset, pathTracker(path[:i+1]))
			}
			value = elems[key]
		default:
			return mmdberrors.WrapWithContext(
				mmdberrors.New(mmdberrors.KindMalformed, "path elements must be string or int, got %T", step),
				r.offset, pathTracker(path[:i+1]))
		}
	}

	if err := value.Unmarshal(v); err != nil {
		return mmdberrors.WrapWithContext(err, r.offset, pathTracker(path))
	}
	return nil
}

// pathTracker builds the ErrorContextTracker reporting the path DecodePath
// had walked at the point of failure, most specific segment last.
func pathTracker(steps []any) mmdberrors.ErrorContextTracker {
	pb := mmdberrors.NewPathBuilder()
	for i := len(steps) - 1; i >= 0; i-- {
		switch s := steps[i].(type) {
		case string:
			pb.PrependMap(s)
		case int:
			pb.PrependSlice(s)
		}
	}
	return pb
}

// Err provides a way to check whether there was an error during the lookup
// without calling Result.Decode. If there was an error, it will also be
// returned from Result.Decode.
func (r Result) Err() error {
	return r.err
}

// Found reports whether the IP was found in the search tree. It returns
// false if the IP was not found or if there was an error.
func (r Result) Found() bool {
	return r.err == nil && r.offset != notFound
}

// RecordOffset returns the offset of the record in the database. This can be
// passed to Database.Decoder or Database.LookupOffset. It can also be used
// as a unique identifier for the data record within this database version,
// to deduplicate across lookups.
func (r Result) RecordOffset() uintptr {
	return uintptr(r.offset)
}

// Network returns the netip.Prefix representing the network associated with
// the data record in the database. It is invalid if the Result came from
// LookupOffset rather than Lookup.
func (r Result) Network() netip.Prefix {
	ip := r.ip
	prefixLen := int(r.prefixLen)

	if ip.Is4() {
		// The node the IPv4 tree starts at may be at a bit depth less than
		// 96, i.e. ipv4Start points directly at a leaf node. This does not
		// happen with databases MaxMind currently distributes but is not
		// ruled out by the format.
		if prefixLen < 96 {
			return netip.PrefixFrom(zeroIP, prefixLen)
		}
		prefixLen -= 96
	}

	prefix, _ := ip.Prefix(prefixLen)
	return prefix
}

var zeroIP = netip.MustParseAddr("::")
