// Package trie navigates the MMDB search tree: a binary trie over the bits
// of an IP address, in which each node holds a pair of records pointing
// either at a deeper node, at an offset into the data section, or at nothing
// (a miss).
package trie

import (
	"iter"
	"net/netip"

	"github.com/geodb-oss/mmdbreader/internal/mmdberrors"
)

// Navigator walks the search tree of a single opened MMDB file.
type Navigator struct {
	buffer         []byte
	nodeCount      uint
	recordSize     uint
	nodeOffsetMult uint
	ipVersion      uint

	ipv4Start         uint
	ipv4StartBitDepth int
}

// New builds a Navigator over the search tree occupying the first
// nodeCount*recordSize/4 bytes of buffer.
func New(buffer []byte, nodeCount, recordSize, ipVersion uint) *Navigator {
	n := &Navigator{
		buffer:         buffer,
		nodeCount:      nodeCount,
		recordSize:     recordSize,
		nodeOffsetMult: recordSize / 4,
		ipVersion:      ipVersion,
	}
	n.findIPv4Start()
	return n
}

// findIPv4Start walks 96 bits down the left edge of the tree (the IPv4
// address space is mapped at ::/96 in an IPv4-aware tree) so that IPv4
// lookups can start there instead of re-walking the IPv6 prefix every time.
func (n *Navigator) findIPv4Start() {
	if n.ipVersion != 6 {
		n.ipv4StartBitDepth = 96
		return
	}

	node := uint(0)
	i := 0
	for ; i < 96 && node < n.nodeCount; i++ {
		node = n.readRecord(node, 0)
	}
	n.ipv4Start = node
	n.ipv4StartBitDepth = i
}

// Lookup walks the tree for ip and returns the record value at the point the
// walk terminates (either by running out of address bits, or by reaching a
// record that is not an internal node), plus the number of bits matched.
//
// A returned record equal to NodeCount means "not found" (an empty record).
// A record greater than NodeCount encodes a data section pointer, recovered
// via DataOffset. A record less than NodeCount would mean the walk stopped
// early without cause, which Lookup treats as a malformed database.
func (n *Navigator) Lookup(ip netip.Addr) (record uint, prefixLen int, err error) {
	if n.ipVersion == 4 && ip.Is6() {
		return 0, 0, mmdberrors.NewVersionMismatchError(
			"error looking up '%s': you attempted to look up an IPv6 address in an IPv4-only database",
			ip.String(),
		)
	}

	node, depth := n.walk(ip, 128)

	if node == n.nodeCount {
		return n.nodeCount, depth, nil
	}
	if node > n.nodeCount {
		return node, depth, nil
	}
	return 0, depth, mmdberrors.New(mmdberrors.KindMalformed,
		"invalid node in search tree")
}

// DataOffset converts a record value greater than NodeCount (as returned by
// Lookup) into an offset into the data section. The caller's subsequent
// decode reports KindTruncated if the offset runs past the data section.
func (n *Navigator) DataOffset(record uint) (uint, error) {
	if record < n.nodeCount+dataSectionSeparatorSize {
		return 0, mmdberrors.New(mmdberrors.KindBadPointer,
			"the MaxMind DB file's search tree is corrupt")
	}
	return record - n.nodeCount - dataSectionSeparatorSize, nil
}

// dataSectionSeparatorSize mirrors layout.dataSectionSeparatorSize; record
// values point past the all-zero separator between the tree and the data
// section, so translating one to a data offset must account for it.
const dataSectionSeparatorSize = 16

func (n *Navigator) walk(ip netip.Addr, stopBit int) (uint, int) {
	node := uint(0)
	i := 0
	if ip.Is4() || ip.Is4In6() {
		i = n.ipv4StartBitDepth
		node = n.ipv4Start
	}

	ip16 := ip.As16()
	for ; i < stopBit && node < n.nodeCount; i++ {
		byteIdx := i >> 3
		bitPos := 7 - (i & 7)
		bit := (uint(ip16[byteIdx]) >> bitPos) & 1
		node = n.readRecord(node, bit)
	}
	return node, i
}

// readRecord reads the "bit" record (0 = left, 1 = right) of the node at
// index, applying the teacher's per-record-size layout.
func (n *Navigator) readRecord(index, bit uint) uint {
	buffer := n.buffer
	switch n.recordSize {
	case 24:
		offset := index*6 + bit*3
		return (uint(buffer[offset]) << 16) |
			(uint(buffer[offset+1]) << 8) |
			uint(buffer[offset+2])
	case 28:
		baseOffset := index * 7
		sharedByte := uint(buffer[baseOffset+3])
		mask := uint(0xF0 >> (bit * 4))
		shift := 20 + bit*4
		nibble := (sharedByte & mask) << shift
		offset := baseOffset + bit*4
		return nibble |
			(uint(buffer[offset]) << 16) |
			(uint(buffer[offset+1]) << 8) |
			uint(buffer[offset+2])
	case 32:
		offset := index*8 + bit*4
		return (uint(buffer[offset]) << 24) |
			(uint(buffer[offset+1]) << 16) |
			(uint(buffer[offset+2]) << 8) |
			uint(buffer[offset+3])
	default:
		return 0
	}
}

// NodeCount reports the number of nodes in the tree.
func (n *Navigator) NodeCount() uint { return n.nodeCount }

// RecordSize reports the width, in bits, of each record.
func (n *Navigator) RecordSize() uint { return n.recordSize }

// NetworkEntry is one network reached during a full tree walk: a CIDR
// prefix and the record value found at the point the walk stopped
// descending into it.
type NetworkEntry struct {
	Prefix netip.Prefix
	Record uint
}

// aliasedPrefixes are ranges within an IPv6 tree that re-encode the IPv4
// address space under a different name (IPv4-compatible, IPv4-mapped,
// 6to4, Teredo). Walk skips networks entirely contained in one of these by
// default, since they duplicate data already reachable as plain IPv4
// networks rather than describing distinct IPv6 behavior.
var aliasedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("::/96"),
	netip.MustParsePrefix("::ffff:0:0/96"),
	netip.MustParsePrefix("2002::/16"),
	netip.MustParsePrefix("2001::/32"),
}

func isAliased(p netip.Prefix) bool {
	for _, a := range aliasedPrefixes {
		if a.Overlaps(p) && a.Bits() <= p.Bits() {
			return true
		}
	}
	return false
}

// Walk visits every network in the tree in depth-first order, yielding a
// NetworkEntry for each record that points into the data section. Empty
// records (equal to NodeCount) are not yielded. Aliased IPv4-in-IPv6 ranges
// are skipped unless includeAliased is true.
func (n *Navigator) Walk(includeAliased bool) iter.Seq[NetworkEntry] {
	return func(yield func(NetworkEntry) bool) {
		type frame struct {
			node  uint
			bits  [16]byte
			depth int
		}

		totalBits := 128
		startDepth := 0
		if n.ipVersion != 6 {
			totalBits = 32
		}

		stack := []frame{{node: 0, depth: startDepth}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if f.depth == totalBits {
				if !n.emit(f.node, f.bits, f.depth, includeAliased, yield) {
					return
				}
				continue
			}
			if f.node >= n.nodeCount {
				if !n.emit(f.node, f.bits, f.depth, includeAliased, yield) {
					return
				}
				continue
			}

			for _, bit := range []uint{1, 0} {
				childBits := f.bits
				if bit == 1 {
					byteIdx := f.depth >> 3
					bitPos := 7 - (f.depth & 7)
					childBits[byteIdx] |= 1 << uint(bitPos)
				}
				child := n.readRecord(f.node, bit)
				stack = append(stack, frame{node: child, bits: childBits, depth: f.depth + 1})
			}
		}
	}
}

func (n *Navigator) emit(
	node uint,
	bits [16]byte,
	depth int,
	includeAliased bool,
	yield func(NetworkEntry) bool,
) bool {
	if node == n.nodeCount {
		return true // empty record: nothing to report
	}

	var addr netip.Addr
	var prefixBits int
	if n.ipVersion != 6 {
		var b4 [4]byte
		copy(b4[:], bits[:4])
		addr = netip.AddrFrom4(b4)
		prefixBits = depth
	} else {
		addr = netip.AddrFrom16(bits)
		prefixBits = depth
	}

	prefix := netip.PrefixFrom(addr, prefixBits)
	if !includeAliased && n.ipVersion == 6 && isAliased(prefix) {
		return true
	}

	return yield(NetworkEntry{Prefix: prefix, Record: node})
}
