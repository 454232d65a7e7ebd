package mmdbreader

import (
	"iter"
	"net/netip"
)

type networksOptions struct {
	includeAliasedNetworks bool
}

// NetworksOption configures Database.Networks.
type NetworksOption func(*networksOptions)

// IncludeAliasedNetworks includes the IPv4-in-IPv6 alias ranges (::/96,
// ::ffff:0:0/96, 2002::/16, 2001::/32) in a Networks walk over an IPv6
// database. These are skipped by default since they duplicate data already
// reachable as plain IPv4 networks.
func IncludeAliasedNetworks() NetworksOption {
	return func(o *networksOptions) { o.includeAliasedNetworks = true }
}

// NetworkResult is one network yielded by Database.Networks: a CIDR prefix
// plus its associated data record.
type NetworkResult struct {
	// Prefix is the network's CIDR prefix.
	Prefix netip.Prefix
	result Result
}

// Decode unmarshals the network's data record into v. See Result.Decode.
func (n NetworkResult) Decode(v any) error { return n.result.Decode(v) }

// Err reports an error encountered while reconstructing this entry, if any.
func (n NetworkResult) Err() error { return n.result.Err() }

// RecordOffset returns the data section offset backing this network.
func (n NetworkResult) RecordOffset() uintptr { return n.result.RecordOffset() }

// Networks returns an iterator over every network in the database's search
// tree, in depth-first order. Networks whose record is empty (no data) are
// not yielded.
func (db *Database) Networks(options ...NetworksOption) iter.Seq[NetworkResult] {
	opts := &networksOptions{}
	for _, o := range options {
		o(opts)
	}

	return func(yield func(NetworkResult) bool) {
		if db.buffer == nil {
			return
		}
		for entry := range db.trie.Walk(opts.includeAliasedNetworks) {
			offset, err := db.trie.DataOffset(entry.Record)
			result := Result{data: db.data, offset: offset, err: err}
			if !yield(NetworkResult{Prefix: entry.Prefix, result: result}) {
				return
			}
		}
	}
}
