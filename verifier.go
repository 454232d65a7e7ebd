package mmdbreader

import (
	"runtime"

	"github.com/geodb-oss/mmdbreader/internal/mmdberrors"
)

type verifier struct {
	db *Database
}

// Verify checks that the database is valid. It validates the metadata, the
// search tree, the data section separator, and the data section itself: both
// the values reachable from the search tree and every value found walking
// forward across the whole section must decode without error. This is
// stricter than a reading client needs to be; it may reject databases that
// Lookup can still read some records from.
func (db *Database) Verify() error {
	v := verifier{db}
	if err := v.verifyMetadata(); err != nil {
		return err
	}

	err := v.verifyDatabase()
	runtime.KeepAlive(v.db)
	return err
}

func (v *verifier) verifyMetadata() error {
	metadata := v.db.Metadata

	if metadata.BinaryFormatMajorVersion != 2 {
		return testError("binary_format_major_version", 2, metadata.BinaryFormatMajorVersion)
	}
	if metadata.DatabaseType == "" {
		return testError("database_type", "non-empty string", metadata.DatabaseType)
	}
	if len(metadata.Description) == 0 {
		return testError("description", "non-empty map", metadata.Description)
	}
	if metadata.IPVersion != 4 && metadata.IPVersion != 6 {
		return testError("ip_version", "4 or 6", metadata.IPVersion)
	}
	if metadata.RecordSize != 24 && metadata.RecordSize != 28 && metadata.RecordSize != 32 {
		return testError("record_size", "24, 28, or 32", metadata.RecordSize)
	}
	if metadata.NodeCount == 0 {
		return testError("node_count", "positive integer", metadata.NodeCount)
	}
	return nil
}

func (v *verifier) verifyDatabase() error {
	offsets, err := v.verifySearchTree()
	if err != nil {
		return err
	}

	if err := v.verifyDataSectionSeparator(); err != nil {
		return err
	}

	return v.db.data.VerifyDataSection(offsets)
}

// verifySearchTree walks every network in the tree, collecting the set of
// data offsets it references and surfacing the first error encountered
// reconstructing the tree itself.
func (v *verifier) verifySearchTree() (map[uint]bool, error) {
	offsets := make(map[uint]bool)

	for net := range v.db.Networks(IncludeAliasedNetworks()) {
		if err := net.Err(); err != nil {
			return nil, err
		}
		offsets[uint(net.RecordOffset())] = true
	}
	return offsets, nil
}

func (v *verifier) verifyDataSectionSeparator() error {
	separatorStart := v.db.Metadata.NodeCount * v.db.Metadata.RecordSize / 4

	separator, err := v.db.src.ReadAt(separatorStart, dataSectionSeparatorSize)
	if err != nil {
		return err
	}
	for _, b := range separator {
		if b != 0 {
			return mmdberrors.New(mmdberrors.KindMalformed,
				"unexpected byte in data separator: %v", separator)
		}
	}
	return nil
}

func testError(field string, expected, actual any) error {
	return mmdberrors.New(mmdberrors.KindMalformed,
		"%v - Expected: %v Actual: %v", field, expected, actual)
}
