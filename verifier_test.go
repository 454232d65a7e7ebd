package mmdbreader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRejectsNonZeroSeparator(t *testing.T) {
	buf := buildTestDatabase(t)
	buf[7] = 0xFF // corrupt a byte inside the 16-byte separator

	db, err := FromBytes(buf)
	require.NoError(t, err)
	assert.Error(t, db.Verify())
}

func TestVerifyRejectsCorruptDataSection(t *testing.T) {
	buf := buildTestDatabase(t)
	// The data section's map entry begins right after the separator, at
	// offset 22. Replacing its control byte with an extended-type tag
	// whose extension byte is out of range makes the value undecodable.
	buf[22] = 0x00
	buf[23] = 0xFF

	db, err := FromBytes(buf)
	require.NoError(t, err)
	assert.Error(t, db.Verify())
}
