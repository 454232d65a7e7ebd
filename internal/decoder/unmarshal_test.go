package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalStructWithTags(t *testing.T) {
	v := mapValueOf([]MapEntry{
		{Key: "iso_code", Value: stringValue("GB")},
		{Key: "geoname_id", Value: uint32Value(1)},
	})

	var target struct {
		ISOCode   string `maxminddb:"iso_code"`
		GeonameID uint32 `maxminddb:"geoname_id"`
		Unused    string
	}
	require.NoError(t, v.Unmarshal(&target))
	assert.Equal(t, "GB", target.ISOCode)
	assert.Equal(t, uint32(1), target.GeonameID)
	assert.Empty(t, target.Unused)
}

func TestUnmarshalIntoInterface(t *testing.T) {
	v := mapValueOf([]MapEntry{
		{Key: "names", Value: sliceValue([]Value{stringValue("a"), stringValue("b")})},
	})

	var target any
	require.NoError(t, v.Unmarshal(&target))

	m, ok := target.(map[string]any)
	require.True(t, ok)
	names, ok := m["names"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, names)
}

func TestUnmarshalSlice(t *testing.T) {
	v := sliceValue([]Value{uint32Value(1), uint32Value(2), uint32Value(3)})

	var target []uint32
	require.NoError(t, v.Unmarshal(&target))
	assert.Equal(t, []uint32{1, 2, 3}, target)
}

func TestUnmarshalAllocatesNilPointer(t *testing.T) {
	v := stringValue("GB")

	var target *string
	require.NoError(t, v.Unmarshal(&target))
	require.NotNil(t, target)
	assert.Equal(t, "GB", *target)
}

func TestUnmarshalTypeMismatchReturnsError(t *testing.T) {
	v := stringValue("not a number")

	var target int
	err := v.Unmarshal(&target)
	require.Error(t, err)
}

func TestUnmarshalRejectsNonPointerTarget(t *testing.T) {
	v := stringValue("GB")

	var target string
	err := v.Unmarshal(target)
	require.Error(t, err)
}
