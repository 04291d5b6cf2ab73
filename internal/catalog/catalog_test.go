package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Known(t *testing.T) {
	info, ok := Lookup("карандашница")
	require.True(t, ok)
	assert.Equal(t, "66 BYN", info.RangeLabel)
	assert.Equal(t, float64(66), info.Min)
	assert.Equal(t, float64(66), info.Max)

	info, ok = Lookup("настенные часы")
	require.True(t, ok)
	assert.Equal(t, "165-495 BYN", info.RangeLabel)
	assert.Equal(t, float64(165), info.Min)
	assert.Equal(t, float64(495), info.Max)
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := Lookup("шкатулка")
	assert.False(t, ok)
	_, ok = Lookup("")
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	types := List()
	require.Len(t, types, 17)

	// Stable order, first and last entries pinned.
	assert.Equal(t, "настенные часы", types[0].Name)
	assert.Equal(t, "сувенирная упаковка", types[len(types)-1].Name)

	for _, pt := range types {
		assert.LessOrEqual(t, pt.Min, pt.Max, pt.Name)
		assert.NotEmpty(t, pt.RangeLabel, pt.Name)
	}
}
