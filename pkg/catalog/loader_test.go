package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames_DisplayOrder(t *testing.T) {
	names, err := NewCatalog().Names()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Paintings", "Photography", "Sculpture", "Digital Art",
		"Mixed Media", "Drawings", "Collage", "Printmaking",
	}, names)
}

func TestCategories_ReturnsCopy(t *testing.T) {
	c := NewCatalog()
	first, err := c.Categories()
	require.NoError(t, err)
	first[0].Name = "Mutated"

	second, err := c.Categories()
	require.NoError(t, err)
	assert.Equal(t, "Paintings", second[0].Name)
}

func TestValid_CaseSensitive(t *testing.T) {
	c := NewCatalog()
	assert.True(t, c.Valid("Digital Art"))
	assert.False(t, c.Valid("digital art"))
	assert.False(t, c.Valid(All))
	assert.True(t, c.ValidFilter(All))
	assert.False(t, c.ValidFilter("Pottery"))
}
