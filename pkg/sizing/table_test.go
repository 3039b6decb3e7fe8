package sizing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_CaseInsensitiveForEveryCategory(t *testing.T) {
	table := DefaultTable()

	for _, category := range table.Categories() {
		exact := table.Lookup(category)
		require.NotEmpty(t, exact, category)

		assert.Equal(t, exact, table.Lookup(strings.ToLower(category)), category)
		assert.Equal(t, exact, table.Lookup(strings.ToUpper(category)), category)
	}
}

func TestLookup_UnknownCategoryIsEmpty(t *testing.T) {
	table := DefaultTable()

	tests := []string{"Swimwear", "", "unknown", "default", "DEFAULT"}
	for _, category := range tests {
		t.Run(category, func(t *testing.T) {
			sizes := table.Lookup(category)
			assert.NotNil(t, sizes)
			assert.Empty(t, sizes)
		})
	}
}

func TestLookup_ReturnsCopies(t *testing.T) {
	table := DefaultTable()

	sizes := table.Lookup("Football Shirts")
	sizes[0] = "changed"

	assert.Equal(t, "XS", table.Lookup("Football Shirts")[0])
}

func TestNewTable_CopiesInput(t *testing.T) {
	entries := map[string][]string{"Caps": {"One Size"}}
	table := NewTable(entries)

	entries["Caps"][0] = "changed"
	entries["Hats"] = []string{"M"}

	assert.Equal(t, []string{"One Size"}, table.Lookup("caps"))
	assert.Empty(t, table.Lookup("Hats"))
}

func TestFallbackAndCategories(t *testing.T) {
	table := DefaultTable()

	assert.Equal(t, []string{"S", "M", "L", "XL"}, table.Fallback())
	assert.NotContains(t, table.Categories(), FallbackKey)
	assert.Len(t, table.Categories(), 12)
	assert.Equal(t, "Accessories", table.Categories()[0])
}

func TestZeroTable(t *testing.T) {
	var table Table
	assert.Empty(t, table.Lookup("Caps"))
	assert.Empty(t, table.Fallback())
	assert.Empty(t, table.Categories())
}
