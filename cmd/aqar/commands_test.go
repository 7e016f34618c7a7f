package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/aqar/internal/search"
)

func TestApplyFilters(t *testing.T) {
	f := search.DefaultFilters()

	require.NoError(t, applyFilters(&f, []string{"city=riyadh", "type=rent", "maxPrice=5000"}))

	assert.Equal(t, "riyadh", f.City)
	assert.Equal(t, "rent", f.ListingType)
	assert.Equal(t, "5000", f.MaxPrice)
	assert.Equal(t, search.All, f.Category)
}

func TestApplyFilters_Rejects(t *testing.T) {
	f := search.DefaultFilters()

	assert.Error(t, applyFilters(&f, []string{"city"}))
	assert.Error(t, applyFilters(&f, []string{"color=red"}))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, false, parseValue("false"))
	assert.Equal(t, "en", parseValue("en"))
}
