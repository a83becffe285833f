package territory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTownTable(t *testing.T) {
	table, err := LoadTownTable()
	require.NoError(t, err)
	assert.Greater(t, table.Len(), 100)

	county, ok := table.Lookup("Darby")
	assert.True(t, ok)
	assert.Equal(t, "Ravalli County", county)

	county, ok = table.Lookup("  St. Ignatius ")
	assert.True(t, ok)
	assert.Equal(t, "Lake County", county)

	county, ok = table.Lookup("gf")
	assert.True(t, ok)
	assert.Equal(t, "Cascade County", county)

	county, ok = table.Lookup("Riverton")
	assert.True(t, ok)
	assert.Equal(t, "Wyoming", county)
}

func TestResolveCounty(t *testing.T) {
	table, err := LoadTownTable()
	require.NoError(t, err)

	assert.Equal(t, "Ravalli County", table.ResolveCounty("darby"))
	assert.Equal(t, "Lewis and Clark County", table.ResolveCounty("East  Helena"))
	assert.Equal(t, "Ravalli county", table.ResolveCounty("Ravalli county"))
	assert.Equal(t, "Ravalli County", table.ResolveCounty("Ravalli"))
	assert.Equal(t, "Nowhere County", table.ResolveCounty("Nowhere"))
}

func TestParseTownTable_Rejects(t *testing.T) {
	_, err := ParseTownTable([]byte("towns: {}\n"))
	assert.Error(t, err)

	_, err = ParseTownTable([]byte("places:\n  darby: Ravalli County\n"))
	assert.Error(t, err)

	table, err := ParseTownTable([]byte("towns:\n  Darby: Ravalli County\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"darby"}, table.Towns())
}
