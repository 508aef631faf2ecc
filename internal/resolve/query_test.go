package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-atlas/poi-cli/internal/model"
)

func TestBuildQueriesFullRecord(t *testing.T) {
	rec := model.PlaceRecord{
		Name: "Sunset House",
		Location: model.Location{
			Address:  "390 S Church St",
			District: "George Town",
			Island:   "grand-cayman",
		},
	}

	queries := BuildQueries(rec, "Cayman Islands")
	require.Len(t, queries, 5)

	assert.Equal(t, "Sunset House, 390 S Church St, George Town, grand-cayman, Cayman Islands", queries[0])
	assert.Equal(t, "Sunset House, 390 S Church St, Cayman Islands", queries[1])
	assert.Equal(t, "Sunset House, George Town, grand-cayman, Cayman Islands", queries[2])
	assert.Equal(t, "Sunset House, grand-cayman, Cayman Islands", queries[3])
	assert.Equal(t, "Sunset House, Cayman Islands", queries[4])
}

func TestBuildQueriesNoAddress(t *testing.T) {
	rec := model.PlaceRecord{
		Name: "Rum Point",
		Location: model.Location{
			District: "North Side",
			Island:   "grand-cayman",
		},
	}

	queries := BuildQueries(rec, "Cayman Islands")

	// Without an address, rungs 1 and 3 collapse to the same string and
	// rung 2 collapses to rung 5.
	require.Len(t, queries, 3)
	assert.Equal(t, "Rum Point, North Side, grand-cayman, Cayman Islands", queries[0])
	assert.Equal(t, "Rum Point, Cayman Islands", queries[1])
	assert.Equal(t, "Rum Point, grand-cayman, Cayman Islands", queries[2])
}

func TestBuildQueriesNameOnly(t *testing.T) {
	rec := model.PlaceRecord{Name: "Stingray City"}
	queries := BuildQueries(rec, "Cayman Islands")
	require.Len(t, queries, 1)
	assert.Equal(t, "Stingray City, Cayman Islands", queries[0])
}

func TestBuildQueriesEmptyRecord(t *testing.T) {
	queries := BuildQueries(model.PlaceRecord{}, "")
	assert.Empty(t, queries)
}

func TestBuildQueriesTrimsWhitespace(t *testing.T) {
	rec := model.PlaceRecord{
		Name:     "  Pedro St. James  ",
		Location: model.Location{District: " Savannah "},
	}
	queries := BuildQueries(rec, "Cayman Islands")
	require.NotEmpty(t, queries)
	assert.Equal(t, "Pedro St. James, Savannah, Cayman Islands", queries[0])
}

func TestDistrictKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"George Town", "george-town"},
		{"george town", "george-town"},
		{"West Bay", "west-bay"},
		{"North Side", "north-side"},
		{"St. James", "st-james"},
		{"  Bodden  Town  ", "bodden-town"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, districtKey(tt.in), "input %q", tt.in)
	}
}
