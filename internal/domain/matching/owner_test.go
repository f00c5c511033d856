package matching

import (
	"testing"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kmEast returns a point roughly km kilometres east of the origin on the equator.
func kmEast(km float64) *geo.Coordinate {
	return &geo.Coordinate{Latitude: 0, Longitude: km / 111.195}
}

func TestNearestBranch_UsesBestLocation(t *testing.T) {
	owner := entity.Supermarket{
		ID: "s-1",
		Locations: []entity.Location{
			{ID: "far", Position: kmEast(50)},
			{ID: "near", Position: kmEast(3)},
			{ID: "mid", Position: kmEast(20)},
		},
	}

	m, ok := NearestBranch(geo.Coordinate{}, owner)

	require.True(t, ok)
	assert.Equal(t, "near", m.Location.ID)
	assert.InDelta(t, 3.0, m.DistanceKm, 0.01)
}

func TestNearestOwners_RankByBestBranch(t *testing.T) {
	//Arrange
	multi := entity.Supermarket{
		ID: "multi",
		Locations: []entity.Location{
			{ID: "m-50", Position: kmEast(50)},
			{ID: "m-3", Position: kmEast(3)},
			{ID: "m-20", Position: kmEast(20)},
		},
	}
	single := entity.Supermarket{ID: "single", Position: kmEast(10)}
	empty := entity.Supermarket{ID: "empty"}

	//Act
	got := NearestOwners(geo.Coordinate{}, []entity.Supermarket{single, empty, multi}, 4)

	//Assert
	require.Len(t, got, 2)
	assert.Equal(t, "multi", got[0].Owner.ID)
	assert.Equal(t, "m-3", got[0].Location.ID)
	assert.InDelta(t, 3.0, got[0].DistanceKm, 0.01)
	assert.Equal(t, "single", got[1].Owner.ID)
	assert.Equal(t, "single", got[1].Location.ID)
}

func TestNearestOwnerLocation(t *testing.T) {
	_, ok := NearestOwnerLocation(geo.Coordinate{}, nil)
	assert.False(t, ok)

	owners := []entity.Supermarket{
		{ID: "a", Position: kmEast(5)},
		{ID: "b", Locations: []entity.Location{{ID: "b-1", Position: kmEast(1)}, {ID: "b-2"}}},
	}
	m, ok := NearestOwnerLocation(geo.Coordinate{}, owners)
	require.True(t, ok)
	assert.Equal(t, "b", m.Owner.ID)
	assert.Equal(t, "b-1", m.Location.ID)
}
