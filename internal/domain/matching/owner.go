package matching

import (
	"sort"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
)

type OwnerMatch struct {
	Owner      entity.Supermarket
	Location   entity.Location
	DistanceKm float64
}

// NearestBranch reduces an owner to its closest branch.
func NearestBranch(query geo.Coordinate, owner entity.Supermarket) (OwnerMatch, bool) {
	best := Nearest(query, owner.Branches(), locationPosition, 1)
	if len(best) == 0 {
		return OwnerMatch{}, false
	}
	return OwnerMatch{Owner: owner, Location: best[0].Candidate, DistanceKm: best[0].DistanceKm}, true
}

// NearestOwners ranks owners by their best branch. Owners with no usable
// branch are dropped; ties keep input order.
func NearestOwners(query geo.Coordinate, owners []entity.Supermarket, k int) []OwnerMatch {
	if k <= 0 {
		k = DefaultK
	}
	matches := make([]OwnerMatch, 0, len(owners))
	for _, o := range owners {
		if m, ok := NearestBranch(query, o); ok {
			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// NearestOwnerLocation is NearestOwners with k=1.
func NearestOwnerLocation(query geo.Coordinate, owners []entity.Supermarket) (OwnerMatch, bool) {
	m := NearestOwners(query, owners, 1)
	if len(m) == 0 {
		return OwnerMatch{}, false
	}
	return m[0], true
}
