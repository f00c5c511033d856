// Package matching ranks candidates by great-circle distance to a query point.
package matching

import (
	"sort"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
)

const DefaultK = 4

type Ranked[T any] struct {
	Candidate  T
	DistanceKm float64
}

// PositionFunc extracts a candidate's position; ok=false excludes it.
type PositionFunc[T any] func(T) (geo.Coordinate, bool)

// Nearest returns at most k candidates in non-decreasing distance order.
// Candidates without a position or with an undefined distance are dropped.
// Equal distances keep input order. k <= 0 means DefaultK.
func Nearest[T any](query geo.Coordinate, candidates []T, position PositionFunc[T], k int) []Ranked[T] {
	if k <= 0 {
		k = DefaultK
	}
	ranked := make([]Ranked[T], 0, len(candidates))
	for _, c := range candidates {
		pos, ok := position(c)
		if !ok {
			continue
		}
		km, ok := geo.Distance(query, pos)
		if !ok {
			continue
		}
		ranked = append(ranked, Ranked[T]{Candidate: c, DistanceKm: km})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// DriverPosition is the PositionFunc for drivers.
func DriverPosition(d entity.Driver) (geo.Coordinate, bool) {
	if !d.HasPosition() {
		return geo.Coordinate{}, false
	}
	return *d.Position, true
}

func locationPosition(l entity.Location) (geo.Coordinate, bool) {
	if l.Position == nil {
		return geo.Coordinate{}, false
	}
	return *l.Position, true
}
