package entity

import "github.com/DioGolang/GeoDispatch/internal/domain/geo"

// Location is a branch of a Supermarket. It has no lifecycle of its own.
type Location struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Position *geo.Coordinate `json:"position,omitempty"`
}

type Supermarket struct {
	ID        string          `json:"id"`
	Code      string          `json:"code,omitempty"`
	Name      string          `json:"name"`
	Lifecycle Lifecycle       `json:"-"`
	Position  *geo.Coordinate `json:"position,omitempty"`
	Locations []Location      `json:"locations,omitempty"`
}

// Branches returns the positions the supermarket can be reached at. Owners
// without branch records fall back to their own position as a single branch.
func (s Supermarket) Branches() []Location {
	if len(s.Locations) > 0 {
		return s.Locations
	}
	if s.Position != nil {
		return []Location{{ID: s.ID, Name: s.Name, Position: s.Position}}
	}
	return nil
}
