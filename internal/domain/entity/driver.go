package entity

import (
	"time"

	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
)

// Driver is a tracked entity. Position is nil until the first accepted report.
type Driver struct {
	ID           string          `json:"id"`
	Code         string          `json:"driverId"`
	Name         string          `json:"name"`
	ServiceType  string          `json:"serviceType"`
	Available    bool            `json:"isAvailable"`
	Lifecycle    Lifecycle       `json:"-"`
	Position     *geo.Coordinate `json:"position,omitempty"`
	LastUpdateAt time.Time       `json:"lastLocationUpdate,omitempty"`
}

func (d *Driver) HasPosition() bool {
	return d.Position != nil && d.Position.IsValid()
}

// MoveTo records an accepted position.
func (d *Driver) MoveTo(pos geo.Coordinate, at time.Time) {
	p := pos
	d.Position = &p
	d.LastUpdateAt = at
}

// DriverFilter narrows the candidate set before ranking. Lifecycle is always Active.
type DriverFilter struct {
	ServiceType   string
	AvailableOnly bool
}

func (f DriverFilter) Match(d Driver) bool {
	if d.Lifecycle != LifecycleActive {
		return false
	}
	if f.ServiceType != "" && d.ServiceType != f.ServiceType {
		return false
	}
	if f.AvailableOnly && !d.Available {
		return false
	}
	return d.HasPosition()
}
