package location

import (
	"time"

	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
)

// Reason explains why an update did or did not move the stored position.
type Reason string

const (
	ReasonAccepted           Reason = "accepted"
	ReasonRateLimited        Reason = "rate_limited"
	ReasonImmaterialMovement Reason = "immaterial_movement"
)

// Input

type SubmitInput struct {
	EntityID  string    `json:"driverId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Now       time.Time `json:"-"`
}

// Output

type SubmitOutput struct {
	Accepted     bool            `json:"accepted"`
	Reason       Reason          `json:"reason"`
	Position     *geo.Coordinate `json:"position,omitempty"`
	LastUpdateAt time.Time       `json:"lastUpdateAt,omitempty"`
	JumpKm       float64         `json:"suspiciousJumpKm,omitempty"`
}

// Event

const (
	LocationAcceptedEvent = "DriverLocationAccepted"
	LocationAcceptedTopic = "drivers.location.accepted"
)

// LocationAccepted is published when an accepted update makes the driver's
// proximity check due.
type LocationAccepted struct {
	DriverID  string    `json:"driverId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	At        time.Time `json:"at"`
}
