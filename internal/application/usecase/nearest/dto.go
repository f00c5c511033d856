package nearest

import (
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
)

// Input

type DriversInput struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ServiceType   string  `json:"serviceType"`
	AvailableOnly bool    `json:"availableOnly"`
	Limit         int     `json:"limit"`
}

type SupermarketsInput struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Limit     int     `json:"limit"`
}

// Output

type DriverMatch struct {
	Driver     entity.Driver `json:"driver"`
	DistanceKm float64       `json:"distanceKm"`
}

type DriversOutput struct {
	Drivers []DriverMatch `json:"drivers"`
}

type SupermarketMatch struct {
	Supermarket entity.Supermarket `json:"supermarket"`
	Location    entity.Location    `json:"location"`
	DistanceKm  float64            `json:"distanceKm"`
}

type SupermarketsOutput struct {
	// Nearest is nil when no supermarket has a usable position.
	Nearest *SupermarketMatch  `json:"nearest"`
	Ranked  []SupermarketMatch `json:"supermarkets"`
}
