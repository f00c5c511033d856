// Package geo holds the coordinate type and the great-circle distance used by
// both the location throttle and the nearest-match ranking.
package geo

import (
	"errors"
	"fmt"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewCoordinate returns a validated coordinate.
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lng}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

func (c Coordinate) Validate() error {
	if !validLatitude(c.Latitude) {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, c.Latitude)
	}
	if !validLongitude(c.Longitude) {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

func (c Coordinate) IsValid() bool {
	return validLatitude(c.Latitude) && validLongitude(c.Longitude)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f,%.6f)", c.Latitude, c.Longitude)
}

// NaN and ±Inf fail the range comparisons, so no separate finite check is needed.
func validLatitude(v float64) bool {
	return v >= MinLatitude && v <= MaxLatitude
}

func validLongitude(v float64) bool {
	return v >= MinLongitude && v <= MaxLongitude
}
