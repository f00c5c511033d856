package location

import "time"

// Policy holds the throttle thresholds.
type Policy struct {
	RateLimit              time.Duration
	MinMovementKm          float64
	JumpWarnKm             float64
	ProximityCheckInterval time.Duration
	StoreTimeout           time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		RateLimit:              time.Second,
		MinMovementKm:          0.005,
		JumpWarnKm:             10,
		ProximityCheckInterval: 5 * time.Second,
		StoreTimeout:           3 * time.Second,
	}
}
