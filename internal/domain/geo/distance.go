package geo

import "math"

const EarthRadiusKm = 6371.0

// Distance returns the haversine distance in kilometres. ok is false when
// either coordinate is unusable or the result is not finite; callers treat
// that as "cannot compare" rather than as an error.
func Distance(a, b Coordinate) (km float64, ok bool) {
	if !a.IsValid() || !b.IsValid() {
		return 0, false
	}

	dLat := toRad(b.Latitude - a.Latitude)
	dLng := toRad(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*sinLng*sinLng
	// rounding can push h just past 1 for antipodal points
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	km = EarthRadiusKm * c

	if math.IsNaN(km) || math.IsInf(km, 0) || km < 0 {
		return 0, false
	}
	return km, true
}

// DistancePtr is Distance for optional positions; a nil side is undefined.
func DistancePtr(a, b *Coordinate) (float64, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return Distance(*a, *b)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
