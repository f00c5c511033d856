package handler

import (
	"net/http"
	"strconv"

	"github.com/DioGolang/GeoDispatch/internal/application/usecase/nearest"
)

type Nearest struct {
	Drivers      nearest.DriversUseCase
	Supermarkets nearest.SupermarketsUseCase
}

func NewNearestHandler(drivers nearest.DriversUseCase, supermarkets nearest.SupermarketsUseCase) *Nearest {
	return &Nearest{Drivers: drivers, Supermarkets: supermarkets}
}

// FindDrivers handles GET /drivers/nearest?latitude=&longitude=&serviceType=[&limit=][&available=].
func (h *Nearest) FindDrivers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, lng, ok := queryPoint(w, r)
	if !ok {
		return
	}
	serviceType := q.Get("serviceType")
	if serviceType == "" {
		badRequest(w, "serviceType is required")
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	availableOnly := true
	if v := q.Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "available must be a boolean")
			return
		}
		availableOnly = b
	}

	output, err := h.Drivers.Execute(r.Context(), nearest.DriversInput{
		Latitude:      lat,
		Longitude:     lng,
		ServiceType:   serviceType,
		AvailableOnly: availableOnly,
		Limit:         limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// FindSupermarkets handles GET /supermarkets/nearest. A miss is a 404 with
// an empty result.
func (h *Nearest) FindSupermarkets(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := queryPoint(w, r)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	output, err := h.Supermarkets.Execute(r.Context(), nearest.SupermarketsInput{
		Latitude:  lat,
		Longitude: lng,
		Limit:     limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if output.Nearest == nil {
		writeJSON(w, http.StatusNotFound, output)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func queryPoint(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	q := r.URL.Query()
	if q.Get("latitude") == "" || q.Get("longitude") == "" {
		badRequest(w, "latitude and longitude are required")
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil {
		badRequest(w, "latitude must be a number")
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil {
		badRequest(w, "longitude must be a number")
		return 0, 0, false
	}
	return lat, lng, true
}

func queryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		badRequest(w, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
