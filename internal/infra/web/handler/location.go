package handler

import (
	"encoding/json"
	"net/http"

	"github.com/DioGolang/GeoDispatch/internal/application/usecase/location"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type Location struct {
	SubmitUseCase location.SubmitUseCase
	Logger        logger.Logger
}

func NewLocationHandler(uc location.SubmitUseCase, log logger.Logger) *Location {
	return &Location{SubmitUseCase: uc, Logger: log}
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Submit handles POST /drivers/{id}/location. Rate limited and immaterial
// updates are still 200 responses carrying accepted=false.
func (h *Location) Submit(w http.ResponseWriter, r *http.Request) {
	var body locationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if body.Latitude == nil || body.Longitude == nil {
		badRequest(w, "latitude and longitude are required")
		return
	}

	output, err := h.SubmitUseCase.Execute(r.Context(), location.SubmitInput{
		EntityID:  chi.URLParam(r, "id"),
		Latitude:  *body.Latitude,
		Longitude: *body.Longitude,
	})
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			h.Logger.Error(r.Context(), "Location update failed", logger.WithError(err))
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}
