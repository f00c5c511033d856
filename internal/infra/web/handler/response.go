package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidCoordinate),
		errors.Is(err, entity.ErrIDIsRequired),
		errors.Is(err, entity.ErrTokenIsRequired):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrEntityNotFound), errors.Is(err, entity.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrStoreUnavailable), errors.Is(err, entity.ErrTransportUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
