package entity

import (
	"errors"

	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
)

var (
	ErrIDIsRequired    = errors.New("id is required")
	ErrTokenIsRequired = errors.New("device token is required")

	// ErrInvalidCoordinate is the geo sentinel so errors.Is works from either package.
	ErrInvalidCoordinate = geo.ErrInvalidCoordinate

	ErrEntityNotFound       = errors.New("entity not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrTransportUnavailable = errors.New("notification transport unavailable")
	ErrAlreadyNotified      = errors.New("driver approaching notification already sent")
)
