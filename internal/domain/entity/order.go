package entity

import "github.com/DioGolang/GeoDispatch/internal/domain/geo"

// ApproachingThresholdKm is the driver to customer distance that triggers the
// "driver approaching" notification.
const ApproachingThresholdKm = 0.5

type ActiveOrder struct {
	id                        string
	driverID                  string
	customerID                string
	customerPosition          *geo.Coordinate
	status                    OrderStatus
	driverApproachingNotified bool
}

func NewActiveOrder(id, driverID, customerID string, customerPos *geo.Coordinate, status OrderStatus) (*ActiveOrder, error) {
	if id == "" {
		return nil, ErrIDIsRequired
	}
	var pos *geo.Coordinate
	if customerPos != nil {
		p := *customerPos
		pos = &p
	}
	return &ActiveOrder{
		id:               id,
		driverID:         driverID,
		customerID:       customerID,
		customerPosition: pos,
		status:           status,
	}, nil
}

// RestoreActiveOrder rebuilds an order from storage, latch included.
func RestoreActiveOrder(id, driverID, customerID string, customerPos *geo.Coordinate, status OrderStatus, notified bool) (*ActiveOrder, error) {
	o, err := NewActiveOrder(id, driverID, customerID, customerPos, status)
	if err != nil {
		return nil, err
	}
	o.driverApproachingNotified = notified
	return o, nil
}

func (o *ActiveOrder) ID() string                        { return o.id }
func (o *ActiveOrder) DriverID() string                  { return o.driverID }
func (o *ActiveOrder) CustomerID() string                { return o.customerID }
func (o *ActiveOrder) CustomerPosition() *geo.Coordinate { return o.customerPosition }
func (o *ActiveOrder) Status() OrderStatus               { return o.status }
func (o *ActiveOrder) ApproachingNotified() bool         { return o.driverApproachingNotified }

// MarkApproachingNotified closes the latch. It never reopens.
func (o *ActiveOrder) MarkApproachingNotified() error {
	if o.driverApproachingNotified {
		return ErrAlreadyNotified
	}
	o.driverApproachingNotified = true
	return nil
}

// ShouldNotifyApproaching reports whether a driver at driverPos qualifies the
// order for the approaching notification, and the distance that was measured.
func (o *ActiveOrder) ShouldNotifyApproaching(driverPos geo.Coordinate) (float64, bool) {
	if o.driverApproachingNotified || !o.status.IsLive() || o.customerPosition == nil {
		return 0, false
	}
	km, ok := geo.Distance(driverPos, *o.customerPosition)
	if !ok {
		return 0, false
	}
	return km, km < ApproachingThresholdKm
}
