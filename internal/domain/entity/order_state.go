package entity

import "fmt"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderAccepted   OrderStatus = "accepted"
	OrderArrived    OrderStatus = "arrived"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// LiveStatuses are the statuses in which a driver is on the way to the customer.
var LiveStatuses = []OrderStatus{OrderAccepted, OrderArrived, OrderInProgress}

func (s OrderStatus) IsLive() bool {
	switch s {
	case OrderAccepted, OrderArrived, OrderInProgress:
		return true
	}
	return false
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderPending, OrderAccepted, OrderArrived, OrderInProgress, OrderCompleted, OrderCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}
