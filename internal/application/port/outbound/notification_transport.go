package outbound

import "context"

type DeliveryOutcome int

const (
	DeliverySuccess DeliveryOutcome = iota
	DeliveryTransientFailure
	DeliveryPermanentInvalid
)

func (o DeliveryOutcome) String() string {
	switch o {
	case DeliverySuccess:
		return "success"
	case DeliveryTransientFailure:
		return "transient_failure"
	case DeliveryPermanentInvalid:
		return "permanent_invalid"
	}
	return "unknown"
}

type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// NotificationTransport delivers to a single device token. The error return is
// reserved for entity.ErrTransportUnavailable (e.g. missing credentials);
// per-token failures are reported through the outcome.
type NotificationTransport interface {
	SendOne(ctx context.Context, token string, msg PushMessage) (DeliveryOutcome, error)
	// Validate performs a dry run against the token without notifying the device.
	Validate(ctx context.Context, token string) (DeliveryOutcome, error)
}
