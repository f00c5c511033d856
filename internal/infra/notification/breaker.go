package notification

import (
	"context"
	"errors"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/sony/gobreaker"
)

var errTransient = errors.New("transient delivery failure")

// BreakerTransport stops calling the provider while it keeps failing. While
// the breaker is open every token is reported as a transient failure.
type BreakerTransport struct {
	next outbound.NotificationTransport
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerTransport(next outbound.NotificationTransport, cb *gobreaker.CircuitBreaker) *BreakerTransport {
	return &BreakerTransport{next: next, cb: cb}
}

func (b *BreakerTransport) SendOne(ctx context.Context, token string, msg outbound.PushMessage) (outbound.DeliveryOutcome, error) {
	return b.run(func() (outbound.DeliveryOutcome, error) { return b.next.SendOne(ctx, token, msg) })
}

func (b *BreakerTransport) Validate(ctx context.Context, token string) (outbound.DeliveryOutcome, error) {
	return b.run(func() (outbound.DeliveryOutcome, error) { return b.next.Validate(ctx, token) })
}

func (b *BreakerTransport) run(call func() (outbound.DeliveryOutcome, error)) (outbound.DeliveryOutcome, error) {
	var outcome outbound.DeliveryOutcome
	_, err := b.cb.Execute(func() (interface{}, error) {
		o, err := call()
		if err != nil {
			return nil, err
		}
		outcome = o
		// a rejected token is a healthy provider answer
		if o == outbound.DeliveryTransientFailure {
			return nil, errTransient
		}
		return nil, nil
	})
	switch {
	case err == nil:
		return outcome, nil
	case errors.Is(err, entity.ErrTransportUnavailable):
		return 0, err
	default:
		return outbound.DeliveryTransientFailure, nil
	}
}
