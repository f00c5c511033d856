package event

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"github.com/DioGolang/GeoDispatch/pkg/metrics"
)

// WrapIdempotency drops redeliveries of an event the handler already
// processed. The event id header is the key; payloads without one are keyed
// by their hash.
func WrapIdempotency(
	log logger.Logger,
	m metrics.Metrics,
	store outbound.ClaimStore,
	handlerName string,
	ttl time.Duration,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]interface{}) error {
		var eventID string
		if v, ok := headers[HeaderEventID]; ok {
			eventID = fmt.Sprintf("%v", v)
		}
		if eventID == "" {
			hash := sha256.Sum256(msg)
			eventID = fmt.Sprintf("hash:%x", hash)
		}

		key := fmt.Sprintf("dedup:%s:%s", handlerName, eventID)

		saved, err := store.SetNX(ctx, key, "processing", ttl)
		if err != nil {
			// fail closed: a duplicate proximity check could double-notify
			log.Error(ctx, "Redis unavailable for idempotency check", logger.WithError(err))
			return fmt.Errorf("idempotency store unavailable: %w", err)
		}

		if !saved {
			m.IncDuplicateEvent(handlerName)
			log.Info(ctx, "Duplicate event dropped by idempotency guard",
				logger.String("handler", handlerName),
				logger.String("event_id", eventID),
			)
			return nil
		}

		err = next(ctx, msg, headers)
		if err != nil {
			log.Warn(ctx, "Handler failed, releasing idempotency key",
				logger.String("key", key),
				logger.WithError(err),
			)
			if delErr := store.Del(context.WithoutCancel(ctx), key); delErr != nil {
				log.Error(ctx, "Failed to release idempotency key",
					logger.String("key", key),
					logger.WithError(delErr),
				)
			}
		}
		return err
	}
}
