package event

import (
	"context"
	"fmt"

	"github.com/DioGolang/GeoDispatch/pkg/logger"
	carrier "github.com/DioGolang/GeoDispatch/pkg/otel"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Consumer struct {
	Conn     *amqp.Connection
	Exchange string
	Prefetch int
	Logger   logger.Logger
}

func NewConsumer(conn *amqp.Connection, exchange string, prefetch int, l logger.Logger) *Consumer {
	return &Consumer{
		Conn:     conn,
		Exchange: exchange,
		Prefetch: prefetch,
		Logger:   l,
	}
}

// Start consumes queueName, bound to routingKey, until ctx is cancelled or the
// channel closes. Failed messages are dropped rather than requeued: the next
// location update produces a fresh event.
func (c *Consumer) Start(ctx context.Context, queueName, routingKey string, handler MessageHandler) error {
	ch, err := c.Conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := c.setupTopology(ch, queueName, routingKey); err != nil {
		return fmt.Errorf("error when configuring topology: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(
		ctx,
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	c.Logger.Info(ctx, "Waiting for messages", logger.String("queue", queueName))

	tracer := otel.GetTracerProvider().Tracer("worker-tracer")
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed for queue %s", queueName)
			}
			c.handle(ctx, tracer, queueName, d, handler)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, tracer trace.Tracer, queueName string, d amqp.Delivery, handler MessageHandler) {
	ctx = carrier.ExtractAMQP(ctx, d.Headers)
	ctx, span := tracer.Start(ctx, "Consume "+queueName, trace.WithAttributes(
		attribute.String("queue.name", queueName),
		attribute.String("messaging.message_id", d.MessageId),
	))
	defer span.End()

	if err := handler(ctx, d.Body, d.Headers); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.Logger.Error(ctx, "Message handling failed",
			logger.String("queue", queueName),
			logger.String("message_id", d.MessageId),
			logger.WithError(err),
		)
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.Logger.Warn(ctx, "Nack failed", logger.WithError(nackErr))
		}
		return
	}
	if err := d.Ack(false); err != nil {
		c.Logger.Warn(ctx, "Ack failed", logger.WithError(err))
	}
}

func (c *Consumer) setupTopology(ch *amqp.Channel, queueName, routingKey string) error {
	if c.Prefetch > 0 {
		if err := ch.Qos(c.Prefetch, 0, false); err != nil {
			return err
		}
	}
	_, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}
	return ch.QueueBind(queueName, routingKey, c.Exchange, false, nil)
}
