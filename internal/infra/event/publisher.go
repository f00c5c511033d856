package event

import (
	"context"
	"time"

	carrier "github.com/DioGolang/GeoDispatch/pkg/otel"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends raw event payloads to a RabbitMQ exchange using the topic as
// routing key.
type Publisher struct {
	RabbitMQChannel *amqp.Channel
	Exchange        string
}

func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{RabbitMQChannel: ch, Exchange: exchange}
}

func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte, headers map[string]string) error {
	table := make(amqp.Table, len(headers)+2)
	for k, v := range headers {
		table[k] = v
	}
	table = carrier.InjectAMQP(ctx, table)

	return p.RabbitMQChannel.PublishWithContext(
		ctx,
		p.Exchange,
		topic,
		false,
		false,
		amqp.Publishing{
			Headers:      table,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    headers[HeaderEventID],
			Type:         headers[HeaderEventType],
			Timestamp:    time.Now(),
			Body:         payload,
		})
}
