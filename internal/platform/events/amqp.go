package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPSink publishes events to a RabbitMQ topic exchange with routing keys
// like "clinicdesk.booking.created".
type AMQPSink struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPSink(amqpURL, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPSink{conn: conn, channel: channel, exchange: exchange}, nil
}

func (s *AMQPSink) Deliver(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.channel.PublishWithContext(ctx, s.exchange, "clinicdesk."+e.Type, false, false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   e.OccurredAt,
			Body:        body,
		})
}

func (s *AMQPSink) Close() error {
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			return err
		}
	}
	return s.conn.Close()
}
