package notify

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
)

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes snapshots to a durable RabbitMQ queue through the default exchange.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel amqpChannel
	queue   string
}

// DialAMQP connects, opens a channel and declares the queue.
func DialAMQP(cfg config.AMQPSink) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("declare queue: %w", err)
	}

	publisher := newAMQPPublisher(channel, cfg.Queue)
	publisher.conn = conn

	return publisher, nil
}

func newAMQPPublisher(channel amqpChannel, queue string) *AMQPPublisher {
	return &AMQPPublisher{
		channel: channel,
		queue:   queue,
	}
}

// Publish sends the snapshot as a persistent JSON message.
func (p *AMQPPublisher) Publish(_ context.Context, snapshot *alarm.Result) error {
	payload, err := Encode(snapshot)
	if err != nil {
		return err
	}

	return p.channel.Publish(
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    snapshot.CheckedAt,
			AppId:        Source,
			Body:         payload,
		},
	)
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}

	if p.conn == nil {
		return nil
	}

	return p.conn.Close()
}
