package notify

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes snapshots to a Kafka topic keyed by Source.
type KafkaPublisher struct {
	writer kafkaWriter
}

// NewKafkaPublisher creates a synchronous writer for the configured brokers.
// Connections are opened lazily on the first publish.
func NewKafkaPublisher(cfg config.KafkaSink) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 250 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish writes one message and waits for the broker acknowledgement.
func (p *KafkaPublisher) Publish(ctx context.Context, snapshot *alarm.Result) error {
	payload, err := Encode(snapshot)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(Source),
		Value: payload,
		Time:  snapshot.CheckedAt.UTC(),
	})
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
