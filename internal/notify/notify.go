package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/logger"
)

// Publisher delivers one alarm snapshot to a sink.
type Publisher interface {
	Publish(ctx context.Context, snapshot *alarm.Result) error
	Close() error
}

// Source is stamped into every published message.
const Source = "vessel-alarm"

// Message is the JSON payload sent to every sink.
type Message struct {
	Source string `json:"source"`
	*alarm.Result
}

// Encode renders a snapshot as the JSON payload.
func Encode(snapshot *alarm.Result) ([]byte, error) {
	if snapshot == nil {
		return nil, errNilSnapshot
	}

	data, err := json.Marshal(Message{Source: Source, Result: snapshot})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	return data, nil
}

var (
	errNilSnapshot    = errors.New("snapshot is nil")
	errPublishTimeout = errors.New("publish timed out")
)

type sink struct {
	name      string
	publisher Publisher
}

// Dispatcher fans snapshots out to its sinks when the alarm decision changes.
// It is not safe for concurrent use.
type Dispatcher struct {
	sinks []sink
	last  *alarm.Result
}

// NewDispatcher creates a dispatcher without sinks.
func NewDispatcher() *Dispatcher {
	return new(Dispatcher)
}

// Add registers a sink under a name used in logs and errors.
func (d *Dispatcher) Add(name string, publisher Publisher) {
	d.sinks = append(d.sinks, sink{name: name, publisher: publisher})
}

// Sinks returns the registered sink names in order.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.name)
	}

	return names
}

// Notify publishes snapshot to every sink unless it carries the same alarms as
// the last delivered one. It reports whether a publish was attempted.
// A snapshot that failed on any sink is retried on the next call.
func (d *Dispatcher) Notify(ctx context.Context, snapshot *alarm.Result) (bool, error) {
	if snapshot == nil {
		return false, errNilSnapshot
	}

	if d.last.SameAlarms(snapshot) {
		return false, nil
	}

	var errs []error

	for _, s := range d.sinks {
		if err := s.publisher.Publish(ctx, snapshot); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}

	if len(errs) > 0 {
		return true, errors.Join(errs...)
	}

	d.last = snapshot.Clone()

	return true, nil
}

// Close closes every sink and joins their errors.
func (d *Dispatcher) Close() error {
	var errs []error

	for _, s := range d.sinks {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.name, err))
		}
	}

	return errors.Join(errs...)
}

// FromConfig builds a dispatcher with the log sink and every configured broker.
// Sinks that were already connected are closed when a later one fails.
func FromConfig(ctx context.Context, sinks config.Sinks, timeout time.Duration) (*Dispatcher, error) {
	d := NewDispatcher()
	d.Add("log", LogPublisher{})

	if sinks.MQTT.Broker != "" {
		publisher, err := DialMQTT(ctx, sinks.MQTT, timeout)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("mqtt sink: %w", err), d.Close())
		}

		d.Add("mqtt", publisher)
	}

	if sinks.AMQP.URL != "" {
		publisher, err := DialAMQP(sinks.AMQP)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("amqp sink: %w", err), d.Close())
		}

		d.Add("amqp", publisher)
	}

	if len(sinks.Kafka.Brokers) > 0 {
		d.Add("kafka", NewKafkaPublisher(sinks.Kafka))
	}

	logger.InfoKV(ctx, "Alarm sinks configured", "sinks", d.Sinks())

	return d, nil
}

// LogPublisher writes snapshots through the context logger.
type LogPublisher struct{}

// Publish logs the snapshot.
func (LogPublisher) Publish(ctx context.Context, snapshot *alarm.Result) error {
	logger.InfoKV(ctx, "Alarm state changed",
		"overall_alarm", snapshot.OverallAlarm,
		"triggered", snapshot.TriggeredSystems,
		"suppressed", snapshot.SuppressedAlarms,
	)

	return nil
}

// Close does nothing.
func (LogPublisher) Close() error { return nil }
