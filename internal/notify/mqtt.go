package notify

import (
	"context"
	"time"

	pmqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/logger"
)

const (
	mqttQoS             = 1
	mqttDisconnectQuiet = 250
)

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload any) pmqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes snapshots to an MQTT topic.
type MQTTPublisher struct {
	client  mqttClient
	topic   string
	timeout time.Duration
}

// DialMQTT connects to the broker and returns a publisher for the configured topic.
func DialMQTT(ctx context.Context, cfg config.MQTTSink, timeout time.Duration) (*MQTTPublisher, error) {
	ctx = logger.WithKV(ctx, "broker", cfg.Broker)

	opts := pmqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID("vessel-alarm-" + uuid.NewString()).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(timeout).
		SetOnConnectHandler(func(pmqtt.Client) {
			logger.Info(ctx, "Connected to MQTT broker")
		}).
		SetConnectionLostHandler(func(_ pmqtt.Client, err error) {
			logger.WarnKV(ctx, "MQTT connection lost", "error", err)
		})

	client := pmqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, errPublishTimeout
	}

	if err := token.Error(); err != nil {
		return nil, err
	}

	return newMQTTPublisher(client, cfg.Topic, timeout), nil
}

func newMQTTPublisher(client mqttClient, topic string, timeout time.Duration) *MQTTPublisher {
	return &MQTTPublisher{
		client:  client,
		topic:   topic,
		timeout: timeout,
	}
}

// Publish sends the snapshot with QoS 1 and waits up to the publisher timeout.
func (p *MQTTPublisher) Publish(_ context.Context, snapshot *alarm.Result) error {
	payload, err := Encode(snapshot)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, mqttQoS, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return errPublishTimeout
	}

	return token.Error()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(mqttDisconnectQuiet)

	return nil
}
