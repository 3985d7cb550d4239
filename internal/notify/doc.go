// Package notify publishes alarm snapshots to external sinks.
//
// A Dispatcher remembers the last snapshot it delivered and only fans out a
// new one when the alarm decision changed. Sinks are MQTT, RabbitMQ (AMQP)
// and Kafka, plus a log sink that is always present.
package notify
