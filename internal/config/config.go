package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the vessel-alarm binaries.
type Config struct {
	// ServerAddress is the gRPC address of the alarm panel.
	ServerAddress string `yaml:"server_addr"`
	// HTTPAddress is the optional listener for health, status and metrics.
	HTTPAddress string `yaml:"http_addr,omitempty"`
	// StateFile is the path to the JSON file storing maintenance flags.
	StateFile string `yaml:"state_file"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// CheckInterval is the period of the panel's alarm monitor loop.
	CheckInterval time.Duration `yaml:"check_interval"`
	// StepDelay is the simulated time one simulator step takes. Zero makes steps
	// instantaneous; a settings file without the key gets DefaultStepDelay.
	StepDelay time.Duration `yaml:"step_delay"`
	// DatabaseURL is an optional PostgreSQL DSN for test-result records.
	DatabaseURL string `yaml:"database_url,omitempty"`
	// Sinks lists the brokers alarm snapshots are published to.
	Sinks Sinks `yaml:"sinks,omitempty"`
	// Jira holds the CMDB connection settings.
	Jira Jira `yaml:"jira,omitempty"`
}

// Sinks groups the optional broker settings. Empty endpoints disable a sink.
type Sinks struct {
	MQTT  MQTTSink  `yaml:"mqtt,omitempty"`
	AMQP  AMQPSink  `yaml:"amqp,omitempty"`
	Kafka KafkaSink `yaml:"kafka,omitempty"`
}

// MQTTSink configures the MQTT publisher.
type MQTTSink struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

// AMQPSink configures the RabbitMQ publisher.
type AMQPSink struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

// KafkaSink configures the Kafka publisher.
type KafkaSink struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "vessel-alarm-settings.yaml"

	// DefaultStateFilename is the default filename for the maintenance state JSON.
	DefaultStateFilename = "vessel-alarm-state.json"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultCheckInterval is the default period of the alarm monitor loop.
	DefaultCheckInterval = time.Second

	// DefaultStepDelay is the default duration of one simulator step.
	DefaultStepDelay = 100 * time.Millisecond

	// DefaultSinkTopic is used when a sink has an endpoint but no topic or queue.
	DefaultSinkTopic = "vessel-alarms"

	// DefaultFilePermissions is the default file permission for config and state files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may carry a Jira token.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if cfg.HTTPAddress != "" {
		if _, _, err := net.SplitHostPort(cfg.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http address: %w", err)
		}
	}

	applyDefaults(cfg)

	return nil
}

// read loads and decodes the YAML file without validating it.
func read(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	// Keys absent from the file keep these values.
	cfg := Config{StepDelay: DefaultStepDelay}
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}

	if cfg.StepDelay < 0 {
		cfg.StepDelay = DefaultStepDelay
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	if cfg.Sinks.MQTT.Broker != "" && cfg.Sinks.MQTT.Topic == "" {
		cfg.Sinks.MQTT.Topic = "vessel/alarms"
	}

	if cfg.Sinks.AMQP.URL != "" && cfg.Sinks.AMQP.Queue == "" {
		cfg.Sinks.AMQP.Queue = DefaultSinkTopic
	}

	if len(cfg.Sinks.Kafka.Brokers) > 0 && cfg.Sinks.Kafka.Topic == "" {
		cfg.Sinks.Kafka.Topic = DefaultSinkTopic
	}
}
