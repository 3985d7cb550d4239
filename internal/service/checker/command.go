package checker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/service/common"
)

// Options controls the checker polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// PollInterval defines the interval between alarm checks.
	PollInterval time.Duration
	// Once prints a single snapshot to Output and exits.
	Once bool
	// Output receives the snapshot in Once mode.
	Output io.Writer
}

// DefaultPollInterval defines the fixed polling interval for alarm checks.
const DefaultPollInterval = 5 * time.Second

// alarmSource is the part of the panel client the checker needs.
type alarmSource interface {
	CheckAlarms(ctx context.Context) (*alarm.Result, error)
}

// Run polls the alarm panel and logs every snapshot until the context is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-checker")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	// Command line argument overrides config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	if opts.Once {
		return printOnce(ctx, client, opts.Output)
	}

	logger.InfoKV(ctx, "Polling alarm panel", "server_address", serverAddress, "interval", opts.PollInterval.String())

	return poll(ctx, client, opts.PollInterval)
}

// poll checks the panel every interval. Failed checks are logged and retried on the next tick.
func poll(ctx context.Context, source alarmSource, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
			result, err := source.CheckAlarms(ctx)
			if err != nil {
				logger.ErrorKV(ctx, "Check alarms failed", "error", err)
				continue
			}

			logResult(ctx, result)
		}
	}
}

// printOnce writes one snapshot to w.
func printOnce(ctx context.Context, source alarmSource, w io.Writer) error {
	result, err := source.CheckAlarms(ctx)
	if err != nil {
		return fmt.Errorf("check alarms: %w", err)
	}

	if w == nil {
		logResult(ctx, result)
		return nil
	}

	_, err = fmt.Fprintln(w, Format(result))

	return err
}

func logResult(ctx context.Context, result *alarm.Result) {
	kvs := []any{
		"overall_alarm", result.OverallAlarm,
		"triggered", result.TriggeredSystems,
		"suppressed", result.SuppressedAlarms,
	}

	if result.OverallAlarm {
		logger.WarnKV(ctx, "ALARM", kvs...)
		return
	}

	logger.InfoKV(ctx, "All clear", kvs...)
}

// Format renders a snapshot as one human-readable line.
func Format(result *alarm.Result) string {
	if result == nil {
		return "<nil result>"
	}

	status := "CLEAR"
	if result.OverallAlarm {
		status = "ALARM"
	}

	return fmt.Sprintf("%s at %s; triggered: [%s]; suppressed: [%s]",
		status,
		result.CheckedAt.Format(time.RFC3339),
		strings.Join(result.TriggeredSystems, ", "),
		strings.Join(result.SuppressedAlarms, ", "))
}
