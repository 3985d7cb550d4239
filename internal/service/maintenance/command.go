package maintenance

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/service/common"
)

// Options configures a maintenance mode change.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// Subsystem names the panel subsystem to change.
	Subsystem string
	// Enabled is the desired maintenance flag.
	Enabled bool
	// MaxAttempts bounds the tries while the panel is unreachable. Zero means DefaultMaxAttempts.
	MaxAttempts int
}

const (
	// DefaultMaxAttempts is how many times an unreachable panel is retried.
	DefaultMaxAttempts = 5
	// retryInterval is the pause between attempts.
	retryInterval = time.Second
)

var (
	// ErrUnknownSubsystem is returned when the panel has no subsystem with the requested name.
	ErrUnknownSubsystem = errors.New("subsystem not found in alarm panel")
	// ErrRejected is returned when the panel refuses the request.
	ErrRejected = errors.New("maintenance request rejected")
)

// setter is the part of the panel client the command needs.
type setter interface {
	SetMaintenanceMode(ctx context.Context, actor *alarm.Actor, subsystem string, enabled bool) (*alarm.MaintenanceState, error)
}

// Run changes the maintenance flag of one subsystem on the panel.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-maintenance")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Requesting maintenance change",
		"server_address", serverAddress,
		"subsystem", opts.Subsystem,
		"enabled", opts.Enabled)

	state, err := apply(ctx, client, actor, opts, retryInterval)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Maintenance updated: %s", Format(state, opts.Subsystem))

	return nil
}

// apply sends the change, retrying only while the panel is unavailable.
func apply(
	ctx context.Context,
	client setter,
	actor *alarm.Actor,
	opts *Options,
	interval time.Duration,
) (*alarm.MaintenanceState, error) {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		state, err := client.SetMaintenanceMode(ctx, actor, opts.Subsystem, opts.Enabled)

		switch status.Code(err) {
		case codes.OK:
			return state, nil
		case codes.NotFound:
			return nil, fmt.Errorf("%w: %s", ErrUnknownSubsystem, opts.Subsystem)
		case codes.InvalidArgument:
			return nil, fmt.Errorf("%w: %v", ErrRejected, err)
		case codes.Unavailable, codes.DeadlineExceeded:
			lastErr = err
			logger.WarnKV(ctx, "Alarm panel unavailable", "attempt", attempt, "error", err)
		default:
			return nil, err
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}

	return nil, fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
}

// Format renders the state of one subsystem with the last change.
func Format(state *alarm.MaintenanceState, subsystem string) string {
	if state == nil {
		return "<nil state>"
	}

	mode := "in service"
	if state.Flags[subsystem] {
		mode = "in maintenance"
	}

	timestamp := "<unknown>"
	if !state.Timestamp.IsZero() {
		timestamp = state.Timestamp.Format(time.RFC3339)
	}

	var others []string

	for name, enabled := range state.Flags {
		if enabled && name != subsystem {
			others = append(others, name)
		}
	}

	slices.Sort(others)

	line := fmt.Sprintf("%s %s by %s (%s)", subsystem, mode, state.LastActor.String(), timestamp)
	if len(others) > 0 {
		line += fmt.Sprintf("; also in maintenance: %v", others)
	}

	return line
}
