//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/diagnostics"
	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/wire"
)

// Client wraps the AlarmPanel gRPC client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alarm panel.
	conn *grpc.ClientConn
	// api is the AlarmPanel client.
	api *wire.AlarmPanelClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errActorRequired is returned when an actor is not provided but is required for the operation.
	errActorRequired = errors.New("actor must be provided")
	// errSubsystemRequired is returned when a maintenance change names no subsystem.
	errSubsystemRequired = errors.New("subsystem must be provided")
)

// Dial creates a client for the alarm panel at address.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alarm panel: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         wire.NewAlarmPanelClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// CheckAlarms asks the panel for a fresh alarm result.
func (c *Client) CheckAlarms(ctx context.Context) (*alarm.Result, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.CheckAlarms(callCtx)
	if err != nil {
		return nil, fmt.Errorf("check alarms: %w", err)
	}

	return wire.ResultFromProto(resp)
}

// SetMaintenanceMode changes a subsystem's maintenance flag on the panel.
func (c *Client) SetMaintenanceMode(
	ctx context.Context,
	actor *alarm.Actor,
	subsystem string,
	enabled bool,
) (*alarm.MaintenanceState, error) {
	if actor == nil {
		return nil, errActorRequired
	}

	if subsystem == "" {
		return nil, errSubsystemRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request := wire.MaintenanceRequestToProto(&wire.MaintenanceRequest{
		Subsystem: subsystem,
		Enabled:   enabled,
		Actor:     actor,
	})

	resp, err := c.api.SetMaintenanceMode(callCtx, request)
	if err != nil {
		return nil, fmt.Errorf("set maintenance mode: %w", err)
	}

	return wire.MaintenanceFromProto(resp)
}

// GetMaintenance reads the panel's maintenance flags.
func (c *Client) GetMaintenance(ctx context.Context) (*alarm.MaintenanceState, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetMaintenance(callCtx)
	if err != nil {
		return nil, fmt.Errorf("get maintenance: %w", err)
	}

	return wire.MaintenanceFromProto(resp)
}

// ResetAlarms clears every subsystem's alarms and returns when it happened.
func (c *Client) ResetAlarms(ctx context.Context) (time.Time, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ResetAlarms(callCtx)
	if err != nil {
		return time.Time{}, fmt.Errorf("reset alarms: %w", err)
	}

	return resp.AsTime(), nil
}

// RunDiagnostics runs the self-test on the panel's own subsystems.
func (c *Client) RunDiagnostics(ctx context.Context) (*diagnostics.Results, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.RunDiagnostics(callCtx)
	if err != nil {
		return nil, fmt.Errorf("run diagnostics: %w", err)
	}

	return wire.DiagnosticsFromProto(resp)
}

// InjectFault applies a simulated fault on the panel and returns the alarm check after it.
func (c *Client) InjectFault(ctx context.Context, stimulus *alarm.Stimulus) (*alarm.Result, error) {
	if err := stimulus.Validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.InjectFault(callCtx, wire.StimulusToProto(stimulus))
	if err != nil {
		return nil, fmt.Errorf("inject fault: %w", err)
	}

	return wire.ResultFromProto(resp)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
