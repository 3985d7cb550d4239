package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"

	api "github.com/oshokin/vessel-alarm/internal/api/grpc/panel"
	"github.com/oshokin/vessel-alarm/internal/api/httpapi"
	"github.com/oshokin/vessel-alarm/internal/config"
	domain "github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/metrics"
	"github.com/oshokin/vessel-alarm/internal/notify"
	"github.com/oshokin/vessel-alarm/internal/panel"
	repository "github.com/oshokin/vessel-alarm/internal/repository/maintenance"
	"github.com/oshokin/vessel-alarm/internal/service/common"
	"github.com/oshokin/vessel-alarm/internal/wire"
)

// ProcessName is the name the alarm panel runs and logs under.
const ProcessName = "alarm-panel"

// shutdownTimeout bounds the HTTP server drain on exit.
const shutdownTimeout = 5 * time.Second

// Options controls the alarm-panel process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// HTTPAddress overrides the optional health and metrics listener.
	HTTPAddress string
	// StateFile specifies the path to persist maintenance flags.
	StateFile string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the alarm panel and blocks until context is canceled or the gRPC server stops.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, ProcessName)

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = common.EnsureSingleInstance(ProcessName); err != nil {
		return err
	}

	stateFile := settings.StateFile
	if opts.StateFile != "" {
		stateFile = opts.StateFile
	}

	httpAddress := settings.HTTPAddress
	if opts.HTTPAddress != "" {
		httpAddress = opts.HTTPAddress
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	m := metrics.New()

	svc, err := newService(ctx,
		newVessel(settings.StepDelay),
		repository.NewFileRepository(stateFile),
		m,
		panel.WithObserver(panel.LogObserver{}),
		panel.WithObserver(m))
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	dispatcher, err := notify.FromConfig(ctx, settings.Sinks, settings.Timeout)
	if err != nil {
		return fmt.Errorf("configure alarm sinks: %w", err)
	}

	defer func() {
		if closeErr := dispatcher.Close(); closeErr != nil {
			logger.Warnf(ctx, "Failed to close alarm sinks: %v", closeErr)
		}
	}()

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	wire.RegisterAlarmPanelServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Alarm panel listening",
		"listen_address", listenAddress,
		"state_file", stateFile,
		"subsystems", svc.panel.Subsystems())

	if httpAddress != "" {
		stopHTTP, httpErr := serveHTTP(ctx, httpAddress, httpapi.NewRouter(ProcessName, svc, m.Handler()))
		if httpErr != nil {
			grpcServer.Stop()

			return httpErr
		}

		defer stopHTTP()
	}

	stopMonitor := startMonitor(ctx, svc, dispatcher, settings.CheckInterval)
	defer stopMonitor()

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// serveHTTP starts the health and metrics listener and returns its shutdown func.
func serveHTTP(ctx context.Context, address string, handler http.Handler) (func(), error) {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: shutdownTimeout,
	}

	go func() {
		if serveErr := srv.Serve(lis); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Errorf(ctx, "HTTP server failed: %v", serveErr)
		}
	}()

	logger.InfoKV(ctx, "HTTP endpoint listening", "http_address", address)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warnf(ctx, "HTTP server shutdown: %v", shutdownErr)
		}
	}, nil
}

// alarmChecker is what the monitor loop polls.
type alarmChecker interface {
	CheckAlarms(ctx context.Context) domain.Result
}

// startMonitor runs monitor in the background. The returned func stops it and
// waits until it has returned, so the dispatcher can be closed afterwards.
func startMonitor(
	ctx context.Context,
	checker alarmChecker,
	dispatcher *notify.Dispatcher,
	interval time.Duration,
) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		monitor(ctx, checker, dispatcher, interval)
	}()

	return func() {
		cancel()
		<-done
	}
}

// monitor checks the panel every interval and forwards changed snapshots to the sinks.
func monitor(ctx context.Context, checker alarmChecker, dispatcher *notify.Dispatcher, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := checker.CheckAlarms(ctx)

			sent, err := dispatcher.Notify(ctx, &result)
			if err != nil {
				logger.Warnf(ctx, "Failed to publish alarm snapshot: %v", err)

				continue
			}

			if sent && result.OverallAlarm {
				logger.WarnKV(ctx, "Alarm raised", "triggered", result.TriggeredSystems)
			}
		}
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Bind on all interfaces.
	return ":" + port, nil
}
