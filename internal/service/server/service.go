package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/vessel-alarm/internal/diagnostics"
	domain "github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/metrics"
	"github.com/oshokin/vessel-alarm/internal/panel"
	repo "github.com/oshokin/vessel-alarm/internal/repository/maintenance"
	"github.com/oshokin/vessel-alarm/internal/simulator"
)

// vessel bundles the simulated subsystems behind the panel.
type vessel struct {
	fire  *simulator.FireDetection
	esd   *simulator.EmergencyShutdown
	bilge *simulator.BilgeAlarm
}

// newVessel creates the three simulators with the given step delay.
func newVessel(stepDelay time.Duration) *vessel {
	return &vessel{
		fire:  simulator.NewFireDetection(simulator.WithStepDelay(stepDelay)),
		esd:   simulator.NewEmergencyShutdown(),
		bilge: simulator.NewBilgeAlarm(simulator.WithStepDelay(stepDelay)),
	}
}

// subsystems returns the panel registrations in the fixed order fire, esd, bilge.
func (v *vessel) subsystems() []panel.Subsystem {
	return []panel.Subsystem{
		{Name: diagnostics.SubsystemFire, Handle: v.fire},
		{Name: diagnostics.SubsystemESD, Handle: v.esd},
		{Name: diagnostics.SubsystemBilge, Handle: v.bilge},
	}
}

// restore puts every stimulated input back to its idle reading and normal power.
func (v *vessel) restore() {
	v.fire.ResetSensors()
	v.fire.RestorePower()
	v.esd.ReopenValves()
	v.esd.ClearSignal()
	v.bilge.Drain()
	v.bilge.RestorePower()
}

// service owns the panel and serializes every operation on it.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// repo handles persistent storage of maintenance flags.
	repo repo.Repository
	// vessel holds the simulators the panel reads.
	vessel *vessel
	// panel is the central alarm interface.
	panel *panel.Panel
	// runner executes the diagnostic self-tests against the simulators.
	runner *diagnostics.Runner
	// metrics records diagnostics outcomes; may be nil.
	metrics *metrics.Metrics
	// state carries the last persisted timestamp and actor.
	state *domain.MaintenanceState
	// now stamps maintenance changes.
	now func() time.Time
	// mu guards every field above; neither the panel nor the simulators are safe for concurrent use.
	mu sync.Mutex
}

// newService registers the vessel with a panel and restores persisted maintenance flags.
func newService(
	ctx context.Context,
	v *vessel,
	repository repo.Repository,
	m *metrics.Metrics,
	opts ...panel.Option,
) (*service, error) {
	p, err := panel.New(v.subsystems(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create panel: %w", err)
	}

	s := &service{
		repo:    repository,
		vessel:  v,
		panel:   p,
		runner:  diagnostics.NewRunner(v.fire, v.esd, v.bilge),
		metrics: m,
		state:   &domain.MaintenanceState{},
		now:     time.Now,
	}

	if repository == nil {
		return s, nil
	}

	state, err := repository.Load(ctx)

	switch {
	case err == nil:
		if state != nil {
			s.state = state
		}
	case errors.Is(err, repo.ErrNotFound):
		// Every subsystem starts in service.
	default:
		return nil, fmt.Errorf("load maintenance state: %w", err)
	}

	if unknown := p.RestoreMaintenance(ctx, s.state.Flags); len(unknown) > 0 {
		logger.WarnKV(ctx, "Ignoring maintenance flags of unknown subsystems", "subsystems", unknown)
	}

	return s, nil
}

// CheckAlarms evaluates every subsystem.
func (s *service) CheckAlarms(ctx context.Context) domain.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.panel.CheckAlarms(ctx)
}

// SetMaintenanceMode changes one flag and persists the resulting state.
// The flag is reverted when the state cannot be saved.
func (s *service) SetMaintenanceMode(
	ctx context.Context,
	actor *domain.Actor,
	subsystem string,
	enabled bool,
) (*domain.MaintenanceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.panel.Maintenance()[subsystem]

	if err := s.panel.SetMaintenanceMode(ctx, subsystem, enabled); err != nil {
		return nil, err
	}

	next := &domain.MaintenanceState{
		Timestamp: s.now(),
		LastActor: actor.Clone(),
		Flags:     s.panel.Maintenance(),
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, next); err != nil {
			logger.Errorf(ctx, "Failed to persist maintenance state: %v", err)

			if ok {
				_ = s.panel.SetMaintenanceMode(ctx, subsystem, previous)
			}

			return nil, fmt.Errorf("persist maintenance state: %w", err)
		}
	}

	s.state = next

	logger.InfoKV(ctx, "Maintenance mode updated",
		"subsystem", subsystem,
		"enabled", enabled,
		"actor", actor.String())

	return next.Clone(), nil
}

// GetMaintenance returns the flags of every registered subsystem with the last change.
func (s *service) GetMaintenance(ctx context.Context) *domain.MaintenanceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Debug(ctx, "Maintenance state requested")

	state := s.state.Clone()
	state.Flags = s.panel.Maintenance()

	return state
}

// ResetAlarms clears every subsystem's alarm outputs.
func (s *service) ResetAlarms(ctx context.Context) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.panel.ResetAll(ctx)

	return s.now()
}

// RunDiagnostics runs the self-tests, then returns the simulators to idle and resets the panel.
func (s *service) RunDiagnostics(ctx context.Context) (*diagnostics.Results, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := s.runner.RunAll(ctx)

	s.vessel.restore()
	s.panel.ResetAll(ctx)

	if s.metrics != nil {
		s.metrics.RecordDiagnostics(&results)
	}

	return &results, nil
}
