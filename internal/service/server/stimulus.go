package server

import (
	"context"
	"fmt"

	"github.com/oshokin/vessel-alarm/internal/diagnostics"
	domain "github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/panel"
	"github.com/oshokin/vessel-alarm/internal/simulator"
)

// Targets used when a stimulus names none.
const (
	defaultSensor      = "sensor_1"
	defaultCompartment = "compartment_1"
	defaultControl     = simulator.PointBridge
)

// simulationStep is how much simulated time one injected fault advances.
const simulationStep = simulator.DefaultStepDelay

// InjectFault applies one stimulus to the running vessel, advances the
// affected simulator by one step and returns the resulting alarm check.
func (s *service) InjectFault(ctx context.Context, stimulus *domain.Stimulus) (domain.Result, error) {
	if err := stimulus.Validate(); err != nil {
		return domain.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.vessel.apply(stimulus); err != nil {
		return domain.Result{}, err
	}

	logger.WarnKV(ctx, "Fault injected",
		"subsystem", stimulus.Subsystem,
		"kind", stimulus.Kind,
		"target", stimulus.Target,
		"parameter", stimulus.Parameter,
		"value", stimulus.Value)

	return s.panel.CheckAlarms(ctx), nil
}

// apply drives one stimulus into the matching simulator.
func (v *vessel) apply(stimulus *domain.Stimulus) error {
	var err error

	switch stimulus.Subsystem {
	case diagnostics.SubsystemFire:
		err = v.applyFire(stimulus)
	case diagnostics.SubsystemESD:
		err = v.applyShutdown(stimulus)
	case diagnostics.SubsystemBilge:
		err = v.applyBilge(stimulus)
	default:
		return fmt.Errorf("%w: %s", panel.ErrUnknownSubsystem, stimulus.Subsystem)
	}

	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidStimulus, err)
	}

	return nil
}

func (v *vessel) applyFire(stimulus *domain.Stimulus) error {
	switch stimulus.Kind {
	case domain.StimulusSensor:
		err := v.fire.SetSensorValue(
			orDefault(stimulus.Target, defaultSensor),
			simulator.Parameter(stimulus.Parameter),
			stimulus.Value,
		)
		if err != nil {
			return err
		}
	case domain.StimulusPowerFailure:
		v.fire.TriggerPowerFailure()
	case domain.StimulusRestore:
		v.fire.ResetSensors()
		v.fire.RestorePower()
	default:
		return unsupported(stimulus)
	}

	v.fire.RunSimulation(simulationStep)

	return nil
}

func (v *vessel) applyShutdown(stimulus *domain.Stimulus) error {
	switch stimulus.Kind {
	case domain.StimulusShutdown:
		_, err := v.esd.ActivateShutdown(orDefault(stimulus.Target, defaultControl))

		return err
	case domain.StimulusRestore:
		v.esd.ReopenValves()
		v.esd.ClearSignal()

		return nil
	default:
		return unsupported(stimulus)
	}
}

func (v *vessel) applyBilge(stimulus *domain.Stimulus) error {
	switch stimulus.Kind {
	case domain.StimulusWaterLevel:
		if err := v.bilge.SetWaterLevel(orDefault(stimulus.Target, defaultCompartment), stimulus.Value); err != nil {
			return err
		}
	case domain.StimulusPowerFailure:
		v.bilge.SimulatePowerFailure()
	case domain.StimulusRestore:
		v.bilge.Drain()
		v.bilge.RestorePower()
	default:
		return unsupported(stimulus)
	}

	v.bilge.RunSimulation(simulationStep)

	return nil
}

func unsupported(stimulus *domain.Stimulus) error {
	return fmt.Errorf("%s does not accept %s", stimulus.Subsystem, stimulus.Kind)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
