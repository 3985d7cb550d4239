package simulator

import (
	"fmt"
	"time"

	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
)

const (
	// DefaultBilgeThreshold is the default compartment alarm level.
	DefaultBilgeThreshold = 150.0
	// PowerFailureNotificationDelay is how long the bilge system takes to report a power loss.
	PowerFailureNotificationDelay = 2300 * time.Millisecond

	bilgeCompartmentCount = 5
)

// Compartment is the state of one bilge well.
type Compartment struct {
	ID             string
	WaterLevel     float64
	AlarmThreshold float64
}

// flooded reports whether the level has reached the alarm threshold.
// The comparison is inclusive: a level equal to the threshold alarms.
func (c Compartment) flooded() bool {
	return c.WaterLevel >= c.AlarmThreshold
}

// PowerFailureReport describes the bilge system's reaction to a power loss.
type PowerFailureReport struct {
	NotificationSent bool
	Delay            time.Duration
}

// BilgeAlarm simulates a bilge high-level alarm over five compartments.
type BilgeAlarm struct {
	compartments []Compartment
	index        map[string]int
	alarms       alarm.Status
	power        PowerStatus
	elapsed      time.Duration
	opts         options
}

// NewBilgeAlarm creates a dry bilge system on normal power.
func NewBilgeAlarm(opts ...Option) *BilgeAlarm {
	b := &BilgeAlarm{
		compartments: make([]Compartment, 0, bilgeCompartmentCount),
		index:        make(map[string]int, bilgeCompartmentCount),
		power:        PowerNormal,
		opts:         newOptions(opts),
	}

	for i := 1; i <= bilgeCompartmentCount; i++ {
		id := fmt.Sprintf("compartment_%d", i)
		b.index[id] = len(b.compartments)
		b.compartments = append(b.compartments, Compartment{ID: id, AlarmThreshold: DefaultBilgeThreshold})
	}

	return b
}

// Compartments returns a copy of all compartments in their fixed order.
func (b *BilgeAlarm) Compartments() []Compartment {
	out := make([]Compartment, len(b.compartments))
	copy(out, b.compartments)

	return out
}

// SetWaterLevel sets the water level of one compartment.
func (b *BilgeAlarm) SetWaterLevel(compartmentID string, level float64) error {
	i, ok := b.index[compartmentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCompartment, compartmentID)
	}

	b.compartments[i].WaterLevel = level

	return nil
}

// SetAlarmThreshold changes the alarm level of one compartment.
func (b *BilgeAlarm) SetAlarmThreshold(compartmentID string, threshold float64) error {
	i, ok := b.index[compartmentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCompartment, compartmentID)
	}

	b.compartments[i].AlarmThreshold = threshold

	return nil
}

// Drain sets the water level of every compartment to zero.
func (b *BilgeAlarm) Drain() {
	for i := range b.compartments {
		b.compartments[i].WaterLevel = 0
	}
}

// RunSimulation advances the simulation by d and raises both alarms when any
// compartment is at or above its threshold.
func (b *BilgeAlarm) RunSimulation(d time.Duration) {
	sleep(b.opts.stepDelay)

	b.elapsed += d

	for _, c := range b.compartments {
		if c.flooded() {
			b.alarms = alarm.Status{Visual: true, Audible: true}
			return
		}
	}
}

// AlarmStatus returns the current alarm outputs.
func (b *BilgeAlarm) AlarmStatus() alarm.Status {
	return b.alarms
}

// ClearAlarms switches both alarm outputs off.
func (b *BilgeAlarm) ClearAlarms() {
	b.alarms = alarm.Status{}
}

// SimulatePowerFailure cuts the bilge system's power and reports the notification.
func (b *BilgeAlarm) SimulatePowerFailure() PowerFailureReport {
	b.power = PowerFailed

	return PowerFailureReport{
		NotificationSent: true,
		Delay:            PowerFailureNotificationDelay,
	}
}

// RestorePower returns the bilge system to normal power.
func (b *BilgeAlarm) RestorePower() {
	b.power = PowerNormal
}

// PowerStatus returns the current supply state.
func (b *BilgeAlarm) PowerStatus() PowerStatus {
	return b.power
}

// Elapsed returns the total simulated time.
func (b *BilgeAlarm) Elapsed() time.Duration {
	return b.elapsed
}
