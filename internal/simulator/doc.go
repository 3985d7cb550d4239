// Package simulator provides mock safety subsystems of a vessel: fire
// detection, emergency shutdown (ESD) and bilge alarm.
//
// The simulators hold typed state records mutated by setter calls. Alarms
// latch once raised and stay on until ClearAlarms (or ClearSignal for the
// shutdown system). None of the types are safe for concurrent use.
package simulator
