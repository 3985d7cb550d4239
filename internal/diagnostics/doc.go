// Package diagnostics runs the built-in self-test of the vessel safety
// subsystems. Each subsystem is driven through one synthetic fault and passes
// when its alarm path responds end to end. A failure or panic in one
// subsystem's test is recorded for that subsystem only.
//
// Scenarios are the compliance test cases for the central alarm interface and
// emergency power. Each one runs on its own simulators and panel.
package diagnostics
