// Package panel implements the gRPC transport for the alarm panel.
//
// It adapts domain types to the wire messages and exposes a server that calls
// into a provided business-service interface.
package panel
