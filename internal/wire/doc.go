// Package wire defines the AlarmPanel RPC contract.
//
// The service is declared directly with grpc.ServiceDesc and carries protobuf
// well-known types (Struct, Empty, Timestamp), so no code generation step is
// needed. The conversions between those messages and the domain types live here
// too; the state file reuses them through protojson.
package wire
