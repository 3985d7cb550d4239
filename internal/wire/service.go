package wire

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "vesselalarm.v1.AlarmPanel"

const (
	methodCheckAlarms        = "CheckAlarms"
	methodSetMaintenanceMode = "SetMaintenanceMode"
	methodGetMaintenance     = "GetMaintenance"
	methodResetAlarms        = "ResetAlarms"
	methodRunDiagnostics     = "RunDiagnostics"
	methodInjectFault        = "InjectFault"
)

// AlarmPanelServer is implemented by the panel transport.
type AlarmPanelServer interface {
	// CheckAlarms returns an alarm result (see ResultToProto).
	CheckAlarms(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	// SetMaintenanceMode takes a MaintenanceRequest and returns the maintenance state.
	SetMaintenanceMode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// GetMaintenance returns the maintenance state.
	GetMaintenance(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	// ResetAlarms clears every subsystem and returns when it happened.
	ResetAlarms(ctx context.Context, req *emptypb.Empty) (*timestamppb.Timestamp, error)
	// RunDiagnostics runs the self-test and returns the diagnostics results.
	RunDiagnostics(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	// InjectFault takes a Stimulus and returns the alarm result after it.
	InjectFault(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAlarmPanelServer registers srv on the gRPC server.
func RegisterAlarmPanelServer(s grpc.ServiceRegistrar, srv AlarmPanelServer) {
	s.RegisterService(&alarmPanelServiceDesc, srv)
}

var alarmPanelServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmPanelServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(methodCheckAlarms, newEmpty, AlarmPanelServer.CheckAlarms),
		unary(methodSetMaintenanceMode, newStruct, AlarmPanelServer.SetMaintenanceMode),
		unary(methodGetMaintenance, newEmpty, AlarmPanelServer.GetMaintenance),
		unary(methodResetAlarms, newEmpty, AlarmPanelServer.ResetAlarms),
		unary(methodRunDiagnostics, newEmpty, AlarmPanelServer.RunDiagnostics),
		unary(methodInjectFault, newStruct, AlarmPanelServer.InjectFault),
	},
	Streams: []grpc.StreamDesc{},
}

func newEmpty() *emptypb.Empty    { return new(emptypb.Empty) }
func newStruct() *structpb.Struct { return new(structpb.Struct) }

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary builds the method descriptor that decodes Req, runs interceptors and calls the server.
func unary[Req, Resp proto.Message](
	name string,
	newReq func() Req,
	call func(AlarmPanelServer, context.Context, Req) (Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}

			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AlarmPanelServer), ctx, req.(Req)) //nolint:forcetypeassert // Guaranteed by registration.
			}

			if interceptor == nil {
				return handler(ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(name),
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}

// AlarmPanelClient calls the AlarmPanel service over a client connection.
type AlarmPanelClient struct {
	cc grpc.ClientConnInterface
}

// NewAlarmPanelClient wraps a connection.
func NewAlarmPanelClient(cc grpc.ClientConnInterface) *AlarmPanelClient {
	return &AlarmPanelClient{cc: cc}
}

// CheckAlarms invokes AlarmPanel.CheckAlarms.
func (c *AlarmPanelClient) CheckAlarms(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(methodCheckAlarms), new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// SetMaintenanceMode invokes AlarmPanel.SetMaintenanceMode.
func (c *AlarmPanelClient) SetMaintenanceMode(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(methodSetMaintenanceMode), req, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// GetMaintenance invokes AlarmPanel.GetMaintenance.
func (c *AlarmPanelClient) GetMaintenance(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(methodGetMaintenance), new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// ResetAlarms invokes AlarmPanel.ResetAlarms.
func (c *AlarmPanelClient) ResetAlarms(ctx context.Context, opts ...grpc.CallOption) (*timestamppb.Timestamp, error) {
	out := new(timestamppb.Timestamp)
	if err := c.cc.Invoke(ctx, fullMethod(methodResetAlarms), new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// RunDiagnostics invokes AlarmPanel.RunDiagnostics.
func (c *AlarmPanelClient) RunDiagnostics(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(methodRunDiagnostics), new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// InjectFault invokes AlarmPanel.InjectFault.
func (c *AlarmPanelClient) InjectFault(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(methodInjectFault), req, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
