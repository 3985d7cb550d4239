package panel

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/oshokin/vessel-alarm/internal/diagnostics"
	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	corepanel "github.com/oshokin/vessel-alarm/internal/panel"
	"github.com/oshokin/vessel-alarm/internal/wire"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	CheckAlarms(ctx context.Context) alarm.Result
	SetMaintenanceMode(ctx context.Context, actor *alarm.Actor, subsystem string, enabled bool) (*alarm.MaintenanceState, error)
	GetMaintenance(ctx context.Context) *alarm.MaintenanceState
	ResetAlarms(ctx context.Context) time.Time
	RunDiagnostics(ctx context.Context) (*diagnostics.Results, error)
	InjectFault(ctx context.Context, stimulus *alarm.Stimulus) (alarm.Result, error)
}

// Server implements the AlarmPanel gRPC API.
type Server struct {
	// service provides the business logic for panel operations.
	service Service
}

var _ wire.AlarmPanelServer = (*Server)(nil)

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// CheckAlarms evaluates every subsystem and returns the result.
func (s *Server) CheckAlarms(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	result := s.service.CheckAlarms(ctx)

	return wire.ResultToProto(&result), nil
}

// SetMaintenanceMode changes one subsystem's flag and returns the resulting state.
func (s *Server) SetMaintenanceMode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	request, err := wire.MaintenanceRequestFromProto(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if request.Actor == nil {
		return nil, status.Error(codes.InvalidArgument, "actor is required")
	}

	state, err := s.service.SetMaintenanceMode(ctx, request.Actor, request.Subsystem, request.Enabled)
	if err != nil {
		if errors.Is(err, corepanel.ErrUnknownSubsystem) {
			return nil, status.Errorf(codes.NotFound, "subsystem %q not found in alarm panel", request.Subsystem)
		}

		return nil, status.Error(codes.Internal, "unable to persist maintenance state")
	}

	return wire.MaintenanceToProto(state), nil
}

// GetMaintenance returns the current maintenance flags.
func (s *Server) GetMaintenance(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return wire.MaintenanceToProto(s.service.GetMaintenance(ctx)), nil
}

// ResetAlarms clears every subsystem's alarms.
func (s *Server) ResetAlarms(ctx context.Context, _ *emptypb.Empty) (*timestamppb.Timestamp, error) {
	return timestamppb.New(s.service.ResetAlarms(ctx)), nil
}

// RunDiagnostics runs the self-test on the panel's subsystems.
func (s *Server) RunDiagnostics(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	results, err := s.service.RunDiagnostics(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}

		return nil, status.Error(codes.Internal, err.Error())
	}

	msg, err := wire.DiagnosticsToProto(results)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return msg, nil
}

// InjectFault applies a simulated fault and returns the alarm check that follows it.
func (s *Server) InjectFault(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	stimulus, err := wire.StimulusFromProto(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.service.InjectFault(ctx, stimulus)
	if err != nil {
		switch {
		case errors.Is(err, corepanel.ErrUnknownSubsystem):
			return nil, status.Errorf(codes.NotFound, "subsystem %q not found in alarm panel", stimulus.Subsystem)
		case errors.Is(err, alarm.ErrInvalidStimulus):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		default:
			return nil, status.Error(codes.Internal, err.Error())
		}
	}

	return wire.ResultToProto(&result), nil
}
