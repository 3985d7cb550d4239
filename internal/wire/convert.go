package wire

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/vessel-alarm/internal/diagnostics"
	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
)

// ErrMalformed is returned when a message lacks a required field or carries a bad value.
var ErrMalformed = errors.New("malformed message")

// MaintenanceRequest asks the panel to change one subsystem's maintenance flag.
type MaintenanceRequest struct {
	Subsystem string
	Enabled   bool
	Actor     *alarm.Actor
}

// ResultToProto encodes an alarm check result.
func ResultToProto(result *alarm.Result) *structpb.Struct {
	if result == nil {
		result = new(alarm.Result)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"overall_alarm":     structpb.NewBoolValue(result.OverallAlarm),
		"triggered_systems": stringList(result.TriggeredSystems),
		"suppressed_alarms": stringList(result.SuppressedAlarms),
		"checked_at":        timeValue(result.CheckedAt),
	}}
}

// ResultFromProto decodes an alarm check result. Missing lists decode as empty.
func ResultFromProto(msg *structpb.Struct) (*alarm.Result, error) {
	fields := msg.GetFields()

	checkedAt, err := parseTime(fields["checked_at"])
	if err != nil {
		return nil, err
	}

	return &alarm.Result{
		OverallAlarm:     fields["overall_alarm"].GetBoolValue(),
		TriggeredSystems: stringsOf(fields["triggered_systems"]),
		SuppressedAlarms: stringsOf(fields["suppressed_alarms"]),
		CheckedAt:        checkedAt,
	}, nil
}

// MaintenanceToProto encodes the maintenance state.
func MaintenanceToProto(state *alarm.MaintenanceState) *structpb.Struct {
	if state == nil {
		state = new(alarm.MaintenanceState)
	}

	flags := make(map[string]*structpb.Value, len(state.Flags))
	for name, enabled := range state.Flags {
		flags[name] = structpb.NewBoolValue(enabled)
	}

	fields := map[string]*structpb.Value{
		"timestamp": timeValue(state.Timestamp),
		"flags":     structpb.NewStructValue(&structpb.Struct{Fields: flags}),
	}

	if state.LastActor != nil {
		fields["last_actor"] = structpb.NewStructValue(actorToProto(state.LastActor))
	}

	return &structpb.Struct{Fields: fields}
}

// MaintenanceFromProto decodes the maintenance state.
func MaintenanceFromProto(msg *structpb.Struct) (*alarm.MaintenanceState, error) {
	fields := msg.GetFields()

	timestamp, err := parseTime(fields["timestamp"])
	if err != nil {
		return nil, err
	}

	rawFlags := fields["flags"].GetStructValue().GetFields()
	flags := make(map[string]bool, len(rawFlags))

	for name, value := range rawFlags {
		if _, ok := value.GetKind().(*structpb.Value_BoolValue); !ok {
			return nil, fmt.Errorf("%w: flag %q is not a boolean", ErrMalformed, name)
		}

		flags[name] = value.GetBoolValue()
	}

	return &alarm.MaintenanceState{
		Timestamp: timestamp,
		LastActor: actorFromProto(fields["last_actor"].GetStructValue()),
		Flags:     flags,
	}, nil
}

// MaintenanceRequestToProto encodes a maintenance change request.
func MaintenanceRequestToProto(req *MaintenanceRequest) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"subsystem": structpb.NewStringValue(req.Subsystem),
		"enabled":   structpb.NewBoolValue(req.Enabled),
	}

	if req.Actor != nil {
		fields["actor"] = structpb.NewStructValue(actorToProto(req.Actor))
	}

	return &structpb.Struct{Fields: fields}
}

// MaintenanceRequestFromProto decodes a maintenance change request.
// The subsystem and the enabled flag are required; the actor is optional.
func MaintenanceRequestFromProto(msg *structpb.Struct) (*MaintenanceRequest, error) {
	fields := msg.GetFields()

	subsystem := fields["subsystem"].GetStringValue()
	if subsystem == "" {
		return nil, fmt.Errorf("%w: subsystem is required", ErrMalformed)
	}

	enabled, ok := fields["enabled"].GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return nil, fmt.Errorf("%w: enabled flag is required", ErrMalformed)
	}

	return &MaintenanceRequest{
		Subsystem: subsystem,
		Enabled:   enabled.BoolValue,
		Actor:     actorFromProto(fields["actor"].GetStructValue()),
	}, nil
}

// StimulusToProto encodes an injected fault.
func StimulusToProto(stimulus *alarm.Stimulus) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"subsystem": structpb.NewStringValue(stimulus.Subsystem),
		"kind":      structpb.NewStringValue(string(stimulus.Kind)),
		"target":    structpb.NewStringValue(stimulus.Target),
		"parameter": structpb.NewStringValue(stimulus.Parameter),
		"value":     structpb.NewNumberValue(stimulus.Value),
	}}
}

// StimulusFromProto decodes an injected fault. Subsystem and kind are required.
func StimulusFromProto(msg *structpb.Struct) (*alarm.Stimulus, error) {
	fields := msg.GetFields()

	stimulus := &alarm.Stimulus{
		Subsystem: fields["subsystem"].GetStringValue(),
		Kind:      alarm.StimulusKind(fields["kind"].GetStringValue()),
		Target:    fields["target"].GetStringValue(),
		Parameter: fields["parameter"].GetStringValue(),
		Value:     fields["value"].GetNumberValue(),
	}

	if stimulus.Subsystem == "" {
		return nil, fmt.Errorf("%w: subsystem is required", ErrMalformed)
	}

	if stimulus.Kind == "" {
		return nil, fmt.Errorf("%w: kind is required", ErrMalformed)
	}

	return stimulus, nil
}

// DiagnosticsToProto encodes a diagnostics run. Check details must hold
// values structpb understands (strings, numbers, booleans, nested maps).
func DiagnosticsToProto(results *diagnostics.Results) (*structpb.Struct, error) {
	checks := make([]*structpb.Value, 0, len(results.Checks))

	for _, check := range results.Checks {
		details, err := structpb.NewStruct(check.Details)
		if err != nil {
			return nil, fmt.Errorf("encode %s details: %w", check.Subsystem, err)
		}

		checks = append(checks, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"subsystem": structpb.NewStringValue(check.Subsystem),
			"passed":    structpb.NewBoolValue(check.Passed),
			"message":   structpb.NewStringValue(check.Message),
			"details":   structpb.NewStructValue(details),
		}}))
	}

	verdicts := make(map[string]*structpb.Value, len(results.Map()))
	for name, passed := range results.Map() {
		verdicts[name] = structpb.NewBoolValue(passed)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"run_id":       structpb.NewStringValue(results.RunID.String()),
		"completed_at": timeValue(results.CompletedAt),
		"passed":       structpb.NewStructValue(&structpb.Struct{Fields: verdicts}),
		"checks":       structpb.NewListValue(&structpb.ListValue{Values: checks}),
	}}, nil
}

// DiagnosticsFromProto decodes a diagnostics run.
func DiagnosticsFromProto(msg *structpb.Struct) (*diagnostics.Results, error) {
	fields := msg.GetFields()

	runID, err := uuid.Parse(fields["run_id"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%w: run id: %w", ErrMalformed, err)
	}

	completedAt, err := parseTime(fields["completed_at"])
	if err != nil {
		return nil, err
	}

	verdicts := fields["passed"].GetStructValue().GetFields()
	results := &diagnostics.Results{
		RunID:       runID,
		CompletedAt: completedAt,
		Fire:        verdicts[diagnostics.SubsystemFire].GetBoolValue(),
		ESD:         verdicts[diagnostics.SubsystemESD].GetBoolValue(),
		Bilge:       verdicts[diagnostics.SubsystemBilge].GetBoolValue(),
	}

	for _, value := range fields["checks"].GetListValue().GetValues() {
		check := value.GetStructValue().GetFields()
		results.Checks = append(results.Checks, diagnostics.Check{
			Subsystem: check["subsystem"].GetStringValue(),
			Passed:    check["passed"].GetBoolValue(),
			Message:   check["message"].GetStringValue(),
			Details:   check["details"].GetStructValue().AsMap(),
		})
	}

	return results, nil
}

func actorToProto(actor *alarm.Actor) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"hostname": structpb.NewStringValue(actor.Hostname),
		"username": structpb.NewStringValue(actor.Username),
	}}
}

func actorFromProto(msg *structpb.Struct) *alarm.Actor {
	if msg == nil {
		return nil
	}

	return &alarm.Actor{
		Hostname: msg.GetFields()["hostname"].GetStringValue(),
		Username: msg.GetFields()["username"].GetStringValue(),
	}
}

func stringList(items []string) *structpb.Value {
	values := make([]*structpb.Value, 0, len(items))
	for _, item := range items {
		values = append(values, structpb.NewStringValue(item))
	}

	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func stringsOf(value *structpb.Value) []string {
	values := value.GetListValue().GetValues()

	items := make([]string, 0, len(values))
	for _, v := range values {
		items = append(items, v.GetStringValue())
	}

	return items
}

// timeValue renders t as RFC 3339 in UTC, or an empty string for the zero time.
func timeValue(t time.Time) *structpb.Value {
	if t.IsZero() {
		return structpb.NewStringValue("")
	}

	return structpb.NewStringValue(t.UTC().Format(time.RFC3339Nano))
}

func parseTime(value *structpb.Value) (time.Time, error) {
	raw := value.GetStringValue()
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %w", ErrMalformed, raw, err)
	}

	return t, nil
}
