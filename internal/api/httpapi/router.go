package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/panel"
)

// Service is what the HTTP endpoints read from and write to.
type Service interface {
	CheckAlarms(ctx context.Context) alarm.Result
	SetMaintenanceMode(ctx context.Context, actor *alarm.Actor, subsystem string, enabled bool) (*alarm.MaintenanceState, error)
	GetMaintenance(ctx context.Context) *alarm.MaintenanceState
	InjectFault(ctx context.Context, stimulus *alarm.Stimulus) (alarm.Result, error)
}

const requestTimeout = 15 * time.Second

var errBodyRequired = errors.New("request body is required")

type actorJSON struct {
	Hostname string `json:"hostname"`
	Username string `json:"username"`
}

type maintenanceJSON struct {
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	LastActor *actorJSON      `json:"last_actor,omitempty"`
	Flags     map[string]bool `json:"flags"`
}

type maintenanceRequest struct {
	Enabled *bool      `json:"enabled"`
	Actor   *actorJSON `json:"actor"`
}

type stimulusRequest struct {
	Kind      alarm.StimulusKind `json:"kind"`
	Target    string             `json:"target"`
	Parameter string             `json:"parameter"`
	Value     float64            `json:"value"`
}

// NewRouter builds the HTTP handler. A nil metrics handler leaves /metrics unrouted.
func NewRouter(name string, service Service, metrics http.Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(requestTimeout))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": name})
	})

	router.Get("/v1/alarms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, service.CheckAlarms(r.Context()))
	})

	router.Get("/v1/maintenance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toMaintenanceJSON(service.GetMaintenance(r.Context())))
	})

	router.Put("/v1/maintenance/{subsystem}", func(w http.ResponseWriter, r *http.Request) {
		var req maintenanceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())

			return
		}

		if req.Enabled == nil || req.Actor == nil {
			writeError(w, http.StatusBadRequest, "enabled and actor are required")

			return
		}

		subsystem := chi.URLParam(r, "subsystem")
		actor := &alarm.Actor{Hostname: req.Actor.Hostname, Username: req.Actor.Username}

		state, err := service.SetMaintenanceMode(r.Context(), actor, subsystem, *req.Enabled)

		switch {
		case errors.Is(err, panel.ErrUnknownSubsystem):
			writeError(w, http.StatusNotFound, "subsystem "+subsystem+" not found in alarm panel")
		case err != nil:
			writeError(w, http.StatusInternalServerError, "unable to persist maintenance state")
		default:
			writeJSON(w, http.StatusOK, toMaintenanceJSON(state))
		}
	})

	router.Post("/v1/subsystems/{name}/stimulus", func(w http.ResponseWriter, r *http.Request) {
		var req stimulusRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())

			return
		}

		name := chi.URLParam(r, "name")

		result, err := service.InjectFault(r.Context(), &alarm.Stimulus{
			Subsystem: name,
			Kind:      req.Kind,
			Target:    req.Target,
			Parameter: req.Parameter,
			Value:     req.Value,
		})

		switch {
		case errors.Is(err, panel.ErrUnknownSubsystem):
			writeError(w, http.StatusNotFound, "subsystem "+name+" not found in alarm panel")
		case errors.Is(err, alarm.ErrInvalidStimulus):
			writeError(w, http.StatusBadRequest, err.Error())
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			writeJSON(w, http.StatusOK, result)
		}
	})

	if metrics != nil {
		router.Method(http.MethodGet, "/metrics", metrics)
	}

	return router
}

func toMaintenanceJSON(state *alarm.MaintenanceState) maintenanceJSON {
	out := maintenanceJSON{Flags: map[string]bool{}}
	if state == nil {
		return out
	}

	if !state.Timestamp.IsZero() {
		ts := state.Timestamp.UTC()
		out.Timestamp = &ts
	}

	if state.LastActor != nil {
		out.LastActor = &actorJSON{Hostname: state.LastActor.Hostname, Username: state.LastActor.Username}
	}

	for name, enabled := range state.Flags {
		out.Flags[name] = enabled
	}

	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errBodyRequired
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	return decoder.Decode(dst)
}
