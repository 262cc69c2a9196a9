// Package dashboard exposes the automation state and user status events over
// HTTP for the dashboard UI.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/studio-pulse/internal/analysis"
	"github.com/wolfman30/studio-pulse/internal/automation"
	"github.com/wolfman30/studio-pulse/internal/events"
	"github.com/wolfman30/studio-pulse/internal/kpi"
	"github.com/wolfman30/studio-pulse/internal/status"
	"github.com/wolfman30/studio-pulse/pkg/logging"
)

// Controller is the automation surface the handler drives.
type Controller interface {
	Snapshot() automation.Snapshot
	Rules() (rules, legacy []status.Rule)
	SetStatus(ctx context.Context, to status.Status) error
	SetCustomStatus(ctx context.Context, label string) (automation.ManualStatus, error)
	ClearCustomStatus(ctx context.Context)
	AddScheduled(ctx context.Context, label string, from, to time.Time) (status.ScheduledStatus, error)
	RemoveScheduled(ctx context.Context, id uuid.UUID) error
	SetWindow(ctx context.Context, w analysis.Window) error
	ApplyPreset(ctx context.Context, label string) (analysis.Window, error)
	SetKPIRange(ctx context.Context, r kpi.Range) error
}

// HistoryReader lists recorded status transitions, newest first.
type HistoryReader interface {
	History(ctx context.Context, limit int) ([]events.StatusChangedV1, error)
}

// Handler serves dashboard status endpoints.
type Handler struct {
	ctrl    Controller
	history HistoryReader
	logger  *logging.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(ctrl Controller, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{ctrl: ctrl, logger: logger}
}

// WithHistory enables GET /history.
func (h *Handler) WithHistory(reader HistoryReader) *Handler {
	h.history = reader
	return h
}

// Routes returns a chi router with the dashboard routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/snapshot", h.GetSnapshot)
	r.Get("/rules", h.ListRules)
	r.Put("/status", h.SetStatus)
	r.Put("/status/custom", h.SetCustomStatus)
	r.Delete("/status/custom", h.ClearCustomStatus)
	r.Post("/scheduled", h.AddScheduled)
	r.Delete("/scheduled/{id}", h.RemoveScheduled)
	r.Put("/timeline", h.SetTimeline)
	r.Get("/timeline/presets", h.ListPresets)
	r.Post("/timeline/preset", h.ApplyPreset)
	r.Put("/kpi/range", h.SetKPIRange)
	r.Get("/history", h.ListHistory)
	return r
}

// GetSnapshot returns the current automation state.
// GET /snapshot
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// RuleView describes one rule for diagnostics.
type RuleView struct {
	ID          string             `json:"id"`
	Trigger     status.TriggerKind `json:"trigger"`
	Description string             `json:"description"`
	Pipeline    string             `json:"pipeline"`
}

// ListRules returns the active rule tables in evaluation order.
// GET /rules
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, legacy := h.ctrl.Rules()
	out := make([]RuleView, 0, len(rules)+len(legacy))
	for _, rule := range legacy {
		out = append(out, RuleView{ID: rule.ID, Trigger: rule.Trigger, Description: rule.Description, Pipeline: "legacy"})
	}
	for _, rule := range rules {
		out = append(out, RuleView{ID: rule.ID, Trigger: rule.Trigger, Description: rule.Description, Pipeline: "rules"})
	}
	h.writeJSON(w, http.StatusOK, out)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus applies a canonical status pick.
// PUT /status
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.ctrl.SetStatus(r.Context(), status.Status(req.Status)); err != nil {
		h.fail(w, "set status", err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

type customStatusRequest struct {
	Label string `json:"label"`
}

// SetCustomStatus applies a free-text status.
// PUT /status/custom
func (h *Handler) SetCustomStatus(w http.ResponseWriter, r *http.Request) {
	var req customStatusRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.ctrl.SetCustomStatus(r.Context(), req.Label); err != nil {
		h.fail(w, "set custom status", err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// ClearCustomStatus removes the manual custom status.
// DELETE /status/custom
func (h *Handler) ClearCustomStatus(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearCustomStatus(r.Context())
	h.writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

type scheduledRequest struct {
	Status string `json:"status"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// AddScheduled registers a scheduled status window.
// POST /scheduled
func (h *Handler) AddScheduled(w http.ResponseWriter, r *http.Request) {
	var req scheduledRequest
	if !decode(w, r, &req) {
		return
	}
	parsed, err := status.ParseScheduled(req.Status, req.From, req.To)
	if err != nil {
		h.fail(w, "add scheduled", err)
		return
	}
	sched, err := h.ctrl.AddScheduled(r.Context(), parsed.Label, parsed.From, parsed.To)
	if err != nil {
		h.fail(w, "add scheduled", err)
		return
	}
	h.logger.Info("dashboard: scheduled status added", "id", sched.ID, "status", sched.Label)
	h.writeJSON(w, http.StatusCreated, sched)
}

// RemoveScheduled deletes a scheduled status window.
// DELETE /scheduled/{id}
func (h *Handler) RemoveScheduled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error": "invalid id"}`, http.StatusBadRequest)
		return
	}
	if err := h.ctrl.RemoveScheduled(r.Context(), id); err != nil {
		h.fail(w, "remove scheduled", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTimeline applies a custom timeline window.
// PUT /timeline
func (h *Handler) SetTimeline(w http.ResponseWriter, r *http.Request) {
	var req analysis.Window
	if !decode(w, r, &req) {
		return
	}
	if err := h.ctrl.SetWindow(r.Context(), req); err != nil {
		h.fail(w, "set timeline", err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// ListPresets returns the shift presets.
// GET /timeline/presets
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, analysis.ShiftPresets)
}

type presetRequest struct {
	Label string `json:"label"`
}

// ApplyPreset applies a named shift preset.
// POST /timeline/preset
func (h *Handler) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.ctrl.ApplyPreset(r.Context(), req.Label); err != nil {
		h.fail(w, "apply preset", err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

type kpiRangeRequest struct {
	Range string `json:"range"`
}

// SetKPIRange switches the KPI reporting range.
// PUT /kpi/range
func (h *Handler) SetKPIRange(w http.ResponseWriter, r *http.Request) {
	var req kpiRangeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.ctrl.SetKPIRange(r.Context(), kpi.Range(req.Range)); err != nil {
		h.fail(w, "set kpi range", err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// ListHistory returns recent status transitions.
// GET /history?limit=N
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		http.Error(w, `{"error": "status history not configured"}`, http.StatusNotFound)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, `{"error": "invalid limit"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}
	list, err := h.history.History(r.Context(), limit)
	if err != nil {
		h.fail(w, "list history", err)
		return
	}
	if list == nil {
		list = []events.StatusChangedV1{}
	}
	h.writeJSON(w, http.StatusOK, list)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return false
	}
	return true
}

var badRequest = []error{
	automation.ErrEmptyStatus,
	automation.ErrStatusTooLong,
	automation.ErrNotCanonical,
	status.ErrInvalidScheduledWindow,
	analysis.ErrInvalidWindow,
	analysis.ErrUnknownPreset,
	kpi.ErrUnknownRange,
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, automation.ErrScheduledNotFound) {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	h.logger.Error("dashboard: request failed", "op", op, "error", err)
	http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("dashboard: encode response", "error", err)
	}
}
