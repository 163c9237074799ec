package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/j-veylop/omnicoach/internal/db"
	"github.com/j-veylop/omnicoach/internal/logger"
	"github.com/j-veylop/omnicoach/internal/models"
	"github.com/j-veylop/omnicoach/internal/services"
	"github.com/j-veylop/omnicoach/internal/services/budget"
	"github.com/j-veylop/omnicoach/internal/services/feedback"
	"github.com/j-veylop/omnicoach/internal/services/llm"
	"github.com/j-veylop/omnicoach/internal/version"
)

const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// BudgetResponse is the body of GET /api/budget.
type BudgetResponse struct {
	Snapshot   models.BudgetSnapshot `json:"snapshot"`
	Forecast   models.BudgetForecast `json:"forecast"`
	Comparison string                `json:"comparison"`
}

// GenerateRequest is the body of POST /api/llm/generate.
type GenerateRequest struct {
	Prompt      string `json:"prompt"`
	Provider    string `json:"provider,omitempty"`
	Model       string `json:"model,omitempty"`
	Personality string `json:"personality,omitempty"`
}

// RatingRequest is the body of PUT /api/feedback/{id}/rating.
type RatingRequest struct {
	Rating int `json:"rating"`
}

// SettingRequest is the body of PUT /api/settings/{key}.
type SettingRequest struct {
	Value string `json:"value"`
}

// ScoreRequest is the body of PUT /api/activity/apps/{app}/score.
type ScoreRequest struct {
	Score float64 `json:"score"`
}

type handlers struct {
	manager *services.Manager
}

// Health reports liveness and the scheduler state.
func (h *handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"version":          version.GetVersion(),
		"scheduler":        h.manager.Feedback().State().String(),
		"feedback_enabled": h.manager.Feedback().Enabled(),
	})
}

// Budget returns the month-to-date snapshot and its forecast.
func (h *handlers) Budget(w http.ResponseWriter, r *http.Request) {
	snap, err := h.manager.Budget().Snapshot(r.Context())
	if err != nil {
		logger.Error("failed to compute budget", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute budget")
		return
	}

	forecast := budget.Project(snap, h.manager.Clock().Now())
	writeJSON(w, http.StatusOK, BudgetResponse{
		Snapshot:   snap,
		Forecast:   forecast,
		Comparison: budget.FormatComparison(forecast.ProjectedSpend, snap.Limit),
	})
}

// MonthlyUsage lists this month's usage by provider and model.
func (h *handlers) MonthlyUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.manager.Budget().Breakdown(r.Context())
	if err != nil {
		logger.Error("failed to load monthly usage", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load monthly usage")
		return
	}
	if usage == nil {
		usage = []models.ProviderUsage{}
	}
	writeJSON(w, http.StatusOK, usage)
}

// TodayActivity returns today's aggregated activity.
func (h *handlers) TodayActivity(w http.ResponseWriter, r *http.Request) {
	stats, err := h.manager.Sampler().TodayStats(r.Context())
	if err != nil {
		logger.Error("failed to load today's activity", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load activity")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// AppActivity returns per-application totals over ?days=N (default 7).
func (h *handlers) AppActivity(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(w, r, "days", 7)
	if !ok {
		return
	}

	usage, err := h.manager.Sampler().AppStats(r.Context(), days)
	if err != nil {
		logger.Error("failed to load app stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load app stats")
		return
	}
	if usage == nil {
		usage = []models.AppUsage{}
	}
	writeJSON(w, http.StatusOK, usage)
}

// SetAppScore overrides the productivity weight of one application.
func (h *handlers) SetAppScore(w http.ResponseWriter, r *http.Request) {
	app := strings.TrimSpace(mux.Vars(r)["app"])
	if app == "" {
		writeError(w, http.StatusBadRequest, "application name is required")
		return
	}

	var req ScoreRequest
	if !decodeBody(w, r, &req) {
		return
	}

	applied, err := h.manager.Sampler().SetProductivityScore(app, req.Score)
	if err != nil {
		logger.Error("failed to set productivity score", "app", app, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save productivity score")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"app": app, "score": applied})
}

// ListFeedback returns the most recent entries, newest first.
func (h *handlers) ListFeedback(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", feedback.DefaultRecentLimit)
	if !ok {
		return
	}

	entries, err := h.manager.Feedback().RecentFeedback(r.Context(), limit)
	if err != nil {
		logger.Error("failed to load feedback", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load feedback")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// CreateFeedback generates manual feedback.
func (h *handlers) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	res := h.manager.GenerateFeedback(r.Context())
	if !res.Success {
		writeJSON(w, http.StatusBadGateway, res)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// RateFeedback attaches a 1-5 rating to an entry.
func (h *handlers) RateFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid feedback id")
		return
	}

	var req RatingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err = h.manager.Feedback().RateFeedback(r.Context(), id, req.Rating)
	switch {
	case errors.Is(err, feedback.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, "feedback not found")
		return
	case err != nil:
		logger.Error("failed to rate feedback", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to rate feedback")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Generate serves a free-form prompt. Gateway failures are reported in the
// body with success=false.
func (h *handlers) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	res := h.manager.Generate(r.Context(), req.Prompt, llm.Options{
		Provider:    req.Provider,
		Model:       req.Model,
		Personality: req.Personality,
		RequestKind: models.RequestKindChat,
	})
	writeJSON(w, http.StatusOK, res)
}

// LocalModels lists the models installed on the local inference server.
func (h *handlers) LocalModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Gateway().ListLocalModels(r.Context()))
}

// ListSettings returns every stored setting with credentials masked.
func (h *handlers) ListSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := h.manager.Settings().Raw(r.Context())
	if err != nil {
		logger.Error("failed to load settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

// UpdateSetting validates and stores one setting.
func (h *handlers) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req SettingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.manager.SetSetting(r.Context(), key, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name+" parameter")
		return 0, false
	}
	return n, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeJSON encodes first so an encoding failure can still produce a clean
// 500 instead of a truncated body.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		http.Error(w, `{"error":"Internal Server Error","message":"Failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}
