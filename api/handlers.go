/*
handlers.go - HTTP API handlers for the holiday season planner

PURPOSE:
  Exposes seasons, monthly plans and projections via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the season engine.
  Projections are computed on every read and never stored.

ENDPOINTS:
  Seasons:
    GET    /api/seasons                 List seasons (newest first)
    POST   /api/seasons                 Create season
    GET    /api/seasons/next            Suggested next start year and name
    GET    /api/seasons/{id}            Get season
    PUT    /api/seasons/{id}            Update name, buffer or rates
    DELETE /api/seasons/{id}            Delete season and its plan

  Monthly plan:
    GET    /api/seasons/{id}/monthly    Stored months (sparse)
    POST   /api/seasons/{id}/monthly    Upsert one month
    PUT    /api/seasons/{id}/monthly    Replace all 12 months
    POST   /api/seasons/{id}/reset      Zero the whole plan

  Projection:
    GET    /api/seasons/{id}/projection Project stored inputs
    POST   /api/projection              Project ad-hoc inputs

  Rules and rollover:
    GET    /api/rules                   Rule presets
    GET    /api/rollovers               Rollover history
    POST   /api/rollovers/run           Run the rollover check now

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (season.Store)
  - Rules: Preset registry from the factory
  - Rollover: Optional, enables POST /api/rollovers/run

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Season not found
  - 409: Conflict (duplicate start year)
  - 500: Internal errors

  Bad numbers are not errors: they normalize to 0.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/ferie/factory"
	"github.com/warp/ferie/season"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        season.Store
	Rules        *factory.RulesFactory
	DefaultRules string
	Rollover     *season.Rollover
	Scheduler    *RolloverScheduler
	Logger       *slog.Logger

	// Now is the clock used for next-season suggestions and manual rollovers.
	Now func() time.Time

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the built-in rule presets.
func NewHandler(store season.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:        store,
		Rules:        factory.NewRulesFactory(),
		DefaultRules: factory.PresetFerieloven,
		Logger:       logger,
		Now:          time.Now,
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	return h.Logger.With("request_id", middleware.GetReqID(r.Context()))
}

// defaultRules returns the preset used when a request names none.
func (h *Handler) defaultRules() season.Rules {
	if r, ok := h.Rules.Get(h.DefaultRules); ok {
		return r
	}
	r, _ := h.Rules.Get(factory.PresetFerieloven)
	return r
}

// =============================================================================
// SEASON HANDLERS
// =============================================================================

// ListSeasons returns all seasons, newest start year first.
func (h *Handler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.Store.ListSeasons(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to list seasons", err)
		return
	}

	dtos := make([]SeasonDTO, len(seasons))
	for i, s := range seasons {
		dtos[i] = toSeasonDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSeason creates a season from a rules preset and optional overrides.
func (h *Handler) CreateSeason(w http.ResponseWriter, r *http.Request) {
	var req CreateSeasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.StartYear <= 0 {
		writeError(w, http.StatusBadRequest, "start_year is required", nil)
		return
	}

	rules := h.defaultRules()
	if req.Rules != "" {
		preset, ok := h.Rules.Get(req.Rules)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown rules preset %q", req.Rules), nil)
			return
		}
		rules = preset
	}

	cfg := rules.NewConfig(req.Buffer.Or(season.Days(0)))
	cfg.EarnedPerMonth = req.EarnedPerMonth.Or(cfg.EarnedPerMonth)
	cfg.ExtraDaysPool = req.ExtraHolidays.Or(cfg.ExtraDaysPool)

	name := req.Name
	if name == "" {
		name = season.DefaultName(req.StartYear)
	}

	created, err := h.Store.CreateSeason(r.Context(), season.Season{
		Name:      name,
		StartYear: req.StartYear,
		Config:    cfg,
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to create season", err)
		return
	}

	h.log(r).Info("season created",
		"season_id", created.ID,
		"start_year", created.StartYear,
		"rules", rules.ID,
	)
	writeJSON(w, http.StatusCreated, toSeasonDTO(created))
}

// GetSeason returns a single season.
func (h *Handler) GetSeason(w http.ResponseWriter, r *http.Request) {
	id, ok := seasonID(w, r)
	if !ok {
		return
	}

	s, err := h.Store.GetSeason(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, "Failed to get season", err)
		return
	}
	writeJSON(w, http.StatusOK, toSeasonDTO(*s))
}

// UpdateSeason edits name, buffer or rates. Absent fields are kept.
func (h *Handler) UpdateSeason(w http.ResponseWriter, r *http.Request) {
	id, ok := seasonID(w, r)
	if !ok {
		return
	}

	var req UpdateSeasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name != nil && *req.Name == "" {
		writeError(w, http.StatusBadRequest, "name must not be empty", nil)
		return
	}

	u := season.SeasonUpdate{Name: req.Name}
	if req.Buffer.Present {
		u.BufferDays = &req.Buffer.Amount
	}
	if req.EarnedPerMonth.Present {
		u.EarnedPerMonth = &req.EarnedPerMonth.Amount
	}
	if req.ExtraHolidays.Present {
		u.ExtraDaysPool = &req.ExtraHolidays.Amount
	}

	updated, err := h.Store.UpdateSeason(r.Context(), id, u)
	if err != nil {
		h.writeStoreError(w, r, "Failed to update season", err)
		return
	}
	writeJSON(w, http.StatusOK, toSeasonDTO(updated))
}

// DeleteSeason removes a season and its monthly plan.
func (h *Handler) DeleteSeason(w http.ResponseWriter, r *http.Request) {
	id, ok := seasonID(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteSeason(r.Context(), id); err != nil {
		h.writeStoreError(w, r, "Failed to delete season", err)
		return
	}

	h.log(r).Info("season deleted", "season_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// NextSeason suggests the start year and name for a new season.
func (h *Handler) NextSeason(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.Store.ListSeasons(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to list seasons", err)
		return
	}

	year := season.NextStartYear(seasons, h.now())
	writeJSON(w, http.StatusOK, NextSeasonDTO{StartYear: year, Name: season.DefaultName(year)})
}

// =============================================================================
// MONTHLY PLAN HANDLERS
// =============================================================================

// GetMonthly returns the stored months of a season. Unsaved months are absent.
func (h *Handler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	id, ok := seasonID(w, r)
	if !ok {
		return
	}

	records, err := h.Store.MonthlyRecords(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, "Failed to get monthly data", err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlyRecordDTOs(records))
}

// SaveMonth upserts one month's planned usage.
func (h *Handler) SaveMonth(w http.ResponseWriter, r *http.Request) {
	id, ok := seasonID(w, r)
	if !ok {
		return
	}

	var req SaveMonthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.MonthIndex == nil {
		writeError(w, http.StatusBadRequest, "month_index is required", nil)
		return
	}

	days := season.NonNegative(req.PlannedHolidays.Amount)
	if err := h.Store.SaveMonth(r.Context(), id, *req.MonthIndex, days); err != nil {
		h.writeStoreError(w, r, "Failed to save monthly data", err)
		return
	}

	writeJSON(w, http.StatusOK, MonthlyRecordDTO{
		MonthIndex:      *req.MonthIndex,
		MonthName:       season.MonthName(*req.MonthIndex),
		PlannedHolidays: days.Float64(),
	})
}

// ReplacePlan replaces all twelve months in one write.
func (h *Handler) ReplacePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := seasonID(w, r)
	if !ok {
		return
	}

	var req ReplacePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Months) > season.MonthsPerSeason {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d months allowed", season.MonthsPerSeason), nil)
		return
	}

	next := planFromValues(req.Months)
	plan, err := h.Store.UpdatePlan(r.Context(), id, func(p *season.MonthlyPlan) error {
		*p = next
		return nil
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to replace plan", err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlyRecordDTOs(plan.Records(id)))
}

// ResetPlan sets every month of the plan to 0.
func (h *Handler) ResetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := seasonID(w, r)
	if !ok {
		return
	}

	plan, err := h.Store.UpdatePlan(r.Context(), id, func(p *season.MonthlyPlan) error {
		*p = planFromValues(nil)
		return nil
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to reset plan", err)
		return
	}

	h.log(r).Info("plan reset", "season_id", id)
	writeJSON(w, http.StatusOK, toMonthlyRecordDTOs(plan.Records(id)))
}

// =============================================================================
// PROJECTION HANDLERS
// =============================================================================

// GetProjection projects a stored season.
func (h *Handler) GetProjection(w http.ResponseWriter, r *http.Request) {
	id, ok := seasonID(w, r)
	if !ok {
		return
	}

	s, _, projection, err := season.ProjectStored(r.Context(), h.Store, id)
	if err != nil {
		h.writeStoreError(w, r, "Failed to project season", err)
		return
	}

	dto := withCalendar(toProjectionDTO(projection), s.StartYear, h.now())
	sid := int64(id)
	dto.SeasonID = &sid
	writeJSON(w, http.StatusOK, dto)
}

// Project runs a projection over ad-hoc inputs without storing anything.
func (h *Handler) Project(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Months) > season.MonthsPerSeason {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d months allowed", season.MonthsPerSeason), nil)
		return
	}

	rules := h.defaultRules()
	cfg := season.Config{
		BufferDays:     req.Buffer.Or(season.Days(0)),
		EarnedPerMonth: req.EarnedPerMonth.Or(rules.EarnedPerMonth),
		ExtraDaysPool:  req.ExtraHolidays.Or(rules.ExtraDays),
	}

	writeJSON(w, http.StatusOK, toProjectionDTO(season.Project(cfg, planFromValues(req.Months))))
}

// =============================================================================
// RULES AND ROLLOVER HANDLERS
// =============================================================================

// ListRules returns the rule presets.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	presets := h.Rules.List()
	dtos := make([]factory.RulesJSON, len(presets))
	for i, p := range presets {
		dtos[i] = factory.ToJSON(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListRollovers returns rollover history, newest first.
func (h *Handler) ListRollovers(w http.ResponseWriter, r *http.Request) {
	runStore, ok := h.Store.(season.RolloverRunStore)
	if !ok {
		writeJSON(w, http.StatusOK, []RolloverRunDTO{})
		return
	}

	runs, err := runStore.ListRolloverRuns(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to list rollover runs", err)
		return
	}

	dtos := make([]RolloverRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRolloverRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RolloverSchedule reports the scheduler state and its next check.
func (h *Handler) RolloverSchedule(w http.ResponseWriter, r *http.Request) {
	dto := RolloverScheduleDTO{}
	if h.Rollover != nil {
		dto.MaxCarryover = h.Rollover.MaxCarryover.Float64()
	}
	if rs := h.Scheduler; rs != nil {
		dto.Enabled = rs.Enabled
		dto.Running = rs.Running()
		dto.Interval = rs.CheckInterval.String()
		dto.LastRun = formatTime(rs.LastRunTime())
		dto.NextRun = formatTime(rs.NextRunTime())
	}
	writeJSON(w, http.StatusOK, dto)
}

// TriggerRollover runs the rollover check immediately.
func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	if h.Rollover == nil {
		writeError(w, http.StatusNotImplemented, "Rollover is not configured", season.ErrStoreRequired)
		return
	}

	result, err := h.Rollover.Run(r.Context(), h.now())
	if err != nil {
		h.writeStoreError(w, r, "Rollover failed", err)
		return
	}

	resp := map[string]any{
		"skipped": result.Skipped,
		"reason":  result.Reason,
	}
	if result.Run != nil {
		resp["run"] = toRolloverRunDTO(*result.Run)
	}
	if result.Season != nil {
		resp["season"] = toSeasonDTO(*result.Season)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// writeJSON encodes data before writing the status, so an encoding
// failure becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		slog.Error("failed to encode response", "status", status, "error", err)
		buf.Reset()
		json.NewEncoder(&buf).Encode(ErrorResponse{Error: "Failed to encode response", Details: err.Error()})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeStoreError maps season errors to HTTP status codes.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, message string, err error) {
	resp := ErrorResponse{Error: message, Details: err.Error()}

	var dup *season.DuplicateStartYearError
	switch {
	case season.IsNotFound(err):
		resp.Error = "Season not found"
		resp.Code = "not_found"
		writeJSON(w, http.StatusNotFound, resp)
	case errors.As(err, &dup):
		resp.Error = fmt.Sprintf("A season starting %d already exists", dup.StartYear)
		resp.Code = "duplicate_start_year"
		if dup.ExistingID != 0 {
			resp.Details = map[string]any{"existing_id": dup.ExistingID}
		}
		writeJSON(w, http.StatusConflict, resp)
	case season.IsClientError(err):
		resp.Code = "invalid_input"
		writeJSON(w, http.StatusBadRequest, resp)
	default:
		h.log(r).Error(message, "error", err)
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

// seasonID parses the {id} URL parameter, writing a 400 on failure.
func seasonID(w http.ResponseWriter, r *http.Request) (season.SeasonID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid season id", fmt.Errorf("%q is not a season id", raw))
		return 0, false
	}
	return season.SeasonID(id), true
}
