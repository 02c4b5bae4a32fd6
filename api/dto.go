/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the season engine's decimal model from the external API contract.
  Amounts leave the API as JSON numbers and may arrive as numbers,
  numeric strings (including "1,5"), or null.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Season:
    SeasonDTO, CreateSeasonRequest, UpdateSeasonRequest, NextSeasonDTO

  Monthly plan:
    MonthlyRecordDTO, SaveMonthRequest, ReplacePlanRequest

  Projection:
    ProjectionDTO, MonthProjectionDTO, SummaryDTO, ProjectRequest

  Rollover:
    RolloverRunDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DaysValue only normalizes:
  anything that is not a usable non-negative number becomes 0.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/rules.go: RulesJSON type
*/
package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/warp/ferie/season"
)

// =============================================================================
// AMOUNTS
// =============================================================================

// DaysValue is a day amount as sent by clients. Present is false when the
// field was absent from the request body.
type DaysValue struct {
	Amount  season.Amount
	Present bool
}

// UnmarshalJSON accepts a number, a numeric string, or null.
func (d *DaysValue) UnmarshalJSON(data []byte) error {
	d.Present = true

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case json.Number:
		d.Amount = season.ParseDays(v.String())
	case string:
		d.Amount = season.ParseDays(v)
	default:
		d.Amount = season.Days(0)
	}
	return nil
}

// MarshalJSON writes the amount as a number.
func (d DaysValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Amount.Float64())
}

// Or returns the parsed amount, or fallback when the field was absent.
func (d DaysValue) Or(fallback season.Amount) season.Amount {
	if !d.Present {
		return fallback
	}
	return d.Amount
}

// =============================================================================
// SEASONS
// =============================================================================

// SeasonDTO represents a season in API responses.
type SeasonDTO struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	StartYear      int     `json:"start_year"`
	Buffer         float64 `json:"buffer"`
	EarnedPerMonth float64 `json:"earned_per_month"`
	ExtraHolidays  float64 `json:"extra_holidays"`
	PeriodStart    string  `json:"period_start"`
	PeriodEnd      string  `json:"period_end"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

// CreateSeasonRequest is the request to create a season.
// Rates come from the named rules preset unless given explicitly.
type CreateSeasonRequest struct {
	Name           string    `json:"name"`
	StartYear      int       `json:"start_year"`
	Buffer         DaysValue `json:"buffer"`
	Rules          string    `json:"rules,omitempty"`
	EarnedPerMonth DaysValue `json:"earned_per_month"`
	ExtraHolidays  DaysValue `json:"extra_holidays"`
}

// UpdateSeasonRequest edits a season. Absent fields are left alone.
type UpdateSeasonRequest struct {
	Name           *string   `json:"name,omitempty"`
	Buffer         DaysValue `json:"buffer"`
	EarnedPerMonth DaysValue `json:"earned_per_month"`
	ExtraHolidays  DaysValue `json:"extra_holidays"`
}

// NextSeasonDTO suggests the next season to create.
type NextSeasonDTO struct {
	StartYear int    `json:"start_year"`
	Name      string `json:"name"`
}

// =============================================================================
// MONTHLY PLAN
// =============================================================================

// MonthlyRecordDTO is one stored month of planned usage.
type MonthlyRecordDTO struct {
	MonthIndex      int     `json:"month_index"`
	MonthName       string  `json:"month_name"`
	PlannedHolidays float64 `json:"planned_holidays"`
}

// SaveMonthRequest upserts a single month.
type SaveMonthRequest struct {
	MonthIndex      *int      `json:"month_index"`
	PlannedHolidays DaysValue `json:"planned_holidays"`
}

// ReplacePlanRequest replaces the whole plan. Missing trailing months are 0.
type ReplacePlanRequest struct {
	Months []DaysValue `json:"months"`
}

// =============================================================================
// PROJECTION
// =============================================================================

// ConfigDTO is the configuration a projection was computed from.
type ConfigDTO struct {
	Buffer         float64 `json:"buffer"`
	EarnedPerMonth float64 `json:"earned_per_month"`
	ExtraHolidays  float64 `json:"extra_holidays"`
}

// MonthProjectionDTO is one row of the projection table.
type MonthProjectionDTO struct {
	MonthIndex                int     `json:"month_index"`
	MonthName                 string  `json:"month_name"`
	Earned                    float64 `json:"earned"`
	Used                      float64 `json:"used"`
	EarnedCumulative          float64 `json:"earned_cumulative"`
	EarnedCumulativeWithExtra float64 `json:"earned_cumulative_with_extra"`
	Balance                   float64 `json:"balance"`
	BalanceWithExtra          float64 `json:"balance_with_extra"`
	ExtraUsed                 float64 `json:"extra_used"`
	ExtraRemaining            float64 `json:"extra_remaining"`
	Deficit                   bool    `json:"deficit"`

	// Set only for stored seasons.
	MonthStart string `json:"month_start,omitempty"`
	Current    bool   `json:"current,omitempty"`
}

// SummaryDTO is the season total.
type SummaryDTO struct {
	TotalEarned          float64 `json:"total_earned"`
	TotalEarnedWithExtra float64 `json:"total_earned_with_extra"`
	TotalUsed            float64 `json:"total_used"`
	Remaining            float64 `json:"remaining"`
	RemainingWithExtra   float64 `json:"remaining_with_extra"`
	ExtraRemaining       float64 `json:"extra_remaining"`
}

// ProjectionDTO is the full projection response.
type ProjectionDTO struct {
	SeasonID *int64               `json:"season_id,omitempty"`
	Config   ConfigDTO            `json:"config"`
	Months   []MonthProjectionDTO `json:"months"`
	Summary  SummaryDTO           `json:"summary"`
}

// ProjectRequest is an ad-hoc projection that is not stored.
// Absent rates come from the default rules preset.
type ProjectRequest struct {
	Buffer         DaysValue   `json:"buffer"`
	EarnedPerMonth DaysValue   `json:"earned_per_month"`
	ExtraHolidays  DaysValue   `json:"extra_holidays"`
	Months         []DaysValue `json:"months"`
}

// =============================================================================
// ROLLOVER
// =============================================================================

// RolloverRunDTO is one automatic season creation attempt.
type RolloverRunDTO struct {
	ID           string  `json:"id"`
	FromSeasonID int64   `json:"from_season_id"`
	ToSeasonID   *int64  `json:"to_season_id,omitempty"`
	StartYear    int     `json:"start_year"`
	CarriedOver  float64 `json:"carried_over"`
	Status       string  `json:"status"`
	Error        string  `json:"error,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// RolloverScheduleDTO describes the background rollover scheduler.
type RolloverScheduleDTO struct {
	Enabled      bool    `json:"enabled"`
	Running      bool    `json:"running"`
	MaxCarryover float64 `json:"max_carryover"`
	Interval     string  `json:"interval,omitempty"`
	LastRun      string  `json:"last_run,omitempty"`
	NextRun      string  `json:"next_run,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toSeasonDTO(s season.Season) SeasonDTO {
	p := s.Period()
	dto := SeasonDTO{
		ID:             int64(s.ID),
		Name:           s.Name,
		StartYear:      s.StartYear,
		Buffer:         s.Config.BufferDays.Float64(),
		EarnedPerMonth: s.Config.EarnedPerMonth.Float64(),
		ExtraHolidays:  s.Config.ExtraDaysPool.Float64(),
		PeriodStart:    p.Start.Format("2006-01-02"),
		PeriodEnd:      p.End.Format("2006-01-02"),
	}
	if !s.CreatedAt.IsZero() {
		dto.CreatedAt = s.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toMonthlyRecordDTOs(records []season.MonthRecord) []MonthlyRecordDTO {
	dtos := make([]MonthlyRecordDTO, len(records))
	for i, r := range records {
		dtos[i] = MonthlyRecordDTO{
			MonthIndex:      r.MonthIndex,
			MonthName:       season.MonthName(r.MonthIndex),
			PlannedHolidays: r.PlannedDays.Float64(),
		}
	}
	return dtos
}

func toProjectionDTO(p season.Projection) ProjectionDTO {
	dto := ProjectionDTO{
		Config: ConfigDTO{
			Buffer:         p.Config.BufferDays.Float64(),
			EarnedPerMonth: p.Config.EarnedPerMonth.Float64(),
			ExtraHolidays:  p.Config.ExtraDaysPool.Float64(),
		},
		Months: make([]MonthProjectionDTO, len(p.Months)),
		Summary: SummaryDTO{
			TotalEarned:          p.Summary.TotalEarned.Float64(),
			TotalEarnedWithExtra: p.Summary.TotalEarnedWithExtra.Float64(),
			TotalUsed:            p.Summary.TotalUsed.Float64(),
			Remaining:            p.Summary.Remaining.Float64(),
			RemainingWithExtra:   p.Summary.RemainingWithExtra.Float64(),
			ExtraRemaining:       p.Summary.ExtraRemaining.Float64(),
		},
	}
	for i, m := range p.Months {
		dto.Months[i] = MonthProjectionDTO{
			MonthIndex:                m.MonthIndex,
			MonthName:                 m.Name,
			Earned:                    m.Earned.Float64(),
			Used:                      m.Used.Float64(),
			EarnedCumulative:          m.EarnedCumulative.Float64(),
			EarnedCumulativeWithExtra: m.EarnedCumulativeWithExtra.Float64(),
			Balance:                   m.Balance.Float64(),
			BalanceWithExtra:          m.BalanceWithExtra.Float64(),
			ExtraUsed:                 m.ExtraUsed.Float64(),
			ExtraRemaining:            m.ExtraRemaining.Float64(),
			Deficit:                   m.IsDeficit(),
		}
	}
	return dto
}

// withCalendar dates each month of a stored season and flags the month
// containing now.
func withCalendar(dto ProjectionDTO, startYear int, now time.Time) ProjectionDTO {
	current, inSeason := season.CurrentMonth(startYear, now)
	for i := range dto.Months {
		idx := dto.Months[i].MonthIndex
		dto.Months[i].MonthStart = season.MonthStart(startYear, idx).Format("2006-01-02")
		dto.Months[i].Current = inSeason && idx == current
	}
	return dto
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toRolloverRunDTO(r season.RolloverRun) RolloverRunDTO {
	dto := RolloverRunDTO{
		ID:           r.ID,
		FromSeasonID: int64(r.FromSeasonID),
		StartYear:    r.StartYear,
		CarriedOver:  r.CarriedOver.Float64(),
		Status:       string(r.Status),
		Error:        r.Error,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
	if r.ToSeasonID != 0 {
		to := int64(r.ToSeasonID)
		dto.ToSeasonID = &to
	}
	return dto
}

// planFromValues builds a plan from up to 12 client values.
func planFromValues(values []DaysValue) season.MonthlyPlan {
	var plan season.MonthlyPlan
	for i := range plan {
		plan[i] = season.Days(0)
		if i < len(values) {
			plan[i] = values[i].Amount
		}
	}
	return plan
}
