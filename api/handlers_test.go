/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Season CRUD and duplicate start years
- Monthly plan upsert, replace and reset
- Stored and ad-hoc projections
- Error status mapping
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ferie/season"
	"github.com/warp/ferie/season/store"
)

type testServer struct {
	handler *Handler
	store   *store.Memory
	router  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := store.NewMemory()
	h := NewHandler(mem, nil)
	h.Now = func() time.Time { return time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC) }
	h.Rollover = &season.Rollover{Store: mem, MaxCarryover: season.Days(5)}
	return &testServer{handler: h, store: mem, router: NewRouter(h, nil)}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) createSeason(t *testing.T, body string) SeasonDTO {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/seasons", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[SeasonDTO](t, rec)
}

// =============================================================================
// SEASONS
// =============================================================================

func TestCreateSeason_DefaultsFromRules(t *testing.T) {
	// GIVEN: A server with the default Ferieloven preset
	ts := newTestServer(t)

	// WHEN: Creating a season with only a start year
	s := ts.createSeason(t, `{"start_year": 2025}`)

	// THEN: Name and rates come from the defaults
	assert.Equal(t, "2025-2026", s.Name)
	assert.Equal(t, 2.08, s.EarnedPerMonth)
	assert.Equal(t, 5.0, s.ExtraHolidays)
	assert.Equal(t, 0.0, s.Buffer)
	assert.Equal(t, "2025-09-01", s.PeriodStart)
	assert.Equal(t, "2026-08-31", s.PeriodEnd)
}

func TestCreateSeason_ExplicitValuesAndStringNumbers(t *testing.T) {
	ts := newTestServer(t)

	s := ts.createSeason(t, `{
		"name": "Ferie 25/26",
		"start_year": 2025,
		"buffer": "1,5",
		"rules": "ferieloven-no-extra",
		"earned_per_month": 2.5
	}`)

	assert.Equal(t, "Ferie 25/26", s.Name)
	assert.Equal(t, 1.5, s.Buffer)
	assert.Equal(t, 2.5, s.EarnedPerMonth)
	assert.Equal(t, 0.0, s.ExtraHolidays)
}

func TestCreateSeason_NegativeBufferIsZero(t *testing.T) {
	ts := newTestServer(t)

	s := ts.createSeason(t, `{"start_year": 2025, "buffer": -4}`)
	assert.Equal(t, 0.0, s.Buffer)
}

func TestCreateSeason_Validation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/seasons", `{"name": "no year"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/seasons", `{"start_year": 2025, "rules": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/seasons", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSeason_DuplicateStartYearConflict(t *testing.T) {
	// GIVEN: A season starting 2025
	ts := newTestServer(t)
	first := ts.createSeason(t, `{"start_year": 2025}`)

	// WHEN: Creating another one for the same year
	rec := ts.do(t, http.MethodPost, "/api/seasons", `{"start_year": 2025, "name": "again"}`)

	// THEN: 409 with the existing id
	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "duplicate_start_year", resp.Code)
	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(first.ID), details["existing_id"])
}

func TestListSeasons_NewestFirst(t *testing.T) {
	ts := newTestServer(t)
	ts.createSeason(t, `{"start_year": 2023}`)
	ts.createSeason(t, `{"start_year": 2025}`)
	ts.createSeason(t, `{"start_year": 2024}`)

	rec := ts.do(t, http.MethodGet, "/api/seasons", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	seasons := decode[[]SeasonDTO](t, rec)
	require.Len(t, seasons, 3)
	assert.Equal(t, []int{2025, 2024, 2023}, []int{seasons[0].StartYear, seasons[1].StartYear, seasons[2].StartYear})
}

func TestGetSeason_NotFoundAndBadID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/seasons/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/seasons/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSeason_OnlyPresentFieldsChange(t *testing.T) {
	ts := newTestServer(t)
	s := ts.createSeason(t, `{"start_year": 2025, "buffer": 2}`)

	rec := ts.do(t, http.MethodPut, "/api/seasons/1", `{"buffer": "3.5"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[SeasonDTO](t, rec)
	assert.Equal(t, s.ID, updated.ID)
	assert.Equal(t, 3.5, updated.Buffer)
	assert.Equal(t, 2.08, updated.EarnedPerMonth)
	assert.Equal(t, s.Name, updated.Name)

	rec = ts.do(t, http.MethodPut, "/api/seasons/1", `{"name": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSeason(t *testing.T) {
	ts := newTestServer(t)
	ts.createSeason(t, `{"start_year": 2025}`)

	rec := ts.do(t, http.MethodDelete, "/api/seasons/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/seasons/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNextSeason(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/seasons/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, NextSeasonDTO{StartYear: 2025, Name: "2025-2026"}, decode[NextSeasonDTO](t, rec))

	ts.createSeason(t, `{"start_year": 2026}`)
	rec = ts.do(t, http.MethodGet, "/api/seasons/next", nil)
	assert.Equal(t, 2027, decode[NextSeasonDTO](t, rec).StartYear)
}

// =============================================================================
// MONTHLY PLAN
// =============================================================================

func TestSaveMonth_UpsertAndNormalize(t *testing.T) {
	// GIVEN: A season
	ts := newTestServer(t)
	ts.createSeason(t, `{"start_year": 2025}`)

	// WHEN: Saving months with string, null and negative values
	rec := ts.do(t, http.MethodPost, "/api/seasons/1/monthly", `{"month_index": 0, "planned_holidays": "2,5"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[MonthlyRecordDTO](t, rec)
	assert.Equal(t, "September", saved.MonthName)
	assert.Equal(t, 2.5, saved.PlannedHolidays)

	rec = ts.do(t, http.MethodPost, "/api/seasons/1/monthly", `{"month_index": 3, "planned_holidays": null}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/seasons/1/monthly", `{"month_index": 4, "planned_holidays": -3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/seasons/1/monthly", `{"month_index": 0, "planned_holidays": 4}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: Rows are sparse, upserted and clamped at 0
	rec = ts.do(t, http.MethodGet, "/api/seasons/1/monthly", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	records := decode[[]MonthlyRecordDTO](t, rec)
	require.Len(t, records, 3)
	assert.Equal(t, 4.0, records[0].PlannedHolidays)
	assert.Equal(t, 0.0, records[1].PlannedHolidays)
	assert.Equal(t, 0.0, records[2].PlannedHolidays)
}

func TestSaveMonth_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.createSeason(t, `{"start_year": 2025}`)

	rec := ts.do(t, http.MethodPost, "/api/seasons/1/monthly", `{"month_index": 12, "planned_holidays": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/seasons/1/monthly", `{"planned_holidays": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/seasons/9/monthly", `{"month_index": 0, "planned_holidays": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReplacePlanAndReset(t *testing.T) {
	ts := newTestServer(t)
	ts.createSeason(t, `{"start_year": 2025}`)

	rec := ts.do(t, http.MethodPut, "/api/seasons/1/monthly", `{"months": [1, "2", null, 3]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	plan := decode[[]MonthlyRecordDTO](t, rec)
	require.Len(t, plan, season.MonthsPerSeason)
	assert.Equal(t, 2.0, plan[1].PlannedHolidays)
	assert.Equal(t, 0.0, plan[2].PlannedHolidays)
	assert.Equal(t, 3.0, plan[3].PlannedHolidays)
	assert.Equal(t, 0.0, plan[11].PlannedHolidays)

	rec = ts.do(t, http.MethodPost, "/api/seasons/1/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, m := range decode[[]MonthlyRecordDTO](t, rec) {
		assert.Equal(t, 0.0, m.PlannedHolidays, m.MonthName)
	}

	tooMany := `{"months": [0,0,0,0,0,0,0,0,0,0,0,0,0]}`
	rec = ts.do(t, http.MethodPut, "/api/seasons/1/monthly", tooMany)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PROJECTION
// =============================================================================

func TestGetProjection_DeficitExamples(t *testing.T) {
	// GIVEN: 10 days in September and 3 in October
	ts := newTestServer(t)
	ts.createSeason(t, `{"start_year": 2025}`)
	ts.do(t, http.MethodPost, "/api/seasons/1/monthly", `{"month_index": 0, "planned_holidays": 10}`)
	ts.do(t, http.MethodPost, "/api/seasons/1/monthly", `{"month_index": 1, "planned_holidays": 3}`)

	// WHEN: Projecting
	rec := ts.do(t, http.MethodGet, "/api/seasons/1/projection", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[ProjectionDTO](t, rec)

	// THEN: Extra pool exhausted in September, October uncovered
	require.NotNil(t, p.SeasonID)
	assert.Equal(t, int64(1), *p.SeasonID)
	require.Len(t, p.Months, 12)

	sep := p.Months[0]
	assert.Equal(t, 5.0, sep.ExtraUsed)
	assert.Equal(t, 0.0, sep.ExtraRemaining)
	assert.Equal(t, 0.0, sep.Balance)
	assert.Equal(t, 0.0, sep.BalanceWithExtra)
	assert.False(t, sep.Deficit)

	oct := p.Months[1]
	assert.Equal(t, "Oktober", oct.MonthName)
	assert.Equal(t, -3.84, oct.Balance)
	assert.True(t, oct.Deficit)

	// AND: Months are dated and today's month is flagged
	assert.Equal(t, "2025-09-01", sep.MonthStart)
	assert.Equal(t, "2026-08-01", p.Months[11].MonthStart)
	assert.False(t, sep.Current)
	assert.True(t, oct.Current)

	assert.Equal(t, 24.96, p.Summary.TotalEarned)
	assert.Equal(t, 13.0, p.Summary.TotalUsed)
	assert.Equal(t, 11.96, p.Summary.Remaining)
}

func TestGetProjection_NotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/seasons/7/projection", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProject_AdHoc(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/projection", `{"months": [40]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[ProjectionDTO](t, rec)

	assert.Nil(t, p.SeasonID)
	assert.Empty(t, p.Months[0].MonthStart, "ad-hoc projections are undated")
	assert.Equal(t, 2.08, p.Config.EarnedPerMonth, "rates default to the preset")
	assert.Equal(t, 0.0, p.Summary.Remaining)
	assert.Equal(t, -10.04, p.Summary.RemainingWithExtra)
}

func TestProject_AdHocOverrides(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/projection", `{"buffer": 3, "earned_per_month": "2", "extra_holidays": null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[ProjectionDTO](t, rec)

	assert.Equal(t, 0.0, p.Config.ExtraHolidays, "null normalizes to 0")
	assert.Equal(t, 5.0, p.Months[0].Balance)
	assert.Equal(t, 27.0, p.Summary.TotalEarned)
}

func TestProject_ExtremeExponentsReadAsZero(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{
		`{"months": [1e400]}`,
		`{"months": ["1e-1000000"]}`,
		`{"buffer": 1e400, "months": [2, "1e-1000000"]}`,
	} {
		// WHEN: Projecting values with absurd exponents
		start := time.Now()
		rec := ts.do(t, http.MethodPost, "/api/projection", body)

		// THEN: A full JSON body comes back quickly with those values as 0
		require.Equal(t, http.StatusOK, rec.Code, body)
		assert.Less(t, time.Since(start), time.Second, body)
		p := decode[ProjectionDTO](t, rec)
		assert.Len(t, p.Months, season.MonthsPerSeason, body)
		assert.Equal(t, 0.0, p.Config.Buffer, body)
		assert.LessOrEqual(t, p.Summary.TotalUsed, 2.0, body)
	}
}

func TestWriteJSON_EncodeFailureIs500(t *testing.T) {
	rec := httptest.NewRecorder()

	writeJSON(rec, http.StatusOK, map[string]float64{"days": math.Inf(1)})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "Failed to encode response", resp.Error)
}

// =============================================================================
// RULES, ROLLOVER, HEALTH
// =============================================================================

func TestListRules(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rules []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	require.Len(t, rules, 2)
	assert.Equal(t, "ferieloven", rules[0]["id"])
}

func TestTriggerRollover(t *testing.T) {
	// GIVEN: Only the 2024 season, with 10 days left after usage
	ts := newTestServer(t)
	ts.createSeason(t, `{"start_year": 2024}`)

	// WHEN: Triggering a rollover in October 2025
	rec := ts.do(t, http.MethodPost, "/api/rollovers/run", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: 2025 is opened with the capped carry-over and the run is listed
	created, err := ts.store.GetSeasonByStartYear(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, "5.00", created.Config.BufferDays.String())

	rec = ts.do(t, http.MethodGet, "/api/rollovers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]RolloverRunDTO](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, 5.0, runs[0].CarriedOver)

	// AND: A second trigger is a no-op
	rec = ts.do(t, http.MethodPost, "/api/rollovers/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["skipped"])
}

func TestTriggerRollover_NotConfigured(t *testing.T) {
	ts := newTestServer(t)
	ts.handler.Rollover = nil

	rec := ts.do(t, http.MethodPost, "/api/rollovers/run", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
