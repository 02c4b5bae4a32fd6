/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with seasons
	and monthly plans that show specific projection behaviour.

AVAILABLE SCENARIOS:

	fresh-season:     Current season, Ferieloven rates, nothing planned
	extra-days-cover: Early holidays covered by the extra days, never negative
	deficit:          10 days in September, 3 in October: extra days run out
	                  and October ends uncovered at -3.84
	rollover-ready:   Only last season exists, so a rollover opens this one

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create season(s) from a rules preset
 3. Save planned months

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "deficit"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add a scenarioPlan to 'scenarioPlans'

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Season and plan handlers
  - factory/rules.go: Rule presets
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/ferie/factory"
	"github.com/warp/ferie/season"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-season",
		Name:        "Fresh Season",
		Description: "Current season with Ferieloven rates and an empty plan",
	},
	{
		ID:          "extra-days-cover",
		Name:        "Extra Days Cover",
		Description: "Holidays taken before they are earned, covered by the extra days",
	},
	{
		ID:          "deficit",
		Name:        "Deficit",
		Description: "Extra days exhausted in September, October ends in deficit",
	},
	{
		ID:          "rollover-ready",
		Name:        "Rollover Ready",
		Description: "Only last season exists; a rollover opens the current one with carried days",
	},
}

// seasonSeed describes one season a scenario creates.
type seasonSeed struct {
	yearOffset int // relative to the current season's start year
	rules      string
	buffer     float64
	plan       map[int]float64
}

var scenarioPlans = map[string][]seasonSeed{
	"fresh-season": {
		{rules: factory.PresetFerieloven},
	},
	"extra-days-cover": {
		{rules: factory.PresetFerieloven, plan: map[int]float64{0: 4, 1: 3, 6: 10}},
	},
	"deficit": {
		{rules: factory.PresetFerieloven, plan: map[int]float64{0: 10, 1: 3}},
	},
	"rollover-ready": {
		{yearOffset: -1, rules: factory.PresetFerieloven, buffer: 2, plan: map[int]float64{3: 5, 10: 10}},
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	seeds, ok := scenarioPlans[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	if err := h.loadSeeds(ctx, seeds); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.log(r).Info("scenario loaded", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) reset(ctx context.Context) error {
	resettable, ok := h.Store.(season.Resettable)
	if !ok {
		return season.ErrStoreRequired
	}
	if err := resettable.Reset(ctx); err != nil {
		return err
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	return nil
}

// =============================================================================
// SCENARIO LOADER
// =============================================================================

func (h *Handler) loadSeeds(ctx context.Context, seeds []seasonSeed) error {
	current := season.StartYearFor(h.now())

	for _, seed := range seeds {
		rules, ok := h.Rules.Get(seed.rules)
		if !ok {
			return fmt.Errorf("unknown rules preset %q", seed.rules)
		}

		year := current + seed.yearOffset
		created, err := h.Store.CreateSeason(ctx, season.Season{
			Name:      season.DefaultName(year),
			StartYear: year,
			Config:    rules.NewConfig(season.Days(seed.buffer)),
		})
		if err != nil {
			return err
		}

		for month, days := range seed.plan {
			if err := h.Store.SaveMonth(ctx, created.ID, month, season.Days(days)); err != nil {
				return err
			}
		}
	}
	return nil
}
