// Package store provides season.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/ferie/season"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	nextID    season.SeasonID
	seasons   map[season.SeasonID]season.Season
	months    map[season.SeasonID]map[int]season.Amount
	rollovers []season.RolloverRun

	// Per-season write locks for read-modify-write
	locks sync.Map
}

func NewMemory() *Memory {
	return &Memory{
		nextID:  1,
		seasons: make(map[season.SeasonID]season.Season),
		months:  make(map[season.SeasonID]map[int]season.Amount),
	}
}

func (m *Memory) seasonLock(id season.SeasonID) *sync.Mutex {
	l, _ := m.locks.LoadOrStore(id, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// =============================================================================
// SEASONS
// =============================================================================

func (m *Memory) CreateSeason(_ context.Context, s season.Season) (season.Season, error) {
	if s.Name == "" || s.StartYear == 0 {
		return season.Season{}, season.ErrInvalidSeason
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.seasons {
		if existing.StartYear == s.StartYear {
			return season.Season{}, &season.DuplicateStartYearError{StartYear: s.StartYear, ExistingID: existing.ID}
		}
	}

	s.ID = m.nextID
	m.nextID++
	s.Config = s.Config.Normalize()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.seasons[s.ID] = s
	m.months[s.ID] = make(map[int]season.Amount)
	return s, nil
}

func (m *Memory) GetSeason(_ context.Context, id season.SeasonID) (*season.Season, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.seasons[id]
	if !ok {
		return nil, season.ErrSeasonNotFound
	}
	return &s, nil
}

func (m *Memory) GetSeasonByStartYear(_ context.Context, year int) (*season.Season, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.seasons {
		if s.StartYear == year {
			s := s
			return &s, nil
		}
	}
	return nil, season.ErrSeasonNotFound
}

func (m *Memory) ListSeasons(_ context.Context) ([]season.Season, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]season.Season, 0, len(m.seasons))
	for _, s := range m.seasons {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartYear > out[j].StartYear })
	return out, nil
}

func (m *Memory) UpdateSeason(_ context.Context, id season.SeasonID, u season.SeasonUpdate) (season.Season, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.seasons[id]
	if !ok {
		return season.Season{}, season.ErrSeasonNotFound
	}
	s = u.Apply(s)
	if s.Name == "" {
		return season.Season{}, season.ErrInvalidSeason
	}
	m.seasons[id] = s
	return s, nil
}

func (m *Memory) DeleteSeason(_ context.Context, id season.SeasonID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seasons[id]; !ok {
		return season.ErrSeasonNotFound
	}
	delete(m.seasons, id)
	delete(m.months, id)
	return nil
}

// =============================================================================
// MONTHLY PLAN
// =============================================================================

func (m *Memory) MonthlyRecords(_ context.Context, id season.SeasonID) ([]season.MonthRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	months, ok := m.months[id]
	if !ok {
		return nil, season.ErrSeasonNotFound
	}
	records := make([]season.MonthRecord, 0, len(months))
	for i, days := range months {
		records = append(records, season.MonthRecord{SeasonID: id, MonthIndex: i, PlannedDays: days})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].MonthIndex < records[j].MonthIndex })
	return records, nil
}

func (m *Memory) MonthlyPlan(ctx context.Context, id season.SeasonID) (season.MonthlyPlan, error) {
	records, err := m.MonthlyRecords(ctx, id)
	if err != nil {
		return season.MonthlyPlan{}, err
	}
	return season.PlanFromRecords(records), nil
}

func (m *Memory) SaveMonth(_ context.Context, id season.SeasonID, monthIndex int, days season.Amount) error {
	if !season.ValidMonthIndex(monthIndex) {
		return &season.MonthIndexError{Index: monthIndex}
	}

	lock := m.seasonLock(id)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	months, ok := m.months[id]
	if !ok {
		return season.ErrSeasonNotFound
	}
	months[monthIndex] = season.NonNegative(days)
	return nil
}

func (m *Memory) UpdatePlan(ctx context.Context, id season.SeasonID, fn func(*season.MonthlyPlan) error) (season.MonthlyPlan, error) {
	lock := m.seasonLock(id)
	lock.Lock()
	defer lock.Unlock()

	plan, err := m.MonthlyPlan(ctx, id)
	if err != nil {
		return season.MonthlyPlan{}, err
	}
	if err := fn(&plan); err != nil {
		return season.MonthlyPlan{}, err
	}
	plan = plan.Normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	months, ok := m.months[id]
	if !ok {
		return season.MonthlyPlan{}, season.ErrSeasonNotFound
	}
	for i, days := range plan {
		months[i] = days
	}
	return plan, nil
}

// =============================================================================
// ROLLOVER RUNS
// =============================================================================

func (m *Memory) SaveRolloverRun(_ context.Context, run season.RolloverRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollovers = append(m.rollovers, run)
	return nil
}

func (m *Memory) ListRolloverRuns(_ context.Context) ([]season.RolloverRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]season.RolloverRun, len(m.rollovers))
	copy(out, m.rollovers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID = 1
	m.seasons = make(map[season.SeasonID]season.Season)
	m.months = make(map[season.SeasonID]map[int]season.Amount)
	m.rollovers = nil
	return nil
}

var (
	_ season.RolloverStore = (*Memory)(nil)
	_ season.Resettable    = (*Memory)(nil)
)
