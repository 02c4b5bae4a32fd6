package season_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ferie/season"
	"github.com/warp/ferie/season/store"
)

func newRollover(t *testing.T, maxCarry float64) (*season.Rollover, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return &season.Rollover{
		Store:        mem,
		MaxCarryover: days(maxCarry),
		NewID:        func() string { return "run-1" },
	}, mem
}

func TestRollover_CreatesSeasonWithCappedCarryover(t *testing.T) {
	// GIVEN: Season 2025 with 10 days used of 24.96 earned
	// WHEN: The calendar reaches September 2026
	// THEN: Season 2026 is created with a 5-day buffer (capped) and the same rates

	ctx := context.Background()
	r, mem := newRollover(t, 5)

	prev, err := mem.CreateSeason(ctx, season.Season{Name: "2025-2026", StartYear: 2025, Config: standardConfig()})
	require.NoError(t, err)
	require.NoError(t, mem.SaveMonth(ctx, prev.ID, 3, days(10)))

	res, err := r.Run(ctx, date(2026, time.September, 1))
	require.NoError(t, err)
	require.False(t, res.Skipped)
	require.NotNil(t, res.Season)

	assert.Equal(t, 2026, res.Season.StartYear)
	assert.Equal(t, "2026-2027", res.Season.Name)
	assertDays(t, "5", res.Season.Config.BufferDays)
	assertDays(t, "2.08", res.Season.Config.EarnedPerMonth)
	assertDays(t, "5", res.Season.Config.ExtraDaysPool)

	runs, err := mem.ListRolloverRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, season.RolloverCompleted, runs[0].Status)
	assert.Equal(t, prev.ID, runs[0].FromSeasonID)
	assert.Equal(t, res.Season.ID, runs[0].ToSeasonID)
}

func TestRollover_DeficitCarriesNothing(t *testing.T) {
	ctx := context.Background()
	r, mem := newRollover(t, 5)

	prev, err := mem.CreateSeason(ctx, season.Season{Name: "2025-2026", StartYear: 2025, Config: standardConfig()})
	require.NoError(t, err)
	require.NoError(t, mem.SaveMonth(ctx, prev.ID, 0, days(40)))

	res, err := r.Run(ctx, date(2026, time.October, 10))
	require.NoError(t, err)
	assertDays(t, "0", res.Season.Config.BufferDays)
}

func TestRollover_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	r, mem := newRollover(t, 5)

	_, err := mem.CreateSeason(ctx, season.Season{Name: "2025-2026", StartYear: 2025, Config: standardConfig()})
	require.NoError(t, err)

	_, err = r.Run(ctx, date(2026, time.September, 2))
	require.NoError(t, err)

	res, err := r.Run(ctx, date(2026, time.September, 3))
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	seasons, err := mem.ListSeasons(ctx)
	require.NoError(t, err)
	assert.Len(t, seasons, 2)
}

func TestRollover_NoPreviousSeason_Skips(t *testing.T) {
	r, mem := newRollover(t, 5)

	res, err := r.Run(context.Background(), date(2026, time.September, 2))
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	runs, _ := mem.ListRolloverRuns(context.Background())
	assert.Empty(t, runs)
}

func TestCarryOver(t *testing.T) {
	assertDays(t, "3", season.CarryOver(season.Summary{Remaining: days(3)}, days(5)))
	assertDays(t, "5", season.CarryOver(season.Summary{Remaining: days(12.5)}, days(5)))
	assertDays(t, "0", season.CarryOver(season.Summary{Remaining: days(12.5)}, days(0)))
}
