package season_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/ferie/season"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSeasonPeriod_SeptemberThroughAugust(t *testing.T) {
	p := season.SeasonPeriod(2025)

	assert.Equal(t, date(2025, time.September, 1), p.Start)
	assert.Equal(t, date(2026, time.August, 31), p.End)
	assert.True(t, p.Contains(date(2026, time.February, 28)))
	assert.True(t, p.Contains(time.Date(2026, time.August, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(date(2025, time.August, 31)))
	assert.False(t, p.Contains(date(2026, time.September, 1)))
	assert.Equal(t, "[2025-09-01, 2026-08-31]", p.String())
}

func TestStartYearFor(t *testing.T) {
	tests := []struct {
		at   time.Time
		want int
	}{
		{date(2025, time.September, 1), 2025},
		{date(2025, time.December, 31), 2025},
		{date(2026, time.January, 1), 2025},
		{date(2026, time.August, 31), 2025},
		{date(2026, time.September, 1), 2026},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, season.StartYearFor(tt.at), tt.at.String())
	}
}

func TestMonthIndexAndNames(t *testing.T) {
	assert.Equal(t, 0, season.MonthIndexFor(date(2025, time.September, 15)))
	assert.Equal(t, 4, season.MonthIndexFor(date(2026, time.January, 2)))
	assert.Equal(t, 11, season.MonthIndexFor(date(2026, time.August, 1)))

	assert.Equal(t, "Januar", season.MonthName(4))
	assert.Equal(t, "August", season.MonthName(11))
	assert.Equal(t, "", season.MonthName(12))
	assert.Equal(t, "", season.MonthName(-1))

	assert.Equal(t, date(2026, time.March, 1), season.MonthStart(2025, 6))
}

func TestCurrentMonth(t *testing.T) {
	idx, ok := season.CurrentMonth(2025, time.Date(2026, time.February, 10, 15, 30, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, 5, idx)

	idx, ok = season.CurrentMonth(2025, date(2026, time.August, 31))
	assert.True(t, ok)
	assert.Equal(t, 11, idx)

	_, ok = season.CurrentMonth(2025, date(2026, time.September, 1))
	assert.False(t, ok, "next season")

	_, ok = season.CurrentMonth(2025, date(2025, time.August, 31))
	assert.False(t, ok, "previous season")
}

func TestDefaultNameAndNextStartYear(t *testing.T) {
	now := date(2027, time.March, 3)

	assert.Equal(t, "2025-2026", season.DefaultName(2025))
	assert.Equal(t, 2027, season.NextStartYear(nil, now))

	seasons := []season.Season{{StartYear: 2023}, {StartYear: 2025}, {StartYear: 2024}}
	assert.Equal(t, 2026, season.NextStartYear(seasons, now))
}
