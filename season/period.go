package season

import (
	"fmt"
	"time"
)

// =============================================================================
// SEASON CALENDAR - September through August
// =============================================================================

// StartMonth is the first month of every season.
const StartMonth = time.September

var monthNames = [MonthsPerSeason]string{
	"September", "Oktober", "November", "December",
	"Januar", "Februar", "Marts", "April",
	"Maj", "Juni", "Juli", "August",
}

// MonthName returns the display name of season month i, or "" if out of range.
func MonthName(i int) string {
	if !ValidMonthIndex(i) {
		return ""
	}
	return monthNames[i]
}

// Period is an inclusive date range [Start, End].
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t falls within the period (day granularity).
func (p Period) Contains(t time.Time) bool {
	d := truncateDay(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + "]"
}

// SeasonPeriod returns Sep 1 of startYear through Aug 31 of startYear+1.
func SeasonPeriod(startYear int) Period {
	start := time.Date(startYear, StartMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, -1)
	return Period{Start: start, End: end}
}

// MonthStart returns the first day of season month i for a season starting in startYear.
func MonthStart(startYear, i int) time.Time {
	return time.Date(startYear, StartMonth, 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
}

// StartYearFor returns the start year of the season containing t.
// January through August belong to the season that started the year before.
func StartYearFor(t time.Time) int {
	if t.Month() < StartMonth {
		return t.Year() - 1
	}
	return t.Year()
}

// MonthIndexFor returns the season month index (0..11) of t.
func MonthIndexFor(t time.Time) int {
	return (int(t.Month()) - int(StartMonth) + 12) % 12
}

// CurrentMonth returns the month index of now within the season starting in
// startYear. ok is false when now lies outside that season.
func CurrentMonth(startYear int, now time.Time) (idx int, ok bool) {
	if !SeasonPeriod(startYear).Contains(now) {
		return 0, false
	}
	return MonthIndexFor(now), true
}

// DefaultName is the conventional season name, e.g. "2025-2026".
func DefaultName(startYear int) string {
	return fmt.Sprintf("%d-%d", startYear, startYear+1)
}

// NextStartYear suggests the start year for a new season: one past the
// latest existing season, or the current calendar year when there is none.
func NextStartYear(seasons []Season, now time.Time) int {
	if len(seasons) == 0 {
		return now.Year()
	}
	latest := seasons[0].StartYear
	for _, s := range seasons[1:] {
		if s.StartYear > latest {
			latest = s.StartYear
		}
	}
	return latest + 1
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
