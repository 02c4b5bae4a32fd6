/*
projection.go - Month-by-month season balance projection

PURPOSE:
  Turns a season's configuration and its 12 planned usage values into the
  numbers the planner shows: earned so far, balance, and how much of the
  extra-day reserve is left after each month.

KEY INSIGHT:
  Extra days are an emergency reserve, not part of the regular balance.
  They are touched only when a month ends in deficit, they are consumed
  greedily in chronological order, and they never come back within a
  projection. Once the reserve is gone, later deficits are shown as-is.

ALGORITHM (fold over months 0..11):
  accumulated = buffer, running = buffer, extra = pool

  each month:
    accumulated += earned; running += earned
    running -= used
    if running < 0 and extra > 0:
        x = min(-running, extra)
        extra -= x; running += x
        shown = max(0, running)
    else:
        shown = running          (may be negative)

  'running' carries forward UNCLAMPED. A month that exhausts the reserve
  while still short shows 0, but the shortfall follows into next month.

SUMMARY QUIRK:
  Remaining is floored at 0, RemainingWithExtra is not. Both are kept
  exactly as the planner has always shown them.

EXAMPLE:
  earned 2.08/month, extra 5, buffer 0, plan[0] = 10

  September: running = 2.08 - 10 = -7.92
             x = min(7.92, 5) = 5, extra = 0, running = -2.92
             shown balance = 0
  October:   running = -2.92 + 2.08 = -0.84

SEE ALSO:
  - normalize.go: How inputs are coerced before projection
  - types.go: Config and MonthlyPlan
*/
package season

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PROJECTION RESULT
// =============================================================================

// MonthProjection is the projected state at the end of one season month.
type MonthProjection struct {
	MonthIndex int
	Name       string

	// Inputs for this month, after normalization
	Earned Amount
	Used   Amount

	// Buffer plus everything earned up to and including this month
	EarnedCumulative Amount

	// EarnedCumulative plus the extra days still in reserve
	EarnedCumulativeWithExtra Amount

	// Balance after extra-day coverage. Negative only once the reserve is gone.
	Balance Amount

	// Balance plus the extra days still in reserve
	BalanceWithExtra Amount

	// Extra days drawn this month
	ExtraUsed Amount

	// Extra days left after this month
	ExtraRemaining Amount
}

// IsDeficit reports whether the month ends with an uncovered shortfall.
func (m MonthProjection) IsDeficit() bool {
	return m.Balance.IsNegative()
}

// Summary is the season-level view.
type Summary struct {
	TotalEarned          Amount
	TotalEarnedWithExtra Amount
	TotalUsed            Amount
	Remaining            Amount
	RemainingWithExtra   Amount
	ExtraRemaining       Amount
}

// Projection holds all twelve months plus the summary.
type Projection struct {
	Config  Config
	Months  [MonthsPerSeason]MonthProjection
	Summary Summary
}

// =============================================================================
// PROJECTOR
// =============================================================================

// Project runs the season fold. It is pure: no I/O, no shared state, and
// identical inputs always produce identical output. Safe for concurrent use.
func Project(cfg Config, plan MonthlyPlan) Projection {
	cfg = cfg.Normalize()
	plan = plan.Normalize()

	zero := Amount{}.Zero()
	accumulated := cfg.BufferDays
	running := cfg.BufferDays
	extra := cfg.ExtraDaysPool
	totalUsed := zero

	out := Projection{Config: cfg}

	for i := 0; i < MonthsPerSeason; i++ {
		accumulated = accumulated.Add(cfg.EarnedPerMonth)
		running = running.Add(cfg.EarnedPerMonth)

		used := plan[i]
		totalUsed = totalUsed.Add(used)
		running = running.Sub(used)

		extraUsed := zero
		shown := running
		if running.IsNegative() && extra.IsPositive() {
			extraUsed = running.Neg().Min(extra)
			extra = extra.Sub(extraUsed)
			running = running.Add(extraUsed)
			shown = running.Max(zero)
		}

		out.Months[i] = MonthProjection{
			MonthIndex:                i,
			Name:                      MonthName(i),
			Earned:                    cfg.EarnedPerMonth,
			Used:                      used,
			EarnedCumulative:          accumulated,
			EarnedCumulativeWithExtra: accumulated.Add(extra),
			Balance:                   shown,
			BalanceWithExtra:          shown.Add(extra),
			ExtraUsed:                 extraUsed,
			ExtraRemaining:            extra,
		}
	}

	totalEarned := cfg.EarnedPerMonth.Mul(decimal.NewFromInt(MonthsPerSeason)).Add(cfg.BufferDays)
	totalEarnedWithExtra := totalEarned.Add(cfg.ExtraDaysPool)

	out.Summary = Summary{
		TotalEarned:          totalEarned,
		TotalEarnedWithExtra: totalEarnedWithExtra,
		TotalUsed:            totalUsed,
		Remaining:            totalEarned.Sub(totalUsed).Max(zero),
		RemainingWithExtra:   totalEarnedWithExtra.Sub(totalUsed),
		ExtraRemaining:       extra,
	}
	return out
}

// =============================================================================
// STORED PROJECTION - Load inputs, then project
// =============================================================================

// ProjectStored loads a season and its plan from st and projects them.
func ProjectStored(ctx context.Context, st Store, id SeasonID) (Season, MonthlyPlan, Projection, error) {
	s, err := st.GetSeason(ctx, id)
	if err != nil {
		return Season{}, MonthlyPlan{}, Projection{}, err
	}
	plan, err := st.MonthlyPlan(ctx, id)
	if err != nil {
		return Season{}, MonthlyPlan{}, Projection{}, err
	}
	return *s, plan, Project(s.Config, plan), nil
}
