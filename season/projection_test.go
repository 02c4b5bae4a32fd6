package season_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ferie/season"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func days(n float64) season.Amount {
	return season.Days(n)
}

func standardConfig() season.Config {
	return season.Config{
		BufferDays:     days(0),
		EarnedPerMonth: days(2.08),
		ExtraDaysPool:  days(5),
	}
}

func planOf(values map[int]float64) season.MonthlyPlan {
	var plan season.MonthlyPlan
	for i, v := range values {
		plan[i] = days(v)
	}
	return plan
}

func assertDays(t *testing.T, want string, got season.Amount, msgAndArgs ...any) {
	t.Helper()
	w := decimal.RequireFromString(want)
	assert.Truef(t, w.Equal(got.Value), "expected %s, got %s %v", w, got.Value, msgAndArgs)
}

// =============================================================================
// WORKED EXAMPLES
// =============================================================================

func TestProject_NoUsage_FirstMonth(t *testing.T) {
	// GIVEN: 2.08 earned per month, 5 extra days, no buffer, nothing planned
	// WHEN: Projecting the season
	// THEN: September shows 2.08 earned and balance, extra untouched

	p := season.Project(standardConfig(), season.MonthlyPlan{})
	sep := p.Months[0]

	assert.Equal(t, "September", sep.Name)
	assertDays(t, "2.08", sep.EarnedCumulative)
	assertDays(t, "7.08", sep.EarnedCumulativeWithExtra)
	assertDays(t, "2.08", sep.Balance)
	assertDays(t, "7.08", sep.BalanceWithExtra)
	assertDays(t, "0", sep.ExtraUsed)
	assertDays(t, "5", sep.ExtraRemaining)
	assert.False(t, sep.IsDeficit())
}

func TestProject_DeficitLargerThanExtraPool(t *testing.T) {
	// GIVEN: 10 days planned in September
	// WHEN: Projecting
	// THEN: All 5 extra days are used, the shown balance is floored at 0

	p := season.Project(standardConfig(), planOf(map[int]float64{0: 10}))
	sep := p.Months[0]

	assertDays(t, "5", sep.ExtraUsed)
	assertDays(t, "0", sep.ExtraRemaining)
	assertDays(t, "0", sep.Balance)
	assertDays(t, "0", sep.BalanceWithExtra)
	assertDays(t, "2.08", sep.EarnedCumulativeWithExtra)
	assert.False(t, sep.IsDeficit(), "a month covered by extra days never shows negative")
}

func TestProject_ShortfallCarriesIntoNextMonth(t *testing.T) {
	// GIVEN: September exhausted the extra pool and was still 2.92 short
	// WHEN: 3 more days are planned in October
	// THEN: October starts from -2.92, not from 0, and shows -3.84 uncovered

	p := season.Project(standardConfig(), planOf(map[int]float64{0: 10, 1: 3}))
	oct := p.Months[1]

	assertDays(t, "4.16", oct.EarnedCumulative)
	assertDays(t, "-3.84", oct.Balance)
	assertDays(t, "-3.84", oct.BalanceWithExtra)
	assertDays(t, "0", oct.ExtraUsed)
	assertDays(t, "0", oct.ExtraRemaining)
	assert.True(t, oct.IsDeficit())

	// November earns its way back up
	assertDays(t, "-1.76", p.Months[2].Balance)
	assertDays(t, "0.32", p.Months[3].Balance)
}

func TestProject_ExtraPoolConsumedGreedilyInOrder(t *testing.T) {
	// GIVEN: Two deficit months in a row
	// WHEN: Projecting
	// THEN: September takes what it needs, October takes the rest

	p := season.Project(standardConfig(), planOf(map[int]float64{0: 4, 1: 6}))

	assertDays(t, "1.92", p.Months[0].ExtraUsed)
	assertDays(t, "3.08", p.Months[0].ExtraRemaining)
	assertDays(t, "0", p.Months[0].Balance)

	assertDays(t, "3.08", p.Months[1].ExtraUsed)
	assertDays(t, "0", p.Months[1].ExtraRemaining)
	assertDays(t, "0", p.Months[1].Balance)

	assertDays(t, "1.24", p.Months[2].Balance)
	assertDays(t, "1.24", p.Months[2].BalanceWithExtra)
}

func TestProject_BufferIsCreditedUpFront(t *testing.T) {
	// GIVEN: 3 buffer days carried over
	// WHEN: Projecting with no usage
	// THEN: Every cumulative figure includes the buffer

	cfg := standardConfig()
	cfg.BufferDays = days(3)

	p := season.Project(cfg, season.MonthlyPlan{})

	assertDays(t, "5.08", p.Months[0].EarnedCumulative)
	assertDays(t, "5.08", p.Months[0].Balance)
	assertDays(t, "27.96", p.Months[11].EarnedCumulative)
	assertDays(t, "27.96", p.Summary.TotalEarned)
}

func TestProject_BufferAbsorbsDeficitBeforeExtra(t *testing.T) {
	// GIVEN: 5 buffer days, 7 days planned in September
	// WHEN: Projecting
	// THEN: Balance stays positive, no extra days used

	cfg := standardConfig()
	cfg.BufferDays = days(5)

	p := season.Project(cfg, planOf(map[int]float64{0: 7}))

	assertDays(t, "0.08", p.Months[0].Balance)
	assertDays(t, "0", p.Months[0].ExtraUsed)
	assertDays(t, "5", p.Months[0].ExtraRemaining)
}

func TestProject_ExactlyZeroBalanceDoesNotTouchExtra(t *testing.T) {
	// GIVEN: Usage equal to earned
	// WHEN: Projecting
	// THEN: Balance is 0, extra untouched

	p := season.Project(standardConfig(), planOf(map[int]float64{0: 2.08}))

	assertDays(t, "0", p.Months[0].Balance)
	assertDays(t, "0", p.Months[0].ExtraUsed)
	assertDays(t, "5", p.Months[0].ExtraRemaining)
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestProject_Summary_RemainingFlooredButWithExtraIsNot(t *testing.T) {
	// GIVEN: 40 days planned against 24.96 earned and 5 extra
	// WHEN: Projecting
	// THEN: Remaining is 0 while RemainingWithExtra goes negative

	p := season.Project(standardConfig(), planOf(map[int]float64{0: 40}))
	s := p.Summary

	assertDays(t, "24.96", s.TotalEarned)
	assertDays(t, "29.96", s.TotalEarnedWithExtra)
	assertDays(t, "40", s.TotalUsed)
	assertDays(t, "0", s.Remaining)
	assertDays(t, "-10.04", s.RemainingWithExtra)
	assertDays(t, "0", s.ExtraRemaining)

	assert.False(t, s.Remaining.IsNegative())
	assert.True(t, s.RemainingWithExtra.IsNegative())
}

func TestProject_Summary_WithExtraUsesStartingPool(t *testing.T) {
	// GIVEN: Extra days partly consumed during the season
	// WHEN: Projecting
	// THEN: TotalEarnedWithExtra uses the full pool, ExtraRemaining the leftover

	p := season.Project(standardConfig(), planOf(map[int]float64{0: 4}))
	s := p.Summary

	assertDays(t, "29.96", s.TotalEarnedWithExtra)
	assertDays(t, "3.08", s.ExtraRemaining)
	assertDays(t, "20.96", s.Remaining)
	assertDays(t, "25.96", s.RemainingWithExtra)
}

func TestProject_Summary_NoUsage(t *testing.T) {
	p := season.Project(standardConfig(), season.MonthlyPlan{})

	assertDays(t, "24.96", p.Summary.Remaining)
	assertDays(t, "29.96", p.Summary.RemainingWithExtra)
	assertDays(t, "0", p.Summary.TotalUsed)
	assertDays(t, "5", p.Summary.ExtraRemaining)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestProject_ZeroPlanEarnsLinearly(t *testing.T) {
	p := season.Project(standardConfig(), season.MonthlyPlan{})

	for i, m := range p.Months {
		want := decimal.RequireFromString("2.08").Mul(decimal.NewFromInt(int64(i + 1)))
		assert.Truef(t, want.Equal(m.EarnedCumulative.Value), "month %d: want %s got %s", i, want, m.EarnedCumulative.Value)
		assert.Equal(t, i, m.MonthIndex)
	}
}

func randomPlan(r *rand.Rand) season.MonthlyPlan {
	var plan season.MonthlyPlan
	for i := range plan {
		// Half-day steps up to 8 days, like the planner's input
		plan[i] = days(float64(r.Intn(17)) / 2)
	}
	return plan
}

func TestProject_ExtraRemainingNeverIncreasesOrGoesNegative(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for n := 0; n < 200; n++ {
		cfg := season.Config{
			BufferDays:     days(float64(r.Intn(10))),
			EarnedPerMonth: days(2.08),
			ExtraDaysPool:  days(float64(r.Intn(8))),
		}
		p := season.Project(cfg, randomPlan(r))

		prev := cfg.ExtraDaysPool
		for i, m := range p.Months {
			require.Falsef(t, m.ExtraRemaining.IsNegative(), "run %d month %d negative", n, i)
			require.Falsef(t, m.ExtraRemaining.GreaterThan(prev), "run %d month %d increased", n, i)
			require.Truef(t, prev.Sub(m.ExtraUsed).Equal(m.ExtraRemaining), "run %d month %d drift", n, i)
			prev = m.ExtraRemaining
		}
	}
}

func TestProject_NoExtraPool_BalanceIsUnclampedRunningBalance(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for n := 0; n < 100; n++ {
		cfg := season.Config{
			BufferDays:     days(float64(r.Intn(4))),
			EarnedPerMonth: days(2.08),
			ExtraDaysPool:  days(0),
		}
		plan := randomPlan(r)
		p := season.Project(cfg, plan)

		running := cfg.BufferDays
		for i, m := range p.Months {
			running = running.Add(cfg.EarnedPerMonth).Sub(plan[i])
			require.Truef(t, m.ExtraUsed.IsZero(), "run %d month %d used extra", n, i)
			require.Truef(t, running.Equal(m.Balance), "run %d month %d: want %s got %s", n, i, running.Value, m.Balance.Value)
		}
	}
}

func TestProject_IsIdempotent(t *testing.T) {
	cfg := standardConfig()
	cfg.BufferDays = days(1.5)
	plan := planOf(map[int]float64{0: 10, 1: 3, 5: 2.5, 10: 7})

	first := season.Project(cfg, plan)
	second := season.Project(cfg, plan)

	assert.Equal(t, first, second)
}

// =============================================================================
// NORMALIZATION AT THE PROJECTOR BOUNDARY
// =============================================================================

func TestProject_NegativeInputsAreTreatedAsZero(t *testing.T) {
	neg := season.NewAmountFromDecimal(decimal.NewFromInt(-4))
	cfg := season.Config{
		BufferDays:     neg,
		EarnedPerMonth: days(2.08),
		ExtraDaysPool:  neg,
	}
	var plan season.MonthlyPlan
	plan[0] = neg

	p := season.Project(cfg, plan)

	assertDays(t, "2.08", p.Months[0].Balance)
	assertDays(t, "0", p.Months[0].Used)
	assertDays(t, "0", p.Summary.ExtraRemaining)
	assertDays(t, "24.96", p.Summary.TotalEarned)
}

func TestProject_ZeroValueInputs(t *testing.T) {
	p := season.Project(season.Config{}, season.MonthlyPlan{})

	for _, m := range p.Months {
		assertDays(t, "0", m.Balance)
		assertDays(t, "0", m.EarnedCumulative)
	}
	assertDays(t, "0", p.Summary.RemainingWithExtra)
}
