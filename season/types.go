/*
Package season provides the holiday season planning engine.

PURPOSE:
  Tracks accrued and planned vacation days across a 12-month holiday season
  (September through August). The engine answers one question: given what
  the season starts with and what the employee plans to take each month,
  what does the balance look like month by month?

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity of days backed by decimal.Decimal
  - Config: The season's accrual rate and starting conditions
  - MonthlyPlan: Planned usage, one amount per season month
  - Season: A persisted season record (name, start year, config)

DESIGN PRINCIPLES:
  1. Purity: Projection is a function of (Config, MonthlyPlan) only
  2. Precision: Uses decimal.Decimal so 2.08 - 10 is exactly -7.92
  3. Fixed shape: A season always has 12 months, indexed 0 (September) to 11 (August)
  4. Lenient input: Bad numbers become 0, they never become errors

USAGE:
  cfg := season.Config{
      BufferDays:     season.Days(0),
      EarnedPerMonth: season.Days(2.08),
      ExtraDaysPool:  season.Days(5),
  }
  var plan season.MonthlyPlan
  plan[0] = season.Days(10)
  p := season.Project(cfg, plan)

SEE ALSO:
  - projection.go: The month-by-month balance fold
  - normalize.go: Input coercion rules
  - store.go: Persistence interfaces
*/
package season

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity of days
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const UnitDays Unit = "days"

// Days returns an Amount of n days. Non-finite or negative input yields zero.
func Days(n float64) Amount {
	return DaysFromFloat(n)
}

func NewAmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{Value: d, Unit: UnitDays}
}

// ParseAmount reads a stored decimal string back into an Amount.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewAmountFromDecimal(d), nil
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: UnitDays} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: UnitDays} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: UnitDays} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: UnitDays} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Unit: UnitDays} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) Float64() float64             { return a.Value.InexactFloat64() }
func (a Amount) String() string               { return a.Value.StringFixed(2) }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// =============================================================================
// SEASON CONFIGURATION
// =============================================================================

// MonthsPerSeason is fixed. A season is September through August.
const MonthsPerSeason = 12

// Config is the accrual setup for one season. It is read-only for the
// duration of a projection.
type Config struct {
	// Carry-over days credited at season start
	BufferDays Amount

	// Days earned at the start of every month
	EarnedPerMonth Amount

	// Reserve that only covers deficits, drawn down greedily
	ExtraDaysPool Amount
}

// MonthCount is always MonthsPerSeason. It exists so callers can read the
// season length off the config the same way they read the rates.
func (c Config) MonthCount() int { return MonthsPerSeason }

// MonthlyPlan holds the planned usage per season month.
// Index 0 is September, index 11 is August.
type MonthlyPlan [MonthsPerSeason]Amount

// Total returns the sum of all planned days.
func (p MonthlyPlan) Total() Amount {
	total := Amount{}.Zero()
	for _, a := range p {
		total = total.Add(a)
	}
	return total
}

// =============================================================================
// IDENTIFIERS AND RECORDS
// =============================================================================

type SeasonID int64

// Season is a stored season with its configuration.
type Season struct {
	ID        SeasonID
	Name      string
	StartYear int
	Config    Config
	CreatedAt time.Time
}

// Period returns the September-August range this season covers.
func (s Season) Period() Period {
	return SeasonPeriod(s.StartYear)
}

// MonthRecord is one sparse row of planned usage. Missing months mean 0.
type MonthRecord struct {
	SeasonID    SeasonID
	MonthIndex  int
	PlannedDays Amount
}

// SeasonUpdate carries the editable fields of a season. Nil means unchanged.
type SeasonUpdate struct {
	Name           *string
	BufferDays     *Amount
	EarnedPerMonth *Amount
	ExtraDaysPool  *Amount
}

// Apply returns s with the non-nil fields of u applied.
func (u SeasonUpdate) Apply(s Season) Season {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.BufferDays != nil {
		s.Config.BufferDays = NonNegative(*u.BufferDays)
	}
	if u.EarnedPerMonth != nil {
		s.Config.EarnedPerMonth = NonNegative(*u.EarnedPerMonth)
	}
	if u.ExtraDaysPool != nil {
		s.Config.ExtraDaysPool = NonNegative(*u.ExtraDaysPool)
	}
	return s
}

// PlanFromRecords expands sparse records into a full plan.
// Records outside 0..11 are ignored; duplicates keep the last value.
func PlanFromRecords(records []MonthRecord) MonthlyPlan {
	var plan MonthlyPlan
	for i := range plan {
		plan[i] = plan[i].Zero()
	}
	for _, r := range records {
		if !ValidMonthIndex(r.MonthIndex) {
			continue
		}
		plan[r.MonthIndex] = NonNegative(r.PlannedDays)
	}
	return plan
}

// Records converts a plan to one record per month.
func (p MonthlyPlan) Records(id SeasonID) []MonthRecord {
	records := make([]MonthRecord, MonthsPerSeason)
	for i, a := range p {
		records[i] = MonthRecord{SeasonID: id, MonthIndex: i, PlannedDays: NonNegative(a)}
	}
	return records
}

// ValidMonthIndex reports whether i addresses a season month.
func ValidMonthIndex(i int) bool {
	return i >= 0 && i < MonthsPerSeason
}
