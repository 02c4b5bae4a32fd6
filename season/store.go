/*
store.go - Persistence interfaces for seasons and monthly plans

PURPOSE:
  Defines the interface between the season engine and the database.
  The projector never touches storage; callers load a Config and a
  MonthlyPlan through these interfaces and hand them to Project().

KEY INTERFACES:
  SeasonStore:      Season CRUD
  PlanStore:        Monthly planned usage (sparse rows, dense plans)
  Store:            Both of the above
  RolloverRunStore: History of automatic season rollovers
  Resettable:       Stores that can be wiped (demo scenarios)

CONCURRENCY CONTRACT:
  Writes to one season's plan are serialized per season id. UpdatePlan
  runs its read-modify-write under that season's lock, so two concurrent
  edits to the same season never lose each other's months. Different
  seasons do not block each other.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - season/store/memory.go: In-memory for testing

SEE ALSO:
  - projection.go: ProjectStored() loads through Store
  - errors.go: Errors returned by implementations
*/
package season

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Seasons and their monthly plans
// =============================================================================

// SeasonStore persists season records.
type SeasonStore interface {
	// CreateSeason inserts s and returns it with ID and CreatedAt set.
	// Returns *DuplicateStartYearError if the start year is taken.
	CreateSeason(ctx context.Context, s Season) (Season, error)

	// GetSeason returns ErrSeasonNotFound if id doesn't exist.
	GetSeason(ctx context.Context, id SeasonID) (*Season, error)

	// GetSeasonByStartYear returns ErrSeasonNotFound if no season starts in year.
	GetSeasonByStartYear(ctx context.Context, year int) (*Season, error)

	// ListSeasons returns all seasons, newest start year first.
	ListSeasons(ctx context.Context) ([]Season, error)

	// UpdateSeason applies u and returns the updated season.
	UpdateSeason(ctx context.Context, id SeasonID, u SeasonUpdate) (Season, error)

	// DeleteSeason removes the season and its monthly rows.
	DeleteSeason(ctx context.Context, id SeasonID) error
}

// PlanStore persists planned usage per season month.
type PlanStore interface {
	// MonthlyRecords returns the stored rows, ordered by month index.
	// Months never saved are absent.
	MonthlyRecords(ctx context.Context, id SeasonID) ([]MonthRecord, error)

	// MonthlyPlan returns all 12 months, missing ones as 0.
	MonthlyPlan(ctx context.Context, id SeasonID) (MonthlyPlan, error)

	// SaveMonth upserts one month. Returns *MonthIndexError for bad indexes.
	SaveMonth(ctx context.Context, id SeasonID, monthIndex int, days Amount) error

	// UpdatePlan loads the plan, passes it to fn and stores the result,
	// serialized against other writes to the same season.
	UpdatePlan(ctx context.Context, id SeasonID, fn func(*MonthlyPlan) error) (MonthlyPlan, error)
}

// Store is the full persistence surface the service layer needs.
type Store interface {
	SeasonStore
	PlanStore
}

// =============================================================================
// ROLLOVER RUNS - Audit of automatic season creation
// =============================================================================

type RolloverStatus string

const (
	RolloverCompleted RolloverStatus = "completed"
	RolloverFailed    RolloverStatus = "failed"
)

// RolloverRun records one attempt to open a new season from the previous one.
type RolloverRun struct {
	ID           string
	FromSeasonID SeasonID
	ToSeasonID   SeasonID
	StartYear    int
	CarriedOver  Amount
	Status       RolloverStatus
	Error        string
	CreatedAt    time.Time
}

// RolloverRunStore persists rollover history.
type RolloverRunStore interface {
	SaveRolloverRun(ctx context.Context, run RolloverRun) error
	ListRolloverRuns(ctx context.Context) ([]RolloverRun, error)
}

// Resettable stores can clear all data. Used by demo scenarios only.
type Resettable interface {
	Reset(ctx context.Context) error
}
