/*
rollover.go - Opening a new season from the previous one

PURPOSE:
  When the calendar crosses into a new season (September 1) and nobody has
  created that season yet, the rollover creates it. The new season inherits
  the previous season's rates, and whatever regular days were left over
  become its buffer, capped at MaxCarryover.

CARRY-OVER RULE:
  carried = min(previous.Summary.Remaining, MaxCarryover)

  Remaining is already floored at 0, so a season that ended in deficit
  carries nothing. Extra days never carry over.

IDEMPOTENCY:
  Run() is safe to call repeatedly. If a season already exists for the
  current start year, nothing happens. If there is no previous season,
  nothing happens either: there is nothing to roll over from.

AUDIT:
  Every attempt that gets as far as creating a season is recorded as a
  RolloverRun, completed or failed.

SEE ALSO:
  - api/scheduler.go: Runs this on a timer
  - projection.go: Summary.Remaining
*/
package season

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RolloverStore is what a rollover needs from persistence.
type RolloverStore interface {
	Store
	RolloverRunStore
}

// Rollover creates the current season from the previous one.
type Rollover struct {
	Store        RolloverStore
	MaxCarryover Amount

	// NewID generates run ids. Defaults to uuid.NewString.
	NewID func() string
}

// RolloverResult describes what Run did.
type RolloverResult struct {
	Skipped bool
	Reason  string
	Run     *RolloverRun
	Season  *Season
}

// CarryOver returns the days a finished season hands to the next one.
func CarryOver(summary Summary, maxCarryover Amount) Amount {
	if !summary.Remaining.IsPositive() {
		return summary.Remaining.Zero()
	}
	return summary.Remaining.Min(NonNegative(maxCarryover))
}

// Run checks the season containing now and creates it if needed.
func (r *Rollover) Run(ctx context.Context, now time.Time) (RolloverResult, error) {
	year := StartYearFor(now)

	if _, err := r.Store.GetSeasonByStartYear(ctx, year); err == nil {
		return RolloverResult{Skipped: true, Reason: fmt.Sprintf("season %d already exists", year)}, nil
	} else if !IsNotFound(err) {
		return RolloverResult{}, err
	}

	prev, err := r.Store.GetSeasonByStartYear(ctx, year-1)
	if IsNotFound(err) {
		return RolloverResult{Skipped: true, Reason: fmt.Sprintf("no season %d to roll over from", year-1)}, nil
	}
	if err != nil {
		return RolloverResult{}, err
	}

	_, _, projection, err := ProjectStored(ctx, r.Store, prev.ID)
	if err != nil {
		return RolloverResult{}, err
	}

	carried := CarryOver(projection.Summary, r.MaxCarryover)
	cfg := prev.Config
	cfg.BufferDays = carried

	run := RolloverRun{
		ID:           r.newID(),
		FromSeasonID: prev.ID,
		StartYear:    year,
		CarriedOver:  carried,
		CreatedAt:    now.UTC(),
	}

	created, createErr := r.Store.CreateSeason(ctx, Season{
		Name:      DefaultName(year),
		StartYear: year,
		Config:    cfg,
	})
	if createErr != nil {
		// Someone created it between our check and now. Not a failure.
		if IsConflict(createErr) {
			return RolloverResult{Skipped: true, Reason: fmt.Sprintf("season %d already exists", year)}, nil
		}
		run.Status = RolloverFailed
		run.Error = createErr.Error()
	} else {
		run.Status = RolloverCompleted
		run.ToSeasonID = created.ID
	}

	if err := r.Store.SaveRolloverRun(ctx, run); err != nil {
		return RolloverResult{}, errors.Join(createErr, fmt.Errorf("save rollover run: %w", err))
	}
	if createErr != nil {
		return RolloverResult{Run: &run}, createErr
	}
	return RolloverResult{Run: &run, Season: &created}, nil
}

func (r *Rollover) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}
