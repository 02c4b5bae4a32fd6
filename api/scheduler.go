/*
scheduler.go - Automated season rollover scheduler

PURPOSE:
  Periodically checks whether the calendar has entered a season that has
  no stored record yet and, if so, opens it from the previous season with
  the leftover days carried over as buffer.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start, then on every tick
  - The rollover itself is idempotent, so a tick that finds the current
    season already stored does nothing
  - Every attempt that creates (or fails to create) a season is recorded
    as a rollover run for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRolloverScheduler(rollover, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerRollover endpoint (manual rollover) and
    RolloverSchedule (next run time)
  - season/rollover.go: Rollover
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/ferie/season"
)

// RolloverScheduler opens new seasons automatically.
type RolloverScheduler struct {
	Rollover      *season.Rollover
	CheckInterval time.Duration
	Enabled       bool
	Logger        *slog.Logger

	// Now is the scheduler's clock.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	// lastRun is guarded by stateMu, not mu: Stop holds mu while waiting
	// for an in-flight check to finish.
	stateMu sync.Mutex
	lastRun time.Time
}

// NewRolloverScheduler creates a new scheduler.
func NewRolloverScheduler(rollover *season.Rollover, logger *slog.Logger) *RolloverScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RolloverScheduler{
		Rollover:      rollover,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Logger:        logger.With("component", "scheduler"),
		Now:           time.Now,
	}
}

// Start begins the scheduler.
func (rs *RolloverScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.Logger.Info("started", "interval", rs.CheckInterval)
}

// Stop stops the scheduler and waits for a running check to finish.
func (rs *RolloverScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Logger.Info("stopped")
	}
}

func (rs *RolloverScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			rs.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow performs one rollover check (for testing/admin).
func (rs *RolloverScheduler) RunNow(ctx context.Context) (season.RolloverResult, error) {
	now := rs.Now()
	rs.Logger.Debug("checking for rollover", "now", now)

	rs.stateMu.Lock()
	rs.lastRun = now
	rs.stateMu.Unlock()

	result, err := rs.Rollover.Run(ctx, now)
	if err != nil {
		rs.Logger.Error("rollover failed", "error", err, "start_year", season.StartYearFor(now))
		return result, err
	}

	if result.Skipped {
		rs.Logger.Debug("rollover skipped", "reason", result.Reason)
		return result, nil
	}

	if result.Season != nil {
		rs.Logger.Info("season opened",
			"season_id", result.Season.ID,
			"start_year", result.Season.StartYear,
			"carried_over", result.Run.CarriedOver.String(),
			"run_id", result.Run.ID,
		)
	}
	return result, nil
}

// Running reports whether the background loop is active.
func (rs *RolloverScheduler) Running() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.ticker != nil
}

// LastRunTime returns when the last check started, or the zero time.
func (rs *RolloverScheduler) LastRunTime() time.Time {
	rs.stateMu.Lock()
	defer rs.stateMu.Unlock()
	return rs.lastRun
}

// NextRunTime returns when the next scheduled check will occur, or the
// zero time when the scheduler is not running.
func (rs *RolloverScheduler) NextRunTime() time.Time {
	if !rs.Running() {
		return time.Time{}
	}
	last := rs.LastRunTime()
	if last.IsZero() {
		return rs.Now()
	}
	return last.Add(rs.CheckInterval)
}
