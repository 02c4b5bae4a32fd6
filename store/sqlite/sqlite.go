/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements season.Store, season.RolloverRunStore and season.Resettable
  using SQLite. Seasons and their monthly plans live here; projections are
  never stored, they are recomputed from these rows on every read.

INTERFACES IMPLEMENTED:
  season.SeasonStore:      Season CRUD
  season.PlanStore:        Monthly planned usage
  season.RolloverRunStore: Rollover history
  season.Resettable:       Wipe for demo scenarios

KEY TABLES:
  seasons:       One row per season, unique start_year
  monthly_data:  Sparse planned usage, UNIQUE(season_id, month_index)
  rollover_runs: Automatic season creation attempts

AMOUNTS:
  Day amounts are stored as TEXT decimal strings, not REAL, so a value read
  back is exactly the value written.

CONCURRENCY:
  Uses sync.RWMutex for statement-level thread-safety, plus a mutex per
  season id that serializes read-modify-write on one season's plan
  (UpdatePlan, SaveMonth). Edits to different seasons do not wait on
  each other's read-modify-write.

  The pool is limited to one connection: ":memory:" databases are
  per-connection in SQLite, and a single writer is all SQLite allows anyway.

USAGE:
  store, err := sqlite.New("./holidays.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - season/store.go: Interface definitions
  - season/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/ferie/season"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	// Per-season read-modify-write locks
	seasonLocks sync.Map
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Holiday seasons (September - August)
	CREATE TABLE IF NOT EXISTS seasons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		start_year INTEGER NOT NULL,
		buffer TEXT NOT NULL DEFAULT '0',
		earned_per_month TEXT NOT NULL DEFAULT '2.08',
		extra_holidays TEXT NOT NULL DEFAULT '5',
		created_at TEXT NOT NULL
	);

	-- One season per start year
	CREATE UNIQUE INDEX IF NOT EXISTS idx_seasons_start_year
		ON seasons(start_year);

	-- Planned usage per season month (sparse; missing months are 0)
	CREATE TABLE IF NOT EXISTS monthly_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		season_id INTEGER NOT NULL,
		month_index INTEGER NOT NULL CHECK (month_index BETWEEN 0 AND 11),
		planned_holidays TEXT NOT NULL DEFAULT '0',
		FOREIGN KEY (season_id) REFERENCES seasons(id) ON DELETE CASCADE,
		UNIQUE(season_id, month_index)
	);

	-- Automatic season rollovers
	CREATE TABLE IF NOT EXISTS rollover_runs (
		id TEXT PRIMARY KEY,
		from_season_id INTEGER NOT NULL,
		to_season_id INTEGER,
		start_year INTEGER NOT NULL,
		carried_over TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		error TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rollover_runs_created
		ON rollover_runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) seasonLock(id season.SeasonID) *sync.Mutex {
	l, _ := s.seasonLocks.LoadOrStore(id, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// =============================================================================
// SEASON STORE (season.SeasonStore interface)
// =============================================================================

const seasonColumns = `id, name, start_year, buffer, earned_per_month, extra_holidays, created_at`

// CreateSeason inserts a season.
func (s *Store) CreateSeason(ctx context.Context, in season.Season) (season.Season, error) {
	if in.Name == "" || in.StartYear == 0 {
		return season.Season{}, season.ErrInvalidSeason
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	in.Config = in.Config.Normalize()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO seasons (name, start_year, buffer, earned_per_month, extra_holidays, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		in.Name,
		in.StartYear,
		in.Config.BufferDays.Value.String(),
		in.Config.EarnedPerMonth.Value.String(),
		in.Config.ExtraDaysPool.Value.String(),
		in.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			dup := &season.DuplicateStartYearError{StartYear: in.StartYear}
			var existing int64
			if s.db.QueryRowContext(ctx, "SELECT id FROM seasons WHERE start_year = ?", in.StartYear).Scan(&existing) == nil {
				dup.ExistingID = season.SeasonID(existing)
			}
			return season.Season{}, dup
		}
		return season.Season{}, fmt.Errorf("failed to insert season: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return season.Season{}, fmt.Errorf("failed to read season id: %w", err)
	}
	in.ID = season.SeasonID(id)
	return in, nil
}

// GetSeason retrieves a season by ID.
func (s *Store) GetSeason(ctx context.Context, id season.SeasonID) (*season.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+seasonColumns+" FROM seasons WHERE id = ?", id)
	return scanSeason(row)
}

// GetSeasonByStartYear retrieves the season starting in year.
func (s *Store) GetSeasonByStartYear(ctx context.Context, year int) (*season.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+seasonColumns+" FROM seasons WHERE start_year = ?", year)
	return scanSeason(row)
}

// ListSeasons returns all seasons, highest start year first.
func (s *Store) ListSeasons(ctx context.Context) ([]season.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+seasonColumns+" FROM seasons ORDER BY start_year DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	defer rows.Close()

	seasons := []season.Season{}
	for rows.Next() {
		ss, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, *ss)
	}
	return seasons, rows.Err()
}

// UpdateSeason applies the non-nil fields of u.
func (s *Store) UpdateSeason(ctx context.Context, id season.SeasonID, u season.SeasonUpdate) (season.Season, error) {
	lock := s.seasonLock(id)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.GetSeason(ctx, id)
	if err != nil {
		return season.Season{}, err
	}
	updated := u.Apply(*current)
	if updated.Name == "" {
		return season.Season{}, season.ErrInvalidSeason
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE seasons
		SET name = ?, buffer = ?, earned_per_month = ?, extra_holidays = ?
		WHERE id = ?
	`,
		updated.Name,
		updated.Config.BufferDays.Value.String(),
		updated.Config.EarnedPerMonth.Value.String(),
		updated.Config.ExtraDaysPool.Value.String(),
		id,
	)
	if err != nil {
		return season.Season{}, fmt.Errorf("failed to update season: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return season.Season{}, err
	}
	if n == 0 {
		return season.Season{}, season.ErrSeasonNotFound
	}
	return updated, nil
}

// DeleteSeason removes a season. Monthly rows cascade. It waits for any
// in-flight update or plan edit on the same season.
func (s *Store) DeleteSeason(ctx context.Context, id season.SeasonID) error {
	lock := s.seasonLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM seasons WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete season: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return season.ErrSeasonNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeason(row rowScanner) (*season.Season, error) {
	var (
		ss        season.Season
		id        int64
		buffer    string
		earned    string
		extra     string
		createdAt string
	)

	err := row.Scan(&id, &ss.Name, &ss.StartYear, &buffer, &earned, &extra, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, season.ErrSeasonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan season: %w", err)
	}

	ss.ID = season.SeasonID(id)
	if ss.Config.BufferDays, err = season.ParseAmount(buffer); err != nil {
		return nil, fmt.Errorf("season %d buffer: %w", id, err)
	}
	if ss.Config.EarnedPerMonth, err = season.ParseAmount(earned); err != nil {
		return nil, fmt.Errorf("season %d earned_per_month: %w", id, err)
	}
	if ss.Config.ExtraDaysPool, err = season.ParseAmount(extra); err != nil {
		return nil, fmt.Errorf("season %d extra_holidays: %w", id, err)
	}
	ss.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &ss, nil
}

// =============================================================================
// PLAN STORE (season.PlanStore interface)
// =============================================================================

// MonthlyRecords returns the stored monthly rows for a season.
func (s *Store) MonthlyRecords(ctx context.Context, id season.SeasonID) ([]season.MonthRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.monthlyRecords(ctx, s.db, id)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) monthlyRecords(ctx context.Context, q queryer, id season.SeasonID) ([]season.MonthRecord, error) {
	var exists int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM seasons WHERE id = ?", id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check season: %w", err)
	}
	if exists == 0 {
		return nil, season.ErrSeasonNotFound
	}

	rows, err := q.QueryContext(ctx, `
		SELECT month_index, planned_holidays
		FROM monthly_data
		WHERE season_id = ?
		ORDER BY month_index
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly data: %w", err)
	}
	defer rows.Close()

	records := []season.MonthRecord{}
	for rows.Next() {
		var (
			idx     int
			planned string
		)
		if err := rows.Scan(&idx, &planned); err != nil {
			return nil, fmt.Errorf("failed to scan monthly data: %w", err)
		}
		days, err := season.ParseAmount(planned)
		if err != nil {
			return nil, fmt.Errorf("season %d month %d: %w", id, idx, err)
		}
		records = append(records, season.MonthRecord{
			SeasonID:    id,
			MonthIndex:  idx,
			PlannedDays: days,
		})
	}
	return records, rows.Err()
}

// MonthlyPlan returns the dense 12-month plan.
func (s *Store) MonthlyPlan(ctx context.Context, id season.SeasonID) (season.MonthlyPlan, error) {
	records, err := s.MonthlyRecords(ctx, id)
	if err != nil {
		return season.MonthlyPlan{}, err
	}
	return season.PlanFromRecords(records), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertMonth(ctx context.Context, db execer, id season.SeasonID, monthIndex int, days season.Amount) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO monthly_data (season_id, month_index, planned_holidays)
		VALUES (?, ?, ?)
		ON CONFLICT(season_id, month_index)
		DO UPDATE SET planned_holidays = excluded.planned_holidays
	`, id, monthIndex, season.NonNegative(days).Value.String())
	if err != nil {
		if isForeignKeyError(err) {
			return season.ErrSeasonNotFound
		}
		return fmt.Errorf("failed to save monthly data: %w", err)
	}
	return nil
}

// SaveMonth upserts the planned days for one month.
func (s *Store) SaveMonth(ctx context.Context, id season.SeasonID, monthIndex int, days season.Amount) error {
	if !season.ValidMonthIndex(monthIndex) {
		return &season.MonthIndexError{Index: monthIndex}
	}

	lock := s.seasonLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	return upsertMonth(ctx, s.db, id, monthIndex, days)
}

// UpdatePlan runs a read-modify-write of the whole plan for one season.
// The write is a single SQL transaction; fn errors leave the plan untouched.
func (s *Store) UpdatePlan(ctx context.Context, id season.SeasonID, fn func(*season.MonthlyPlan) error) (season.MonthlyPlan, error) {
	lock := s.seasonLock(id)
	lock.Lock()
	defer lock.Unlock()

	plan, err := s.MonthlyPlan(ctx, id)
	if err != nil {
		return season.MonthlyPlan{}, err
	}
	if err := fn(&plan); err != nil {
		return season.MonthlyPlan{}, err
	}
	plan = plan.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return season.MonthlyPlan{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for i, days := range plan {
		if err := upsertMonth(ctx, sqlTx, id, i, days); err != nil {
			return season.MonthlyPlan{}, err
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return season.MonthlyPlan{}, fmt.Errorf("failed to commit plan: %w", err)
	}
	return plan, nil
}

// =============================================================================
// ROLLOVER RUNS (season.RolloverRunStore interface)
// =============================================================================

// SaveRolloverRun records a rollover attempt.
func (s *Store) SaveRolloverRun(ctx context.Context, r season.RolloverRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toSeason sql.NullInt64
	if r.ToSeasonID != 0 {
		toSeason = sql.NullInt64{Int64: int64(r.ToSeasonID), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rollover_runs (id, from_season_id, to_season_id, start_year, carried_over, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			to_season_id = excluded.to_season_id,
			status = excluded.status,
			error = excluded.error
	`,
		r.ID,
		r.FromSeasonID,
		toSeason,
		r.StartYear,
		r.CarriedOver.Value.String(),
		r.Status,
		nullString(r.Error),
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save rollover run: %w", err)
	}
	return nil
}

// ListRolloverRuns returns rollover history, newest first.
func (s *Store) ListRolloverRuns(ctx context.Context) ([]season.RolloverRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_season_id, to_season_id, start_year, carried_over, status, error, created_at
		FROM rollover_runs
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rollover runs: %w", err)
	}
	defer rows.Close()

	runs := []season.RolloverRun{}
	for rows.Next() {
		var (
			r         season.RolloverRun
			from      int64
			to        sql.NullInt64
			carried   string
			status    string
			errText   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&r.ID, &from, &to, &r.StartYear, &carried, &status, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan rollover run: %w", err)
		}
		r.FromSeasonID = season.SeasonID(from)
		if to.Valid {
			r.ToSeasonID = season.SeasonID(to.Int64)
		}
		if r.CarriedOver, err = season.ParseAmount(carried); err != nil {
			return nil, fmt.Errorf("rollover run %s: %w", r.ID, err)
		}
		r.Status = season.RolloverStatus(status)
		r.Error = errText.String
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"monthly_data", "rollover_runs", "seasons"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

var (
	_ season.RolloverStore = (*Store)(nil)
	_ season.Resettable    = (*Store)(nil)
)
