/*
errors.go - Centralized error types for the season engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The projector itself never fails; these errors belong to the store and
  to the service layer around it.

ERROR CATEGORIES:
  1. Lookup errors - Season does not exist
  2. Input errors - Month index out of range, malformed season
  3. Conflict errors - A season for that start year already exists

USAGE:
  if season.IsNotFound(err) {
      // 404
  }
  var dup *season.DuplicateStartYearError
  if errors.As(err, &dup) {
      fmt.Println("taken by", dup.ExistingID)
  }

SEE ALSO:
  - store.go: Interfaces that return these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package season

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSeasonNotFound is returned when a referenced season doesn't exist.
	ErrSeasonNotFound = errors.New("season not found")

	// ErrDuplicateStartYear is returned when a season already starts in that year.
	// There is at most one season per start year.
	ErrDuplicateStartYear = errors.New("season with this start year already exists")

	// ErrInvalidMonthIndex is returned for month indexes outside 0..11.
	ErrInvalidMonthIndex = errors.New("invalid month index")

	// ErrInvalidSeason is returned when a season record is malformed
	// (missing name or start year).
	ErrInvalidSeason = errors.New("invalid season")

	// ErrStoreRequired is returned when an operation requires a specific store capability.
	ErrStoreRequired = errors.New("operation requires extended store interface")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateStartYearError reports which season already owns the start year.
type DuplicateStartYearError struct {
	StartYear  int
	ExistingID SeasonID
}

func (e *DuplicateStartYearError) Error() string {
	if e.ExistingID != 0 {
		return fmt.Sprintf("season starting %d already exists (id %d)", e.StartYear, e.ExistingID)
	}
	return fmt.Sprintf("season starting %d already exists", e.StartYear)
}

func (e *DuplicateStartYearError) Unwrap() error {
	return ErrDuplicateStartYear
}

// MonthIndexError reports an out-of-range month index.
type MonthIndexError struct {
	Index int
}

func (e *MonthIndexError) Error() string {
	return fmt.Sprintf("month index %d out of range 0..%d", e.Index, MonthsPerSeason-1)
}

func (e *MonthIndexError) Unwrap() error {
	return ErrInvalidMonthIndex
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing season.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSeasonNotFound)
}

// IsConflict returns true if the error is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateStartYear)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidMonthIndex) ||
		errors.Is(err, ErrInvalidSeason)
}
