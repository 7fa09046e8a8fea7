/*
errors.go - Centralized error types for the bracket engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Calculator packages and the API wrap these with additional context.

ERROR CATEGORIES:
  1. Table errors - Malformed bracket configuration (authoring errors)
  2. Lookup errors - Unknown table or saved calculation
  3. Store errors - Persistence failures and idempotency conflicts

Evaluate itself never returns an error. Anything that can go wrong is
caught before it: by Table.Validate, by input coercion, or by the store.

USAGE:
  if errors.Is(err, generic.ErrInvalidTable) {
      var te *generic.TableError
      errors.As(err, &te) // te.Index points at the offending bracket
  }

SEE ALSO:
  - table.go: Produces TableError
  - registry.go: Produces ErrTableNotFound
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidTable is returned when a bracket table violates its invariants.
	ErrInvalidTable = errors.New("invalid bracket table")

	// ErrTableNotFound is returned when no registered table matches id/year.
	ErrTableNotFound = errors.New("table not found")

	// ErrNegativeBase is returned by callers that refuse to clamp a loss.
	ErrNegativeBase = errors.New("taxable base is negative")

	// ErrInvalidInput is returned when calculator input is unusable even
	// after coercion (unknown region, unknown regime).
	ErrInvalidInput = errors.New("invalid input")

	// ErrCalculationNotFound is returned when a saved calculation doesn't exist.
	ErrCalculationNotFound = errors.New("calculation not found")

	// ErrDuplicateIdempotencyKey is returned when a calculation with the same
	// idempotency key was already saved. Expected on client retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TableError points at the bracket that broke validation.
// Index is -1 for table-level problems.
type TableError struct {
	TableID TableID
	Index   int
	Reason  string
}

func (e *TableError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid bracket table %q: %s", e.TableID, e.Reason)
	}
	return fmt.Sprintf("invalid bracket table %q: bracket %d: %s", e.TableID, e.Index, e.Reason)
}

func (e *TableError) Unwrap() error {
	return ErrInvalidTable
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTable) ||
		errors.Is(err, ErrNegativeBase) ||
		errors.Is(err, ErrInvalidInput)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTableNotFound) ||
		errors.Is(err, ErrCalculationNotFound)
}

// IsConflict returns true for idempotency conflicts.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}
