/*
store.go - Persistence interface for saved calculations

PURPOSE:
  A saved calculation is a snapshot of one evaluation: the inputs that
  produced it and the Result. Users save them to compare scenarios or to
  export later. The Store keeps them append-only.

APPEND-ONLY CONTRACT:
  - Save(): Single write
  - NO Update() or Delete() methods exist
  - Re-running a calculation produces a new record, not an edit

IDEMPOTENCY:
  Every Save may carry an idempotency key. If the key already exists the
  write is rejected with ErrDuplicateIdempotencyKey, so a double-clicked
  "save" button produces one record.

IMPLEMENTATIONS:
  - generic/store/memory.go: In-memory for tests and the CLI
  - store/sqlite/sqlite.go: SQLite (also persists registered tables)
  - store/mongo/mongo.go: MongoDB

SEE ALSO:
  - types.go: Result
  - api/handlers.go: SaveCalculation / GetCalculation
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// CALCULATION - Immutable snapshot of one evaluation
// =============================================================================

// Calculation is a saved evaluation. Kind names the calculator that produced
// it ("evaluate", "italy", "spain", ...) and Input holds its request verbatim
// so the record can be recomputed against a later table year.
type Calculation struct {
	ID             CalculationID
	Kind           string
	TableID        TableID
	Year           int
	Input          map[string]any
	Result         Result
	IdempotencyKey string
	CreatedAt      time.Time
}

// =============================================================================
// STORE - Interface for calculation persistence (append-only)
// =============================================================================

type Store interface {
	// Save persists a calculation. Returns ErrDuplicateIdempotencyKey if the
	// key already exists.
	Save(ctx context.Context, c Calculation) error

	// Get returns a calculation or ErrCalculationNotFound.
	Get(ctx context.Context, id CalculationID) (Calculation, error)

	// List returns the most recent calculations, newest first.
	List(ctx context.Context, limit int) ([]Calculation, error)
}

// TableStore persists registered tables so tables posted through the API
// survive restarts.
type TableStore interface {
	SaveTable(ctx context.Context, t Table) error
	LoadTables(ctx context.Context) ([]Table, error)
}
