/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists saved calculations and API-registered bracket tables so both
  survive a restart. The same schema ports to PostgreSQL with minor dialect
  changes.

INTERFACES IMPLEMENTED:
  generic.Store:      Saved calculations (append-only)
  generic.TableStore: Bracket table versions

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements on the calculations table
  - Re-running a calculation inserts a new row

KEY TABLES:
  calculations:   One row per saved evaluation; input and result as JSON
  bracket_tables: One row per (table id, year); brackets as JSON

INDEXES:
  - idempotency_key UNIQUE: rejects double submissions
  - idx_calculations_created: List() newest first

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/brackets.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/fiscalkit/bracket-engine/generic"
)

// Store implements generic.Store and generic.TableStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

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
	-- Saved calculations (append-only)
	CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		table_id TEXT,
		year INTEGER NOT NULL DEFAULT 0,
		input_json TEXT NOT NULL,
		result_json TEXT NOT NULL,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calculations_created
		ON calculations(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_calculations_table
		ON calculations(table_id, year);

	-- Bracket tables (one row per version)
	CREATE TABLE IF NOT EXISTS bracket_tables (
		id TEXT NOT NULL,
		year INTEGER NOT NULL,
		name TEXT,
		jurisdiction TEXT,
		currency TEXT NOT NULL,
		brackets_json TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (id, year)
	);

	CREATE INDEX IF NOT EXISTS idx_bracket_tables_jurisdiction
		ON bracket_tables(jurisdiction);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CALCULATION STORE (generic.Store interface)
// =============================================================================

// Save inserts a calculation.
func (s *Store) Save(ctx context.Context, c generic.Calculation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inputJSON, err := json.Marshal(c.Input)
	if err != nil {
		return fmt.Errorf("failed to encode input: %w", err)
	}
	resultJSON, err := json.Marshal(c.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO calculations
		(id, kind, table_id, year, input_json, result_json, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		c.ID,
		c.Kind,
		nullString(string(c.TableID)),
		c.Year,
		string(inputJSON),
		string(resultJSON),
		nullString(c.IdempotencyKey),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to save calculation: %w", err)
	}
	return nil
}

// Get returns one calculation by id.
func (s *Store) Get(ctx context.Context, id generic.CalculationID) (generic.Calculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectCalculation+` WHERE id = ?`, id)
	c, err := scanCalculation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.Calculation{}, generic.ErrCalculationNotFound
	}
	return c, err
}

// List returns up to limit calculations, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]generic.Calculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx, selectCalculation+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations: %w", err)
	}
	defer rows.Close()

	var result []generic.Calculation
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

const selectCalculation = `
	SELECT id, kind, table_id, year, input_json, result_json, idempotency_key, created_at
	FROM calculations`

type scanner interface {
	Scan(dest ...any) error
}

func scanCalculation(row scanner) (generic.Calculation, error) {
	var (
		c                     generic.Calculation
		tableID, idemKey      sql.NullString
		inputJSON, resultJSON string
		createdAt             string
	)
	if err := row.Scan(&c.ID, &c.Kind, &tableID, &c.Year, &inputJSON, &resultJSON, &idemKey, &createdAt); err != nil {
		return generic.Calculation{}, err
	}
	c.TableID = generic.TableID(tableID.String)
	c.IdempotencyKey = idemKey.String
	if err := json.Unmarshal([]byte(inputJSON), &c.Input); err != nil {
		return generic.Calculation{}, fmt.Errorf("failed to decode input of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &c.Result); err != nil {
		return generic.Calculation{}, fmt.Errorf("failed to decode result of %s: %w", c.ID, err)
	}
	at, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return generic.Calculation{}, fmt.Errorf("failed to decode created_at of %s: %w", c.ID, err)
	}
	c.CreatedAt = at
	return c, nil
}

// =============================================================================
// TABLE STORE (generic.TableStore interface)
// =============================================================================

// SaveTable inserts or replaces one table version. Tables are definitions,
// not history, so unlike calculations they can be overwritten.
func (s *Store) SaveTable(ctx context.Context, t generic.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bracketsJSON, err := json.Marshal(t.Brackets)
	if err != nil {
		return fmt.Errorf("failed to encode brackets: %w", err)
	}

	query := `
		INSERT INTO bracket_tables (id, year, name, jurisdiction, currency, brackets_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, year) DO UPDATE SET
			name = excluded.name,
			jurisdiction = excluded.jurisdiction,
			currency = excluded.currency,
			brackets_json = excluded.brackets_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		t.ID, t.Year, t.Name, string(t.Jurisdiction), string(t.Currency),
		string(bracketsJSON), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save table: %w", err)
	}
	return nil
}

// LoadTables returns every stored table version ordered by id then year.
func (s *Store) LoadTables(ctx context.Context) ([]generic.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, year, name, jurisdiction, currency, brackets_json
		FROM bracket_tables ORDER BY id, year`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var result []generic.Table
	for rows.Next() {
		var (
			t                  generic.Table
			name, jurisdiction sql.NullString
			currency, brackets string
		)
		if err := rows.Scan(&t.ID, &t.Year, &name, &jurisdiction, &currency, &brackets); err != nil {
			return nil, err
		}
		t.Name = name.String
		t.Jurisdiction = generic.Jurisdiction(jurisdiction.String)
		t.Currency = generic.Currency(currency)
		if err := json.Unmarshal([]byte(brackets), &t.Brackets); err != nil {
			return nil, fmt.Errorf("failed to decode brackets of %s: %w", t.ID, err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
