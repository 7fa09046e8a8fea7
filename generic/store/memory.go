// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/fiscalkit/bracket-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	calculations map[generic.CalculationID]generic.Calculation
	order        []generic.CalculationID
	idempotency  map[string]bool
	tables       map[tableKey]generic.Table
}

type tableKey struct {
	ID   generic.TableID
	Year int
}

func NewMemory() *Memory {
	return &Memory{
		calculations: make(map[generic.CalculationID]generic.Calculation),
		idempotency:  make(map[string]bool),
		tables:       make(map[tableKey]generic.Table),
	}
}

// Save adds a calculation. Append-only.
func (m *Memory) Save(_ context.Context, c generic.Calculation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.IdempotencyKey != "" && m.idempotency[c.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}
	if _, exists := m.calculations[c.ID]; exists {
		return generic.ErrDuplicateIdempotencyKey
	}

	m.calculations[c.ID] = c
	m.order = append(m.order, c.ID)
	if c.IdempotencyKey != "" {
		m.idempotency[c.IdempotencyKey] = true
	}
	return nil
}

func (m *Memory) Get(_ context.Context, id generic.CalculationID) (generic.Calculation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.calculations[id]
	if !ok {
		return generic.Calculation{}, generic.ErrCalculationNotFound
	}
	return c, nil
}

// List returns newest first. Ties on CreatedAt keep reverse insertion order.
func (m *Memory) List(_ context.Context, limit int) ([]generic.Calculation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Calculation, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		result = append(result, m.calculations[m.order[i]])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// SaveTable stores or replaces a table version.
func (m *Memory) SaveTable(_ context.Context, t generic.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[tableKey{ID: t.ID, Year: t.Year}] = t
	return nil
}

func (m *Memory) LoadTables(_ context.Context) ([]generic.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Table, 0, len(m.tables))
	for _, t := range m.tables {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ID != result[j].ID {
			return result[i].ID < result[j].ID
		}
		return result[i].Year < result[j].Year
	})
	return result, nil
}
