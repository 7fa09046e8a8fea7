/*
registry.go - Versioned bracket table registration and lookup

PURPOSE:
  Bracket tables change every fiscal year. The registry keeps every version
  of every table so a calculation can be reproduced for the year it was made,
  while new requests default to the latest year.

HOW IT WORKS:
  1. Calculator packages register their compiled-in tables (italy.Register)
  2. The factory registers tables loaded from YAML/JSON files, and
     re-registers them when the files change
  3. The API and CLI look tables up by id (and optionally year)

Registration validates. An invalid table never enters the registry, so
everything looked up here is safe to pass to Evaluate. Registered tables
need a positive year: year 0 is the "latest" key of Lookup.

SEE ALSO:
  - table.go: Validate
  - factory/table.go: File-based table definitions
*/
package generic

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// =============================================================================
// TABLE REGISTRY
// =============================================================================

type Registry struct {
	mu     sync.RWMutex
	tables map[TableID]map[int]Table
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[TableID]map[int]Table)}
}

// ValidateVersioned checks t like Validate and also requires a year, which
// every registered table needs.
func (t Table) ValidateVersioned() error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Year <= 0 {
		return &TableError{TableID: t.ID, Index: -1, Reason: fmt.Sprintf("year %d must be positive", t.Year)}
	}
	return nil
}

// Register validates and stores t, replacing any table with the same id and year.
func (r *Registry) Register(t Table) error {
	if err := t.ValidateVersioned(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	versions, ok := r.tables[t.ID]
	if !ok {
		versions = make(map[int]Table)
		r.tables[t.ID] = versions
	}
	versions[t.Year] = t
	return nil
}

// MustRegister registers t or panics. For compiled-in tables.
func (r *Registry) MustRegister(tables ...Table) {
	for _, t := range tables {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Lookup finds a table by id and year. Year 0 means the latest year.
func (r *Registry) Lookup(id TableID, year int) (Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.tables[id]
	if !ok || len(versions) == 0 {
		return Table{}, fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	if year == 0 {
		year = lo.Max(lo.Keys(versions))
	}
	t, ok := versions[year]
	if !ok {
		return Table{}, fmt.Errorf("%w: %s for year %d", ErrTableNotFound, id, year)
	}
	return t, nil
}

// Latest is Lookup with year 0.
func (r *Registry) Latest(id TableID) (Table, error) {
	return r.Lookup(id, 0)
}

// Years returns the registered years for id, ascending.
func (r *Registry) Years(id TableID) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	years := lo.Keys(r.tables[id])
	sort.Ints(years)
	return years
}

// List returns the latest version of every table, sorted by id.
func (r *Registry) List() []Table {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Table, 0, len(r.tables))
	for _, versions := range r.tables {
		latest := lo.Max(lo.Keys(versions))
		result = append(result, versions[latest])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// ListByJurisdiction returns the latest tables for one jurisdiction.
func (r *Registry) ListByJurisdiction(j Jurisdiction) []Table {
	return lo.Filter(r.List(), func(t Table, _ int) bool {
		return t.Jurisdiction == j
	})
}
