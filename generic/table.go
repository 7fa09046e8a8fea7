package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TABLE VALIDATION - Run once, when a table is defined
// =============================================================================

// Validate checks the structural invariants Evaluate relies on:
//   - at least one bracket
//   - bounded limits are positive and strictly increasing
//   - exactly the last bracket is unbounded
//   - every rate is within [0, 1]
//
// The returned error is a *TableError wrapping ErrInvalidTable.
func (t Table) Validate() error {
	if t.ID == "" {
		return &TableError{TableID: t.ID, Index: -1, Reason: "missing id"}
	}
	if len(t.Brackets) == 0 {
		return &TableError{TableID: t.ID, Index: -1, Reason: "no brackets"}
	}

	previous := decimal.Zero
	last := len(t.Brackets) - 1
	for i, b := range t.Brackets {
		if b.Rate.IsNegative() || b.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return &TableError{TableID: t.ID, Index: i, Reason: fmt.Sprintf("rate %s outside [0,1]", b.Rate)}
		}
		if b.Unbounded() {
			if i != last {
				return &TableError{TableID: t.ID, Index: i, Reason: "only the last bracket may be unbounded"}
			}
			continue
		}
		if i == last {
			return &TableError{TableID: t.ID, Index: i, Reason: "last bracket must be unbounded"}
		}
		if !b.UpperLimit.Decimal.GreaterThan(previous) {
			return &TableError{TableID: t.ID, Index: i, Reason: fmt.Sprintf("limit %s not above %s", b.UpperLimit.Decimal, previous)}
		}
		previous = b.UpperLimit.Decimal
	}
	return nil
}

// MustValidate panics on an invalid table. Use for tables compiled into the
// binary, where an invalid table is a programming error.
func (t Table) MustValidate() Table {
	if err := t.Validate(); err != nil {
		panic(err)
	}
	return t
}

// =============================================================================
// DEGENERATE TABLES
// =============================================================================

// Flat is a single unbounded bracket: imposta sostitutiva, VAT, flat levies.
func Flat(id TableID, rate decimal.Decimal) Table {
	return Table{
		ID:       id,
		Brackets: []Bracket{{Rate: rate, Label: "flat"}},
	}
}

// Threshold taxes nothing up to limit and rate on the excess.
// ENPAM Quota B is levied this way on income above the Quota A threshold.
func Threshold(id TableID, limit, rate decimal.Decimal) Table {
	return Table{
		ID: id,
		Brackets: []Bracket{
			{UpperLimit: decimal.NewNullDecimal(limit), Rate: decimal.Zero, Label: "exempt"},
			{Rate: rate, Label: "excess"},
		},
	}
}

// Capped taxes base at rate up to limit and nothing above it.
// Contribution schemes with a ceiling (massimale) use this shape.
func Capped(id TableID, limit, rate decimal.Decimal) Table {
	return Table{
		ID: id,
		Brackets: []Bracket{
			{UpperLimit: decimal.NewNullDecimal(limit), Rate: rate, Label: "up to ceiling"},
			{Rate: decimal.Zero, Label: "above ceiling"},
		},
	}
}

// TopLimit returns the highest finite limit, or zero for a flat table.
func (t Table) TopLimit() decimal.Decimal {
	for i := len(t.Brackets) - 1; i >= 0; i-- {
		if !t.Brackets[i].Unbounded() {
			return t.Brackets[i].UpperLimit.Decimal
		}
	}
	return decimal.Zero
}
