/*
Package generic provides the core progressive bracket engine.

PURPOSE:
  This package contains jurisdiction-agnostic types and algorithms for
  bracket-based taxation. Whether computing Italian IRPEF, a Spanish regional
  IRPF scale, ENPAM contributions, or UK income tax bands, the same evaluator
  walks the same kind of table.

KEY CONCEPTS IN THIS FILE (types.go):
  - Bracket: An (upper limit, rate) pair. The last bracket is unbounded.
  - Table: An ordered, validated list of brackets for one jurisdiction/year
  - Result: Total tax plus a per-bracket breakdown
  - TableID / Jurisdiction / Currency: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal, never float64, for money
  2. Purity: Evaluation has no I/O and no shared state
  3. Validation at definition time: a Table that passed Validate cannot
     make Evaluate fail

USAGE:
  table := generic.Table{
      ID: "it-irpef", Year: 2024, Currency: generic.EUR,
      Brackets: []generic.Bracket{
          generic.UpTo(28000, "0.23"),
          generic.UpTo(50000, "0.35"),
          generic.Above("0.43"),
      },
  }
  result := generic.Evaluate(decimal.NewFromInt(40000), table)

SEE ALSO:
  - bracket.go: The evaluator
  - table.go: Validation and table helpers
  - registry.go: Versioned table lookup
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TableID string
type Jurisdiction string
type CalculationID string

type Currency string

const (
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	USD Currency = "USD"
)

// =============================================================================
// BRACKET - (upper limit, rate) pair
// =============================================================================

// Bracket is one step of a progressive scale.
//
// UpperLimit is cumulative (an absolute amount of base, not a width). An
// invalid UpperLimit (Valid == false) means the bracket is unbounded and
// absorbs whatever base remains.
type Bracket struct {
	UpperLimit decimal.NullDecimal
	Rate       decimal.Decimal
	Label      string
}

// Unbounded reports whether the bracket has no upper limit.
func (b Bracket) Unbounded() bool { return !b.UpperLimit.Valid }

// UpTo builds a bounded bracket. The rate is a decimal string so tables read
// like the statute ("0.23", "0.355").
func UpTo(limit int64, rate string) Bracket {
	return Bracket{
		UpperLimit: decimal.NewNullDecimal(decimal.NewFromInt(limit)),
		Rate:       MustParseDecimal(rate),
	}
}

// UpToDecimal builds a bounded bracket with a fractional limit.
func UpToDecimal(limit string, rate string) Bracket {
	return Bracket{
		UpperLimit: decimal.NewNullDecimal(MustParseDecimal(limit)),
		Rate:       MustParseDecimal(rate),
	}
}

// Above builds the unbounded top bracket.
func Above(rate string) Bracket {
	return Bracket{Rate: MustParseDecimal(rate)}
}

// =============================================================================
// TABLE - Ordered brackets for one jurisdiction and year
// =============================================================================

type Table struct {
	ID           TableID
	Name         string
	Jurisdiction Jurisdiction
	Year         int
	Currency     Currency
	Brackets     []Bracket
}

// =============================================================================
// RESULT - Derived, never stored except as a saved calculation
// =============================================================================

// Row is the portion of the base taxed inside one bracket.
type Row struct {
	Label           string
	From            decimal.Decimal
	To              decimal.NullDecimal
	BaseInBracket   decimal.Decimal
	Rate            decimal.Decimal
	AmountInBracket decimal.Decimal
}

type Result struct {
	TableID   TableID
	Year      int
	Currency  Currency
	Base      decimal.Decimal
	TotalTax  decimal.Decimal
	Breakdown []Row
}

// EffectiveRate is TotalTax / Base, zero for a zero base.
func (r Result) EffectiveRate() decimal.Decimal {
	if r.Base.IsZero() {
		return decimal.Zero
	}
	return r.TotalTax.Div(r.Base)
}

// MarginalRate is the rate of the last bracket that received any base.
func (r Result) MarginalRate() decimal.Decimal {
	if len(r.Breakdown) == 0 {
		return decimal.Zero
	}
	return r.Breakdown[len(r.Breakdown)-1].Rate
}

// Net returns Base - TotalTax.
func (r Result) Net() decimal.Decimal {
	return r.Base.Sub(r.TotalTax)
}

// Rounded returns a copy with every money field rounded to cents.
// Rounding is a display concern; Evaluate itself never rounds.
func (r Result) Rounded() Result {
	out := r
	out.Base = r.Base.Round(2)
	out.TotalTax = r.TotalTax.Round(2)
	out.Breakdown = make([]Row, len(r.Breakdown))
	for i, row := range r.Breakdown {
		row.BaseInBracket = row.BaseInBracket.Round(2)
		row.AmountInBracket = row.AmountInBracket.Round(2)
		out.Breakdown[i] = row
	}
	return out
}

// MustParseDecimal parses s, returning zero on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
