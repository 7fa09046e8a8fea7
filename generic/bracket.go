package generic

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// =============================================================================
// EVALUATOR
// =============================================================================

// Evaluate computes the progressive tax owed on base under table.
//
// The table must have passed Validate; base must be non-negative (use
// ClampBase for losses). Under those conditions Evaluate is total: it always
// terminates because the last bracket is unbounded, and the breakdown rows
// sum exactly to both TotalTax and Base.
func Evaluate(base decimal.Decimal, table Table) Result {
	result := Result{
		TableID:  table.ID,
		Year:     table.Year,
		Currency: table.Currency,
		Base:     base,
		TotalTax: decimal.Zero,
	}

	remaining := base
	previousLimit := decimal.Zero

	for i, b := range table.Brackets {
		if !remaining.IsPositive() {
			break
		}

		amount := remaining
		if !b.Unbounded() {
			amount = decimal.Min(remaining, b.UpperLimit.Decimal.Sub(previousLimit))
		}
		if !amount.IsPositive() {
			break
		}

		tax := amount.Mul(b.Rate)
		result.TotalTax = result.TotalTax.Add(tax)
		result.Breakdown = append(result.Breakdown, Row{
			Label:           bracketLabel(table, i),
			From:            previousLimit,
			To:              b.UpperLimit,
			BaseInBracket:   amount,
			Rate:            b.Rate,
			AmountInBracket: tax,
		})

		remaining = remaining.Sub(amount)
		if !b.Unbounded() {
			previousLimit = b.UpperLimit.Decimal
		}
	}

	return result
}

// EvaluateAll evaluates the same base against several scales and sums them.
// Used where a jurisdiction levies independent scales on one base
// (Spanish state + regional IRPF).
func EvaluateAll(base decimal.Decimal, tables ...Table) Combined {
	parts := lo.Map(tables, func(t Table, _ int) Result {
		return Evaluate(base, t)
	})
	return Combined{
		Base:  base,
		Parts: parts,
		TotalTax: lo.Reduce(parts, func(acc decimal.Decimal, r Result, _ int) decimal.Decimal {
			return acc.Add(r.TotalTax)
		}, decimal.Zero),
	}
}

// Combined is the sum of several Results over one base.
type Combined struct {
	Base     decimal.Decimal
	TotalTax decimal.Decimal
	Parts    []Result
}

// ClampBase maps a negative taxable amount (a loss) to zero.
func ClampBase(base decimal.Decimal) decimal.Decimal {
	if base.IsNegative() {
		return decimal.Zero
	}
	return base
}

// Difference returns tax(base) - tax(floor) under the same table, never
// negative. Spanish IRPF computes the tax on the personal minimum this way
// and subtracts it from the tax on the full base.
func Difference(base, floor decimal.Decimal, table Table) decimal.Decimal {
	full := Evaluate(ClampBase(base), table).TotalTax
	exempt := Evaluate(ClampBase(decimal.Min(base, floor)), table).TotalTax
	return ClampBase(full.Sub(exempt))
}

func bracketLabel(table Table, i int) string {
	if l := table.Brackets[i].Label; l != "" {
		return l
	}
	b := table.Brackets[i]
	from := decimal.Zero
	if i > 0 {
		from = table.Brackets[i-1].UpperLimit.Decimal
	}
	if b.Unbounded() {
		return "over " + from.String()
	}
	return from.String() + "-" + b.UpperLimit.Decimal.String()
}
