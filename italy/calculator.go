package italy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fiscalkit/bracket-engine/generic"
)

// Calculator resolves tables through a registry so tables reloaded from
// files take precedence over the compiled-in defaults.
type Calculator struct {
	tables *generic.Registry
}

func NewCalculator(reg *generic.Registry) *Calculator {
	return &Calculator{tables: reg}
}

// Calculate dispatches on the regime variant.
func (c *Calculator) Calculate(r Regime) (Result, error) {
	switch v := r.(type) {
	case Ordinario:
		return c.ordinario(v)
	case Forfettario:
		return c.forfettario(v)
	default:
		return Result{}, fmt.Errorf("%w: unknown regime %T", generic.ErrInvalidInput, r)
	}
}

func (c *Calculator) ordinario(in Ordinario) (Result, error) {
	year := yearOrDefault(in.Year)
	irpef, err := c.tables.Lookup(TableIRPEF, year)
	if err != nil {
		return Result{}, err
	}
	inps, err := c.tables.Lookup(TableGestioneSeparata, year)
	if err != nil {
		return Result{}, err
	}

	gross := generic.ClampBase(in.Revenue.Sub(in.Expenses))
	contributions := generic.Evaluate(gross, inps)
	taxable := generic.ClampBase(gross.Sub(contributions.TotalTax).Sub(in.OtherDeductions))
	tax := generic.Evaluate(taxable, irpef)

	return Result{
		Regime:        RegimeName(in),
		Year:          year,
		Revenue:       in.Revenue,
		GrossIncome:   gross,
		Contributions: contributions,
		TaxableIncome: taxable,
		Tax:           tax,
		Net:           gross.Sub(contributions.TotalTax).Sub(tax.TotalTax),
	}, nil
}

func (c *Calculator) forfettario(in Forfettario) (Result, error) {
	year := yearOrDefault(in.Year)
	coefficient, ok := Coefficient(in.Category)
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown category %q", generic.ErrInvalidInput, in.Category)
	}

	rateTable := TableSostitutiva
	if in.StartUp {
		rateTable = TableSostitutivaStart
	}
	sostitutiva, err := c.tables.Latest(rateTable)
	if err != nil {
		return Result{}, err
	}
	inps, err := c.tables.Lookup(TableGestioneSeparata, year)
	if err != nil {
		return Result{}, err
	}

	revenue := generic.ClampBase(in.Revenue)
	gross := revenue.Mul(coefficient)
	contributions := generic.Evaluate(gross, inps)
	taxable := generic.ClampBase(gross.Sub(contributions.TotalTax))
	tax := generic.Evaluate(taxable, sostitutiva)

	return Result{
		Regime:              RegimeName(in),
		Year:                year,
		Revenue:             revenue,
		GrossIncome:         gross,
		Contributions:       contributions,
		TaxableIncome:       taxable,
		Tax:                 tax,
		Net:                 revenue.Sub(contributions.TotalTax).Sub(tax.TotalTax),
		ExceedsRevenueLimit: revenue.GreaterThan(RevenueLimit),
	}, nil
}

// CompareRegimes runs both regimes on the same revenue. Expenses only
// matter to the ordinario side.
func (c *Calculator) CompareRegimes(year int, revenue, expenses decimal.Decimal, category Category, startUp bool) (ordinario, forfettario Result, err error) {
	ordinario, err = c.Calculate(Ordinario{Year: year, Revenue: revenue, Expenses: expenses})
	if err != nil {
		return Result{}, Result{}, err
	}
	forfettario, err = c.Calculate(Forfettario{Year: year, Revenue: revenue, Category: category, StartUp: startUp})
	if err != nil {
		return Result{}, Result{}, err
	}
	return ordinario, forfettario, nil
}

func yearOrDefault(year int) int {
	if year == 0 {
		return DefaultYear
	}
	return year
}
