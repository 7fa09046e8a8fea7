package uk

import (
	"github.com/shopspring/decimal"

	"github.com/fiscalkit/bracket-engine/generic"
)

const (
	TableIncomeTax generic.TableID = "uk-income-tax"
	TableNIClass1  generic.TableID = "uk-ni-class1"
)

// DefaultYear is the tax year by its starting calendar year (2024 = 2024/25).
const DefaultYear = 2024

var (
	personalAllowance = decimal.NewFromInt(12570)
	taperThreshold    = decimal.NewFromInt(100000)
)

// Tables returns the compiled-in England/Wales/NI income tables.
// Income tax bands apply to income after the personal allowance.
func Tables() []generic.Table {
	return []generic.Table{
		{
			ID:           TableIncomeTax,
			Name:         "Income tax bands (rUK)",
			Jurisdiction: Jurisdiction,
			Year:         DefaultYear,
			Currency:     generic.GBP,
			Brackets: []generic.Bracket{
				{UpperLimit: decimal.NewNullDecimal(decimal.NewFromInt(37700)), Rate: decimal.RequireFromString("0.20"), Label: "basic"},
				{UpperLimit: decimal.NewNullDecimal(decimal.NewFromInt(125140)), Rate: decimal.RequireFromString("0.40"), Label: "higher"},
				{Rate: decimal.RequireFromString("0.45"), Label: "additional"},
			},
		},
		{
			ID:           TableNIClass1,
			Name:         "Class 1 employee National Insurance",
			Jurisdiction: Jurisdiction,
			Year:         DefaultYear,
			Currency:     generic.GBP,
			Brackets: []generic.Bracket{
				{UpperLimit: decimal.NewNullDecimal(decimal.NewFromInt(12570)), Rate: decimal.Zero, Label: "below primary threshold"},
				{UpperLimit: decimal.NewNullDecimal(decimal.NewFromInt(50270)), Rate: decimal.RequireFromString("0.08"), Label: "main"},
				{Rate: decimal.RequireFromString("0.02"), Label: "above upper earnings limit"},
			},
		},
	}
}

func Register(reg *generic.Registry) {
	reg.MustRegister(Tables()...)
}

// PersonalAllowance tapers by 1 for every 2 of income above 100 000.
func PersonalAllowance(income decimal.Decimal) decimal.Decimal {
	excess := income.Sub(taperThreshold)
	if !excess.IsPositive() {
		return personalAllowance
	}
	reduction := excess.Div(decimal.NewFromInt(2)).Floor()
	return generic.ClampBase(personalAllowance.Sub(reduction))
}

type IncomeResult struct {
	Year              int
	Gross             decimal.Decimal
	PersonalAllowance decimal.Decimal
	TaxableIncome     decimal.Decimal
	IncomeTax         generic.Result
	NationalInsurance generic.Result
	Net               decimal.Decimal
}

type Calculator struct {
	tables *generic.Registry
}

func NewCalculator(reg *generic.Registry) *Calculator {
	return &Calculator{tables: reg}
}

// Income computes income tax and employee NI on an annual salary.
func (c *Calculator) Income(gross decimal.Decimal, year int) (IncomeResult, error) {
	if year == 0 {
		year = DefaultYear
	}
	bands, err := c.tables.Lookup(TableIncomeTax, year)
	if err != nil {
		return IncomeResult{}, err
	}
	ni, err := c.tables.Lookup(TableNIClass1, year)
	if err != nil {
		return IncomeResult{}, err
	}

	gross = generic.ClampBase(gross)
	allowance := PersonalAllowance(gross)
	taxable := generic.ClampBase(gross.Sub(allowance))
	tax := generic.Evaluate(taxable, bands)
	contributions := generic.Evaluate(gross, ni)

	return IncomeResult{
		Year:              year,
		Gross:             gross,
		PersonalAllowance: allowance,
		TaxableIncome:     taxable,
		IncomeTax:         tax,
		NationalInsurance: contributions,
		Net:               gross.Sub(tax.TotalTax).Sub(contributions.TotalTax),
	}, nil
}
