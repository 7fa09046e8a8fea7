package spain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fiscalkit/bracket-engine/generic"
)

// =============================================================================
// MINIMO PERSONAL Y FAMILIAR
// =============================================================================

var (
	minimoPersonal = decimal.NewFromInt(5550)
	minimoOver65   = decimal.NewFromInt(1150)
	minimoOver75   = decimal.NewFromInt(1400)
	minimoUnder3   = decimal.NewFromInt(2800)

	// first, second, third, fourth and following descendants
	minimoDescendants = []decimal.Decimal{
		decimal.NewFromInt(2400),
		decimal.NewFromInt(2700),
		decimal.NewFromInt(4000),
		decimal.NewFromInt(4500),
	}

	// Household bounds accepted by Calculate.
	maxAge      = 150
	maxChildren = 50

	// Fixed deduction for employment income (otros gastos deducibles).
	otrosGastos = decimal.NewFromInt(2000)

	// Employee social security rate used when the caller doesn't supply
	// the actual amount (contingencias comunes, desempleo, FP, MEI).
	socialSecurityRate = decimal.RequireFromString("0.0647")
)

// =============================================================================
// INPUT / RESULT
// =============================================================================

type Input struct {
	Year   int
	Region Region

	// GrossSalary is annual employment income.
	GrossSalary decimal.Decimal
	// SocialSecurity is the employee contribution actually paid. Zero means
	// estimate it from GrossSalary.
	SocialSecurity decimal.Decimal

	Age            int
	Children       int
	ChildrenUnder3 int
}

type Result struct {
	Year           int
	Region         Region
	GrossSalary    decimal.Decimal
	SocialSecurity decimal.Decimal
	Base           decimal.Decimal // base liquidable general
	Minimo         decimal.Decimal
	StateTax       decimal.Decimal
	RegionalTax    decimal.Decimal
	TotalTax       decimal.Decimal
	Net            decimal.Decimal
	// Scales holds the full evaluation of each scale on Base, before the
	// minimo is subtracted. Used for breakdown display.
	Scales generic.Combined
}

// Minimo returns the minimo personal y familiar for the household.
// Negative counts are treated as zero.
func Minimo(age, children, childrenUnder3 int) decimal.Decimal {
	m := minimoPersonal
	if age > 65 {
		m = m.Add(minimoOver65)
	}
	if age > 75 {
		m = m.Add(minimoOver75)
	}

	children = max(children, 0)
	last := len(minimoDescendants) - 1
	for _, amount := range minimoDescendants[:min(children, last)] {
		m = m.Add(amount)
	}
	if children > last {
		m = m.Add(minimoDescendants[last].Mul(decimal.NewFromInt(int64(children - last))))
	}

	under3 := min(max(childrenUnder3, 0), children)
	return m.Add(minimoUnder3.Mul(decimal.NewFromInt(int64(under3))))
}

func (in Input) validate() error {
	switch {
	case in.Age < 0 || in.Age > maxAge:
		return fmt.Errorf("%w: age %d out of range 0-%d", generic.ErrInvalidInput, in.Age, maxAge)
	case in.Children < 0 || in.Children > maxChildren:
		return fmt.Errorf("%w: children %d out of range 0-%d", generic.ErrInvalidInput, in.Children, maxChildren)
	case in.ChildrenUnder3 < 0 || in.ChildrenUnder3 > in.Children:
		return fmt.Errorf("%w: children under 3 (%d) must be between 0 and children (%d)",
			generic.ErrInvalidInput, in.ChildrenUnder3, in.Children)
	}
	return nil
}

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	tables *generic.Registry
}

func NewCalculator(reg *generic.Registry) *Calculator {
	return &Calculator{tables: reg}
}

// Calculate computes IRPEF on employment income.
func (c *Calculator) Calculate(in Input) (Result, error) {
	year := in.Year
	if year == 0 {
		year = DefaultYear
	}
	if in.Region == "" {
		return Result{}, fmt.Errorf("%w: region is required", generic.ErrInvalidInput)
	}
	if err := in.validate(); err != nil {
		return Result{}, err
	}

	state, err := c.tables.Lookup(TableState, year)
	if err != nil {
		return Result{}, err
	}
	regional, err := c.tables.Lookup(RegionalTableID(in.Region), year)
	if err != nil {
		return Result{}, fmt.Errorf("%w: no scale for region %q: %v", generic.ErrInvalidInput, in.Region, err)
	}

	ss := in.SocialSecurity
	if ss.IsZero() {
		ss = in.GrossSalary.Mul(socialSecurityRate).Round(2)
	}
	base := generic.ClampBase(in.GrossSalary.Sub(ss).Sub(otrosGastos))
	minimo := Minimo(in.Age, in.Children, in.ChildrenUnder3)

	stateTax := generic.Difference(base, minimo, state)
	regionalTax := generic.Difference(base, minimo, regional)
	total := stateTax.Add(regionalTax)

	return Result{
		Year:           year,
		Region:         in.Region,
		GrossSalary:    in.GrossSalary,
		SocialSecurity: ss,
		Base:           base,
		Minimo:         minimo,
		StateTax:       stateTax,
		RegionalTax:    regionalTax,
		TotalTax:       total,
		Net:            in.GrossSalary.Sub(ss).Sub(total),
		Scales:         generic.EvaluateAll(base, state, regional),
	}, nil
}

// SavingsTax applies the base del ahorro scale to capital income.
func (c *Calculator) SavingsTax(gain decimal.Decimal, year int) (generic.Result, error) {
	if year == 0 {
		year = DefaultYear
	}
	table, err := c.tables.Lookup(TableSavings, year)
	if err != nil {
		return generic.Result{}, err
	}
	return generic.Evaluate(generic.ClampBase(gain), table), nil
}
