/*
loan.go - Fixed-rate loan amortization

PURPOSE:
  Student loans are repaid in equal monthly installments. This package
  computes the installment, the month-by-month schedule, and the effect of
  paying extra each month.

FORMULA:
  payment = P * r / (1 - (1+r)^-n)     r = annual rate / 12, n = months
  payment = P / n                      when r == 0

  Every row of the schedule rounds interest to cents. The final installment
  absorbs the rounding so the balance closes at exactly zero.

SEE ALSO:
  - api/handlers_calculators.go: POST /api/calculators/loan
*/
package loan

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fiscalkit/bracket-engine/generic"
)

const (
	MaxPrincipal    = 10_000_000
	MaxAnnualRate   = 100 // percent
	MaxTermMonths   = 600
	precision int32 = 16
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

type Input struct {
	Principal decimal.Decimal
	// AnnualRate is a percentage: 6.5 means 6.5% a year.
	AnnualRate decimal.Decimal
	TermMonths int
	// ExtraMonthly is paid on top of the installment and goes to principal.
	ExtraMonthly decimal.Decimal
}

type Payment struct {
	Month     int
	Payment   decimal.Decimal
	Interest  decimal.Decimal
	Principal decimal.Decimal
	Balance   decimal.Decimal
}

type Result struct {
	MonthlyPayment decimal.Decimal
	TotalPayment   decimal.Decimal
	TotalInterest  decimal.Decimal
	Months         int
	Schedule       []Payment
}

func (in Input) validate() error {
	switch {
	case !in.Principal.IsPositive():
		return fmt.Errorf("%w: principal must be positive", generic.ErrInvalidInput)
	case in.Principal.GreaterThan(decimal.NewFromInt(MaxPrincipal)):
		return fmt.Errorf("%w: principal exceeds %d", generic.ErrInvalidInput, MaxPrincipal)
	case in.AnnualRate.IsNegative():
		return fmt.Errorf("%w: rate must not be negative", generic.ErrInvalidInput)
	case in.AnnualRate.GreaterThan(decimal.NewFromInt(MaxAnnualRate)):
		return fmt.Errorf("%w: rate exceeds %d%%", generic.ErrInvalidInput, MaxAnnualRate)
	case in.TermMonths <= 0 || in.TermMonths > MaxTermMonths:
		return fmt.Errorf("%w: term must be between 1 and %d months", generic.ErrInvalidInput, MaxTermMonths)
	case in.ExtraMonthly.IsNegative():
		return fmt.Errorf("%w: extra payment must not be negative", generic.ErrInvalidInput)
	}
	return nil
}

// MonthlyPayment returns the level installment, rounded to cents.
func MonthlyPayment(principal, annualRate decimal.Decimal, months int) decimal.Decimal {
	n := decimal.NewFromInt(int64(months))
	r := annualRate.Div(hundred).Div(twelve)
	if r.IsZero() {
		return principal.DivRound(n, 2)
	}
	f := compound(r, months)
	return principal.Mul(r).Mul(f).DivRound(f.Sub(decimal.NewFromInt(1)), 2)
}

// compound returns (1+r)^n.
func compound(r decimal.Decimal, n int) decimal.Decimal {
	base := decimal.NewFromInt(1).Add(r)
	f := decimal.NewFromInt(1)
	for i := 0; i < n; i++ {
		f = f.Mul(base).Round(precision)
	}
	return f
}

// Amortize builds the full repayment schedule.
func Amortize(in Input) (Result, error) {
	if err := in.validate(); err != nil {
		return Result{}, err
	}

	installment := MonthlyPayment(in.Principal, in.AnnualRate, in.TermMonths)
	r := in.AnnualRate.Div(hundred).Div(twelve)

	result := Result{MonthlyPayment: installment}
	balance := in.Principal

	for month := 1; balance.IsPositive() && month <= in.TermMonths; month++ {
		interest := balance.Mul(r).Round(2)
		pay := installment.Add(in.ExtraMonthly)
		if month == in.TermMonths || pay.GreaterThan(balance.Add(interest)) {
			pay = balance.Add(interest)
		}
		principal := pay.Sub(interest)
		balance = balance.Sub(principal)

		result.Schedule = append(result.Schedule, Payment{
			Month:     month,
			Payment:   pay,
			Interest:  interest,
			Principal: principal,
			Balance:   balance,
		})
		result.TotalPayment = result.TotalPayment.Add(pay)
		result.TotalInterest = result.TotalInterest.Add(interest)
	}

	result.Months = len(result.Schedule)
	return result, nil
}
