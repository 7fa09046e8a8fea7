package loan_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalkit/bracket-engine/generic"
	"github.com/fiscalkit/bracket-engine/loan"
)

func usd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMonthlyPayment(t *testing.T) {
	assert.Equal(t, "860.66", loan.MonthlyPayment(usd("10000"), usd("6"), 12).StringFixed(2))
	assert.Equal(t, "1000.00", loan.MonthlyPayment(usd("10000"), decimal.Zero, 10).StringFixed(2))
}

func TestAmortize_ClosesAtZero(t *testing.T) {
	// GIVEN: 10 000 at 6% over 12 months
	// WHEN: Building the schedule
	// THEN: 12 rows, principal repaid exactly, balance ends at zero
	got, err := loan.Amortize(loan.Input{
		Principal:  usd("10000"),
		AnnualRate: usd("6"),
		TermMonths: 12,
	})
	require.NoError(t, err)

	require.Len(t, got.Schedule, 12)
	assert.Equal(t, 12, got.Months)
	assert.True(t, got.Schedule[11].Balance.IsZero())
	assert.True(t, usd("50").Equal(got.Schedule[0].Interest))
	assert.True(t, usd("327.96").Equal(got.TotalInterest), "interest %s", got.TotalInterest)
	assert.True(t, usd("10327.96").Equal(got.TotalPayment), "total %s", got.TotalPayment)

	principal := decimal.Zero
	for _, p := range got.Schedule {
		principal = principal.Add(p.Principal)
	}
	assert.True(t, usd("10000").Equal(principal))
}

func TestAmortize_ZeroRate(t *testing.T) {
	got, err := loan.Amortize(loan.Input{Principal: usd("1200"), AnnualRate: decimal.Zero, TermMonths: 12})
	require.NoError(t, err)

	assert.True(t, got.TotalInterest.IsZero())
	assert.True(t, usd("1200").Equal(got.TotalPayment))
}

func TestAmortize_ExtraPaymentShortensTerm(t *testing.T) {
	got, err := loan.Amortize(loan.Input{
		Principal:    usd("10000"),
		AnnualRate:   usd("6"),
		TermMonths:   12,
		ExtraMonthly: usd("200"),
	})
	require.NoError(t, err)

	assert.Equal(t, 10, got.Months)
	assert.True(t, usd("269.54").Equal(got.TotalInterest), "interest %s", got.TotalInterest)
	assert.True(t, got.Schedule[len(got.Schedule)-1].Balance.IsZero())
}

func TestAmortize_RejectsInvalidInput(t *testing.T) {
	cases := []loan.Input{
		{Principal: decimal.Zero, AnnualRate: usd("5"), TermMonths: 12},
		{Principal: usd("100"), AnnualRate: usd("-1"), TermMonths: 12},
		{Principal: usd("100"), AnnualRate: usd("101"), TermMonths: 12},
		{Principal: usd("100"), AnnualRate: usd("5"), TermMonths: 0},
		{Principal: usd("100"), AnnualRate: usd("5"), TermMonths: 601},
		{Principal: usd("100"), AnnualRate: usd("5"), TermMonths: 12, ExtraMonthly: usd("-5")},
	}
	for _, in := range cases {
		_, err := loan.Amortize(in)
		assert.True(t, errors.Is(err, generic.ErrInvalidInput), "%+v", in)
	}
}
