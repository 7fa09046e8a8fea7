package uk_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalkit/bracket-engine/generic"
	"github.com/fiscalkit/bracket-engine/uk"
)

func gbp(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newCalculator() *uk.Calculator {
	reg := generic.NewRegistry()
	uk.Register(reg)
	return uk.NewCalculator(reg)
}

func TestAddVAT(t *testing.T) {
	got, err := uk.AddVAT(gbp("100"), uk.VATStandard)
	require.NoError(t, err)
	assert.True(t, gbp("20").Equal(got.VAT))
	assert.True(t, gbp("120").Equal(got.Gross))

	got, err = uk.AddVAT(gbp("100"), uk.VATZero)
	require.NoError(t, err)
	assert.True(t, got.VAT.IsZero())
	assert.True(t, gbp("100").Equal(got.Gross))
}

func TestRemoveVAT(t *testing.T) {
	got, err := uk.RemoveVAT(gbp("120"), uk.VATStandard)
	require.NoError(t, err)
	assert.True(t, gbp("100").Equal(got.Net))
	assert.True(t, gbp("20").Equal(got.VAT))

	// GIVEN: an amount that does not divide evenly
	// WHEN: Removing reduced-rate VAT
	// THEN: net is rounded to pence and the parts still add up to gross
	got, err = uk.RemoveVAT(gbp("10"), uk.VATReduced)
	require.NoError(t, err)
	assert.True(t, gbp("9.52").Equal(got.Net), "net %s", got.Net)
	assert.True(t, gbp("0.48").Equal(got.VAT), "vat %s", got.VAT)
	assert.True(t, got.Net.Add(got.VAT).Equal(got.Gross))
}

func TestVAT_UnknownRate(t *testing.T) {
	_, err := uk.AddVAT(gbp("100"), "luxury")
	assert.True(t, errors.Is(err, generic.ErrInvalidInput))
}

func TestPersonalAllowance_Taper(t *testing.T) {
	assert.Equal(t, "12570", uk.PersonalAllowance(gbp("50000")).String())
	assert.Equal(t, "12570", uk.PersonalAllowance(gbp("100000")).String())
	assert.Equal(t, "7570", uk.PersonalAllowance(gbp("110000")).String())
	assert.Equal(t, "12569", uk.PersonalAllowance(gbp("100003")).String())
	assert.Equal(t, "0", uk.PersonalAllowance(gbp("125140")).String())
	assert.Equal(t, "0", uk.PersonalAllowance(gbp("200000")).String())
}

func TestIncome_HigherRate(t *testing.T) {
	// GIVEN: a 60 000 salary
	// WHEN: Calculating income tax and NI
	// THEN: 37 700 at 20%, 9 730 at 40%; NI 8% to 50 270, 2% above
	calc := newCalculator()

	got, err := calc.Income(gbp("60000"), 0)
	require.NoError(t, err)

	assert.Equal(t, uk.DefaultYear, got.Year)
	assert.True(t, gbp("47430").Equal(got.TaxableIncome))
	assert.True(t, gbp("11432").Equal(got.IncomeTax.TotalTax), "tax %s", got.IncomeTax.TotalTax)
	assert.True(t, gbp("3210.6").Equal(got.NationalInsurance.TotalTax), "ni %s", got.NationalInsurance.TotalTax)
	assert.True(t, gbp("45357.4").Equal(got.Net), "net %s", got.Net)
}

func TestIncome_AllowanceTaper(t *testing.T) {
	calc := newCalculator()

	got, err := calc.Income(gbp("110000"), 0)
	require.NoError(t, err)
	assert.True(t, gbp("33432").Equal(got.IncomeTax.TotalTax), "tax %s", got.IncomeTax.TotalTax)

	got, err = calc.Income(gbp("150000"), 0)
	require.NoError(t, err)
	assert.True(t, got.PersonalAllowance.IsZero())
	assert.True(t, gbp("53703").Equal(got.IncomeTax.TotalTax), "tax %s", got.IncomeTax.TotalTax)
	assert.Equal(t, "additional", got.IncomeTax.Breakdown[2].Label)
}

func TestIncome_UnknownYear(t *testing.T) {
	calc := newCalculator()

	_, err := calc.Income(gbp("30000"), 1999)
	assert.True(t, errors.Is(err, generic.ErrTableNotFound))
}
