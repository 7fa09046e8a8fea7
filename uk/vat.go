// Package uk implements UK VAT and income tax calculators.
package uk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fiscalkit/bracket-engine/generic"
)

const Jurisdiction generic.Jurisdiction = "uk"

type VATRate string

const (
	VATStandard VATRate = "standard"
	VATReduced  VATRate = "reduced"
	VATZero     VATRate = "zero"
)

var vatRates = map[VATRate]decimal.Decimal{
	VATStandard: decimal.RequireFromString("0.20"),
	VATReduced:  decimal.RequireFromString("0.05"),
	VATZero:     decimal.Zero,
}

// VATResult always carries both sides of the price.
type VATResult struct {
	Rate  decimal.Decimal
	Net   decimal.Decimal
	VAT   decimal.Decimal
	Gross decimal.Decimal
}

func vatTable(rate VATRate) (generic.Table, error) {
	r, ok := vatRates[rate]
	if !ok {
		return generic.Table{}, fmt.Errorf("%w: unknown VAT rate %q", generic.ErrInvalidInput, rate)
	}
	t := generic.Flat(generic.TableID("uk-vat-"+string(rate)), r)
	t.Jurisdiction = Jurisdiction
	t.Currency = generic.GBP
	return t, nil
}

// AddVAT prices a net amount.
func AddVAT(net decimal.Decimal, rate VATRate) (VATResult, error) {
	table, err := vatTable(rate)
	if err != nil {
		return VATResult{}, err
	}
	net = generic.ClampBase(net)
	vat := generic.Evaluate(net, table).TotalTax.Round(2)
	return VATResult{
		Rate:  table.Brackets[0].Rate,
		Net:   net,
		VAT:   vat,
		Gross: net.Add(vat),
	}, nil
}

// RemoveVAT splits a VAT-inclusive amount. Net is rounded to pence and VAT
// is the remainder, so Net + VAT == Gross exactly.
func RemoveVAT(gross decimal.Decimal, rate VATRate) (VATResult, error) {
	table, err := vatTable(rate)
	if err != nil {
		return VATResult{}, err
	}
	gross = generic.ClampBase(gross)
	r := table.Brackets[0].Rate
	net := gross.Div(decimal.NewFromInt(1).Add(r)).Round(2)
	return VATResult{
		Rate:  r,
		Net:   net,
		VAT:   gross.Sub(net),
		Gross: gross,
	}, nil
}
