/*
Package italy implements Italian income tax and contribution calculators.

PURPOSE:
  Italian self-employed income is taxed under one of two regimes, and the
  calculation differs enough that the input is modeled as a tagged variant
  rather than one struct with conditional fields:

    Ordinario   revenue - expenses - INPS contributions -> IRPEF scaglioni
    Forfettario revenue x coefficiente di redditivita - INPS contributions
                -> imposta sostitutiva (flat 15%, 5% for start-ups)

  Doctors additionally pay ENPAM Quota B on professional income above the
  Quota A threshold.

KEY CONCEPTS:
  - Regime: sealed interface implemented by Ordinario and Forfettario
  - Category: activity group that selects the forfettario coefficient
  - Result: tax, contributions and net income, each with a bracket breakdown

SEE ALSO:
  - tables.go: Yearly scaglioni and rates
  - calculator.go: Calculate
  - enpam.go: Quota B
*/
package italy

import (
	"github.com/shopspring/decimal"

	"github.com/fiscalkit/bracket-engine/generic"
)

const Jurisdiction generic.Jurisdiction = "it"

// =============================================================================
// REGIME - Tagged variant
// =============================================================================

// Regime is one of Ordinario or Forfettario.
type Regime interface {
	regime() string
}

// Ordinario is the ordinary regime: actual expenses are deducted and the
// remainder goes through the IRPEF scale.
type Ordinario struct {
	Year     int
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
	// OtherDeductions are oneri deducibili beyond INPS (pension funds, etc.)
	OtherDeductions decimal.Decimal
}

// Forfettario is the flat-rate regime for revenue up to RevenueLimit.
type Forfettario struct {
	Year     int
	Revenue  decimal.Decimal
	Category Category
	// StartUp applies the reduced 5% rate for the first five years.
	StartUp bool
}

func (Ordinario) regime() string   { return "ordinario" }
func (Forfettario) regime() string { return "forfettario" }

// RegimeName returns "ordinario" or "forfettario".
func RegimeName(r Regime) string { return r.regime() }

// =============================================================================
// CATEGORY - Selects the coefficiente di redditivita
// =============================================================================

type Category string

const (
	CategoryProfessional Category = "professional"  // professioni tecniche, scientifiche, sanitarie
	CategoryCommerce     Category = "commerce"      // commercio all'ingrosso e al dettaglio
	CategoryFood         Category = "food"          // alloggio e ristorazione
	CategoryConstruction Category = "construction"  // costruzioni e attivita immobiliari
	CategoryIntermediary Category = "intermediary"  // intermediari del commercio
	CategoryStreetVendor Category = "street_vendor" // commercio ambulante di alimenti
	CategoryOther        Category = "other"         // altre attivita economiche
)

// =============================================================================
// RESULT
// =============================================================================

type Result struct {
	Regime        string
	Year          int
	Revenue       decimal.Decimal
	GrossIncome   decimal.Decimal // reddito lordo before contributions
	Contributions generic.Result
	TaxableIncome decimal.Decimal // reddito imponibile
	Tax           generic.Result
	Net           decimal.Decimal

	// ExceedsRevenueLimit is set when a forfettario revenue is above the
	// regime's ceiling. The calculation is still returned.
	ExceedsRevenueLimit bool
}

// TotalDue is tax plus contributions.
func (r Result) TotalDue() decimal.Decimal {
	return r.Tax.TotalTax.Add(r.Contributions.TotalTax)
}
