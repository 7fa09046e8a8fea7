package italy

import (
	"github.com/shopspring/decimal"

	"github.com/fiscalkit/bracket-engine/generic"
)

// Table ids registered by Register.
const (
	TableIRPEF            generic.TableID = "it-irpef"
	TableGestioneSeparata generic.TableID = "it-inps-gestione-separata"
	TableSostitutiva      generic.TableID = "it-forfettario-sostitutiva"
	TableSostitutivaStart generic.TableID = "it-forfettario-sostitutiva-startup"
	TableEnpamQuotaB      generic.TableID = "it-enpam-quota-b"
	TableEnpamQuotaBRid   generic.TableID = "it-enpam-quota-b-ridotta"
)

// DefaultYear is used when a request leaves the year unset.
const DefaultYear = 2024

// RevenueLimit is the forfettario revenue ceiling.
var RevenueLimit = decimal.NewFromInt(85000)

// coefficients are the forfettario coefficienti di redditivita.
var coefficients = map[Category]decimal.Decimal{
	CategoryProfessional: decimal.RequireFromString("0.78"),
	CategoryCommerce:     decimal.RequireFromString("0.40"),
	CategoryFood:         decimal.RequireFromString("0.40"),
	CategoryConstruction: decimal.RequireFromString("0.86"),
	CategoryIntermediary: decimal.RequireFromString("0.62"),
	CategoryStreetVendor: decimal.RequireFromString("0.40"),
	CategoryOther:        decimal.RequireFromString("0.67"),
}

// Coefficient returns the coefficiente di redditivita for c.
func Coefficient(c Category) (decimal.Decimal, bool) {
	v, ok := coefficients[c]
	return v, ok
}

// =============================================================================
// IRPEF SCAGLIONI
// =============================================================================

func irpef2023() generic.Table {
	return generic.Table{
		ID:           TableIRPEF,
		Name:         "IRPEF scaglioni",
		Jurisdiction: Jurisdiction,
		Year:         2023,
		Currency:     generic.EUR,
		Brackets: []generic.Bracket{
			generic.UpTo(15000, "0.23"),
			generic.UpTo(28000, "0.25"),
			generic.UpTo(50000, "0.35"),
			generic.Above("0.43"),
		},
	}
}

// 2024 merged the first two scaglioni.
func irpef2024() generic.Table {
	return generic.Table{
		ID:           TableIRPEF,
		Name:         "IRPEF scaglioni",
		Jurisdiction: Jurisdiction,
		Year:         2024,
		Currency:     generic.EUR,
		Brackets: []generic.Bracket{
			generic.UpTo(28000, "0.23"),
			generic.UpTo(50000, "0.35"),
			generic.Above("0.43"),
		},
	}
}

// =============================================================================
// CONTRIBUTIONS
// =============================================================================

// gestioneSeparata is the INPS contribution for professionals without a
// dedicated fund, levied up to the massimale contributivo.
func gestioneSeparata(year int, rate string, massimale int64) generic.Table {
	t := generic.Capped(TableGestioneSeparata, decimal.NewFromInt(massimale), decimal.RequireFromString(rate))
	t.Name = "INPS gestione separata"
	t.Jurisdiction = Jurisdiction
	t.Year = year
	t.Currency = generic.EUR
	return t
}

func sostitutiva(id generic.TableID, rate string) generic.Table {
	t := generic.Flat(id, decimal.RequireFromString(rate))
	t.Name = "Imposta sostitutiva forfettario"
	t.Jurisdiction = Jurisdiction
	t.Year = DefaultYear
	t.Currency = generic.EUR
	return t
}

// enpamQuotaB: nothing up to the Quota A threshold, the full rate up to the
// massimale, 1% above it.
func enpamQuotaB(id generic.TableID, rate string) generic.Table {
	return generic.Table{
		ID:           id,
		Name:         "ENPAM Quota B",
		Jurisdiction: Jurisdiction,
		Year:         DefaultYear,
		Currency:     generic.EUR,
		Brackets: []generic.Bracket{
			{UpperLimit: decimal.NewNullDecimal(QuotaAThreshold), Rate: decimal.Zero, Label: "covered by Quota A"},
			{UpperLimit: decimal.NewNullDecimal(decimal.NewFromInt(119650)), Rate: decimal.RequireFromString(rate), Label: "Quota B"},
			{Rate: decimal.RequireFromString("0.01"), Label: "above massimale"},
		},
	}
}

// Tables returns every compiled-in Italian table.
func Tables() []generic.Table {
	return []generic.Table{
		irpef2023(),
		irpef2024(),
		gestioneSeparata(2023, "0.2607", 113520),
		gestioneSeparata(2024, "0.2607", 119650),
		sostitutiva(TableSostitutiva, "0.15"),
		sostitutiva(TableSostitutivaStart, "0.05"),
		enpamQuotaB(TableEnpamQuotaB, "0.195"),
		enpamQuotaB(TableEnpamQuotaBRid, "0.02"),
	}
}

// Register adds the Italian tables to reg.
func Register(reg *generic.Registry) {
	reg.MustRegister(Tables()...)
}
