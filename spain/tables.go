/*
Package spain implements the Spanish IRPF calculator.

PURPOSE:
  Spanish income tax is two independent progressive scales applied to the
  same base liquidable: the state scale and the scale of the taxpayer's
  autonomous community. Each scale is applied twice, once to the base and
  once to the minimo personal y familiar, and the difference is the cuota.

  A separate scale applies to the base del ahorro (interest, dividends,
  capital gains).

SEE ALSO:
  - calculator.go: Calculate, SavingsTax
  - generic/bracket.go: EvaluateAll, Difference
*/
package spain

import (
	"github.com/fiscalkit/bracket-engine/generic"
)

const Jurisdiction generic.Jurisdiction = "es"

const DefaultYear = 2024

type Region string

const (
	RegionMadrid    Region = "madrid"
	RegionCatalonia Region = "cataluna"
	RegionAndalusia Region = "andalucia"
)

const (
	TableState   generic.TableID = "es-irpf-estatal"
	TableSavings generic.TableID = "es-irpf-ahorro"
)

// RegionalTableID names the autonomous scale for r.
func RegionalTableID(r Region) generic.TableID {
	return generic.TableID("es-irpf-" + string(r))
}

// Regions lists the regions with a compiled-in scale.
func Regions() []Region {
	return []Region{RegionAndalusia, RegionCatalonia, RegionMadrid}
}

func table(id generic.TableID, name string, brackets ...generic.Bracket) generic.Table {
	return generic.Table{
		ID:           id,
		Name:         name,
		Jurisdiction: Jurisdiction,
		Year:         DefaultYear,
		Currency:     generic.EUR,
		Brackets:     brackets,
	}
}

// Tables returns every compiled-in Spanish table for DefaultYear.
func Tables() []generic.Table {
	return []generic.Table{
		table(TableState, "Escala estatal",
			generic.UpTo(12450, "0.095"),
			generic.UpTo(20200, "0.12"),
			generic.UpTo(35200, "0.15"),
			generic.UpTo(60000, "0.185"),
			generic.UpTo(300000, "0.225"),
			generic.Above("0.245"),
		),
		table(RegionalTableID(RegionMadrid), "Escala autonomica Madrid",
			generic.UpToDecimal("13362.22", "0.085"),
			generic.UpToDecimal("19004.63", "0.107"),
			generic.UpToDecimal("35425.68", "0.128"),
			generic.UpToDecimal("57320.40", "0.174"),
			generic.Above("0.205"),
		),
		table(RegionalTableID(RegionCatalonia), "Escala autonomica Cataluna",
			generic.UpTo(12450, "0.105"),
			generic.UpToDecimal("17707.20", "0.12"),
			generic.UpTo(21000, "0.14"),
			generic.UpToDecimal("33007.20", "0.15"),
			generic.UpToDecimal("53407.20", "0.188"),
			generic.UpTo(90000, "0.215"),
			generic.UpTo(120000, "0.235"),
			generic.UpTo(175000, "0.245"),
			generic.Above("0.255"),
		),
		table(RegionalTableID(RegionAndalusia), "Escala autonomica Andalucia",
			generic.UpTo(13000, "0.095"),
			generic.UpTo(21100, "0.12"),
			generic.UpTo(35200, "0.15"),
			generic.UpTo(60000, "0.185"),
			generic.Above("0.225"),
		),
		table(TableSavings, "Escala del ahorro",
			generic.UpTo(6000, "0.19"),
			generic.UpTo(50000, "0.21"),
			generic.UpTo(200000, "0.23"),
			generic.UpTo(300000, "0.27"),
			generic.Above("0.28"),
		),
	}
}

// Register adds the Spanish tables to reg.
func Register(reg *generic.Registry) {
	reg.MustRegister(Tables()...)
}
