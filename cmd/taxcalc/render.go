package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fiscalkit/bracket-engine/generic"
	"github.com/fiscalkit/bracket-engine/italy"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2a3850"))
)

// newTable returns a bordered table. Columns listed in numeric are right
// aligned.
func newTable(headers []string, numeric ...int) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case lo.Contains(numeric, col):
				return numberStyle
			default:
				return cellStyle
			}
		})
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// renderResult prints the bracket breakdown and totals of one evaluation.
func renderResult(w io.Writer, title string, r generic.Result) {
	t := newTable([]string{"Bracket", "From", "To", "Rate", "Taxed", "Tax"}, 1, 2, 3, 4, 5)
	for _, row := range r.Breakdown {
		to := "∞"
		if row.To.Valid {
			to = money(row.To.Decimal)
		}
		t.Row(row.Label, money(row.From), to, percent(row.Rate), money(row.BaseInBracket), money(row.AmountInBracket))
	}

	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, t.String())
	renderSummary(w, "", [][2]string{
		{"Base", money(r.Base)},
		{"Total tax", money(r.TotalTax)},
		{"Effective rate", percent(r.EffectiveRate())},
		{"Marginal rate", percent(r.MarginalRate())},
		{"Net", money(r.Net())},
	})
}

// renderSummary prints label/value pairs.
func renderSummary(w io.Writer, title string, rows [][2]string) {
	t := newTable(nil, 1)
	for _, row := range rows {
		t.Row(row[0], row[1])
	}
	if title != "" {
		fmt.Fprintln(w, titleStyle.Render(title))
	}
	fmt.Fprintln(w, t.String())
}

func renderTables(w io.Writer, tables []generic.Table, years func(generic.TableID) []int) {
	t := newTable([]string{"ID", "Name", "Jurisdiction", "Years", "Brackets", "Top rate"}, 4, 5)
	for _, tbl := range tables {
		top := tbl.Brackets[len(tbl.Brackets)-1].Rate
		ys := lo.Map(years(tbl.ID), func(y int, _ int) string { return strconv.Itoa(y) })
		t.Row(string(tbl.ID), tbl.Name, string(tbl.Jurisdiction), strings.Join(ys, ", "),
			strconv.Itoa(len(tbl.Brackets)), percent(top))
	}
	fmt.Fprintln(w, t.String())
}

func renderItaly(w io.Writer, r italy.Result) {
	renderResult(w, "Contributions", r.Contributions)
	renderResult(w, "Tax", r.Tax)

	rows := [][2]string{
		{"Revenue", money(r.Revenue)},
		{"Gross income", money(r.GrossIncome)},
		{"Taxable income", money(r.TaxableIncome)},
		{"Total due", money(r.TotalDue())},
		{"Net", money(r.Net)},
	}
	if r.ExceedsRevenueLimit {
		rows = append(rows, [2]string{"Warning", "revenue above the forfettario limit"})
	}
	renderSummary(w, fmt.Sprintf("Italy %s %d", r.Regime, r.Year), rows)
}
