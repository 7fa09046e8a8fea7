package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fiscalkit/bracket-engine/factory"
	"github.com/fiscalkit/bracket-engine/generic"
	"github.com/fiscalkit/bracket-engine/italy"
	"github.com/fiscalkit/bracket-engine/loan"
	"github.com/fiscalkit/bracket-engine/spain"
	"github.com/fiscalkit/bracket-engine/uk"
)

// parseAmount parses a decimal flag. Unlike the HTTP API, the CLI rejects
// malformed numbers instead of reading them as zero.
func parseAmount(flag, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(value, "_", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %q is not a number", flag, value)
	}
	return d, nil
}

// =============================================================================
// TABLES
// =============================================================================

func (a *app) tablesCmd() *cobra.Command {
	var jurisdiction string
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List registered tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables := a.reg.List()
			if jurisdiction != "" {
				tables = a.reg.ListByJurisdiction(generic.Jurisdiction(strings.ToLower(jurisdiction)))
			}
			renderTables(cmd.OutOrStdout(), tables, a.reg.Years)
			return nil
		},
	}
	cmd.Flags().StringVarP(&jurisdiction, "jurisdiction", "j", "", "Only tables of this jurisdiction (it, es, uk)")
	return cmd
}

func (a *app) evalCmd() *cobra.Command {
	var (
		id   string
		year int
		base string
		file string
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a bracket table",
		Long: `Evaluates a registered table, or a table file given with --file.

Example:
  taxcalc eval --table it-irpef --year 2023 --base 40000
  taxcalc eval --file ./tables/custom.yaml --base 40000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := parseAmount("base", base)
			if err != nil {
				return err
			}
			if amount.IsNegative() {
				return fmt.Errorf("%w: %s", generic.ErrNegativeBase, amount)
			}

			var t generic.Table
			switch {
			case file != "":
				t, err = factory.LoadFile(file)
			case id != "":
				t, err = a.reg.Lookup(generic.TableID(id), year)
			default:
				err = errors.New("--table or --file is required")
			}
			if err != nil {
				return err
			}

			title := fmt.Sprintf("%s %d (%s)", t.ID, t.Year, t.Currency)
			renderResult(cmd.OutOrStdout(), title, generic.Evaluate(amount, t))
			return nil
		},
	}
	cmd.Flags().StringVarP(&id, "table", "t", "", "Table id")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Table year (default: latest)")
	cmd.Flags().StringVarP(&base, "base", "b", "0", "Taxable base")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Table file (.yaml, .yml, .json)")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate table files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, path := range args {
				t, err := factory.LoadFile(path)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s\n", err)
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s: %s %d, %d brackets\n", path, t.ID, t.Year, len(t.Brackets))
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of %d files invalid", len(errs), len(args))
			}
			return nil
		},
	}
}

// =============================================================================
// CALCULATORS
// =============================================================================

func (a *app) italyCmd() *cobra.Command {
	var (
		regime, category              string
		revenue, expenses, deductions string
		year                          int
		startUp, compare              bool
	)
	cmd := &cobra.Command{
		Use:   "italy",
		Short: "Italian self-employed tax (ordinario or forfettario)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rev, err := parseAmount("revenue", revenue)
			if err != nil {
				return err
			}
			exp, err := parseAmount("expenses", expenses)
			if err != nil {
				return err
			}
			ded, err := parseAmount("deductions", deductions)
			if err != nil {
				return err
			}
			calc := italy.NewCalculator(a.reg)
			out := cmd.OutOrStdout()

			if compare {
				ord, forf, err := calc.CompareRegimes(year, rev, exp, italy.Category(category), startUp)
				if err != nil {
					return err
				}
				renderItaly(out, ord)
				renderItaly(out, forf)
				return nil
			}

			var r italy.Regime
			switch strings.ToLower(regime) {
			case "ordinario":
				r = italy.Ordinario{Year: year, Revenue: rev, Expenses: exp, OtherDeductions: ded}
			case "forfettario":
				r = italy.Forfettario{Year: year, Revenue: rev, Category: italy.Category(category), StartUp: startUp}
			default:
				return fmt.Errorf("%w: unknown regime %q", generic.ErrInvalidInput, regime)
			}
			result, err := calc.Calculate(r)
			if err != nil {
				return err
			}
			renderItaly(out, result)
			return nil
		},
	}
	cmd.Flags().StringVar(&regime, "regime", "ordinario", "ordinario or forfettario")
	cmd.Flags().StringVar(&category, "category", string(italy.CategoryProfessional), "Forfettario activity category")
	cmd.Flags().StringVar(&revenue, "revenue", "0", "Annual revenue")
	cmd.Flags().StringVar(&expenses, "expenses", "0", "Deductible expenses (ordinario)")
	cmd.Flags().StringVar(&deductions, "deductions", "0", "Other deductions from income (ordinario)")
	cmd.Flags().IntVar(&year, "year", 0, "Tax year (default: latest)")
	cmd.Flags().BoolVar(&startUp, "start-up", false, "Forfettario start-up rate")
	cmd.Flags().BoolVar(&compare, "compare", false, "Show both regimes")
	return cmd
}

func (a *app) spainCmd() *cobra.Command {
	var (
		region, gross, social            string
		year, age, children, childrenLt3 int
	)
	cmd := &cobra.Command{
		Use:   "spain",
		Short: "Spanish IRPF on employment income",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := parseAmount("gross", gross)
			if err != nil {
				return err
			}
			ss, err := parseAmount("social-security", social)
			if err != nil {
				return err
			}
			result, err := spain.NewCalculator(a.reg).Calculate(spain.Input{
				Year:           year,
				Region:         spain.Region(strings.ToLower(region)),
				GrossSalary:    g,
				SocialSecurity: ss,
				Age:            age,
				Children:       children,
				ChildrenUnder3: childrenLt3,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, part := range result.Scales.Parts {
				renderResult(out, string(part.TableID), part)
			}
			renderSummary(out, fmt.Sprintf("IRPF %d, %s", result.Year, result.Region), [][2]string{
				{"Gross salary", money(result.GrossSalary)},
				{"Social security", money(result.SocialSecurity)},
				{"Base", money(result.Base)},
				{"Minimo personal y familiar", money(result.Minimo)},
				{"State cuota", money(result.StateTax)},
				{"Regional cuota", money(result.RegionalTax)},
				{"Total tax", money(result.TotalTax)},
				{"Net", money(result.Net)},
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", string(spain.RegionMadrid), "Autonomous community")
	cmd.Flags().StringVar(&gross, "gross", "0", "Gross salary")
	cmd.Flags().StringVar(&social, "social-security", "0", "Employee social security paid")
	cmd.Flags().IntVar(&year, "year", 0, "Tax year (default: latest)")
	cmd.Flags().IntVar(&age, "age", 0, "Taxpayer age")
	cmd.Flags().IntVar(&children, "children", 0, "Dependent children")
	cmd.Flags().IntVar(&childrenLt3, "children-under-3", 0, "Of which under three")
	return cmd
}

func (a *app) ukCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uk",
		Short: "UK income tax, National Insurance and VAT",
	}

	var (
		gross string
		year  int
	)
	income := &cobra.Command{
		Use:   "income",
		Short: "Income tax and employee NI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := parseAmount("gross", gross)
			if err != nil {
				return err
			}
			result, err := uk.NewCalculator(a.reg).Income(g, year)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			renderResult(out, "Income tax", result.IncomeTax)
			renderResult(out, "National Insurance class 1", result.NationalInsurance)
			renderSummary(out, fmt.Sprintf("Tax year %d", result.Year), [][2]string{
				{"Gross", money(result.Gross)},
				{"Personal allowance", money(result.PersonalAllowance)},
				{"Taxable income", money(result.TaxableIncome)},
				{"Net", money(result.Net)},
			})
			return nil
		},
	}
	income.Flags().StringVar(&gross, "gross", "0", "Gross annual income")
	income.Flags().IntVar(&year, "year", 0, "Tax year (default: latest)")

	var amount, rate, mode string
	vat := &cobra.Command{
		Use:   "vat",
		Short: "Add VAT to a net amount or remove it from a gross one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := parseAmount("amount", amount)
			if err != nil {
				return err
			}
			var result uk.VATResult
			switch mode {
			case "add":
				result, err = uk.AddVAT(amt, uk.VATRate(rate))
			case "remove":
				result, err = uk.RemoveVAT(amt, uk.VATRate(rate))
			default:
				err = fmt.Errorf("%w: --mode must be add or remove", generic.ErrInvalidInput)
			}
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), "VAT "+rate, [][2]string{
				{"Rate", percent(result.Rate)},
				{"Net", money(result.Net)},
				{"VAT", money(result.VAT)},
				{"Gross", money(result.Gross)},
			})
			return nil
		},
	}
	vat.Flags().StringVar(&amount, "amount", "0", "Amount")
	vat.Flags().StringVar(&rate, "rate", string(uk.VATStandard), "standard, reduced or zero")
	vat.Flags().StringVar(&mode, "mode", "add", "add or remove")

	cmd.AddCommand(income, vat)
	return cmd
}

func (a *app) loanCmd() *cobra.Command {
	var (
		principal, rate, extra string
		months                 int
		schedule               bool
	)
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Fixed-rate loan amortization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := parseAmount("principal", principal)
			if err != nil {
				return err
			}
			r, err := parseAmount("rate", rate)
			if err != nil {
				return err
			}
			x, err := parseAmount("extra", extra)
			if err != nil {
				return err
			}
			result, err := loan.Amortize(loan.Input{Principal: p, AnnualRate: r, TermMonths: months, ExtraMonthly: x})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if schedule {
				t := newTable([]string{"Month", "Payment", "Interest", "Principal", "Balance"}, 0, 1, 2, 3, 4)
				for _, pm := range result.Schedule {
					t.Row(strconv.Itoa(pm.Month), money(pm.Payment), money(pm.Interest), money(pm.Principal), money(pm.Balance))
				}
				fmt.Fprintln(out, t.String())
			}
			renderSummary(out, "Loan", [][2]string{
				{"Monthly payment", money(result.MonthlyPayment)},
				{"Months", strconv.Itoa(result.Months)},
				{"Total interest", money(result.TotalInterest)},
				{"Total paid", money(result.TotalPayment)},
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&principal, "principal", "0", "Amount borrowed")
	cmd.Flags().StringVar(&rate, "rate", "0", "Annual interest rate in percent")
	cmd.Flags().StringVar(&extra, "extra", "0", "Extra principal paid each month")
	cmd.Flags().IntVar(&months, "months", 0, "Term in months")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "Print the full schedule")
	return cmd
}
