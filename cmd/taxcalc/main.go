/*
main.go - Command-line bracket calculator

PURPOSE:
  Runs the evaluator and the jurisdiction calculators locally, without the
  server. Output is a lipgloss table per result.

COMMANDS:
  taxcalc tables [--jurisdiction it]         List compiled-in and file tables
  taxcalc eval --table it-irpef --base 40000 Evaluate a table
  taxcalc validate FILE...                   Check table files
  taxcalc italy --revenue 60000 --expenses 10000 [--regime forfettario]
  taxcalc spain --region madrid --gross 30000 --social-security 2000
  taxcalc uk income --gross 60000
  taxcalc uk vat --amount 120 --mode remove
  taxcalc loan --principal 10000 --rate 6 --months 12

GLOBAL FLAGS:
  --tables-dir  Extra YAML/JSON tables, registered over the built-in ones

SEE ALSO:
  - commands.go: Subcommands
  - render.go: Table output
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fiscalkit/bracket-engine/factory"
	"github.com/fiscalkit/bracket-engine/generic"
	"github.com/fiscalkit/bracket-engine/italy"
	"github.com/fiscalkit/bracket-engine/spain"
	"github.com/fiscalkit/bracket-engine/uk"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries state shared by the subcommands.
type app struct {
	tablesDir string
	reg       *generic.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "taxcalc",
		Short: "Progressive bracket tax calculator",
		Long: `Evaluates progressive bracket tables and runs the Italian, Spanish
and UK calculators from the command line.

Example:
  taxcalc eval --table it-irpef --base 40000
  taxcalc italy --revenue 50000 --regime forfettario`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadRegistry()
		},
	}
	root.PersistentFlags().StringVar(&a.tablesDir, "tables-dir", "", "Directory of extra table files")

	root.AddCommand(
		a.tablesCmd(),
		a.evalCmd(),
		a.validateCmd(),
		a.italyCmd(),
		a.spainCmd(),
		a.ukCmd(),
		a.loanCmd(),
	)
	return root
}

func (a *app) loadRegistry() error {
	a.reg = generic.NewRegistry()
	italy.Register(a.reg)
	spain.Register(a.reg)
	uk.Register(a.reg)

	if a.tablesDir == "" {
		return nil
	}
	tables, err := factory.LoadDir(a.tablesDir)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if err := a.reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
