package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalkit/bracket-engine/generic"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEval_RegisteredTable(t *testing.T) {
	out, err := run(t, "eval", "--table", "it-irpef", "--base", "40000")
	require.NoError(t, err)

	assert.Contains(t, out, "it-irpef 2024 (EUR)")
	assert.Contains(t, out, "6440.00")
	assert.Contains(t, out, "10640.00")
	assert.Contains(t, out, "35.00%")
}

func TestEval_Errors(t *testing.T) {
	_, err := run(t, "eval", "--table", "it-irpef", "--base", "forty")
	assert.ErrorContains(t, err, "not a number")

	_, err = run(t, "eval", "--table", "it-irpef", "--base", "-1")
	assert.True(t, errors.Is(err, generic.ErrNegativeBase))

	_, err = run(t, "eval", "--base", "1")
	assert.ErrorContains(t, err, "--table or --file")

	_, err = run(t, "eval", "--table", "nope", "--base", "1")
	assert.True(t, errors.Is(err, generic.ErrTableNotFound))
}

func TestEval_FileAndTablesDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
id: xx-flat
name: Flat
jurisdiction: xx
year: 2024
brackets:
  - up_to: 10000
    rate: 0
  - rate: "0.1"
`), 0o644))

	out, err := run(t, "eval", "--file", path, "--base", "15000")
	require.NoError(t, err)
	assert.Contains(t, out, "500.00")

	out, err = run(t, "--tables-dir", dir, "tables", "--jurisdiction", "XX")
	require.NoError(t, err)
	assert.Contains(t, out, "xx-flat")
	assert.NotContains(t, out, "it-irpef")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte("id: g\nbrackets:\n  - rate: 0.2\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("id: b\nbrackets:\n  - up_to: 10\n    rate: 0.2\n"), 0o644))

	out, err := run(t, "validate", good, bad)

	assert.ErrorContains(t, err, "1 of 2 files invalid")
	assert.Contains(t, out, "ok   "+good)
	assert.Contains(t, out, "FAIL bad.yaml")
}

func TestCalculators(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"italy ordinario", []string{"italy", "--revenue", "60000", "--expenses", "10000"}, []string{"27387.25", "9577.75"}},
		{"italy forfettario", []string{"italy", "--regime", "forfettario", "--revenue", "50000"}, []string{"35507.80"}},
		{"italy compare", []string{"italy", "--compare", "--revenue", "50000", "--expenses", "5000"}, []string{"Italy ordinario", "Italy forfettario"}},
		{"spain", []string{"spain", "--region", "madrid", "--gross", "30000", "--social-security", "2000", "--age", "35"}, []string{"4618.68", "23381.32"}},
		{"uk income", []string{"uk", "income", "--gross", "60000"}, []string{"11432.00", "3210.60"}},
		{"uk vat", []string{"uk", "vat", "--amount", "120", "--mode", "remove"}, []string{"100.00", "20.00"}},
		{"loan", []string{"loan", "--principal", "10000", "--rate", "6", "--months", "12", "--schedule"}, []string{"860.66", "327.96"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestCalculators_RejectUnknownChoices(t *testing.T) {
	_, err := run(t, "italy", "--regime", "flat")
	assert.True(t, errors.Is(err, generic.ErrInvalidInput))

	_, err = run(t, "uk", "vat", "--amount", "10", "--mode", "double")
	assert.True(t, errors.Is(err, generic.ErrInvalidInput))

	_, err = run(t, "loan", "--principal", "10000")
	assert.Error(t, err)
}
