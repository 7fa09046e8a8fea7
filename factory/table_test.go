package factory_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fiscalkit/bracket-engine/factory"
	"github.com/fiscalkit/bracket-engine/generic"
)

const irpefYAML = `
id: it-irpef
name: IRPEF
jurisdiction: IT
year: 2025
brackets:
  - up_to: 28000
    rate: 0.23
  - up_to: "50000"
    rate: "0.35"
  - up_to: null
    rate: 0.43
    label: top
`

const irpefJSON = `{
  "id": "it-irpef",
  "year": 2025,
  "currency": "eur",
  "brackets": [
    {"up_to": 28000, "rate": 0.23},
    {"up_to": "50000", "rate": "0.35"},
    {"rate": 0.43}
  ]
}`

func TestParseYAML(t *testing.T) {
	table, err := factory.ParseYAML([]byte(irpefYAML))
	require.NoError(t, err)

	assert.Equal(t, generic.TableID("it-irpef"), table.ID)
	assert.Equal(t, generic.Jurisdiction("it"), table.Jurisdiction)
	assert.Equal(t, 2025, table.Year)
	assert.Equal(t, generic.EUR, table.Currency)
	require.Len(t, table.Brackets, 3)
	assert.Equal(t, "50000", table.Brackets[1].UpperLimit.Decimal.String())
	assert.True(t, table.Brackets[2].Unbounded())
	assert.Equal(t, "top", table.Brackets[2].Label)

	result := generic.Evaluate(generic.MustParseDecimal("60000"), table)
	assert.Equal(t, "18440", result.TotalTax.String())
}

func TestParseJSON(t *testing.T) {
	table, err := factory.ParseJSON([]byte(irpefJSON))
	require.NoError(t, err)

	assert.Equal(t, generic.EUR, table.Currency)
	assert.True(t, table.Brackets[2].Unbounded())
	assert.Equal(t, "0.35", table.Brackets[1].Rate.String())
}

func TestParse_RejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "bounded last bracket",
			yaml: "id: x\nbrackets:\n  - up_to: 100\n    rate: 0.1\n",
		},
		{
			name: "descending limits",
			yaml: "id: x\nbrackets:\n  - up_to: 100\n    rate: 0.1\n  - up_to: 50\n    rate: 0.2\n  - rate: 0.3\n",
		},
		{
			name: "rate above one",
			yaml: "id: x\nbrackets:\n  - rate: 1.5\n",
		},
		{
			name: "no brackets",
			yaml: "id: x\nbrackets: []\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.ParseYAML([]byte(tt.yaml))
			assert.True(t, errors.Is(err, generic.ErrInvalidTable), "got %v", err)
		})
	}
}

func TestParse_RejectsNonNumericAmount(t *testing.T) {
	_, err := factory.ParseYAML([]byte("id: x\nbrackets:\n  - rate: lots\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a number")

	_, err = factory.ParseJSON([]byte(`{"id": "x", "brackets": [{"rate": "lots"}]}`))
	require.Error(t, err)
}

func TestToFile_RoundTrip(t *testing.T) {
	// GIVEN: A parsed table
	// WHEN: Rendering it back to YAML and JSON and parsing again
	// THEN: The brackets survive unchanged
	table, err := factory.ParseYAML([]byte(irpefYAML))
	require.NoError(t, err)

	out, err := yaml.Marshal(factory.ToFile(table))
	require.NoError(t, err)
	again, err := factory.ParseYAML(out)
	require.NoError(t, err)
	assert.Equal(t, len(table.Brackets), len(again.Brackets))
	assert.True(t, again.Brackets[2].Unbounded())
	assert.True(t, table.Brackets[0].UpperLimit.Decimal.Equal(again.Brackets[0].UpperLimit.Decimal))

	js, err := json.Marshal(factory.ToFile(table))
	require.NoError(t, err)
	again, err = factory.ParseJSON(js)
	require.NoError(t, err)
	assert.True(t, table.Brackets[1].Rate.Equal(again.Brackets[1].Rate))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(irpefYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{"id":"flat","brackets":[{"rate":0.1}]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.yml"), []byte("id: broken\nbrackets: []\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# tables"), 0o644))

	tables, err := factory.LoadDir(dir)

	require.Len(t, tables, 2)
	assert.Equal(t, generic.TableID("it-irpef"), tables[0].ID)
	assert.Equal(t, generic.TableID("flat"), tables[1].ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrInvalidTable))
	assert.Contains(t, err.Error(), "c.yml")
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := factory.LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestWatcher_ReloadsChangedFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	reg := generic.NewRegistry()
	w := factory.NewWatcher(dir, reg, zap.NewNop())
	w.SetDebounce(20 * time.Millisecond)

	reloaded := make(chan generic.TableID, 4)
	w.OnReload = func(t generic.Table) {
		select {
		case reloaded <- t.ID:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// GIVEN: A running watcher on an empty directory
	// WHEN: A table file appears
	// THEN: The table is registered without a restart
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "irpef.yaml"), []byte(irpefYAML), 0o644)
		_, err := reg.Lookup("it-irpef", 2025)
		return err == nil
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, generic.TableID("it-irpef"), <-reloaded)

	// Invalid edits are ignored and the previous version stays
	require.NoError(t, os.WriteFile(filepath.Join(dir, "irpef.yaml"), []byte("id: it-irpef\nbrackets: []\n"), 0o644))
	time.Sleep(150 * time.Millisecond)
	_, err := reg.Lookup("it-irpef", 2025)
	assert.NoError(t, err)

	cancel()
	require.NoError(t, <-done)
}
