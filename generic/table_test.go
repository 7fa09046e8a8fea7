package generic_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalkit/bracket-engine/generic"
)

// =============================================================================
// VALIDATION
// =============================================================================

func TestTableValidate_RejectsMalformedTables(t *testing.T) {
	tests := []struct {
		name      string
		table     generic.Table
		wantIndex int
	}{
		{
			name:      "missing id",
			table:     generic.Table{Brackets: []generic.Bracket{generic.Above("0.1")}},
			wantIndex: -1,
		},
		{
			name:      "no brackets",
			table:     generic.Table{ID: "empty"},
			wantIndex: -1,
		},
		{
			name: "non increasing limits",
			table: generic.Table{ID: "flat-limits", Brackets: []generic.Bracket{
				generic.UpTo(1000, "0.1"), generic.UpTo(1000, "0.2"), generic.Above("0.3"),
			}},
			wantIndex: 1,
		},
		{
			name: "decreasing limits",
			table: generic.Table{ID: "down", Brackets: []generic.Bracket{
				generic.UpTo(5000, "0.1"), generic.UpTo(1000, "0.2"), generic.Above("0.3"),
			}},
			wantIndex: 1,
		},
		{
			name: "zero first limit",
			table: generic.Table{ID: "zero", Brackets: []generic.Bracket{
				generic.UpTo(0, "0.1"), generic.Above("0.3"),
			}},
			wantIndex: 0,
		},
		{
			name: "bounded last bracket",
			table: generic.Table{ID: "bounded", Brackets: []generic.Bracket{
				generic.UpTo(1000, "0.1"), generic.UpTo(2000, "0.2"),
			}},
			wantIndex: 1,
		},
		{
			name: "unbounded in the middle",
			table: generic.Table{ID: "middle", Brackets: []generic.Bracket{
				generic.Above("0.1"), generic.Above("0.2"),
			}},
			wantIndex: 0,
		},
		{
			name: "rate above one",
			table: generic.Table{ID: "rate", Brackets: []generic.Bracket{
				generic.Above("1.5"),
			}},
			wantIndex: 0,
		},
		{
			name: "negative rate",
			table: generic.Table{ID: "neg", Brackets: []generic.Bracket{
				generic.UpTo(1000, "-0.1"), generic.Above("0.2"),
			}},
			wantIndex: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, generic.ErrInvalidTable))
			assert.True(t, generic.IsClientError(err))

			var te *generic.TableError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.wantIndex, te.Index)
		})
	}
}

func TestTableValidate_AcceptsWellFormedTables(t *testing.T) {
	tables := []generic.Table{
		generic.Flat("flat", decimal.RequireFromString("0.05")),
		generic.Threshold("threshold", decimal.NewFromInt(100), decimal.RequireFromString("0.2")),
		{ID: "zero-rate", Brackets: []generic.Bracket{generic.UpTo(12570, "0"), generic.Above("0.2")}},
		{ID: "fractional", Brackets: []generic.Bracket{generic.UpToDecimal("13362.22", "0.085"), generic.Above("0.205")}},
	}
	for _, table := range tables {
		assert.NoError(t, table.Validate(), string(table.ID))
	}
}

func TestMustValidate_Panics(t *testing.T) {
	assert.Panics(t, func() {
		generic.Table{ID: "bad"}.MustValidate()
	})
}

func TestTopLimit(t *testing.T) {
	assert.True(t, irpefTable().TopLimit().Equal(decimal.NewFromInt(50000)))
	assert.True(t, generic.Flat("f", decimal.Zero).TopLimit().IsZero())
}
