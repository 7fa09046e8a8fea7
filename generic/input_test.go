package generic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiscalkit/bracket-engine/generic"
)

func TestFields_CoercesInvalidToZero(t *testing.T) {
	f := generic.Fields{
		"income":   "45000.50",
		"european": "1.234,56",
		"float":    1500.25,
		"int":      12,
		"empty":    "",
		"garbage":  "abc",
		"flag":     "true",
		"realflag": true,
		"region":   "  madrid ",
	}

	assert.Equal(t, "45000.5", f.Decimal("income").String())
	assert.Equal(t, "1234.56", f.Decimal("european").String())
	assert.Equal(t, "1500.25", f.Decimal("float").String())
	assert.Equal(t, "12", f.Decimal("int").String())
	assert.True(t, f.Decimal("empty").IsZero())
	assert.True(t, f.Decimal("garbage").IsZero())
	assert.True(t, f.Decimal("missing").IsZero())
	assert.Equal(t, 45000, f.Int("income"))

	assert.True(t, f.Bool("flag"))
	assert.True(t, f.Bool("realflag"))
	assert.False(t, f.Bool("garbage"))
	assert.False(t, f.Bool("missing"))

	assert.Equal(t, "madrid", f.String("region"))
	assert.Equal(t, "12", f.String("int"))
	assert.Equal(t, "", f.String("missing"))
}

func TestFields_DecimalSeparators(t *testing.T) {
	cases := map[string]string{
		"85,000":       "85000",
		"1,234,567":    "1234567",
		"1,234.56":     "1234.56",
		"1.234,56":     "1234.56",
		"1.234.567,8":  "1234567.8",
		"12,5":         "12.5",
		"0,25":         "0.25",
		"1,5000":       "1.5",
		" 30,000.00 ":  "30000",
		"1,2,3":        "0",
		"1,234,56.78x": "0",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			f := generic.Fields{"amount": in}
			assert.Equal(t, want, f.Decimal("amount").String())
		})
	}
}
