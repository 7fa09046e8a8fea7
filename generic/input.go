package generic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FIELDS - Raw form input keyed by field id
// =============================================================================

// Fields is the raw field-id -> value mapping a form produces. Accessors
// coerce invalid or missing values to the zero value instead of failing:
// an empty amount field means 0, not an error.
type Fields map[string]any

func (f Fields) Decimal(key string) decimal.Decimal {
	switch v := f[key].(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		d, err := decimal.NewFromString(normalizeSeparators(strings.TrimSpace(v)))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func (f Fields) Int(key string) int {
	return int(f.Decimal(key).IntPart())
}

func (f Fields) Bool(key string) bool {
	switch v := f[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}

// normalizeSeparators rewrites "1.234,56", "12,5", "85,000" and
// "1,234.56" to plain "1234.56" form. A comma is the decimal separator when
// it follows the last '.', or when there is no '.' and it is not followed by
// exactly three digits. Any other comma groups thousands.
func normalizeSeparators(s string) string {
	comma := strings.LastIndexByte(s, ',')
	if comma < 0 {
		return s
	}
	dot := strings.LastIndexByte(s, '.')
	decimalComma := comma > dot
	if dot < 0 && isDigits(s[comma+1:]) && len(s)-comma-1 == 3 {
		decimalComma = false
	}
	if !decimalComma {
		return strings.ReplaceAll(s, ",", "")
	}
	s = strings.ReplaceAll(s, ".", "")
	return strings.Replace(s, ",", ".", 1)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return fmt.Sprint(v)
	}
}
