package italy

import (
	"github.com/shopspring/decimal"

	"github.com/fiscalkit/bracket-engine/generic"
)

// QuotaAThreshold is the slice of professional income already covered by
// the fixed Quota A contribution. Quota B is due only on the excess.
var QuotaAThreshold = decimal.NewFromInt(5000)

// QuotaB computes the ENPAM Quota B contribution on professional income.
// reduced selects the 2% rate available to doctors already enrolled in
// another compulsory scheme.
func (c *Calculator) QuotaB(income decimal.Decimal, reduced bool) (generic.Result, error) {
	id := TableEnpamQuotaB
	if reduced {
		id = TableEnpamQuotaBRid
	}
	table, err := c.tables.Latest(id)
	if err != nil {
		return generic.Result{}, err
	}
	return generic.Evaluate(generic.ClampBase(income), table), nil
}
