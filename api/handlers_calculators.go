package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/fiscalkit/bracket-engine/generic"
	"github.com/fiscalkit/bracket-engine/italy"
	"github.com/fiscalkit/bracket-engine/loan"
	"github.com/fiscalkit/bracket-engine/spain"
	"github.com/fiscalkit/bracket-engine/uk"
)

// =============================================================================
// CALCULATOR HANDLERS
// =============================================================================
//
// Calculator bodies are flat form fields decoded as generic.Fields: a
// missing or malformed amount is zero. Only choices that select a table
// (regime, region, VAT rate) are rejected when unknown.

func (h *Handler) decodeFields(w http.ResponseWriter, r *http.Request) (generic.Fields, bool) {
	var f generic.Fields
	if err := decodeJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}
	if f == nil {
		f = generic.Fields{}
	}
	return f, true
}

func italyRegime(f generic.Fields) (italy.Regime, error) {
	switch strings.ToLower(f.String("regime")) {
	case "", "ordinario":
		return italy.Ordinario{
			Year:            f.Int("year"),
			Revenue:         f.Decimal("revenue"),
			Expenses:        f.Decimal("expenses"),
			OtherDeductions: f.Decimal("other_deductions"),
		}, nil
	case "forfettario":
		category := italy.Category(f.String("category"))
		if category == "" {
			category = italy.CategoryProfessional
		}
		return italy.Forfettario{
			Year:     f.Int("year"),
			Revenue:  f.Decimal("revenue"),
			Category: category,
			StartUp:  f.Bool("start_up"),
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown regime %q", generic.ErrInvalidInput, f.String("regime"))
	}
}

// Italy computes tax and contributions under one regime.
// POST /api/calculators/italy
func (h *Handler) Italy(w http.ResponseWriter, r *http.Request) {
	f, ok := h.decodeFields(w, r)
	if !ok {
		return
	}
	h.cached(w, r, "italy", f, func() (any, error) {
		regime, err := italyRegime(f)
		if err != nil {
			return nil, err
		}
		result, err := h.italy.Calculate(regime)
		if err != nil {
			return nil, err
		}
		return toItalyResponse(result), nil
	})
}

// ItalyCompare computes both regimes for the same activity.
// POST /api/calculators/italy/compare
func (h *Handler) ItalyCompare(w http.ResponseWriter, r *http.Request) {
	f, ok := h.decodeFields(w, r)
	if !ok {
		return
	}
	h.cached(w, r, "italy-compare", f, func() (any, error) {
		category := italy.Category(f.String("category"))
		if category == "" {
			category = italy.CategoryProfessional
		}
		ord, forf, err := h.italy.CompareRegimes(f.Int("year"), f.Decimal("revenue"), f.Decimal("expenses"), category, f.Bool("start_up"))
		if err != nil {
			return nil, err
		}
		resp := ItalyCompareResponse{
			Ordinario:   toItalyResponse(ord),
			Forfettario: toItalyResponse(forf),
			Best:        italy.RegimeName(italy.Ordinario{}),
		}
		if forf.Net.GreaterThan(ord.Net) && !forf.ExceedsRevenueLimit {
			resp.Best = italy.RegimeName(italy.Forfettario{})
		}
		return resp, nil
	})
}

// ItalyQuotaB computes the ENPAM Quota B contribution.
// POST /api/calculators/italy/enpam
func (h *Handler) ItalyQuotaB(w http.ResponseWriter, r *http.Request) {
	f, ok := h.decodeFields(w, r)
	if !ok {
		return
	}
	h.cached(w, r, "italy-enpam", f, func() (any, error) {
		result, err := h.italy.QuotaB(f.Decimal("income"), f.Bool("reduced"))
		if err != nil {
			return nil, err
		}
		return toResultDTO(result), nil
	})
}

// Spain computes IRPF on employment income.
// POST /api/calculators/spain
func (h *Handler) Spain(w http.ResponseWriter, r *http.Request) {
	f, ok := h.decodeFields(w, r)
	if !ok {
		return
	}
	h.cached(w, r, "spain", f, func() (any, error) {
		result, err := h.spain.Calculate(spain.Input{
			Year:           f.Int("year"),
			Region:         spain.Region(strings.ToLower(f.String("region"))),
			GrossSalary:    f.Decimal("gross_salary"),
			SocialSecurity: f.Decimal("social_security"),
			Age:            f.Int("age"),
			Children:       f.Int("children"),
			ChildrenUnder3: f.Int("children_under_3"),
		})
		if err != nil {
			return nil, err
		}
		return toSpainResponse(result), nil
	})
}

// SpainSavings applies the savings scale.
// POST /api/calculators/spain/savings
func (h *Handler) SpainSavings(w http.ResponseWriter, r *http.Request) {
	f, ok := h.decodeFields(w, r)
	if !ok {
		return
	}
	h.cached(w, r, "spain-savings", f, func() (any, error) {
		result, err := h.spain.SavingsTax(f.Decimal("gain"), f.Int("year"))
		if err != nil {
			return nil, err
		}
		return toResultDTO(result), nil
	})
}

// UKIncome computes income tax and employee NI.
// POST /api/calculators/uk/income
func (h *Handler) UKIncome(w http.ResponseWriter, r *http.Request) {
	f, ok := h.decodeFields(w, r)
	if !ok {
		return
	}
	h.cached(w, r, "uk-income", f, func() (any, error) {
		result, err := h.uk.Income(f.Decimal("gross"), f.Int("year"))
		if err != nil {
			return nil, err
		}
		return toUKIncomeResponse(result), nil
	})
}

// UKVAT adds VAT to a net amount or extracts it from a gross amount.
// POST /api/calculators/uk/vat  {"amount": 120, "rate": "standard", "mode": "remove"}
func (h *Handler) UKVAT(w http.ResponseWriter, r *http.Request) {
	f, ok := h.decodeFields(w, r)
	if !ok {
		return
	}
	h.cached(w, r, "uk-vat", f, func() (any, error) {
		rate := uk.VATRate(strings.ToLower(f.String("rate")))
		if rate == "" {
			rate = uk.VATStandard
		}

		var (
			result uk.VATResult
			err    error
		)
		switch strings.ToLower(f.String("mode")) {
		case "", "add":
			result, err = uk.AddVAT(f.Decimal("amount"), rate)
		case "remove":
			result, err = uk.RemoveVAT(f.Decimal("amount"), rate)
		default:
			err = fmt.Errorf("%w: mode must be add or remove", generic.ErrInvalidInput)
		}
		if err != nil {
			return nil, err
		}
		return VATResponse(result), nil
	})
}

// Loan builds an amortization schedule.
// POST /api/calculators/loan
func (h *Handler) Loan(w http.ResponseWriter, r *http.Request) {
	f, ok := h.decodeFields(w, r)
	if !ok {
		return
	}
	h.cached(w, r, "loan", f, func() (any, error) {
		result, err := loan.Amortize(loan.Input{
			Principal:    f.Decimal("principal"),
			AnnualRate:   f.Decimal("annual_rate"),
			TermMonths:   f.Int("term_months"),
			ExtraMonthly: f.Decimal("extra_monthly"),
		})
		if err != nil {
			return nil, err
		}
		return toLoanResponse(result), nil
	})
}
