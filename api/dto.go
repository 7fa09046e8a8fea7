/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - Rounding money to cents for display only
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Calculator response wrappers

MONEY:
  Amounts are JSON strings rounded to cents ("10640.5"), never floats. Requests accept
  numbers or strings; calculator requests are decoded as generic.Fields so
  empty or malformed amounts count as zero.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/table.go: TableFile type
*/
package api

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fiscalkit/bracket-engine/factory"
	"github.com/fiscalkit/bracket-engine/generic"
	"github.com/fiscalkit/bracket-engine/italy"
	"github.com/fiscalkit/bracket-engine/loan"
	"github.com/fiscalkit/bracket-engine/spain"
	"github.com/fiscalkit/bracket-engine/uk"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// TABLES
// =============================================================================

// TableDTO is a table definition plus the years registered under its id.
type TableDTO struct {
	factory.TableFile
	Years []int `json:"years,omitempty"`
}

// =============================================================================
// EVALUATION
// =============================================================================

// EvaluateRequest evaluates either a registered table (TableID, Year) or
// inline Brackets.
type EvaluateRequest struct {
	TableID  string                `json:"table_id,omitempty"`
	Year     int                   `json:"year,omitempty"`
	Base     any                   `json:"base"`
	Brackets []factory.BracketFile `json:"brackets,omitempty"`
	Currency string                `json:"currency,omitempty"`
}

func (r EvaluateRequest) base() decimal.Decimal {
	return generic.Fields{"base": r.Base}.Decimal("base")
}

type RowDTO struct {
	Label  string           `json:"label"`
	From   decimal.Decimal  `json:"from"`
	To     *decimal.Decimal `json:"to"`
	Base   decimal.Decimal  `json:"base"`
	Rate   decimal.Decimal  `json:"rate"`
	Amount decimal.Decimal  `json:"amount"`
}

type ResultDTO struct {
	TableID       string          `json:"table_id"`
	Year          int             `json:"year,omitempty"`
	Currency      string          `json:"currency"`
	Base          decimal.Decimal `json:"base"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
	MarginalRate  decimal.Decimal `json:"marginal_rate"`
	Net           decimal.Decimal `json:"net"`
	Breakdown     []RowDTO        `json:"breakdown"`
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func toResultDTO(r generic.Result) ResultDTO {
	rounded := r.Rounded()
	return ResultDTO{
		TableID:       string(r.TableID),
		Year:          r.Year,
		Currency:      string(r.Currency),
		Base:          rounded.Base,
		TotalTax:      rounded.TotalTax,
		EffectiveRate: r.EffectiveRate().Round(4),
		MarginalRate:  r.MarginalRate(),
		Net:           money(r.Net()),
		Breakdown: lo.Map(rounded.Breakdown, func(row generic.Row, _ int) RowDTO {
			dto := RowDTO{
				Label:  row.Label,
				From:   row.From,
				Base:   row.BaseInBracket,
				Rate:   row.Rate,
				Amount: row.AmountInBracket,
			}
			if row.To.Valid {
				to := row.To.Decimal
				dto.To = &to
			}
			return dto
		}),
	}
}

// =============================================================================
// CALCULATIONS
// =============================================================================

// SaveCalculationRequest evaluates a registered table and stores the result.
// The idempotency key may also be sent as the Idempotency-Key header.
type SaveCalculationRequest struct {
	TableID        string         `json:"table_id"`
	Year           int            `json:"year,omitempty"`
	Base           any            `json:"base"`
	Note           string         `json:"note,omitempty"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	Input          map[string]any `json:"input,omitempty"`
}

type CalculationDTO struct {
	ID             string         `json:"id"`
	Kind           string         `json:"kind"`
	TableID        string         `json:"table_id,omitempty"`
	Year           int            `json:"year"`
	Input          map[string]any `json:"input,omitempty"`
	Result         ResultDTO      `json:"result"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func toCalculationDTO(c generic.Calculation) CalculationDTO {
	return CalculationDTO{
		ID:             string(c.ID),
		Kind:           c.Kind,
		TableID:        string(c.TableID),
		Year:           c.Year,
		Input:          c.Input,
		Result:         toResultDTO(c.Result),
		IdempotencyKey: c.IdempotencyKey,
		CreatedAt:      c.CreatedAt,
	}
}

// =============================================================================
// CALCULATOR RESPONSES
// =============================================================================

type ItalyResponse struct {
	Regime              string          `json:"regime"`
	Year                int             `json:"year"`
	Revenue             decimal.Decimal `json:"revenue"`
	GrossIncome         decimal.Decimal `json:"gross_income"`
	Contributions       ResultDTO       `json:"contributions"`
	TaxableIncome       decimal.Decimal `json:"taxable_income"`
	Tax                 ResultDTO       `json:"tax"`
	TotalDue            decimal.Decimal `json:"total_due"`
	Net                 decimal.Decimal `json:"net"`
	ExceedsRevenueLimit bool            `json:"exceeds_revenue_limit,omitempty"`
}

func toItalyResponse(r italy.Result) ItalyResponse {
	return ItalyResponse{
		Regime:              r.Regime,
		Year:                r.Year,
		Revenue:             money(r.Revenue),
		GrossIncome:         money(r.GrossIncome),
		Contributions:       toResultDTO(r.Contributions),
		TaxableIncome:       money(r.TaxableIncome),
		Tax:                 toResultDTO(r.Tax),
		TotalDue:            money(r.TotalDue()),
		Net:                 money(r.Net),
		ExceedsRevenueLimit: r.ExceedsRevenueLimit,
	}
}

type ItalyCompareResponse struct {
	Ordinario   ItalyResponse `json:"ordinario"`
	Forfettario ItalyResponse `json:"forfettario"`
	// Best is the regime with the higher net income.
	Best string `json:"best"`
}

type SpainResponse struct {
	Year           int             `json:"year"`
	Region         string          `json:"region"`
	GrossSalary    decimal.Decimal `json:"gross_salary"`
	SocialSecurity decimal.Decimal `json:"social_security"`
	Base           decimal.Decimal `json:"base"`
	Minimo         decimal.Decimal `json:"minimo"`
	StateTax       decimal.Decimal `json:"state_tax"`
	RegionalTax    decimal.Decimal `json:"regional_tax"`
	TotalTax       decimal.Decimal `json:"total_tax"`
	Net            decimal.Decimal `json:"net"`
	Scales         []ResultDTO     `json:"scales"`
}

func toSpainResponse(r spain.Result) SpainResponse {
	return SpainResponse{
		Year:           r.Year,
		Region:         string(r.Region),
		GrossSalary:    money(r.GrossSalary),
		SocialSecurity: money(r.SocialSecurity),
		Base:           money(r.Base),
		Minimo:         r.Minimo,
		StateTax:       money(r.StateTax),
		RegionalTax:    money(r.RegionalTax),
		TotalTax:       money(r.TotalTax),
		Net:            money(r.Net),
		Scales:         lo.Map(r.Scales.Parts, func(p generic.Result, _ int) ResultDTO { return toResultDTO(p) }),
	}
}

type UKIncomeResponse struct {
	Year              int             `json:"year"`
	Gross             decimal.Decimal `json:"gross"`
	PersonalAllowance decimal.Decimal `json:"personal_allowance"`
	TaxableIncome     decimal.Decimal `json:"taxable_income"`
	IncomeTax         ResultDTO       `json:"income_tax"`
	NationalInsurance ResultDTO       `json:"national_insurance"`
	Net               decimal.Decimal `json:"net"`
}

func toUKIncomeResponse(r uk.IncomeResult) UKIncomeResponse {
	return UKIncomeResponse{
		Year:              r.Year,
		Gross:             money(r.Gross),
		PersonalAllowance: r.PersonalAllowance,
		TaxableIncome:     money(r.TaxableIncome),
		IncomeTax:         toResultDTO(r.IncomeTax),
		NationalInsurance: toResultDTO(r.NationalInsurance),
		Net:               money(r.Net),
	}
}

type VATResponse struct {
	Rate  decimal.Decimal `json:"rate"`
	Net   decimal.Decimal `json:"net"`
	VAT   decimal.Decimal `json:"vat"`
	Gross decimal.Decimal `json:"gross"`
}

type PaymentDTO struct {
	Month     int             `json:"month"`
	Payment   decimal.Decimal `json:"payment"`
	Interest  decimal.Decimal `json:"interest"`
	Principal decimal.Decimal `json:"principal"`
	Balance   decimal.Decimal `json:"balance"`
}

type LoanResponse struct {
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalPayment   decimal.Decimal `json:"total_payment"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	Months         int             `json:"months"`
	Schedule       []PaymentDTO    `json:"schedule"`
}

func toLoanResponse(r loan.Result) LoanResponse {
	return LoanResponse{
		MonthlyPayment: r.MonthlyPayment,
		TotalPayment:   r.TotalPayment,
		TotalInterest:  r.TotalInterest,
		Months:         r.Months,
		Schedule: lo.Map(r.Schedule, func(p loan.Payment, _ int) PaymentDTO {
			return PaymentDTO(p)
		}),
	}
}
