/*
handlers.go - HTTP API handlers for the bracket engine

PURPOSE:
  Exposes the bracket evaluator, the table registry, the jurisdiction
  calculators and saved calculations via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Tables:
    GET    /api/tables                 List latest version of every table
    GET    /api/tables/{id}            Get one table (?year= for a version)
    POST   /api/tables                 Register a table from JSON

  Evaluation:
    POST   /api/evaluate               Evaluate a registered or inline table

  Calculators (handlers_calculators.go):
    POST   /api/calculators/italy      Ordinario / forfettario
    POST   /api/calculators/spain      IRPF state + regional
    POST   /api/calculators/uk/income  Income tax and NI
    POST   /api/calculators/uk/vat     VAT add / remove
    POST   /api/calculators/loan       Amortization schedule

  Calculations:
    POST   /api/calculations           Evaluate and save (idempotent)
    GET    /api/calculations           Most recent first (?limit=)
    GET    /api/calculations/{id}      One saved calculation

  Scenarios (scenarios.go):
    GET    /api/scenarios              Demo scenarios
    POST   /api/scenarios/load         Save a scenario's calculations

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Registry: Versioned bracket tables
  - Store: Saved calculations (memory, sqlite or mongo)
  - Cache: Encoded responses keyed by request hash (optional)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (generic.Evaluate, calculators)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid tables, negative base
  - 404: Unknown table or calculation
  - 409: Duplicate idempotency key
  - 429: Rate limited (middleware.go)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fiscalkit/bracket-engine/cache"
	"github.com/fiscalkit/bracket-engine/factory"
	"github.com/fiscalkit/bracket-engine/generic"
	"github.com/fiscalkit/bracket-engine/italy"
	"github.com/fiscalkit/bracket-engine/spain"
	"github.com/fiscalkit/bracket-engine/uk"
)

const (
	maxBodyBytes     = 1 << 20
	defaultListLimit = 50
	maxListLimit     = 500
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry *generic.Registry
	Store    generic.Store
	// Tables is set when Store can also persist tables. Tables posted to
	// the API are then reloaded at startup.
	Tables generic.TableStore
	Cache  cache.Cache
	Logger *zap.Logger

	italy *italy.Calculator
	spain *spain.Calculator
	uk    *uk.Calculator

	now   func() time.Time
	newID func() string
}

// NewHandler wires the calculators to reg. c may be nil to disable caching.
func NewHandler(reg *generic.Registry, store generic.Store, c cache.Cache, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		Registry: reg,
		Store:    store,
		Cache:    c,
		Logger:   logger,
		italy:    italy.NewCalculator(reg),
		spain:    spain.NewCalculator(reg),
		uk:       uk.NewCalculator(reg),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	if ts, ok := store.(generic.TableStore); ok {
		h.Tables = ts
	}
	return h
}

// =============================================================================
// TABLE HANDLERS
// =============================================================================

// ListTables returns the latest version of every table.
// GET /api/tables?jurisdiction=it
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables := h.Registry.List()
	if j := r.URL.Query().Get("jurisdiction"); j != "" {
		tables = h.Registry.ListByJurisdiction(generic.Jurisdiction(strings.ToLower(j)))
	}

	dtos := lo.Map(tables, func(t generic.Table, _ int) TableDTO {
		return TableDTO{TableFile: factory.ToFile(t), Years: h.Registry.Years(t.ID)}
	})
	writeJSON(w, http.StatusOK, dtos)
}

// GetTable returns one table, the latest year unless ?year= is given.
// GET /api/tables/{id}
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	id := generic.TableID(chi.URLParam(r, "id"))
	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	table, err := h.Registry.Lookup(id, year)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TableDTO{TableFile: factory.ToFile(table), Years: h.Registry.Years(id)})
}

// CreateTable registers a table. An existing table with the same id and
// year is replaced. Cached results are dropped.
// POST /api/tables
func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	table, err := factory.ParseJSON(body)
	if err != nil {
		h.writeDomainError(w, r, fmt.Errorf("%w: %w", generic.ErrInvalidInput, err))
		return
	}

	if err := table.ValidateVersioned(); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	// Persist before registering so a failed write leaves nothing live.
	if h.Tables != nil {
		if err := h.Tables.SaveTable(r.Context(), table); err != nil {
			h.writeDomainError(w, r, err)
			return
		}
	}
	if err := h.Registry.Register(table); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.flushCache(r)

	h.Logger.Info("table registered",
		zap.String("table", string(table.ID)),
		zap.Int("year", table.Year),
		zap.Int("brackets", len(table.Brackets)),
	)
	writeJSON(w, http.StatusCreated, TableDTO{TableFile: factory.ToFile(table), Years: h.Registry.Years(table.ID)})
}

// =============================================================================
// EVALUATION
// =============================================================================

// Evaluate runs the progressive evaluator.
// POST /api/evaluate
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.cached(w, r, "evaluate", req, func() (any, error) {
		table, err := h.resolveTable(req)
		if err != nil {
			return nil, err
		}
		base := req.base()
		if base.IsNegative() {
			return nil, fmt.Errorf("%w: %s", generic.ErrNegativeBase, base)
		}
		return toResultDTO(generic.Evaluate(base, table)), nil
	})
}

func (h *Handler) resolveTable(req EvaluateRequest) (generic.Table, error) {
	if len(req.Brackets) > 0 {
		id := req.TableID
		if id == "" {
			id = "inline"
		}
		table, err := factory.FromFile(factory.TableFile{
			ID:       id,
			Year:     req.Year,
			Currency: req.Currency,
			Brackets: req.Brackets,
		})
		if err != nil {
			return generic.Table{}, err
		}
		return table, nil
	}
	if req.TableID == "" {
		return generic.Table{}, fmt.Errorf("%w: table_id or brackets is required", generic.ErrInvalidInput)
	}
	return h.Registry.Lookup(generic.TableID(req.TableID), req.Year)
}

// =============================================================================
// CALCULATIONS
// =============================================================================

// SaveCalculation evaluates a registered table and stores the result.
// POST /api/calculations
func (h *Handler) SaveCalculation(w http.ResponseWriter, r *http.Request) {
	var req SaveCalculationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" && req.IdempotencyKey == "" {
		req.IdempotencyKey = key
	}

	table, err := h.resolveTable(EvaluateRequest{TableID: req.TableID, Year: req.Year})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	input := req.Input
	if input == nil {
		input = map[string]any{}
	}
	if req.Note != "" {
		input["note"] = req.Note
	}

	base := generic.Fields{"base": req.Base}.Decimal("base")
	calc, err := h.saveEvaluation(r.Context(), table, base, input, req.IdempotencyKey)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCalculationDTO(calc))
}

// saveEvaluation evaluates table at base (losses clamped to zero) and
// appends the result to the store.
func (h *Handler) saveEvaluation(ctx context.Context, table generic.Table, base decimal.Decimal, input map[string]any, key string) (generic.Calculation, error) {
	base = generic.ClampBase(base)
	input["base"] = base.String()

	calc := generic.Calculation{
		ID:             generic.CalculationID(h.newID()),
		Kind:           "evaluate",
		TableID:        table.ID,
		Year:           table.Year,
		Input:          input,
		Result:         generic.Evaluate(base, table),
		IdempotencyKey: key,
		CreatedAt:      h.now().UTC(),
	}
	if err := h.Store.Save(ctx, calc); err != nil {
		return generic.Calculation{}, err
	}
	return calc, nil
}

// GetCalculation returns one saved calculation.
// GET /api/calculations/{id}
func (h *Handler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	calc, err := h.Store.Get(r.Context(), generic.CalculationID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationDTO(calc))
}

// ListCalculations returns saved calculations, newest first.
// GET /api/calculations?limit=20
func (h *Handler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}
	if limit == 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	calcs, err := h.Store.List(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(calcs, func(c generic.Calculation, _ int) CalculationDTO {
		return toCalculationDTO(c)
	}))
}

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tables": len(h.Registry.List()),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps generic errors to status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, "Already exists", err)
	default:
		h.Logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodyBytes {
		return nil, errors.New("request body too large")
	}
	return body, nil
}

func decodeJSON(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	return json.Unmarshal(body, v)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
