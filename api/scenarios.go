/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the calculation store with
	realistic saved calculations for demos and front-end development. Each
	scenario evaluates a handful of registered tables at representative
	bases.

AVAILABLE SCENARIOS:

	italy-freelancer:  IRPEF at low, middle and high incomes, 2023 vs 2024
	bracket-edges:     IRPEF exactly at and just past each bracket limit
	spain-madrid:      State and Madrid regional scales on one base
	uk-earner:         Income tax and NI for a higher-rate taxpayer

HOW SCENARIOS WORK:
 1. Look up each table (id + year) in the registry
 2. Evaluate it at the scenario base
 3. Save it with the idempotency key "scenario:<id>:<n>"

Loading a scenario twice saves nothing the second time: every key already
exists, so each calculation is reported as skipped.

USAGE VIA API:

	GET  /api/scenarios
	POST /api/scenarios/load
	{"scenario_id": "italy-freelancer"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. List its calculations in Steps

SEE ALSO:
  - handlers.go: saveEvaluation
*/
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/samber/lo"

	"github.com/fiscalkit/bracket-engine/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type ScenarioDTO struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Steps       []ScenarioStep `json:"steps"`
}

// ScenarioStep is one calculation saved by a scenario.
type ScenarioStep struct {
	TableID string `json:"table_id"`
	Year    int    `json:"year,omitempty"`
	Base    string `json:"base"`
	Note    string `json:"note"`
}

type LoadScenarioResponse struct {
	Scenario     string           `json:"scenario"`
	Saved        int              `json:"saved"`
	Skipped      int              `json:"skipped"`
	Calculations []CalculationDTO `json:"calculations"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "italy-freelancer",
		Name:        "Italian Freelancer",
		Description: "IRPEF on three incomes, before and after the 2024 bracket merge",
		Category:    "it",
		Steps: []ScenarioStep{
			{TableID: "it-irpef", Year: 2023, Base: "20000", Note: "2023, low income"},
			{TableID: "it-irpef", Year: 2024, Base: "20000", Note: "2024, low income"},
			{TableID: "it-irpef", Year: 2023, Base: "40000", Note: "2023, middle income"},
			{TableID: "it-irpef", Year: 2024, Base: "40000", Note: "2024, middle income"},
			{TableID: "it-irpef", Year: 2024, Base: "90000", Note: "2024, top bracket"},
		},
	},
	{
		ID:          "bracket-edges",
		Name:        "Bracket Edges",
		Description: "Bases exactly at and one cent past each IRPEF limit",
		Category:    "it",
		Steps: []ScenarioStep{
			{TableID: "it-irpef", Base: "0", Note: "zero base"},
			{TableID: "it-irpef", Base: "28000", Note: "at first limit"},
			{TableID: "it-irpef", Base: "28000.01", Note: "past first limit"},
			{TableID: "it-irpef", Base: "50000", Note: "at second limit"},
			{TableID: "it-irpef", Base: "50000.01", Note: "past second limit"},
		},
	},
	{
		ID:          "spain-madrid",
		Name:        "Madrid Salary",
		Description: "Both IRPF scales on a 26 000 base",
		Category:    "es",
		Steps: []ScenarioStep{
			{TableID: "es-irpf-estatal", Base: "26000", Note: "state scale"},
			{TableID: "es-irpf-madrid", Base: "26000", Note: "Madrid scale"},
		},
	},
	{
		ID:          "uk-earner",
		Name:        "UK Higher-Rate Earner",
		Description: "Income tax on 47 430 taxable and NI on 60 000 gross",
		Category:    "uk",
		Steps: []ScenarioStep{
			{TableID: "uk-income-tax", Base: "47430", Note: "income tax"},
			{TableID: "uk-ni-class1", Base: "60000", Note: "class 1 NI"},
		},
	},
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario saves every calculation of a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	scenario, found := lo.Find(scenarios, func(s ScenarioDTO) bool { return s.ID == req.ScenarioID })
	if !found {
		writeError(w, http.StatusNotFound, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	resp := LoadScenarioResponse{Scenario: scenario.ID, Calculations: []CalculationDTO{}}
	for i, step := range scenario.Steps {
		table, err := h.Registry.Lookup(generic.TableID(step.TableID), step.Year)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}

		key := fmt.Sprintf("scenario:%s:%d", scenario.ID, i)
		input := map[string]any{"note": step.Note, "scenario": scenario.ID}
		base := generic.MustParseDecimal(step.Base)

		calc, err := h.saveEvaluation(r.Context(), table, base, input, key)
		if errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
			resp.Skipped++
			continue
		}
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		resp.Saved++
		resp.Calculations = append(resp.Calculations, toCalculationDTO(calc))
	}

	writeJSON(w, http.StatusOK, resp)
}
