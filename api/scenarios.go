/*
scenarios.go - Demo scenario loaders

PURPOSE:
  Seeds the database with realistic demo data so the engine can be
  explored without hand-entering a catalog and plans. Each scenario is
  a full reset plus a deterministic data load.

SCENARIOS:
  consulting-engagement: Default catalog plus a priced 6-month plan with
                         a monthly schedule, tax add-on and reimbursement.
  quarterly-retainer:    A quarterly-billed 12-month retainer with a
                         withholding deduction.
  empty-catalog:         Catalog only, no plans - the editing start state.

SEE ALSO:
  - factory/plan.go: DefaultCatalogJSON
  - handlers.go: Endpoint helpers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pricing-engine/factory"
	"github.com/warp/pricing-engine/pricing"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "consulting-engagement",
		Name:        "Consulting Engagement",
		Description: "A 1.2M six-month engagement with a principal/associate team, monthly billing, 18% tax add-on and a travel reimbursement.",
	},
	{
		ID:          "quarterly-retainer",
		Name:        "Quarterly Retainer",
		Description: "A 12-month retainer billed quarterly with a 10% withholding deduction.",
	},
	{
		ID:          "empty-catalog",
		Name:        "Catalog Only",
		Description: "Just the tenure catalog, no plans. The blank-slate editing state.",
	},
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns all available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the id of the most recently loaded scenario.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"id": h.currentScenario})
}

// LoadScenario resets the database and loads the selected scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.loadScenario(r.Context(), req.ID); err != nil {
		writeEngineError(w, fmt.Sprintf("Failed to load scenario %q", req.ID), err)
		return
	}

	h.currentScenario = req.ID
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadScenario(ctx context.Context, id string) error {
	known := false
	for _, s := range scenarios {
		if s.ID == id {
			known = true
			break
		}
	}
	if !known {
		return &pricing.ValidationError{Field: "id", Reason: fmt.Sprintf("unknown scenario %q", id)}
	}

	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	if err := h.loadDefaultCatalog(ctx); err != nil {
		return err
	}

	switch id {
	case "consulting-engagement":
		return h.loadConsultingEngagement(ctx)
	case "quarterly-retainer":
		return h.loadQuarterlyRetainer(ctx)
	default: // empty-catalog: catalog only
		return nil
	}
}

func (h *Handler) loadDefaultCatalog(ctx context.Context) error {
	catalog, err := h.Factory.ParseCatalog(factory.DefaultCatalogJSON())
	if err != nil {
		return err
	}
	for _, entry := range catalog.List() {
		if err := h.Store.SaveTenure(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadConsultingEngagement(ctx context.Context) error {
	plan, err := h.seedPlan(ctx, seedPlanSpec{
		id:         "plan-acme-advisory",
		client:     "Acme Holdings",
		investment: 1200000,
		duration:   6,
		discount:   "10",
		drafts: []pricing.MemberDraft{
			{Role: "Lead Advisor", TenureCode: "principal", MeetingType: "strategy review", Mode: pricing.ModeOffline},
			{Role: "Delivery Consultant", TenureCode: "associate", MeetingType: "working session", Mode: pricing.ModeOnline, HeadCount: 2},
		},
		terms: pricing.PaymentTerms{
			StartDate: time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
			Frequency: pricing.FreqMonthly,
			Components: []pricing.PaymentComponent{
				{Kind: pricing.ComponentTaxAddOn, Selected: true, Rate: decimalFromString("18")},
				{Kind: pricing.ComponentReimbursement, Selected: true, LumpsumAmount: pricing.NewMoneyFromInt(60000)},
			},
		},
	})
	if err != nil {
		return err
	}
	return h.attachSchedule(ctx, plan)
}

func (h *Handler) loadQuarterlyRetainer(ctx context.Context) error {
	plan, err := h.seedPlan(ctx, seedPlanSpec{
		id:         "plan-northwind-retainer",
		client:     "Northwind Traders",
		investment: 2400000,
		duration:   12,
		discount:   "0",
		drafts: []pricing.MemberDraft{
			{Role: "Engagement Principal", TenureCode: "principal", MeetingType: "board review", Mode: pricing.ModeMixed},
			{Role: "Domain Expert", TenureCode: "specialist", MeetingType: "deep dive", Mode: pricing.ModeOnline},
			{Role: "Research Analyst", TenureCode: "analyst", MeetingType: "findings readout", Mode: pricing.ModeOnline, HeadCount: 2},
		},
		terms: pricing.PaymentTerms{
			StartDate: time.Date(2027, time.January, 15, 0, 0, 0, 0, time.UTC),
			Frequency: pricing.FreqQuarterly,
			Components: []pricing.PaymentComponent{
				{Kind: pricing.ComponentWithholding, Selected: true, Rate: decimalFromString("10")},
			},
		},
	})
	if err != nil {
		return err
	}
	return h.attachSchedule(ctx, plan)
}

type seedPlanSpec struct {
	id         string
	client     string
	investment int64
	duration   int
	discount   string
	drafts     []pricing.MemberDraft
	terms      pricing.PaymentTerms
}

func (h *Handler) seedPlan(ctx context.Context, spec seedPlanSpec) (*pricing.PricingPlan, error) {
	comp := pricing.NewComposition(h.Store)
	if err := comp.SetDuration(spec.duration); err != nil {
		return nil, err
	}
	if err := comp.SetTotalInvestment(pricing.NewMoneyFromInt(spec.investment)); err != nil {
		return nil, err
	}
	for _, d := range spec.drafts {
		if err := comp.AddMember(d); err != nil {
			return nil, err
		}
	}

	plan := &pricing.PricingPlan{
		ID:              spec.id,
		ClientName:      spec.client,
		DiscountPercent: decimalFromString(spec.discount),
		Terms:           spec.terms,
		CreatedAt:       time.Now().UTC(),
	}
	comp.ApplyTo(plan)

	if err := h.Store.SavePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (h *Handler) attachSchedule(ctx context.Context, plan *pricing.PricingPlan) error {
	entries, err := pricing.BuildSchedule(pricing.ScheduleInput{
		Subtotal:        plan.TotalInvestment,
		DiscountPercent: plan.DiscountPercent,
		DurationMonths:  plan.DurationMonths,
		StartDate:       plan.Terms.StartDate,
		Frequency:       plan.Terms.Frequency,
		Components:      plan.Terms.Components,
	})
	if err != nil {
		return err
	}
	plan.Schedule = entries
	return h.Store.SavePlan(ctx, plan)
}

func decimalFromString(s string) decimal.Decimal {
	return pricing.MustParseMoney(s).Value
}
