/*
handlers.go - HTTP API handlers for the pricing engine

PURPOSE:
  Exposes the pricing engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine. The engine itself is
  pure; this layer owns ids, persistence and the wire contract consumed
  by the downstream quotation and reminder collaborators.

ENDPOINTS:
  Tenure catalog:
    GET    /api/tenures                 List catalog entries
    POST   /api/tenures                 Create/replace an entry
    DELETE /api/tenures/{code}          Remove an entry

  Plans:
    GET    /api/plans                   List plans
    POST   /api/plans                   Create a plan from full input
    GET    /api/plans/{id}              Get plan details
    DELETE /api/plans/{id}              Delete plan
    GET    /api/plans/{id}/summary      Totals + reconciliation diagnostic

  Composition mutators (each returns the renormalized plan):
    POST   /api/plans/{id}/members      Add team member
    DELETE /api/plans/{id}/members/{index}  Remove team member
    PUT    /api/plans/{id}/investment   Set total investment
    PUT    /api/plans/{id}/duration     Set engagement duration

  Schedule:
    POST   /api/plans/{id}/schedule     Build + persist installment schedule

  Scenarios:
    GET    /api/scenarios               List demo scenarios
    POST   /api/scenarios/load          Load a demo scenario
    POST   /api/scenarios/reset         Clear the database

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown plan id or tenure code
  - 500: Internal errors
  Allocation divergence is never an error: it rides on the summary body.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/pricing-engine/factory"
	"github.com/warp/pricing-engine/pricing"
	"github.com/warp/pricing-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Factory *factory.PlanFactory

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:   store,
		Factory: factory.NewPlanFactory(),
	}
}

// =============================================================================
// TENURE CATALOG HANDLERS
// =============================================================================

// ListTenures returns all catalog entries.
func (h *Handler) ListTenures(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListTenures(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tenure types", err)
		return
	}
	dtos := make([]factory.TenureTypeJSON, len(entries))
	for i, e := range entries {
		dtos[i] = h.Factory.TenureToJSON(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTenure creates or replaces a catalog entry.
func (h *Handler) CreateTenure(w http.ResponseWriter, r *http.Request) {
	var req factory.TenureTypeJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := h.Factory.TenureFromJSON(req)
	if err != nil {
		writeEngineError(w, "Invalid tenure type", err)
		return
	}

	if err := h.Store.SaveTenure(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save tenure type", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.Factory.TenureToJSON(entry))
}

// DeleteTenure removes a catalog entry. Plans referencing it will fail
// their next recomputation, which is the intended loud failure.
func (h *Handler) DeleteTenure(w http.ResponseWriter, r *http.Request) {
	code := pricing.TenureCode(chi.URLParam(r, "code"))
	if err := h.Store.DeleteTenure(r.Context(), code); err != nil {
		writeEngineError(w, "Failed to delete tenure type", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns all plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Store.ListPlans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}
	dtos := make([]PlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toPlanDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePlan creates a plan from a full input document. Members are run
// through the composition so the stored plan is normalized from the start.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req factory.PlanInputJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := h.Factory.FromJSON(req)
	if err != nil {
		writeEngineError(w, "Invalid plan input", err)
		return
	}

	comp := pricing.NewComposition(h.Store)
	if in.DurationMonths > 0 {
		if err := comp.SetDuration(in.DurationMonths); err != nil {
			writeEngineError(w, "Invalid duration", err)
			return
		}
	}
	if err := comp.SetTotalInvestment(in.TotalInvestment); err != nil {
		writeEngineError(w, "Invalid investment", err)
		return
	}
	for _, draft := range in.Drafts {
		if err := comp.AddMember(draft); err != nil {
			writeEngineError(w, "Invalid team member", err)
			return
		}
	}

	plan := &pricing.PricingPlan{
		ID:              fmt.Sprintf("plan-%d", time.Now().UnixNano()),
		ClientName:      in.ClientName,
		DiscountPercent: in.DiscountPercent,
		Terms:           in.Terms,
		CreatedAt:       time.Now().UTC(),
	}
	comp.ApplyTo(plan)

	if err := h.Store.SavePlan(r.Context(), plan); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanDTO(plan))
}

// GetPlan returns a single plan.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.loadPlan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// DeletePlan removes a plan.
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeletePlan(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to delete plan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSummary returns the plan's totals and the reconciliation diagnostic.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.loadPlan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(pricing.Summarize(plan)))
}

// =============================================================================
// COMPOSITION MUTATORS
// =============================================================================
// Each mutator loads the plan, rebuilds the composition, applies one change
// (which renormalizes every member), saves, and returns the updated plan.

// AddMember appends a team member and renormalizes.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mutatePlan(w, r, func(comp *pricing.Composition) error {
		return comp.AddMember(pricing.MemberDraft{
			Role:        req.Role,
			TenureCode:  pricing.TenureCode(req.TenureCode),
			MeetingType: req.MeetingType,
			Mode:        pricing.Mode(req.Mode),
			HeadCount:   req.HeadCount,
		})
	})
}

// RemoveMember drops the member at the given index and renormalizes.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid member index", err)
		return
	}
	h.mutatePlan(w, r, func(comp *pricing.Composition) error {
		return comp.RemoveMember(index)
	})
}

// SetInvestment updates the negotiated figure and renormalizes.
func (h *Handler) SetInvestment(w http.ResponseWriter, r *http.Request) {
	var req SetInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	value, err := decimal.NewFromString(req.TotalInvestment)
	if err != nil {
		writeError(w, http.StatusBadRequest, "total_investment is not a valid number", err)
		return
	}
	amount := pricing.Money{Value: value}
	h.mutatePlan(w, r, func(comp *pricing.Composition) error {
		return comp.SetTotalInvestment(amount)
	})
}

// SetDuration updates the engagement duration and renormalizes.
func (h *Handler) SetDuration(w http.ResponseWriter, r *http.Request) {
	var req SetDurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.mutatePlan(w, r, func(comp *pricing.Composition) error {
		return comp.SetDuration(req.DurationMonths)
	})
}

func (h *Handler) mutatePlan(w http.ResponseWriter, r *http.Request, mutate func(*pricing.Composition) error) {
	plan, ok := h.loadPlan(w, r)
	if !ok {
		return
	}

	comp, err := pricing.NewCompositionFromPlan(h.Store, plan)
	if err != nil {
		writeEngineError(w, "Failed to renormalize plan", err)
		return
	}
	if err := mutate(comp); err != nil {
		writeEngineError(w, "Mutation rejected", err)
		return
	}
	comp.ApplyTo(plan)

	// Composition changes invalidate any previously generated schedule.
	plan.Schedule = nil

	if err := h.Store.SavePlan(r.Context(), plan); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// =============================================================================
// SCHEDULE HANDLER
// =============================================================================

// BuildSchedule generates and persists the installment schedule for a plan.
// Request fields override the plan's stored payment terms.
func (h *Handler) BuildSchedule(w http.ResponseWriter, r *http.Request) {
	// An empty body means "use the plan's stored payment terms".
	var req BuildScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	plan, ok := h.loadPlan(w, r)
	if !ok {
		return
	}

	terms := plan.Terms
	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD", err)
			return
		}
		terms.StartDate = start
	}
	if req.Frequency != "" {
		terms.Frequency = pricing.Frequency(req.Frequency)
	}
	if req.Components != nil {
		parsed, err := h.Factory.FromJSON(factory.PlanInputJSON{
			Payment: &factory.PaymentJSON{Components: req.Components},
		})
		if err != nil {
			writeEngineError(w, "Invalid components", err)
			return
		}
		terms.Components = parsed.Terms.Components
	}

	entries, err := pricing.BuildSchedule(pricing.ScheduleInput{
		Subtotal:        plan.TotalInvestment,
		DiscountPercent: plan.DiscountPercent,
		DurationMonths:  plan.DurationMonths,
		StartDate:       terms.StartDate,
		Frequency:       terms.Frequency,
		Components:      terms.Components,
	})
	if err != nil {
		writeEngineError(w, "Failed to build schedule", err)
		return
	}

	plan.Terms = terms
	plan.Schedule = entries
	if err := h.Store.SavePlan(r.Context(), plan); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadPlan(w http.ResponseWriter, r *http.Request) (*pricing.PricingPlan, bool) {
	id := chi.URLParam(r, "id")
	plan, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to load plan", err)
		return nil, false
	}
	return plan, true
}

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

// writeEngineError maps engine error kinds to HTTP statuses.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case pricing.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	case pricing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
