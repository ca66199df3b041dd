/*
handlers_test.go - Tests for the HTTP surface

Tests run against the real router and an in-memory SQLite store, end to
end through JSON: catalog admin, plan creation, composition mutators,
summary reconciliation, schedule building and scenario loading.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pricing-engine/pricing"
	"github.com/warp/pricing-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*chiServer, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store)
	return &chiServer{router: NewRouter(h)}, store
}

type chiServer struct {
	router http.Handler
}

func (s *chiServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func seedTestCatalog(t *testing.T, store *sqlite.Store) {
	ctx := context.Background()
	require.NoError(t, store.SaveTenure(ctx, pricing.TenureType{
		Code: "principal", AllocationWeight: decimal.NewFromInt(70), MeetingsPerMonth: decimal.NewFromInt(2),
	}))
	require.NoError(t, store.SaveTenure(ctx, pricing.TenureType{
		Code: "associate", AllocationWeight: decimal.NewFromInt(30), MeetingsPerMonth: decimal.NewFromInt(1),
	}))
}

func createTestPlan(t *testing.T, s *chiServer) PlanDTO {
	rec := s.do(t, http.MethodPost, "/api/plans", map[string]any{
		"client_name":      "Acme Holdings",
		"total_investment": "1200000",
		"duration_months":  6,
		"discount_percent": "10",
		"team_members": []map[string]any{
			{"role": "Lead Advisor", "tenure_code": "principal", "meeting_type": "review"},
			{"role": "Support Advisor", "tenure_code": "associate", "meeting_type": "working session"},
		},
		"payment": map[string]any{
			"start_date": "2026-10-01",
			"frequency":  "monthly",
			"components": []map[string]any{
				{"kind": "tax_add_on", "selected": true, "rate": "18"},
			},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[PlanDTO](t, rec)
}

// =============================================================================
// TENURE CATALOG
// =============================================================================

func TestAPI_Tenures_CreateListDelete(t *testing.T) {
	s, _ := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/tenures", map[string]any{
		"code": "principal", "label": "Principal Consultant",
		"allocation_weight": "70", "meetings_per_month": "2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/tenures", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "principal", list[0]["code"])

	rec = s.do(t, http.MethodDelete, "/api/tenures/principal", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/tenures/principal", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Tenures_RejectsInvalidEntry(t *testing.T) {
	s, _ := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/tenures", map[string]any{
		"code": "bad", "allocation_weight": "-1", "meetings_per_month": "2",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PLAN LIFECYCLE
// =============================================================================

func TestAPI_CreatePlan_ReturnsNormalizedMembers(t *testing.T) {
	s, store := newTestServer(t)
	seedTestCatalog(t, store)

	plan := createTestPlan(t, s)

	require.Len(t, plan.Members, 2)
	assert.Equal(t, "priced", plan.State)
	assert.Equal(t, "840000", plan.Members[0].BreakupAmount)
	assert.Equal(t, 12, plan.Members[0].TotalMeetings)
	assert.Equal(t, "70000", plan.Members[0].RatePerMeeting)
	assert.Equal(t, "360000", plan.Members[1].BreakupAmount)
}

func TestAPI_CreatePlan_NegativeDuration_400(t *testing.T) {
	s, store := newTestServer(t)
	seedTestCatalog(t, store)

	// A negative duration must be rejected outright, never coerced to zero.
	rec := s.do(t, http.MethodPost, "/api/plans", map[string]any{
		"total_investment": "100000",
		"duration_months":  -5,
		"team_members": []map[string]any{
			{"role": "Lead", "tenure_code": "principal", "meeting_type": "review"},
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]PlanDTO](t, rec), "rejected input must not leave a plan behind")
}

func TestAPI_CreatePlan_UnknownTenure_404(t *testing.T) {
	s, store := newTestServer(t)
	seedTestCatalog(t, store)

	rec := s.do(t, http.MethodPost, "/api/plans", map[string]any{
		"total_investment": "100000",
		"duration_months":  3,
		"team_members": []map[string]any{
			{"role": "Ghost", "tenure_code": "retired-tier", "meeting_type": "review"},
		},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestAPI_AddMember_Renormalizes(t *testing.T) {
	s, store := newTestServer(t)
	seedTestCatalog(t, store)
	plan := createTestPlan(t, s)

	// Adding a second principal shifts every share.
	rec := s.do(t, http.MethodPost, "/api/plans/"+plan.ID+"/members", map[string]any{
		"role": "Second Lead", "tenure_code": "principal", "meeting_type": "review",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[PlanDTO](t, rec)
	require.Len(t, updated.Members, 3)
	// Weights now 70+30+70=170; first member's share drops from 70%.
	assert.Equal(t, "41.1765", updated.Members[0].SharePercent)
	assert.Empty(t, updated.Schedule, "composition change must drop the stale schedule")
}

func TestAPI_RemoveMember_RestoresShares(t *testing.T) {
	s, store := newTestServer(t)
	seedTestCatalog(t, store)
	plan := createTestPlan(t, s)

	rec := s.do(t, http.MethodPost, "/api/plans/"+plan.ID+"/members", map[string]any{
		"role": "Third Wheel", "tenure_code": "associate", "meeting_type": "review",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/plans/"+plan.ID+"/members/2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[PlanDTO](t, rec)
	require.Len(t, updated.Members, 2)
	assert.Equal(t, "840000", updated.Members[0].BreakupAmount)
}

func TestAPI_SetInvestment_RecomputesAmounts(t *testing.T) {
	s, store := newTestServer(t)
	seedTestCatalog(t, store)
	plan := createTestPlan(t, s)

	rec := s.do(t, http.MethodPut, "/api/plans/"+plan.ID+"/investment", map[string]any{
		"total_investment": "600000",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[PlanDTO](t, rec)
	assert.Equal(t, "420000", updated.Members[0].BreakupAmount)
}

func TestAPI_SetDuration_RecomputesMeetings(t *testing.T) {
	s, store := newTestServer(t)
	seedTestCatalog(t, store)
	plan := createTestPlan(t, s)

	rec := s.do(t, http.MethodPut, "/api/plans/"+plan.ID+"/duration", map[string]any{
		"duration_months": 12,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[PlanDTO](t, rec)
	assert.Equal(t, 24, updated.Members[0].TotalMeetings)

	rec = s.do(t, http.MethodPut, "/api/plans/"+plan.ID+"/duration", map[string]any{
		"duration_months": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_PlanNotFound_404(t *testing.T) {
	s, _ := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/plans/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SUMMARY AND SCHEDULE
// =============================================================================

func TestAPI_Summary_ReportsReconciliation(t *testing.T) {
	s, store := newTestServer(t)
	seedTestCatalog(t, store)
	plan := createTestPlan(t, s)

	rec := s.do(t, http.MethodGet, "/api/plans/"+plan.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decode[SummaryDTO](t, rec)
	assert.Equal(t, "1200000", summary.Subtotal)
	assert.Equal(t, "120000", summary.Discount)
	assert.Equal(t, "1080000", summary.AfterDiscount)
	assert.Equal(t, "194400", summary.TaxAddOn)
	assert.Equal(t, "1274400", summary.GrandTotal)
	assert.Equal(t, 18, summary.TotalMeetings)
	assert.True(t, summary.IsAllocationValid)
}

func TestAPI_BuildSchedule_FromStoredTerms(t *testing.T) {
	s, store := newTestServer(t)
	seedTestCatalog(t, store)
	plan := createTestPlan(t, s)

	rec := s.do(t, http.MethodPost, "/api/plans/"+plan.ID+"/schedule", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[PlanDTO](t, rec)
	require.Len(t, updated.Schedule, 6)
	assert.Equal(t, "Month 1", updated.Schedule[0].Label)
	assert.Equal(t, "2026-10-01", updated.Schedule[0].DueDate)
	assert.Equal(t, "2026-11-01", updated.Schedule[1].DueDate)
	assert.Equal(t, "180000", updated.Schedule[0].BasicAmount)
	// 18% tax on 180,000
	assert.Equal(t, "32400", updated.Schedule[0].TaxAddOnAmount)
	assert.Equal(t, "212400", updated.Schedule[0].NetReceivable)
}

func TestAPI_BuildSchedule_WithOverrides(t *testing.T) {
	s, store := newTestServer(t)
	seedTestCatalog(t, store)
	plan := createTestPlan(t, s)

	rec := s.do(t, http.MethodPost, "/api/plans/"+plan.ID+"/schedule", map[string]any{
		"frequency": "quarterly",
		"components": []map[string]any{
			{"kind": "reimbursement", "selected": true, "lumpsum_amount": "30000"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[PlanDTO](t, rec)
	require.Len(t, updated.Schedule, 2)
	assert.Equal(t, "Q1", updated.Schedule[0].Label)
	assert.Equal(t, "15000", updated.Schedule[0].ReimbursementAmount)
	assert.Equal(t, "0", updated.Schedule[0].TaxAddOnAmount)
}

func TestAPI_BuildSchedule_MissingStartDate_400(t *testing.T) {
	s, store := newTestServer(t)
	seedTestCatalog(t, store)

	rec := s.do(t, http.MethodPost, "/api/plans", map[string]any{
		"total_investment": "100000",
		"duration_months":  3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	plan := decode[PlanDTO](t, rec)

	rec = s.do(t, http.MethodPost, "/api/plans/"+plan.ID+"/schedule", map[string]any{
		"frequency": "monthly",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestAPI_Scenarios_LoadAndReset(t *testing.T) {
	s, _ := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ScenarioDTO](t, rec)
	require.NotEmpty(t, list)

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", map[string]any{"id": "consulting-engagement"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	plans := decode[[]PlanDTO](t, rec)
	require.Len(t, plans, 1)
	assert.Equal(t, "plan-acme-advisory", plans[0].ID)
	assert.NotEmpty(t, plans[0].Schedule)

	rec = s.do(t, http.MethodGet, "/api/scenarios/current", nil)
	current := decode[map[string]string](t, rec)
	assert.Equal(t, "consulting-engagement", current["id"])

	rec = s.do(t, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/plans", nil)
	plans = decode[[]PlanDTO](t, rec)
	assert.Empty(t, plans)
}

func TestAPI_Scenarios_UnknownID_400(t *testing.T) {
	s, _ := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", map[string]any{"id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
