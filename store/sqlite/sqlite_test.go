package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pricing-engine/pricing"
	"github.com/warp/pricing-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedCatalog(t *testing.T, store *sqlite.Store) {
	ctx := context.Background()
	require.NoError(t, store.SaveTenure(ctx, pricing.TenureType{
		Code: "principal", Label: "Principal Consultant",
		AllocationWeight: decimal.NewFromInt(70), MeetingsPerMonth: decimal.NewFromInt(2),
	}))
	require.NoError(t, store.SaveTenure(ctx, pricing.TenureType{
		Code: "associate", Label: "Associate Consultant",
		AllocationWeight: decimal.NewFromInt(30), MeetingsPerMonth: decimal.NewFromInt(1),
	}))
}

func buildTestPlan(t *testing.T, store *sqlite.Store) *pricing.PricingPlan {
	members, err := pricing.Normalize(
		pricing.NewMoneyFromInt(1200000), 6,
		[]pricing.TeamMember{
			{Role: "Lead Advisor", TenureCode: "principal", MeetingType: "review", Mode: pricing.ModeOnline, HeadCount: 1},
			{Role: "Support Advisor", TenureCode: "associate", MeetingType: "review", Mode: pricing.ModeMixed, HeadCount: 2},
		},
		store,
	)
	require.NoError(t, err)

	terms := pricing.PaymentTerms{
		StartDate: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Frequency: pricing.FreqQuarterly,
		Components: []pricing.PaymentComponent{
			{Kind: pricing.ComponentTaxAddOn, Selected: true, Rate: decimal.NewFromInt(18)},
			{Kind: pricing.ComponentReimbursement, Selected: true, LumpsumAmount: pricing.NewMoneyFromInt(30000)},
		},
	}

	schedule, err := pricing.BuildSchedule(pricing.ScheduleInput{
		Subtotal:        pricing.NewMoneyFromInt(1200000),
		DiscountPercent: decimal.NewFromInt(10),
		DurationMonths:  6,
		StartDate:       terms.StartDate,
		Frequency:       terms.Frequency,
		Components:      terms.Components,
	})
	require.NoError(t, err)

	return &pricing.PricingPlan{
		ID:              "plan-acme",
		ClientName:      "Acme Holdings",
		TotalInvestment: pricing.NewMoneyFromInt(1200000),
		DurationMonths:  6,
		DiscountPercent: decimal.NewFromInt(10),
		Members:         members,
		Terms:           terms,
		Schedule:        schedule,
		CreatedAt:       time.Date(2026, time.February, 20, 9, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// TENURE CATALOG
// =============================================================================

func TestStore_Catalog_ResolveAndList(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)

	entry, err := store.Resolve("principal")
	require.NoError(t, err)
	assert.True(t, entry.AllocationWeight.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, "Principal Consultant", entry.Label)

	all, err := store.ListTenures(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, pricing.TenureCode("associate"), all[0].Code)
}

func TestStore_Catalog_ListAfterClose_ReturnsError(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.ListTenures(context.Background())
	assert.Error(t, err, "a failed query must surface, not read as an empty catalog")
}

func TestStore_Catalog_UnknownCode_ReferenceError(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Resolve("ghost")
	assert.True(t, pricing.IsReference(err))
}

func TestStore_Catalog_DeleteBreaksResolution(t *testing.T) {
	// GIVEN: A catalog entry referenced by a saved plan
	// WHEN: The entry is deleted and the plan is renormalized
	// THEN: Recomputation fails loudly instead of silently defaulting

	store := newTestStore(t)
	seedCatalog(t, store)
	plan := buildTestPlan(t, store)
	require.NoError(t, store.SavePlan(context.Background(), plan))

	require.NoError(t, store.DeleteTenure(context.Background(), "associate"))

	loaded, err := store.GetPlan(context.Background(), plan.ID)
	require.NoError(t, err)
	_, err = pricing.Normalize(loaded.TotalInvestment, loaded.DurationMonths, loaded.Members, store)
	assert.True(t, pricing.IsReference(err))
}

func TestStore_Catalog_FractionalCadenceRoundTrips(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveTenure(context.Background(), pricing.TenureType{
		Code:             "specialist",
		AllocationWeight: decimal.RequireFromString("42.5"),
		MeetingsPerMonth: decimal.RequireFromString("1.5"),
	}))

	entry, err := store.Resolve("specialist")
	require.NoError(t, err)
	assert.True(t, entry.AllocationWeight.Equal(decimal.RequireFromString("42.5")))
	assert.True(t, entry.MeetingsPerMonth.Equal(decimal.RequireFromString("1.5")))
}

// =============================================================================
// PLAN PERSISTENCE
// =============================================================================

func TestStore_Plan_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	plan := buildTestPlan(t, store)
	require.NoError(t, store.SavePlan(ctx, plan))

	loaded, err := store.GetPlan(ctx, "plan-acme")
	require.NoError(t, err)

	assert.Equal(t, plan.ClientName, loaded.ClientName)
	assert.True(t, loaded.TotalInvestment.Equal(plan.TotalInvestment))
	assert.Equal(t, plan.DurationMonths, loaded.DurationMonths)
	assert.True(t, loaded.DiscountPercent.Equal(plan.DiscountPercent))

	require.Len(t, loaded.Members, 2)
	assert.Equal(t, "Lead Advisor", loaded.Members[0].Role)
	assert.True(t, loaded.Members[0].SharePercent.Equal(plan.Members[0].SharePercent))
	assert.True(t, loaded.Members[0].BreakupAmount.Equal(plan.Members[0].BreakupAmount))
	assert.Equal(t, plan.Members[1].HeadCount, loaded.Members[1].HeadCount)

	require.Len(t, loaded.Terms.Components, 2)
	require.Len(t, loaded.Schedule, len(plan.Schedule))
	for i := range plan.Schedule {
		assert.True(t, loaded.Schedule[i].DueDate.Equal(plan.Schedule[i].DueDate))
		assert.True(t, loaded.Schedule[i].NetReceivable().Equal(plan.Schedule[i].NetReceivable()))
	}
}

func TestStore_Plan_SaveReplacesChildren(t *testing.T) {
	// GIVEN: A saved two-member plan
	// WHEN: A one-member version of the same plan is saved
	// THEN: The old member and schedule rows are gone

	store := newTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	plan := buildTestPlan(t, store)
	require.NoError(t, store.SavePlan(ctx, plan))

	members, err := pricing.Normalize(plan.TotalInvestment, plan.DurationMonths,
		plan.Members[:1], store)
	require.NoError(t, err)
	plan.Members = members
	plan.Schedule = nil
	require.NoError(t, store.SavePlan(ctx, plan))

	loaded, err := store.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Members, 1)
	assert.Empty(t, loaded.Schedule)
}

func TestStore_Plan_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPlan(context.Background(), "missing")
	assert.True(t, pricing.IsNotFound(err))

	err = store.DeletePlan(context.Background(), "missing")
	assert.True(t, pricing.IsNotFound(err))
}

func TestStore_Plan_ListOrderedByCreation(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	first := buildTestPlan(t, store)
	first.ID = "plan-1"
	first.CreatedAt = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	second := buildTestPlan(t, store)
	second.ID = "plan-2"
	second.CreatedAt = time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SavePlan(ctx, second))
	require.NoError(t, store.SavePlan(ctx, first))

	plans, err := store.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "plan-1", plans[0].ID)
	assert.Equal(t, "plan-2", plans[1].ID)
}

func TestStore_Reset_ClearsEverything(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()
	require.NoError(t, store.SavePlan(ctx, buildTestPlan(t, store)))

	require.NoError(t, store.Reset(ctx))

	plans, err := store.ListPlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, plans)
	assert.Empty(t, store.List())
}
