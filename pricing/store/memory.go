// Package store provides PlanStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/pricing-engine/pricing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	plans map[string]*pricing.PricingPlan
}

var _ pricing.PlanStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{plans: make(map[string]*pricing.PricingPlan)}
}

// SavePlan stores a deep copy so later caller mutations cannot leak in.
func (m *Memory) SavePlan(_ context.Context, plan *pricing.PricingPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (m *Memory) GetPlan(_ context.Context, id string) (*pricing.PricingPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, pricing.ErrPlanNotFound
	}
	return clonePlan(p), nil
}

func (m *Memory) ListPlans(_ context.Context) ([]*pricing.PricingPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*pricing.PricingPlan, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, clonePlan(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) DeletePlan(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return pricing.ErrPlanNotFound
	}
	delete(m.plans, id)
	return nil
}

func clonePlan(p *pricing.PricingPlan) *pricing.PricingPlan {
	out := *p
	out.Members = append([]pricing.TeamMember(nil), p.Members...)
	out.Schedule = append([]pricing.ScheduleEntry(nil), p.Schedule...)
	out.Terms.Components = append([]pricing.PaymentComponent(nil), p.Terms.Components...)
	return &out
}
