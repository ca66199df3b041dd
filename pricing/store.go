/*
store.go - Persistence interface for pricing plans

PURPOSE:
  Defines the interface between the engine and the database. The engine
  itself is pure; persistence exists so the emitted pricing plan record
  can be consumed by downstream quotation and reminder collaborators.

CONTRACT:
  A plan is saved whole: the plan row, its member rows (insertion order
  preserved), its components and its generated schedule travel together.
  Saving replaces the previous version of the same id; concurrent edits
  to one plan are last-write-wins at this layer.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - pricing/store/memory.go: In-memory for testing
*/
package pricing

import "context"

// PlanStore persists whole pricing plan records.
type PlanStore interface {
	// SavePlan persists the plan, replacing any previous version of the
	// same id.
	SavePlan(ctx context.Context, plan *PricingPlan) error

	// GetPlan returns the plan by id, or an error wrapping ErrPlanNotFound.
	GetPlan(ctx context.Context, id string) (*PricingPlan, error)

	// ListPlans returns all plans ordered by creation time.
	ListPlans(ctx context.Context) ([]*PricingPlan, error)

	// DeletePlan removes the plan and everything it owns.
	DeletePlan(ctx context.Context, id string) error
}
