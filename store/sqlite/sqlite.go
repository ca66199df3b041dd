/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Persists the tenure catalog and emitted pricing plan records using
  SQLite. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  pricing.TenureCatalog: Tenure code resolution (read side of master data)
  pricing.PlanStore:     Whole-plan persistence

WHOLE-PLAN WRITES:
  A plan and everything it owns (members, components, schedule rows)
  are replaced in one transaction. Member and schedule rows carry an
  explicit position column: insertion order is part of the record.
  Two collaborators editing the same plan are last-write-wins here;
  the engine itself has no notion of concurrent writers.

DECIMAL STORAGE:
  Money, weights and rates are stored as TEXT in decimal string form.
  Round-tripping through REAL would reintroduce exactly the float
  precision problems decimal exists to avoid.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/pricing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool with versioned migrations.

SEE ALSO:
  - pricing/store.go: Interface definition
  - pricing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/pricing-engine/pricing"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// Store implements the storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ pricing.TenureCatalog = (*Store)(nil)
	_ pricing.PlanStore     = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Tenure catalog (master data, referenced by plan members)
	CREATE TABLE IF NOT EXISTS tenure_types (
		code TEXT PRIMARY KEY,
		label TEXT,
		allocation_weight TEXT NOT NULL,
		meetings_per_month TEXT NOT NULL
	);

	-- Plan header
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		client_name TEXT,
		total_investment TEXT NOT NULL,
		duration_months INTEGER NOT NULL,
		discount_percent TEXT NOT NULL,
		start_date TEXT,
		frequency TEXT,
		created_at TEXT NOT NULL
	);

	-- Team deployment rows, insertion order preserved via position
	CREATE TABLE IF NOT EXISTS plan_members (
		plan_id TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		role TEXT NOT NULL,
		tenure_code TEXT NOT NULL,
		meeting_type TEXT NOT NULL,
		mode TEXT,
		head_count INTEGER NOT NULL,
		share_percent TEXT NOT NULL,
		breakup_amount TEXT NOT NULL,
		total_meetings INTEGER NOT NULL,
		PRIMARY KEY (plan_id, position)
	);

	-- Selected/unselected adjustment components
	CREATE TABLE IF NOT EXISTS plan_components (
		plan_id TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		selected INTEGER NOT NULL,
		rate TEXT NOT NULL,
		lumpsum_amount TEXT NOT NULL,
		PRIMARY KEY (plan_id, kind)
	);

	-- Generated installment schedule; net_receivable is stored so the
	-- downstream reminder scheduler can read it without engine code
	CREATE TABLE IF NOT EXISTS schedule_entries (
		plan_id TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		due_date TEXT NOT NULL,
		basic_amount TEXT NOT NULL,
		tax_add_on_amount TEXT NOT NULL,
		withholding_amount TEXT NOT NULL,
		reimbursement_amount TEXT NOT NULL,
		net_receivable TEXT NOT NULL,
		PRIMARY KEY (plan_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_plans_created ON plans(created_at);
	CREATE INDEX IF NOT EXISTS idx_members_tenure ON plan_members(tenure_code);
	CREATE INDEX IF NOT EXISTS idx_schedule_due ON schedule_entries(due_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TENURE CATALOG
// =============================================================================

// SaveTenure inserts or replaces a catalog entry.
func (s *Store) SaveTenure(ctx context.Context, t pricing.TenureType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tenure_types (code, label, allocation_weight, meetings_per_month)
		VALUES (?, ?, ?, ?)`,
		string(t.Code), t.Label, t.AllocationWeight.String(), t.MeetingsPerMonth.String())
	return err
}

// DeleteTenure removes a catalog entry. Plans already referencing the code
// keep their rows; their next recomputation fails loudly, by contract.
func (s *Store) DeleteTenure(ctx context.Context, code pricing.TenureCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM tenure_types WHERE code = ?`, string(code))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &pricing.ReferenceError{Code: code}
	}
	return nil
}

// Resolve implements pricing.TenureCatalog.
func (s *Store) Resolve(code pricing.TenureCode) (*pricing.TenureType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT code, label, allocation_weight, meetings_per_month
		FROM tenure_types WHERE code = ?`, string(code))

	t, err := scanTenure(row)
	if err == sql.ErrNoRows {
		return nil, &pricing.ReferenceError{Code: code}
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTenures returns all catalog entries ordered by code.
func (s *Store) ListTenures(ctx context.Context) ([]pricing.TenureType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, label, allocation_weight, meetings_per_month
		FROM tenure_types ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pricing.TenureType
	for rows.Next() {
		t, err := scanTenure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// List implements pricing.TenureCatalog. The interface cannot carry an
// error, so failures are logged; callers that need the error use
// ListTenures directly.
func (s *Store) List() []pricing.TenureType {
	out, err := s.ListTenures(context.Background())
	if err != nil {
		log.Printf("sqlite: list tenure types: %v", err)
	}
	return out
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTenure(row scanner) (*pricing.TenureType, error) {
	var code, label, weight, cadence string
	if err := row.Scan(&code, &label, &weight, &cadence); err != nil {
		return nil, err
	}
	w, err := decimal.NewFromString(weight)
	if err != nil {
		return nil, fmt.Errorf("corrupt allocation_weight for %s: %w", code, err)
	}
	c, err := decimal.NewFromString(cadence)
	if err != nil {
		return nil, fmt.Errorf("corrupt meetings_per_month for %s: %w", code, err)
	}
	return &pricing.TenureType{
		Code:             pricing.TenureCode(code),
		Label:            label,
		AllocationWeight: w,
		MeetingsPerMonth: c,
	}, nil
}

// =============================================================================
// PLAN STORE
// =============================================================================

// SavePlan writes the plan and everything it owns in one transaction,
// replacing any previous version of the same id.
func (s *Store) SavePlan(ctx context.Context, plan *pricing.PricingPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createdAt := plan.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var startDate string
	if !plan.Terms.StartDate.IsZero() {
		startDate = plan.Terms.StartDate.Format(dateLayout)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO plans
		(id, client_name, total_investment, duration_months, discount_percent, start_date, frequency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.ClientName,
		plan.TotalInvestment.Value.String(), plan.DurationMonths, plan.DiscountPercent.String(),
		startDate, string(plan.Terms.Frequency), createdAt.Format(timeLayout)); err != nil {
		return err
	}

	// Child rows are replaced wholesale.
	for _, table := range []string{"plan_members", "plan_components", "schedule_entries"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE plan_id = ?`, plan.ID); err != nil {
			return err
		}
	}

	for i, m := range plan.Members {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO plan_members
			(plan_id, position, role, tenure_code, meeting_type, mode, head_count, share_percent, breakup_amount, total_meetings)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			plan.ID, i, m.Role, string(m.TenureCode), m.MeetingType, string(m.Mode),
			m.HeadCount, m.SharePercent.String(), m.BreakupAmount.Value.String(), m.TotalMeetings); err != nil {
			return err
		}
	}

	for _, c := range plan.Terms.Components {
		selected := 0
		if c.Selected {
			selected = 1
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO plan_components (plan_id, kind, selected, rate, lumpsum_amount)
			VALUES (?, ?, ?, ?, ?)`,
			plan.ID, string(c.Kind), selected, c.Rate.String(), c.LumpsumAmount.Value.String()); err != nil {
			return err
		}
	}

	for i, e := range plan.Schedule {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_entries
			(plan_id, position, label, due_date, basic_amount, tax_add_on_amount, withholding_amount, reimbursement_amount, net_receivable)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			plan.ID, i, e.Label, e.DueDate.Format(dateLayout),
			e.BasicAmount.Value.String(), e.TaxAddOnAmount.Value.String(),
			e.WithholdingAmount.Value.String(), e.ReimbursementAmount.Value.String(),
			e.NetReceivable().Value.String()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetPlan loads a plan with its members, components and schedule.
func (s *Store) GetPlan(ctx context.Context, id string) (*pricing.PricingPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, err := s.scanPlanHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadChildren(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListPlans returns all plans (with children) ordered by creation time.
func (s *Store) ListPlans(ctx context.Context) ([]*pricing.PricingPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM plans ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*pricing.PricingPlan, 0, len(ids))
	for _, id := range ids {
		plan, err := s.scanPlanHeader(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.loadChildren(ctx, plan); err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	return out, nil
}

// DeletePlan removes the plan; child rows cascade.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pricing.ErrPlanNotFound
	}
	return nil
}

func (s *Store) scanPlanHeader(ctx context.Context, id string) (*pricing.PricingPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_name, total_investment, duration_months, discount_percent, start_date, frequency, created_at
		FROM plans WHERE id = ?`, id)

	var plan pricing.PricingPlan
	var total, discount, startDate, frequency, createdAt string
	err := row.Scan(&plan.ID, &plan.ClientName, &total, &plan.DurationMonths, &discount, &startDate, &frequency, &createdAt)
	if err == sql.ErrNoRows {
		return nil, pricing.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	if plan.TotalInvestment.Value, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("corrupt total_investment for %s: %w", id, err)
	}
	if plan.DiscountPercent, err = decimal.NewFromString(discount); err != nil {
		return nil, fmt.Errorf("corrupt discount_percent for %s: %w", id, err)
	}
	if startDate != "" {
		if plan.Terms.StartDate, err = time.Parse(dateLayout, startDate); err != nil {
			return nil, fmt.Errorf("corrupt start_date for %s: %w", id, err)
		}
	}
	plan.Terms.Frequency = pricing.Frequency(frequency)
	if plan.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at for %s: %w", id, err)
	}
	return &plan, nil
}

func (s *Store) loadChildren(ctx context.Context, plan *pricing.PricingPlan) error {
	if err := s.loadMembers(ctx, plan); err != nil {
		return err
	}
	if err := s.loadComponents(ctx, plan); err != nil {
		return err
	}
	return s.loadSchedule(ctx, plan)
}

func (s *Store) loadMembers(ctx context.Context, plan *pricing.PricingPlan) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, tenure_code, meeting_type, mode, head_count, share_percent, breakup_amount, total_meetings
		FROM plan_members WHERE plan_id = ? ORDER BY position`, plan.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m pricing.TeamMember
		var tenure, mode, share, amount string
		if err := rows.Scan(&m.Role, &tenure, &m.MeetingType, &mode, &m.HeadCount, &share, &amount, &m.TotalMeetings); err != nil {
			return err
		}
		m.TenureCode = pricing.TenureCode(tenure)
		m.Mode = pricing.Mode(mode)
		if m.SharePercent, err = decimal.NewFromString(share); err != nil {
			return fmt.Errorf("corrupt share_percent for %s: %w", plan.ID, err)
		}
		if m.BreakupAmount.Value, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("corrupt breakup_amount for %s: %w", plan.ID, err)
		}
		plan.Members = append(plan.Members, m)
	}
	return rows.Err()
}

func (s *Store) loadComponents(ctx context.Context, plan *pricing.PricingPlan) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, selected, rate, lumpsum_amount
		FROM plan_components WHERE plan_id = ? ORDER BY kind`, plan.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c pricing.PaymentComponent
		var kind, rate, lumpsum string
		var selected int
		if err := rows.Scan(&kind, &selected, &rate, &lumpsum); err != nil {
			return err
		}
		c.Kind = pricing.ComponentKind(kind)
		c.Selected = selected != 0
		if c.Rate, err = decimal.NewFromString(rate); err != nil {
			return fmt.Errorf("corrupt rate for %s: %w", plan.ID, err)
		}
		if c.LumpsumAmount.Value, err = decimal.NewFromString(lumpsum); err != nil {
			return fmt.Errorf("corrupt lumpsum_amount for %s: %w", plan.ID, err)
		}
		plan.Terms.Components = append(plan.Terms.Components, c)
	}
	return rows.Err()
}

func (s *Store) loadSchedule(ctx context.Context, plan *pricing.PricingPlan) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, due_date, basic_amount, tax_add_on_amount, withholding_amount, reimbursement_amount
		FROM schedule_entries WHERE plan_id = ? ORDER BY position`, plan.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e pricing.ScheduleEntry
		var due, basic, tax, withholding, reimbursement string
		if err := rows.Scan(&e.Label, &due, &basic, &tax, &withholding, &reimbursement); err != nil {
			return err
		}
		if e.DueDate, err = time.Parse(dateLayout, due); err != nil {
			return fmt.Errorf("corrupt due_date for %s: %w", plan.ID, err)
		}
		if e.BasicAmount.Value, err = decimal.NewFromString(basic); err != nil {
			return fmt.Errorf("corrupt basic_amount for %s: %w", plan.ID, err)
		}
		if e.TaxAddOnAmount.Value, err = decimal.NewFromString(tax); err != nil {
			return fmt.Errorf("corrupt tax_add_on_amount for %s: %w", plan.ID, err)
		}
		if e.WithholdingAmount.Value, err = decimal.NewFromString(withholding); err != nil {
			return fmt.Errorf("corrupt withholding_amount for %s: %w", plan.ID, err)
		}
		if e.ReimbursementAmount.Value, err = decimal.NewFromString(reimbursement); err != nil {
			return fmt.Errorf("corrupt reimbursement_amount for %s: %w", plan.ID, err)
		}
		plan.Schedule = append(plan.Schedule, e)
	}
	return rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset clears all data. Used by demo scenario loading.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"schedule_entries", "plan_components", "plan_members", "plans", "tenure_types"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	return nil
}
