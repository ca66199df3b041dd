/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's decimal-based model from the external API contract: money
  and percentage fields travel as strings to avoid float64 round-trips.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - factory/plan.go: PlanInputJSON, TenureTypeJSON (shared input shapes)
*/
package api

import (
	"time"

	"github.com/warp/pricing-engine/factory"
	"github.com/warp/pricing-engine/pricing"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// TeamMemberDTO represents one team deployment row, derived fields included.
type TeamMemberDTO struct {
	Role           string `json:"role"`
	TenureCode     string `json:"tenure_code"`
	MeetingType    string `json:"meeting_type"`
	Mode           string `json:"mode"`
	HeadCount      int    `json:"head_count"`
	SharePercent   string `json:"share_percent"`
	BreakupAmount  string `json:"breakup_amount"`
	TotalMeetings  int    `json:"total_meetings"`
	RatePerMeeting string `json:"rate_per_meeting"`
}

// ScheduleEntryDTO represents one installment row.
type ScheduleEntryDTO struct {
	Label               string `json:"label"`
	DueDate             string `json:"due_date"`
	BasicAmount         string `json:"basic_amount"`
	TaxAddOnAmount      string `json:"tax_add_on_amount"`
	WithholdingAmount   string `json:"withholding_amount"`
	ReimbursementAmount string `json:"reimbursement_amount"`
	NetReceivable       string `json:"net_receivable"`
}

// PlanDTO represents a pricing plan in API responses.
type PlanDTO struct {
	ID              string                  `json:"id"`
	ClientName      string                  `json:"client_name"`
	TotalInvestment string                  `json:"total_investment"`
	DurationMonths  int                     `json:"duration_months"`
	DiscountPercent string                  `json:"discount_percent"`
	State           string                  `json:"state"`
	Members         []TeamMemberDTO         `json:"members"`
	Payment         *factory.PaymentJSON    `json:"payment,omitempty"`
	Schedule        []ScheduleEntryDTO      `json:"schedule,omitempty"`
	CreatedAt       string                  `json:"created_at,omitempty"`
}

// SummaryDTO represents plan totals and the reconciliation diagnostic.
type SummaryDTO struct {
	TotalMeetings     int    `json:"total_meetings"`
	Subtotal          string `json:"subtotal"`
	Discount          string `json:"discount"`
	AfterDiscount     string `json:"after_discount"`
	TaxAddOn          string `json:"tax_add_on"`
	GrandTotal        string `json:"grand_total"`
	AllocatedTotal    string `json:"allocated_total"`
	AllocationDelta   string `json:"allocation_delta"`
	IsAllocationValid bool   `json:"is_allocation_valid"`
}

// AddMemberRequest is the request body for adding a team member.
type AddMemberRequest struct {
	Role        string `json:"role"`
	TenureCode  string `json:"tenure_code"`
	MeetingType string `json:"meeting_type"`
	Mode        string `json:"mode,omitempty"`
	HeadCount   int    `json:"head_count,omitempty"`
}

// SetInvestmentRequest updates a plan's negotiated figure.
type SetInvestmentRequest struct {
	TotalInvestment string `json:"total_investment"`
}

// SetDurationRequest updates a plan's engagement duration.
type SetDurationRequest struct {
	DurationMonths int `json:"duration_months"`
}

// BuildScheduleRequest supplies the schedule parameters. Omitted fields fall
// back to the plan's stored payment terms.
type BuildScheduleRequest struct {
	StartDate  string                  `json:"start_date,omitempty"`
	Frequency  string                  `json:"frequency,omitempty"`
	Components []factory.ComponentJSON `json:"components,omitempty"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario.
type LoadScenarioRequest struct {
	ID string `json:"id"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toMemberDTO(m pricing.TeamMember) TeamMemberDTO {
	return TeamMemberDTO{
		Role:           m.Role,
		TenureCode:     string(m.TenureCode),
		MeetingType:    m.MeetingType,
		Mode:           string(m.Mode),
		HeadCount:      m.HeadCount,
		SharePercent:   m.SharePercent.StringFixed(4),
		BreakupAmount:  m.BreakupAmount.String(),
		TotalMeetings:  m.TotalMeetings,
		RatePerMeeting: m.RatePerMeeting().String(),
	}
}

func toScheduleDTO(e pricing.ScheduleEntry) ScheduleEntryDTO {
	return ScheduleEntryDTO{
		Label:               e.Label,
		DueDate:             e.DueDate.Format("2006-01-02"),
		BasicAmount:         e.BasicAmount.String(),
		TaxAddOnAmount:      e.TaxAddOnAmount.String(),
		WithholdingAmount:   e.WithholdingAmount.String(),
		ReimbursementAmount: e.ReimbursementAmount.String(),
		NetReceivable:       e.NetReceivable().String(),
	}
}

func toPlanDTO(plan *pricing.PricingPlan) PlanDTO {
	dto := PlanDTO{
		ID:              plan.ID,
		ClientName:      plan.ClientName,
		TotalInvestment: plan.TotalInvestment.String(),
		DurationMonths:  plan.DurationMonths,
		DiscountPercent: plan.DiscountPercent.String(),
		State:           planState(plan),
		Members:         make([]TeamMemberDTO, len(plan.Members)),
	}
	for i, m := range plan.Members {
		dto.Members[i] = toMemberDTO(m)
	}
	if !plan.Terms.StartDate.IsZero() || plan.Terms.Frequency != "" {
		dto.Payment = toPaymentJSON(plan.Terms)
	}
	for _, e := range plan.Schedule {
		dto.Schedule = append(dto.Schedule, toScheduleDTO(e))
	}
	if !plan.CreatedAt.IsZero() {
		dto.CreatedAt = plan.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toPaymentJSON(terms pricing.PaymentTerms) *factory.PaymentJSON {
	pj := &factory.PaymentJSON{Frequency: string(terms.Frequency)}
	if !terms.StartDate.IsZero() {
		pj.StartDate = terms.StartDate.Format("2006-01-02")
	}
	for _, c := range terms.Components {
		cj := factory.ComponentJSON{Kind: string(c.Kind), Selected: c.Selected}
		switch c.Kind {
		case pricing.ComponentReimbursement:
			cj.LumpsumAmount = c.LumpsumAmount.String()
		default:
			cj.Rate = c.Rate.String()
		}
		pj.Components = append(pj.Components, cj)
	}
	return pj
}

func toSummaryDTO(s pricing.Summary) SummaryDTO {
	return SummaryDTO{
		TotalMeetings:     s.TotalMeetings,
		Subtotal:          s.Subtotal.String(),
		Discount:          s.Discount.String(),
		AfterDiscount:     s.AfterDiscount.String(),
		TaxAddOn:          s.TaxAddOn.String(),
		GrandTotal:        s.GrandTotal.String(),
		AllocatedTotal:    s.AllocatedTotal.String(),
		AllocationDelta:   s.AllocationDelta.String(),
		IsAllocationValid: s.IsAllocationValid,
	}
}

func planState(plan *pricing.PricingPlan) string {
	if plan.TotalInvestment.IsPositive() && len(plan.Members) > 0 {
		return string(pricing.StatePriced)
	}
	return string(pricing.StateUnpriced)
}
