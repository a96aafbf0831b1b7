package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinvestment "github.com/chrono60/backend/internal/application/investment"
	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/chrono60/backend/internal/interfaces/http/dto"
)

// InvestmentHandler handles plan listing and cycle purchases
type InvestmentHandler struct {
	BaseHandler
	purchases *appinvestment.PurchaseService
	plans     investment.PlanRepository
	cycles    investment.CycleRepository
	earnings  investment.EarningRepository
}

// NewInvestmentHandler creates an InvestmentHandler
func NewInvestmentHandler(
	purchases *appinvestment.PurchaseService,
	plans investment.PlanRepository,
	cycles investment.CycleRepository,
	earnings investment.EarningRepository,
) *InvestmentHandler {
	return &InvestmentHandler{
		purchases: purchases,
		plans:     plans,
		cycles:    cycles,
		earnings:  earnings,
	}
}

// PlanResponse is the catalog view of a plan
type PlanResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Type         string `json:"type"`
	Price        string `json:"price"`
	DailyIncome  string `json:"daily_income"`
	DurationDays int    `json:"duration_days"`
	TotalReturn  string `json:"total_return"`
	MaxPurchases int    `json:"max_purchases"`
}

func toPlanResponse(p *investment.Plan) PlanResponse {
	return PlanResponse{
		ID:           p.GetID().String(),
		Name:         p.Name,
		Description:  p.Description,
		Type:         p.Type.String(),
		Price:        p.Price.StringFixed(2),
		DailyIncome:  p.DailyIncome.StringFixed(2),
		DurationDays: p.DurationDays,
		TotalReturn:  p.TotalReturn.StringFixed(2),
		MaxPurchases: p.MaxPurchases,
	}
}

// CycleResponse is the member view of one running investment
type CycleResponse struct {
	ID            string     `json:"id"`
	PlanID        string     `json:"plan_id"`
	Amount        string     `json:"amount"`
	Status        string     `json:"status"`
	DaysPaid      int        `json:"days_paid"`
	TotalPaid     string     `json:"total_paid"`
	LastPaymentAt *time.Time `json:"last_payment_at,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	EndsAt        time.Time  `json:"ends_at"`
}

func toCycleResponse(cy *investment.Cycle) CycleResponse {
	return CycleResponse{
		ID:            cy.GetID().String(),
		PlanID:        cy.PlanID.String(),
		Amount:        cy.Amount.StringFixed(2),
		Status:        cy.Status.String(),
		DaysPaid:      cy.DaysPaid,
		TotalPaid:     cy.TotalPaid.StringFixed(2),
		LastPaymentAt: cy.LastPaymentAt,
		StartedAt:     cy.StartedAt,
		EndsAt:        cy.EndsAt,
	}
}

// ListPlans handles GET /api/v1/plans
func (h *InvestmentHandler) ListPlans(c *gin.Context) {
	plans, err := h.plans.ListActive(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResponse(p))
	}
	h.Success(c, out)
}

// PurchaseRequest is the plan purchase payload
type PurchaseRequest struct {
	PlanID string `json:"plan_id" binding:"required,uuid"`
}

// Purchase handles POST /api/v1/investments
func (h *InvestmentHandler) Purchase(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	planID := uuid.MustParse(req.PlanID)

	cycle, err := h.purchases.PurchasePlan(c.Request.Context(), userID, planID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toCycleResponse(cycle))
}

// ListCycles handles GET /api/v1/investments
func (h *InvestmentHandler) ListCycles(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	cycles, err := h.cycles.FindByUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]CycleResponse, 0, len(cycles))
	for _, cy := range cycles {
		out = append(out, toCycleResponse(cy))
	}
	h.Success(c, out)
}

// EarningResponse is one yield payment
type EarningResponse struct {
	ID            string    `json:"id"`
	CycleID       string    `json:"cycle_id"`
	Value         string    `json:"value"`
	Type          string    `json:"type"`
	ReferenceDate time.Time `json:"reference_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListEarnings handles GET /api/v1/earnings
func (h *InvestmentHandler) ListEarnings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	earnings, err := h.earnings.FindByUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]EarningResponse, 0, len(earnings))
	for _, e := range earnings {
		out = append(out, EarningResponse{
			ID:            e.GetID().String(),
			CycleID:       e.CycleID.String(),
			Value:         e.Value.StringFixed(2),
			Type:          string(e.Type),
			ReferenceDate: e.ReferenceDate,
			CreatedAt:     e.CreatedAt,
		})
	}
	h.Success(c, out)
}

// CancelCycle handles POST /api/v1/admin/cycles/:id/cancel
func (h *InvestmentHandler) CancelCycle(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.purchases.CancelCycle(c.Request.Context(), uuid.MustParse(req.ID)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"cancelled": true})
}
