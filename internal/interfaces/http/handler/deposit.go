package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apppayment "github.com/chrono60/backend/internal/application/payment"
	"github.com/chrono60/backend/internal/domain/payment"
)

// DepositHandler handles deposit endpoints
type DepositHandler struct {
	BaseHandler
	deposits *apppayment.DepositService
	repo     payment.DepositRepository
}

// NewDepositHandler creates a DepositHandler
func NewDepositHandler(deposits *apppayment.DepositService, repo payment.DepositRepository) *DepositHandler {
	return &DepositHandler{deposits: deposits, repo: repo}
}

// CreateDepositRequest is the deposit creation payload
type CreateDepositRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// DepositResponse is the member-facing deposit view
type DepositResponse struct {
	ID            string     `json:"id"`
	Amount        string     `json:"amount"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transaction_id"`
	QRCode        string     `json:"qr_code,omitempty"`
	QRCodeText    string     `json:"qr_code_text,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toDepositResponse(d *payment.Deposit) DepositResponse {
	return DepositResponse{
		ID:            d.GetID().String(),
		Amount:        d.Amount.StringFixed(2),
		Status:        d.Status.String(),
		TransactionID: d.TransactionID,
		QRCode:        d.QRCode,
		QRCodeText:    d.QRCodeText,
		PaidAt:        d.PaidAt,
		ExpiresAt:     d.ExpiresAt,
		CreatedAt:     d.CreatedAt,
	}
}

// Create handles POST /api/v1/deposits
func (h *DepositHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	deposit, err := h.deposits.CreateDeposit(c.Request.Context(), userID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toDepositResponse(deposit))
}

// List handles GET /api/v1/deposits
func (h *DepositHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	deposits, err := h.repo.FindByUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]DepositResponse, 0, len(deposits))
	for _, d := range deposits {
		out = append(out, toDepositResponse(d))
	}
	h.Success(c, out)
}
