package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appmember "github.com/chrono60/backend/internal/application/member"
	"github.com/chrono60/backend/internal/interfaces/http/dto"
)

// AdjustmentHandler exposes the admin balance correction endpoint
type AdjustmentHandler struct {
	BaseHandler
	service *appmember.AdjustmentService
}

// NewAdjustmentHandler creates an AdjustmentHandler
func NewAdjustmentHandler(service *appmember.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{service: service}
}

// AdjustBalanceRequest is the manual correction payload. Amount is
// signed: positive credits, negative debits.
type AdjustBalanceRequest struct {
	Amount      float64 `json:"amount" binding:"required"`
	Description string  `json:"description" binding:"omitempty,max=500"`
}

// Adjust handles POST /api/v1/admin/users/:id/adjust
func (h *AdjustmentHandler) Adjust(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	applied, err := h.service.AdjustBalance(
		c.Request.Context(),
		uuid.MustParse(uri.ID),
		decimal.NewFromFloat(req.Amount),
		req.Description,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"requested": decimal.NewFromFloat(req.Amount).Round(2).StringFixed(2),
		"applied":   applied.StringFixed(2),
	})
}
