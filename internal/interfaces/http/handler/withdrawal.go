package handler

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appwithdrawal "github.com/chrono60/backend/internal/application/withdrawal"
	"github.com/chrono60/backend/internal/domain/withdrawal"
	"github.com/chrono60/backend/internal/interfaces/http/dto"
)

// WithdrawalHandler handles payout requests and the admin approval flow
type WithdrawalHandler struct {
	BaseHandler
	service *appwithdrawal.Service
	repo    withdrawal.Repository
}

// NewWithdrawalHandler creates a WithdrawalHandler
func NewWithdrawalHandler(service *appwithdrawal.Service, repo withdrawal.Repository) *WithdrawalHandler {
	return &WithdrawalHandler{service: service, repo: repo}
}

// WithdrawalResponse is the member and admin view of a request
type WithdrawalResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Amount       string     `json:"amount"`
	FeeAmount    string     `json:"fee_amount"`
	NetAmount    string     `json:"net_amount"`
	Status       string     `json:"status"`
	PixKey       string     `json:"pix_key"`
	PixKeyType   string     `json:"pix_key_type"`
	TransferID   string     `json:"transfer_id,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
	RequestedAt  time.Time  `json:"requested_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

func toWithdrawalResponse(w *withdrawal.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		ID:           w.GetID().String(),
		UserID:       w.UserID.String(),
		Amount:       w.Amount.StringFixed(2),
		FeeAmount:    w.FeeAmount.StringFixed(2),
		NetAmount:    w.NetAmount.StringFixed(2),
		Status:       w.Status.String(),
		PixKey:       w.PixKey,
		PixKeyType:   string(w.PixKeyType),
		TransferID:   w.TransferID,
		RejectReason: w.RejectReason,
		RequestedAt:  w.RequestedAt,
		ProcessedAt:  w.ProcessedAt,
	}
}

// RequestWithdrawalRequest is the payout request payload
type RequestWithdrawalRequest struct {
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	PixKey     string  `json:"pix_key" binding:"required"`
	PixKeyType string  `json:"pix_key_type" binding:"required,oneof=cpf email phone random"`
}

// Request handles POST /api/v1/withdrawals
func (h *WithdrawalHandler) Request(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req RequestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	w, err := h.service.RequestWithdrawal(
		c.Request.Context(),
		userID,
		decimal.NewFromFloat(req.Amount),
		req.PixKey,
		withdrawal.PixKeyType(req.PixKeyType),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toWithdrawalResponse(w))
}

// List handles GET /api/v1/withdrawals
func (h *WithdrawalHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	withdrawals, err := h.repo.FindByUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]WithdrawalResponse, 0, len(withdrawals))
	for _, w := range withdrawals {
		out = append(out, toWithdrawalResponse(w))
	}
	h.Success(c, out)
}

// Window handles GET /api/v1/withdrawals/window
func (h *WithdrawalHandler) Window(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	cfg := h.service.Window()
	withdrawnToday, err := h.service.HasWithdrawnToday(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	days := make([]string, 0, len(cfg.Days))
	for _, d := range cfg.Days {
		days = append(days, d.String())
	}

	h.Success(c, gin.H{
		"days":            days,
		"start_hour":      cfg.StartHour,
		"end_hour":        cfg.EndHour,
		"min_amount":      cfg.MinAmount.StringFixed(2),
		"fee_percent":     cfg.FeePercent.String(),
		"daily_limit":     cfg.DailyLimit,
		"withdrawn_today": withdrawnToday,
	})
}

// ListByStatus handles GET /api/v1/admin/withdrawals
func (h *WithdrawalHandler) ListByStatus(c *gin.Context) {
	status := withdrawal.Status(c.DefaultQuery("status", string(withdrawal.StatusRequested)))
	if !status.IsValid() {
		h.BadRequest(c, "Invalid withdrawal status")
		return
	}

	withdrawals, err := h.repo.FindByStatus(c.Request.Context(), status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]WithdrawalResponse, 0, len(withdrawals))
	for _, w := range withdrawals {
		out = append(out, toWithdrawalResponse(w))
	}
	h.Success(c, out)
}

// Approve handles POST /api/v1/admin/withdrawals/:id/approve
func (h *WithdrawalHandler) Approve(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.service.Approve(c.Request.Context(), uuid.MustParse(req.ID)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"approved": true})
}

// RejectWithdrawalRequest is the rejection payload
type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// Reject handles POST /api/v1/admin/withdrawals/:id/reject
func (h *WithdrawalHandler) Reject(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var req RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return
	}

	if err := h.service.Reject(c.Request.Context(), uuid.MustParse(uri.ID), req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"rejected": true})
}

// PayOut handles POST /api/v1/admin/withdrawals/:id/pay
func (h *WithdrawalHandler) PayOut(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.service.PayOut(c.Request.Context(), uuid.MustParse(req.ID)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"paid": true})
}
