package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apppayment "github.com/chrono60/backend/internal/application/payment"
	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/chrono60/backend/internal/interfaces/http/dto"
)

// WebhookHandler handles provider notifications and their admin surface
type WebhookHandler struct {
	BaseHandler
	webhooks *apppayment.WebhookService
	repo     payment.WebhookEventRepository
	logger   *zap.Logger
}

// NewWebhookHandler creates a WebhookHandler
func NewWebhookHandler(webhooks *apppayment.WebhookService, repo payment.WebhookEventRepository, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{webhooks: webhooks, repo: repo, logger: logger}
}

// WebhookEventResponse is the admin view of a stored delivery
type WebhookEventResponse struct {
	ID           string     `json:"id"`
	Provider     string     `json:"provider"`
	ExternalID   string     `json:"external_id,omitempty"`
	Status       string     `json:"status"`
	DepositID    *uuid.UUID `json:"deposit_id,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toWebhookEventResponse(e *payment.WebhookEvent) WebhookEventResponse {
	return WebhookEventResponse{
		ID:           e.GetID().String(),
		Provider:     e.Provider,
		ExternalID:   e.ExternalID,
		Status:       string(e.Status),
		DepositID:    e.DepositID,
		ErrorMessage: e.ErrorMessage,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// Receive handles POST /api/v1/webhooks/vizzion. Once the delivery is
// stored, duplicates and reconciliation failures answer 200: the stored
// event is the retry surface, not the provider. Only a delivery that could
// not be stored answers non-2xx so the provider retries it.
func (h *WebhookHandler) Receive(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(raw) == 0 {
		h.BadRequest(c, "Empty webhook body")
		return
	}

	event, err := h.webhooks.ProcessWebhook(c.Request.Context(), raw)
	if err != nil {
		if errors.Is(err, apppayment.ErrDuplicateWebhook) {
			c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}
		h.logger.Error("webhook reconciliation failed", zap.Error(err))
		if event == nil {
			h.InternalError(c, "Webhook could not be stored")
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true, "processed": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "status": string(event.Status)})
}

// List handles GET /api/v1/admin/webhooks
func (h *WebhookHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.Normalize()

	events, err := h.repo.FindRecent(c.Request.Context(), req.PageSize, req.Offset())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]WebhookEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toWebhookEventResponse(e))
	}
	h.Success(c, out)
}

// Reprocess handles POST /api/v1/admin/webhooks/:id/reprocess
func (h *WebhookHandler) Reprocess(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}
	webhookID := uuid.MustParse(req.ID)

	event, err := h.webhooks.ReprocessWebhook(c.Request.Context(), webhookID)
	if err != nil && event == nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toWebhookEventResponse(event))
}

// ConfirmDepositRequest is the manual confirmation payload
type ConfirmDepositRequest struct {
	Note string `json:"note" binding:"omitempty,max=500"`
}

// ConfirmDeposit handles POST /api/v1/admin/deposits/:id/confirm
func (h *WebhookHandler) ConfirmDeposit(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var req ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return
	}
	depositID := uuid.MustParse(uri.ID)

	if err := h.webhooks.ConfirmDepositManually(c.Request.Context(), depositID, req.Note); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"confirmed": true})
}
