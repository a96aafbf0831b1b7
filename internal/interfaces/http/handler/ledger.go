package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/interfaces/http/dto"
)

// LedgerHandler serves the member's account statement
type LedgerHandler struct {
	BaseHandler
	entries ledger.EntryRepository
}

// NewLedgerHandler creates a LedgerHandler
func NewLedgerHandler(entries ledger.EntryRepository) *LedgerHandler {
	return &LedgerHandler{entries: entries}
}

// EntryResponse is one statement line
type EntryResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	ReferenceKind string    `json:"reference_kind"`
	ReferenceID   string    `json:"reference_id"`
	Description   string    `json:"description"`
	Amount        string    `json:"amount"`
	Operation     string    `json:"operation"`
	BalanceKind   string    `json:"balance_kind"`
	BalanceBefore string    `json:"balance_before"`
	BalanceAfter  string    `json:"balance_after"`
	CreatedAt     time.Time `json:"created_at"`
}

func toEntryResponse(e *ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:            e.GetID().String(),
		Type:          string(e.Type),
		ReferenceKind: string(e.Reference.Kind),
		ReferenceID:   e.Reference.ID.String(),
		Description:   e.Description,
		Amount:        e.Amount.StringFixed(2),
		Operation:     string(e.Operation),
		BalanceKind:   string(e.BalanceKind),
		BalanceBefore: e.BalanceBefore.StringFixed(2),
		BalanceAfter:  e.BalanceAfter.StringFixed(2),
		CreatedAt:     e.CreatedAt,
	}
}

// ListEntriesRequest filters the statement
type ListEntriesRequest struct {
	dto.ListRequest
	Type string `form:"type" binding:"omitempty"`
}

// List handles GET /api/v1/ledger
func (h *LedgerHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ListEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.Normalize()

	filter := ledger.Filter{
		Limit:  req.PageSize,
		Offset: req.Offset(),
	}
	if req.Type != "" {
		t := ledger.EntryType(req.Type)
		if !t.IsValid() {
			h.BadRequest(c, "Invalid entry type")
			return
		}
		filter.Type = &t
	}

	entries, err := h.entries.FindByUser(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	countFilter := filter
	countFilter.Limit = 0
	countFilter.Offset = 0
	total, err := h.entries.CountByUser(c.Request.Context(), userID, countFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}

	h.SuccessWithMeta(c, out, total, req.Page, req.PageSize)
}
