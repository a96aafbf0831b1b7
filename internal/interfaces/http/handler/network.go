package handler

import (
	"github.com/gin-gonic/gin"

	appmember "github.com/chrono60/backend/internal/application/member"
)

// NetworkHandler exposes the member's referral downline
type NetworkHandler struct {
	BaseHandler
	network *appmember.NetworkService
}

// NewNetworkHandler creates a NetworkHandler
func NewNetworkHandler(network *appmember.NetworkService) *NetworkHandler {
	return &NetworkHandler{network: network}
}

// DownlineMemberResponse is one member of the downline tree
type DownlineMemberResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Level  int    `json:"level"`
}

// NetworkResponse summarizes the member's referral network
type NetworkResponse struct {
	ReferralCode     string                   `json:"referral_code"`
	Members          []DownlineMemberResponse `json:"members"`
	TotalCommissions string                   `json:"total_commissions"`
}

// Get handles GET /api/v1/network
func (h *NetworkHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	summary, err := h.network.Network(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	members := make([]DownlineMemberResponse, 0, len(summary.Members))
	for _, m := range summary.Members {
		members = append(members, DownlineMemberResponse{
			UserID: m.UserID.String(),
			Name:   m.Name,
			Level:  m.Level,
		})
	}

	h.Success(c, NetworkResponse{
		ReferralCode:     summary.ReferralCode,
		Members:          members,
		TotalCommissions: summary.TotalCommissions.StringFixed(2),
	})
}
