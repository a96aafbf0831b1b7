package member

import (
	"context"
	"fmt"

	"github.com/chrono60/backend/internal/domain/commission"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NetworkService answers referral-tree queries for the member UI
type NetworkService struct {
	users       member.UserRepository
	commissions commission.Repository
	logger      *zap.Logger
}

// NewNetworkService creates a NetworkService
func NewNetworkService(users member.UserRepository, commissions commission.Repository, logger *zap.Logger) *NetworkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NetworkService{users: users, commissions: commissions, logger: logger}
}

// DownlineMember is one person in a user's network
type DownlineMember struct {
	UserID uuid.UUID
	Name   string
	Level  int
}

// NetworkSummary is the member-facing view of their referral network
type NetworkSummary struct {
	ReferralCode     string
	Members          []DownlineMember
	TotalCommissions decimal.Decimal
}

// Network lists a user's downline up to the commission depth and sums the
// commissions they have produced
func (s *NetworkService) Network(ctx context.Context, userID uuid.UUID) (*NetworkSummary, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	summary := &NetworkSummary{
		ReferralCode:     user.ReferralCode,
		TotalCommissions: decimal.Zero,
	}

	// breadth-first by level, bounded by the commission depth
	frontier := []uuid.UUID{userID}
	for level := 1; level <= member.MaxUplineLevels && len(frontier) > 0; level++ {
		var next []uuid.UUID
		for _, parentID := range frontier {
			children, err := s.users.FindDownline(ctx, parentID)
			if err != nil {
				return nil, fmt.Errorf("find downline: %w", err)
			}
			for _, c := range children {
				summary.Members = append(summary.Members, DownlineMember{
					UserID: c.ID,
					Name:   c.Name,
					Level:  level,
				})
				next = append(next, c.ID)
			}
		}
		frontier = next
	}

	rows, err := s.commissions.FindByReceiver(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find commissions: %w", err)
	}
	for _, r := range rows {
		summary.TotalCommissions = summary.TotalCommissions.Add(r.Amount)
	}

	return summary, nil
}
