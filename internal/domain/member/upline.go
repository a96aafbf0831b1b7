package member

import (
	"context"
	"errors"

	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxUplineLevels is the depth of the referral tree eligible for commissions
const MaxUplineLevels = 3

// UplineResolver walks the referral chain above a user. The walk is
// iterative and capped at maxLevels so a corrupted referred_by chain can
// never loop forever.
type UplineResolver struct {
	users UserRepository
}

// NewUplineResolver creates a new UplineResolver
func NewUplineResolver(users UserRepository) *UplineResolver {
	return &UplineResolver{users: users}
}

// Chain returns the ancestors of userID ordered from level 1 (direct
// referrer) up to maxLevels. A shorter chain is returned when the tree ends
// early; a missing referrer is not an error.
func (r *UplineResolver) Chain(ctx context.Context, userID uuid.UUID, maxLevels int) ([]*User, error) {
	if maxLevels <= 0 || maxLevels > MaxUplineLevels {
		maxLevels = MaxUplineLevels
	}

	chain := make([]*User, 0, maxLevels)
	seen := map[uuid.UUID]bool{userID: true}
	current := userID

	for level := 1; level <= maxLevels; level++ {
		upline, err := r.users.FindReferrerOf(ctx, current)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				break
			}
			return nil, err
		}
		if seen[upline.ID] {
			// corrupted chain, stop rather than loop
			break
		}
		seen[upline.ID] = true
		chain = append(chain, upline)
		current = upline.ID
	}

	return chain, nil
}
