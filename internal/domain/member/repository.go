package member

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository provides access to member accounts
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByIDForUpdate loads a user with a row-level lock. Must be called
	// inside a transaction scope; the lock is held until commit/rollback.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByReferralCode(ctx context.Context, code string) (*User, error)
	// FindReferrerOf returns the direct upline of the given user, or
	// shared.ErrNotFound when the user has no referrer.
	FindReferrerOf(ctx context.Context, userID uuid.UUID) (*User, error)
	FindDownline(ctx context.Context, userID uuid.UUID) ([]*User, error)
	Save(ctx context.Context, user *User) error
	// SaveWithLock persists the aggregate guarded by its version column
	SaveWithLock(ctx context.Context, user *User) error
}
