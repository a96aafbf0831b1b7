package withdrawal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists withdrawal requests
type Repository interface {
	Create(ctx context.Context, withdrawal *Withdrawal) error
	FindByID(ctx context.Context, id uuid.UUID) (*Withdrawal, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*Withdrawal, error)
	FindByStatus(ctx context.Context, status Status) ([]*Withdrawal, error)
	// CountForDay counts a user's requests on the calendar day of ref,
	// excluding REJECTED and CANCELLED
	CountForDay(ctx context.Context, userID uuid.UUID, ref time.Time) (int64, error)
	Save(ctx context.Context, withdrawal *Withdrawal) error
	SaveWithLock(ctx context.Context, withdrawal *Withdrawal) error
}
