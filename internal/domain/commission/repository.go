package commission

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists commission rows. Create returns
// shared.ErrAlreadyExists when the idempotency key collides, allowing
// callers to skip already-paid levels.
type Repository interface {
	Create(ctx context.Context, commission *Commission) error
	FindByID(ctx context.Context, id uuid.UUID) (*Commission, error)
	FindByReceiver(ctx context.Context, userID uuid.UUID) ([]*Commission, error)
	FindByCycle(ctx context.Context, cycleID uuid.UUID) ([]*Commission, error)
}
