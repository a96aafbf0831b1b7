package investment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PlanRepository persists investment plans
type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	FindByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	FindAll(ctx context.Context) ([]*Plan, error)
	ListActive(ctx context.Context) ([]*Plan, error)
	Save(ctx context.Context, plan *Plan) error
	// Delete refuses to remove a plan that still has cycles
	Delete(ctx context.Context, id uuid.UUID) error
}

// CycleRepository persists investment cycles
type CycleRepository interface {
	Create(ctx context.Context, cycle *Cycle) error
	FindByID(ctx context.Context, id uuid.UUID) (*Cycle, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*Cycle, error)
	FindActive(ctx context.Context) ([]*Cycle, error)
	CountActiveByUserAndPlan(ctx context.Context, userID, planID uuid.UUID) (int64, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Save(ctx context.Context, cycle *Cycle) error
	SaveWithLock(ctx context.Context, cycle *Cycle) error
}

// EarningRepository persists yield payments. Create returns
// shared.ErrAlreadyExists when (cycle_id, reference_date, type) collides.
type EarningRepository interface {
	Create(ctx context.Context, earning *Earning) error
	FindByID(ctx context.Context, id uuid.UUID) (*Earning, error)
	FindByCycle(ctx context.Context, cycleID uuid.UUID) ([]*Earning, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*Earning, error)
	ExistsForDate(ctx context.Context, cycleID uuid.UUID, referenceDate time.Time, earningType EarningType) (bool, error)
}
