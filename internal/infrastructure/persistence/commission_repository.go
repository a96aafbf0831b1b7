package persistence

import (
	"context"
	"errors"

	"github.com/chrono60/backend/internal/domain/commission"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCommissionRepository implements commission.Repository using GORM
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewGormCommissionRepository creates a new GormCommissionRepository
func NewGormCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// Create inserts a commission. Returns shared.ErrAlreadyExists when the
// level was already paid for this event.
func (r *GormCommissionRepository) Create(ctx context.Context, c *commission.Commission) error {
	model := models.CommissionModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a commission by ID
func (r *GormCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	var model models.CommissionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReceiver lists the commissions paid to a user, newest first
func (r *GormCommissionRepository) FindByReceiver(ctx context.Context, userID uuid.UUID) ([]*commission.Commission, error) {
	var commissionModels []models.CommissionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&commissionModels).Error; err != nil {
		return nil, err
	}
	return toDomainCommissions(commissionModels), nil
}

// FindByCycle lists the commissions produced by one cycle
func (r *GormCommissionRepository) FindByCycle(ctx context.Context, cycleID uuid.UUID) ([]*commission.Commission, error) {
	var commissionModels []models.CommissionModel
	if err := r.db.WithContext(ctx).
		Where("cycle_id = ?", cycleID).
		Order("level ASC").
		Find(&commissionModels).Error; err != nil {
		return nil, err
	}
	return toDomainCommissions(commissionModels), nil
}

func toDomainCommissions(commissionModels []models.CommissionModel) []*commission.Commission {
	commissions := make([]*commission.Commission, len(commissionModels))
	for i := range commissionModels {
		commissions[i] = commissionModels[i].ToDomain()
	}
	return commissions
}

var _ commission.Repository = (*GormCommissionRepository)(nil)
