package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/domain/withdrawal"
	"github.com/chrono60/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormWithdrawalRepository implements withdrawal.Repository using GORM
type GormWithdrawalRepository struct {
	db *gorm.DB
}

// NewGormWithdrawalRepository creates a new GormWithdrawalRepository
func NewGormWithdrawalRepository(db *gorm.DB) *GormWithdrawalRepository {
	return &GormWithdrawalRepository{db: db}
}

// Create inserts a withdrawal request
func (r *GormWithdrawalRepository) Create(ctx context.Context, w *withdrawal.Withdrawal) error {
	model := models.WithdrawalModelFromDomain(w)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a withdrawal by ID
func (r *GormWithdrawalRepository) FindByID(ctx context.Context, id uuid.UUID) (*withdrawal.Withdrawal, error) {
	var model models.WithdrawalModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser lists a user's withdrawals newest first
func (r *GormWithdrawalRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*withdrawal.Withdrawal, error) {
	var withdrawalModels []models.WithdrawalModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("requested_at DESC").
		Find(&withdrawalModels).Error; err != nil {
		return nil, err
	}
	return toDomainWithdrawals(withdrawalModels), nil
}

// FindByStatus lists withdrawals in one status, oldest first
func (r *GormWithdrawalRepository) FindByStatus(ctx context.Context, status withdrawal.Status) ([]*withdrawal.Withdrawal, error) {
	var withdrawalModels []models.WithdrawalModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("requested_at ASC").
		Find(&withdrawalModels).Error; err != nil {
		return nil, err
	}
	return toDomainWithdrawals(withdrawalModels), nil
}

// CountForDay counts a user's requests on the calendar day of ref,
// excluding REJECTED and CANCELLED so refused requests give the day back
func (r *GormWithdrawalRepository) CountForDay(ctx context.Context, userID uuid.UUID, ref time.Time) (int64, error) {
	y, m, d := ref.UTC().Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WithdrawalModel{}).
		Where("user_id = ? AND requested_at >= ? AND requested_at < ?", userID, dayStart, dayEnd).
		Where("status NOT IN ?", []withdrawal.Status{withdrawal.StatusRejected, withdrawal.StatusCancelled}).
		Count(&count).Error
	return count, err
}

// Save persists changes to an existing withdrawal
func (r *GormWithdrawalRepository) Save(ctx context.Context, w *withdrawal.Withdrawal) error {
	model := models.WithdrawalModelFromDomain(w)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a withdrawal with optimistic locking (version check)
func (r *GormWithdrawalRepository) SaveWithLock(ctx context.Context, w *withdrawal.Withdrawal) error {
	w.IncrementVersion()
	model := models.WithdrawalModelFromDomain(w)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", w.GetID(), w.Version-1).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The withdrawal record has been modified by another transaction")
	}
	return nil
}

func toDomainWithdrawals(withdrawalModels []models.WithdrawalModel) []*withdrawal.Withdrawal {
	withdrawals := make([]*withdrawal.Withdrawal, len(withdrawalModels))
	for i := range withdrawalModels {
		withdrawals[i] = withdrawalModels[i].ToDomain()
	}
	return withdrawals
}

var _ withdrawal.Repository = (*GormWithdrawalRepository)(nil)
