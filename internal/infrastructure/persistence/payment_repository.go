package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDepositRepository implements payment.DepositRepository using GORM
type GormDepositRepository struct {
	db *gorm.DB
}

// NewGormDepositRepository creates a new GormDepositRepository
func NewGormDepositRepository(db *gorm.DB) *GormDepositRepository {
	return &GormDepositRepository{db: db}
}

// Create inserts a deposit. Returns shared.ErrAlreadyExists when the
// external transaction id is already recorded.
func (r *GormDepositRepository) Create(ctx context.Context, deposit *payment.Deposit) error {
	model := models.DepositModelFromDomain(deposit)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a deposit by ID
func (r *GormDepositRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Deposit, error) {
	var model models.DepositModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a deposit by ID holding a row lock
func (r *GormDepositRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Deposit, error) {
	var model models.DepositModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTransactionID finds a deposit by its external transaction id
func (r *GormDepositRepository) FindByTransactionID(ctx context.Context, transactionID string) (*payment.Deposit, error) {
	var model models.DepositModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTransactionIDForUpdate finds a deposit by its external transaction
// id holding a row lock
func (r *GormDepositRepository) FindByTransactionIDForUpdate(ctx context.Context, transactionID string) (*payment.Deposit, error) {
	var model models.DepositModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transaction_id = ?", transactionID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser lists a user's deposits newest first
func (r *GormDepositRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*payment.Deposit, error) {
	var depositModels []models.DepositModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&depositModels).Error; err != nil {
		return nil, err
	}
	deposits := make([]*payment.Deposit, len(depositModels))
	for i := range depositModels {
		deposits[i] = depositModels[i].ToDomain()
	}
	return deposits, nil
}

// FindExpired lists PENDING deposits whose deadline passed before asOf
func (r *GormDepositRepository) FindExpired(ctx context.Context, asOf time.Time, limit int) ([]*payment.Deposit, error) {
	var depositModels []models.DepositModel
	q := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", payment.DepositStatusPending, asOf).
		Order("expires_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&depositModels).Error; err != nil {
		return nil, err
	}
	deposits := make([]*payment.Deposit, len(depositModels))
	for i := range depositModels {
		deposits[i] = depositModels[i].ToDomain()
	}
	return deposits, nil
}

// Save persists changes to an existing deposit
func (r *GormDepositRepository) Save(ctx context.Context, deposit *payment.Deposit) error {
	model := models.DepositModelFromDomain(deposit)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a deposit with optimistic locking (version check)
func (r *GormDepositRepository) SaveWithLock(ctx context.Context, deposit *payment.Deposit) error {
	deposit.IncrementVersion()
	model := models.DepositModelFromDomain(deposit)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", deposit.GetID(), deposit.Version-1).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The deposit record has been modified by another transaction")
	}
	return nil
}

var _ payment.DepositRepository = (*GormDepositRepository)(nil)

// GormWebhookEventRepository implements payment.WebhookEventRepository
// using GORM
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewGormWebhookEventRepository creates a new GormWebhookEventRepository
func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// Create inserts a webhook event. Returns shared.ErrAlreadyExists when
// the idempotency hash collides.
func (r *GormWebhookEventRepository) Create(ctx context.Context, event *payment.WebhookEvent) error {
	model := models.WebhookEventModelFromDomain(event)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a webhook event by ID
func (r *GormWebhookEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.WebhookEvent, error) {
	var model models.WebhookEventModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByHash finds a webhook event by its idempotency hash
func (r *GormWebhookEventRepository) FindByHash(ctx context.Context, idempotencyHash string) (*payment.WebhookEvent, error) {
	var model models.WebhookEventModel
	if err := r.db.WithContext(ctx).
		Where("idempotency_hash = ?", idempotencyHash).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDeposit lists the events linked to a deposit, oldest first
func (r *GormWebhookEventRepository) FindByDeposit(ctx context.Context, depositID uuid.UUID) ([]*payment.WebhookEvent, error) {
	var eventModels []models.WebhookEventModel
	if err := r.db.WithContext(ctx).
		Where("deposit_id = ?", depositID).
		Order("created_at ASC").
		Find(&eventModels).Error; err != nil {
		return nil, err
	}
	return toDomainWebhookEvents(eventModels), nil
}

// FindManualPendingByDeposit lists a deposit's manual placeholder events
// still waiting for the real webhook
func (r *GormWebhookEventRepository) FindManualPendingByDeposit(ctx context.Context, depositID uuid.UUID) ([]*payment.WebhookEvent, error) {
	var eventModels []models.WebhookEventModel
	if err := r.db.WithContext(ctx).
		Where("deposit_id = ? AND status = ?", depositID, payment.WebhookStatusManualPending).
		Find(&eventModels).Error; err != nil {
		return nil, err
	}
	return toDomainWebhookEvents(eventModels), nil
}

// FindRecent lists events newest first for the admin view
func (r *GormWebhookEventRepository) FindRecent(ctx context.Context, limit, offset int) ([]*payment.WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var eventModels []models.WebhookEventModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&eventModels).Error; err != nil {
		return nil, err
	}
	return toDomainWebhookEvents(eventModels), nil
}

// Save persists changes to an existing webhook event
func (r *GormWebhookEventRepository) Save(ctx context.Context, event *payment.WebhookEvent) error {
	model := models.WebhookEventModelFromDomain(event)
	return r.db.WithContext(ctx).Save(model).Error
}

func toDomainWebhookEvents(eventModels []models.WebhookEventModel) []*payment.WebhookEvent {
	events := make([]*payment.WebhookEvent, len(eventModels))
	for i := range eventModels {
		events[i] = eventModels[i].ToDomain()
	}
	return events
}

var _ payment.WebhookEventRepository = (*GormWebhookEventRepository)(nil)
