package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPlanRepository implements investment.PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// Create inserts a new plan
func (r *GormPlanRepository) Create(ctx context.Context, plan *investment.Plan) error {
	model := models.PlanModelFromDomain(plan)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a plan by ID
func (r *GormPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*investment.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists every plan ordered for the storefront
func (r *GormPlanRepository) FindAll(ctx context.Context) ([]*investment.Plan, error) {
	var planModels []models.PlanModel
	if err := r.db.WithContext(ctx).
		Order("sort_order ASC, created_at ASC").
		Find(&planModels).Error; err != nil {
		return nil, err
	}
	return toDomainPlans(planModels), nil
}

// ListActive lists purchasable plans ordered for the storefront
func (r *GormPlanRepository) ListActive(ctx context.Context) ([]*investment.Plan, error) {
	var planModels []models.PlanModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, created_at ASC").
		Find(&planModels).Error; err != nil {
		return nil, err
	}
	return toDomainPlans(planModels), nil
}

// Save persists changes to an existing plan
func (r *GormPlanRepository) Save(ctx context.Context, plan *investment.Plan) error {
	model := models.PlanModelFromDomain(plan)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a plan. A plan with cycles cannot be deleted.
func (r *GormPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var cycles int64
	if err := r.db.WithContext(ctx).
		Model(&models.CycleModel{}).
		Where("plan_id = ?", id).
		Count(&cycles).Error; err != nil {
		return err
	}
	if cycles > 0 {
		return shared.NewDomainError("PLAN_IN_USE", "Plan has cycles and cannot be deleted")
	}

	result := r.db.WithContext(ctx).Delete(&models.PlanModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainPlans(planModels []models.PlanModel) []*investment.Plan {
	plans := make([]*investment.Plan, len(planModels))
	for i := range planModels {
		plans[i] = planModels[i].ToDomain()
	}
	return plans
}

var _ investment.PlanRepository = (*GormPlanRepository)(nil)

// GormCycleRepository implements investment.CycleRepository using GORM
type GormCycleRepository struct {
	db *gorm.DB
}

// NewGormCycleRepository creates a new GormCycleRepository
func NewGormCycleRepository(db *gorm.DB) *GormCycleRepository {
	return &GormCycleRepository{db: db}
}

// Create inserts a new cycle
func (r *GormCycleRepository) Create(ctx context.Context, cycle *investment.Cycle) error {
	model := models.CycleModelFromDomain(cycle)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a cycle by ID
func (r *GormCycleRepository) FindByID(ctx context.Context, id uuid.UUID) (*investment.Cycle, error) {
	var model models.CycleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser lists a user's cycles newest first
func (r *GormCycleRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*investment.Cycle, error) {
	var cycleModels []models.CycleModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&cycleModels).Error; err != nil {
		return nil, err
	}
	return toDomainCycles(cycleModels), nil
}

// FindActive lists every ACTIVE cycle, oldest first
func (r *GormCycleRepository) FindActive(ctx context.Context) ([]*investment.Cycle, error) {
	var cycleModels []models.CycleModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", investment.CycleStatusActive).
		Order("created_at ASC").
		Find(&cycleModels).Error; err != nil {
		return nil, err
	}
	return toDomainCycles(cycleModels), nil
}

// CountActiveByUserAndPlan counts a user's ACTIVE cycles of one plan
func (r *GormCycleRepository) CountActiveByUserAndPlan(ctx context.Context, userID, planID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CycleModel{}).
		Where("user_id = ? AND plan_id = ? AND status = ?", userID, planID, investment.CycleStatusActive).
		Count(&count).Error
	return count, err
}

// CountByUser counts a user's cycles of any status
func (r *GormCycleRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CycleModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// Save persists changes to an existing cycle
func (r *GormCycleRepository) Save(ctx context.Context, cycle *investment.Cycle) error {
	model := models.CycleModelFromDomain(cycle)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a cycle with optimistic locking (version check)
func (r *GormCycleRepository) SaveWithLock(ctx context.Context, cycle *investment.Cycle) error {
	cycle.IncrementVersion()
	model := models.CycleModelFromDomain(cycle)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", cycle.GetID(), cycle.Version-1).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The cycle record has been modified by another transaction")
	}
	return nil
}

func toDomainCycles(cycleModels []models.CycleModel) []*investment.Cycle {
	cycles := make([]*investment.Cycle, len(cycleModels))
	for i := range cycleModels {
		cycles[i] = cycleModels[i].ToDomain()
	}
	return cycles
}

var _ investment.CycleRepository = (*GormCycleRepository)(nil)

// GormEarningRepository implements investment.EarningRepository using GORM
type GormEarningRepository struct {
	db *gorm.DB
}

// NewGormEarningRepository creates a new GormEarningRepository
func NewGormEarningRepository(db *gorm.DB) *GormEarningRepository {
	return &GormEarningRepository{db: db}
}

// Create inserts an earning. Returns shared.ErrAlreadyExists when the
// (cycle, reference date, type) key collides.
func (r *GormEarningRepository) Create(ctx context.Context, earning *investment.Earning) error {
	model := models.EarningModelFromDomain(earning)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds an earning by ID
func (r *GormEarningRepository) FindByID(ctx context.Context, id uuid.UUID) (*investment.Earning, error) {
	var model models.EarningModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCycle lists a cycle's earnings oldest first
func (r *GormEarningRepository) FindByCycle(ctx context.Context, cycleID uuid.UUID) ([]*investment.Earning, error) {
	var earningModels []models.EarningModel
	if err := r.db.WithContext(ctx).
		Where("cycle_id = ?", cycleID).
		Order("reference_date ASC").
		Find(&earningModels).Error; err != nil {
		return nil, err
	}
	return toDomainEarnings(earningModels), nil
}

// FindByUser lists a user's earnings newest first
func (r *GormEarningRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*investment.Earning, error) {
	var earningModels []models.EarningModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("reference_date DESC").
		Find(&earningModels).Error; err != nil {
		return nil, err
	}
	return toDomainEarnings(earningModels), nil
}

// ExistsForDate reports whether a cycle already has an earning of the
// given type for the calendar day of referenceDate
func (r *GormEarningRepository) ExistsForDate(ctx context.Context, cycleID uuid.UUID, referenceDate time.Time, earningType investment.EarningType) (bool, error) {
	y, m, d := referenceDate.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EarningModel{}).
		Where("cycle_id = ? AND reference_date = ? AND type = ?", cycleID, day, earningType).
		Count(&count).Error
	return count > 0, err
}

func toDomainEarnings(earningModels []models.EarningModel) []*investment.Earning {
	earnings := make([]*investment.Earning, len(earningModels))
	for i := range earningModels {
		earnings[i] = earningModels[i].ToDomain()
	}
	return earnings
}

var _ investment.EarningRepository = (*GormEarningRepository)(nil)
