package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository implements member.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts a new user. Returns shared.ErrAlreadyExists when the
// email or referral code is taken.
func (r *GormUserRepository) Create(ctx context.Context, user *member.User) error {
	model := models.UserModelFromDomain(user)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*member.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a user by ID holding a row lock. Only
// meaningful inside a transaction.
func (r *GormUserRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*member.User, error) {
	var model models.UserModel
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

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*member.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReferralCode finds a user by their referral code
func (r *GormUserRepository) FindByReferralCode(ctx context.Context, code string) (*member.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("referral_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindReferrerOf returns the user who referred the given user.
// Returns shared.ErrNotFound when the user has no referrer.
func (r *GormUserRepository) FindReferrerOf(ctx context.Context, userID uuid.UUID) (*member.User, error) {
	var model models.UserModel
	err := r.db.WithContext(ctx).
		Where("id = (?)", r.db.WithContext(ctx).
			Model(&models.UserModel{}).
			Select("referred_by").
			Where("id = ?", userID)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDownline lists the users directly referred by the given user
func (r *GormUserRepository) FindDownline(ctx context.Context, userID uuid.UUID) ([]*member.User, error) {
	var userModels []models.UserModel
	if err := r.db.WithContext(ctx).
		Where("referred_by = ?", userID).
		Order("created_at ASC").
		Find(&userModels).Error; err != nil {
		return nil, err
	}
	users := make([]*member.User, len(userModels))
	for i := range userModels {
		users[i] = userModels[i].ToDomain()
	}
	return users, nil
}

// Save persists changes to an existing user
func (r *GormUserRepository) Save(ctx context.Context, user *member.User) error {
	model := models.UserModelFromDomain(user)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a user with optimistic locking (version check).
// Returns an error if the version has changed.
func (r *GormUserRepository) SaveWithLock(ctx context.Context, user *member.User) error {
	user.IncrementVersion()
	model := models.UserModelFromDomain(user)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", user.ID, user.Version-1).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The user record has been modified by another transaction")
	}
	return nil
}

var _ member.UserRepository = (*GormUserRepository)(nil)
