package persistence

import (
	"context"
	"errors"

	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerRepository implements ledger.EntryRepository using GORM.
// The table is append-only; this repository exposes no update or delete.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Create inserts a ledger entry
func (r *GormLedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds an entry by ID
func (r *GormLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	var model models.LedgerEntryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser lists a user's entries oldest first, applying the filter
func (r *GormLedgerRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter ledger.Filter) ([]*ledger.Entry, error) {
	q := r.applyFilter(r.db.WithContext(ctx).Where("user_id = ?", userID), filter)

	var entryModels []models.LedgerEntryModel
	if err := q.Order("created_at ASC").Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toDomainEntries(entryModels), nil
}

// FindByReference lists the entries produced by one originating entity
func (r *GormLedgerRepository) FindByReference(ctx context.Context, ref ledger.Reference) ([]*ledger.Entry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("reference_kind = ? AND reference_id = ?", ref.Kind, ref.ID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toDomainEntries(entryModels), nil
}

// CountByUser counts a user's entries matching the filter
func (r *GormLedgerRepository) CountByUser(ctx context.Context, userID uuid.UUID, filter ledger.Filter) (int64, error) {
	var count int64
	q := r.applyFilter(r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("user_id = ?", userID), filter)
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormLedgerRepository) applyFilter(q *gorm.DB, filter ledger.Filter) *gorm.DB {
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.RefKind != nil {
		q = q.Where("reference_kind = ?", *filter.RefKind)
	}
	if filter.RefID != nil {
		q = q.Where("reference_id = ?", *filter.RefID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	return q
}

func toDomainEntries(entryModels []models.LedgerEntryModel) []*ledger.Entry {
	entries := make([]*ledger.Entry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries
}

var _ ledger.EntryRepository = (*GormLedgerRepository)(nil)
