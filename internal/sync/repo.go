package sync

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

type mappingRepository struct {
	db *gorm.DB
}

// NewMappingRepository builds a grootboek mapping repository.
func NewMappingRepository(db *gorm.DB) MappingRepository {
	return &mappingRepository{db: db}
}

func (r *mappingRepository) WithTx(tx *gorm.DB) MappingRepository {
	if tx == nil {
		return r
	}
	return &mappingRepository{db: tx}
}

func (r *mappingRepository) Upsert(ctx context.Context, mapping *models.GrootboekMapping) (*models.GrootboekMapping, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "local_category"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "description", "updated_at"}),
		}).
		Create(mapping).Error
	if err != nil {
		return nil, err
	}
	return r.FindByCategory(ctx, mapping.LocalCategory)
}

func (r *mappingRepository) FindByCategory(ctx context.Context, category string) (*models.GrootboekMapping, error) {
	var mapping models.GrootboekMapping
	err := r.db.WithContext(ctx).
		Where("local_category = ?", category).
		First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mapping, nil
}

func (r *mappingRepository) List(ctx context.Context) ([]models.GrootboekMapping, error) {
	var rows []models.GrootboekMapping
	err := r.db.WithContext(ctx).Order("local_category ASC").Find(&rows).Error
	return rows, err
}

func (r *mappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.GrootboekMapping{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "mapping not found")
	}
	return nil
}

type syncLogRepository struct {
	db *gorm.DB
}

// NewSyncLogRepository builds the append-only sync log repository.
func NewSyncLogRepository(db *gorm.DB) SyncLogRepository {
	return &syncLogRepository{db: db}
}

func (r *syncLogRepository) WithTx(tx *gorm.DB) SyncLogRepository {
	if tx == nil {
		return r
	}
	return &syncLogRepository{db: tx}
}

func (r *syncLogRepository) Append(ctx context.Context, entry *models.SyncLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *syncLogRepository) List(ctx context.Context, filters SyncLogFilters) ([]models.SyncLogEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncLogEntry{})
	if filters.EntityType != nil {
		query = query.Where("entity_type = ?", *filters.EntityType)
	}
	if filters.EntityID != nil {
		query = query.Where("entity_id = ?", *filters.EntityID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	limit := filters.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var rows []models.SyncLogEntry
	err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
