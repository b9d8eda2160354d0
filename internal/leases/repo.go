package leases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a lease repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateLease(ctx context.Context, lease *models.Lease) (*models.Lease, error) {
	if err := r.db.WithContext(ctx).Create(lease).Error; err != nil {
		return nil, err
	}
	return lease, nil
}

func (r *repository) UpdateLease(ctx context.Context, lease *models.Lease) (*models.Lease, error) {
	if err := r.db.WithContext(ctx).Save(lease).Error; err != nil {
		return nil, err
	}
	return lease, nil
}

func (r *repository) FindLeaseByID(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	var lease models.Lease
	err := r.db.WithContext(ctx).
		Preload("Tenant").
		Preload("Spaces.OfficeSpace").
		Where("id = ?", id).
		First(&lease).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
		}
		return nil, err
	}
	return &lease, nil
}

func (r *repository) ListLeases(ctx context.Context) ([]models.Lease, error) {
	var rows []models.Lease
	err := r.db.WithContext(ctx).
		Preload("Tenant").
		Preload("Spaces.OfficeSpace").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListActiveLeasesAt returns leases in effect at the given moment:
// active, started, and not yet ended.
func (r *repository) ListActiveLeasesAt(ctx context.Context, at time.Time) ([]models.Lease, error) {
	var rows []models.Lease
	err := r.db.WithContext(ctx).
		Preload("Tenant").
		Preload("Spaces.OfficeSpace").
		Where("is_active = ?", true).
		Where("start_date <= ?", at).
		Where("end_date IS NULL OR end_date >= ?", at).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateOfficeSpace(ctx context.Context, space *models.OfficeSpace) (*models.OfficeSpace, error) {
	if err := r.db.WithContext(ctx).Create(space).Error; err != nil {
		return nil, err
	}
	return space, nil
}

func (r *repository) UpdateOfficeSpace(ctx context.Context, space *models.OfficeSpace) (*models.OfficeSpace, error) {
	if err := r.db.WithContext(ctx).Save(space).Error; err != nil {
		return nil, err
	}
	return space, nil
}

func (r *repository) FindOfficeSpaceByID(ctx context.Context, id uuid.UUID) (*models.OfficeSpace, error) {
	var space models.OfficeSpace
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&space).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "office space not found")
		}
		return nil, err
	}
	return &space, nil
}

func (r *repository) ListOfficeSpaces(ctx context.Context) ([]models.OfficeSpace, error) {
	var rows []models.OfficeSpace
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}
