package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindCurrent returns the most recently updated settings row. Multiple
// rows can exist after imports; the newest one wins.
func (r *repository) FindCurrent(ctx context.Context) (*models.CompanySettings, error) {
	var row models.CompanySettings
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "company settings not configured")
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) Save(ctx context.Context, row *models.CompanySettings) (*models.CompanySettings, error) {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
