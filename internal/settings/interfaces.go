package settings

import (
	"context"

	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
)

// Repository defines persistence operations for company settings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCurrent(ctx context.Context) (*models.CompanySettings, error)
	Save(ctx context.Context, row *models.CompanySettings) (*models.CompanySettings, error)
}
