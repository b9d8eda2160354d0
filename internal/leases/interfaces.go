package leases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
)

// Repository defines persistence operations for leases and office
// spaces.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateLease(ctx context.Context, lease *models.Lease) (*models.Lease, error)
	UpdateLease(ctx context.Context, lease *models.Lease) (*models.Lease, error)
	FindLeaseByID(ctx context.Context, id uuid.UUID) (*models.Lease, error)
	ListLeases(ctx context.Context) ([]models.Lease, error)
	ListActiveLeasesAt(ctx context.Context, at time.Time) ([]models.Lease, error)

	CreateOfficeSpace(ctx context.Context, space *models.OfficeSpace) (*models.OfficeSpace, error)
	UpdateOfficeSpace(ctx context.Context, space *models.OfficeSpace) (*models.OfficeSpace, error)
	FindOfficeSpaceByID(ctx context.Context, id uuid.UUID) (*models.OfficeSpace, error)
	ListOfficeSpaces(ctx context.Context) ([]models.OfficeSpace, error)
}
