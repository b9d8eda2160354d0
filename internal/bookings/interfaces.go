package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
)

// Repository defines persistence operations for bookings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, filters ListFilters) ([]models.Booking, error)

	// FindUnbilled returns billable bookings of the given type within
	// [from, to) that have not been stamped onto an invoice yet.
	FindUnbilled(ctx context.Context, bookingType enums.BookingType, from, to time.Time) ([]models.Booking, error)

	// StampInvoice marks the bookings as aggregated onto invoiceID.
	StampInvoice(ctx context.Context, bookingIDs []uuid.UUID, invoiceID uuid.UUID) error
}

// ListFilters narrows a booking listing.
type ListFilters struct {
	CustomerID  *uuid.UUID
	BookingType *enums.BookingType
	Status      *enums.BookingStatus
	From        *time.Time
	To          *time.Time
}
