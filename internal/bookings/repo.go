package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a booking repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *repository) Update(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := r.db.WithContext(ctx).Save(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Booking, error) {
	query := r.db.WithContext(ctx).Model(&models.Booking{})
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.BookingType != nil {
		query = query.Where("booking_type = ?", *filters.BookingType)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.From != nil {
		query = query.Where("booking_date >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("booking_date < ?", *filters.To)
	}

	var rows []models.Booking
	err := query.Order("booking_date ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindUnbilled(ctx context.Context, bookingType enums.BookingType, from, to time.Time) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Where("booking_type = ?", bookingType).
		Where("status IN ?", []enums.BookingStatus{enums.BookingStatusConfirmed, enums.BookingStatusCompleted}).
		Where("invoice_id IS NULL").
		Where("booking_date >= ? AND booking_date < ?", from, to).
		Order("customer_id ASC").
		Order("booking_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) StampInvoice(ctx context.Context, bookingIDs []uuid.UUID, invoiceID uuid.UUID) error {
	if len(bookingIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id IN ?", bookingIDs).
		Where("invoice_id IS NULL").
		Update("invoice_id", invoiceID).Error
}
