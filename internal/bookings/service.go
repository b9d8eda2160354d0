package bookings

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

// Service exposes booking management. Invoiced bookings are frozen:
// everything except status transitions is rejected once an invoice id
// is stamped.
type Service interface {
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	Update(ctx context.Context, id uuid.UUID, apply func(*models.Booking)) (*models.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, filters ListFilters) ([]models.Booking, error)
}

type service struct {
	repo Repository
}

// NewService builds a booking service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	return &service{repo: repo}, nil
}

func validateBooking(booking *models.Booking) error {
	if !booking.BookingType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid booking type")
	}
	if !booking.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid booking status")
	}
	if booking.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking customer required")
	}
	if !booking.CustomerType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid customer type")
	}
	if booking.BookingDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking date required")
	}
	if booking.Amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking amount cannot be negative")
	}
	return nil
}

func (s *service) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	booking.InvoiceID = nil
	if err := validateBooking(booking); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, booking)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, apply func(*models.Booking)) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.InvoiceID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking already invoiced")
	}
	invoiceID := booking.InvoiceID
	apply(booking)
	booking.ID = id
	booking.InvoiceID = invoiceID
	if err := validateBooking(booking); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, booking)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]models.Booking, error) {
	return s.repo.List(ctx, filters)
}
