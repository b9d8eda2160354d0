package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havenwerk/verhuur-backend/api/responses"
	"github.com/havenwerk/verhuur-backend/api/validators"
	"github.com/havenwerk/verhuur-backend/internal/bookings"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

type bookingCreateRequest struct {
	BookingType  string          `json:"booking_type" validate:"required"`
	CustomerID   string          `json:"customer_id" validate:"required"`
	CustomerType string          `json:"customer_type" validate:"required"`
	BookingDate  time.Time       `json:"booking_date" validate:"required"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
}

type bookingUpdateRequest struct {
	Status      *string          `json:"status"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
}

type bookingResponse struct {
	ID           uuid.UUID           `json:"id"`
	BookingType  enums.BookingType   `json:"booking_type"`
	Status       enums.BookingStatus `json:"status"`
	CustomerID   uuid.UUID           `json:"customer_id"`
	CustomerType enums.CustomerType  `json:"customer_type"`
	BookingDate  time.Time           `json:"booking_date"`
	Description  string              `json:"description,omitempty"`
	Amount       decimal.Decimal     `json:"amount"`
	InvoiceID    *uuid.UUID          `json:"invoice_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func bookingResponseFromModel(m *models.Booking) bookingResponse {
	return bookingResponse{
		ID:           m.ID,
		BookingType:  m.BookingType,
		Status:       m.Status,
		CustomerID:   m.CustomerID,
		CustomerType: m.CustomerType,
		BookingDate:  m.BookingDate,
		Description:  m.Description,
		Amount:       m.Amount,
		InvoiceID:    m.InvoiceID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// BookingCreate stores a meeting-room or flex-desk usage entry.
func BookingCreate(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		var req bookingCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingType, err := enums.ParseBookingType(req.BookingType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking_type"))
			return
		}
		customerType, err := enums.ParseCustomerType(req.CustomerType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_type"))
			return
		}
		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_id"))
			return
		}

		created, err := svc.Create(r.Context(), &models.Booking{
			BookingType:  bookingType,
			Status:       enums.BookingStatusConfirmed,
			CustomerID:   customerID,
			CustomerType: customerType,
			BookingDate:  req.BookingDate,
			Description:  req.Description,
			Amount:       req.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, bookingResponseFromModel(created))
	}
}

// BookingUpdate applies a partial update to a booking.
func BookingUpdate(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "bookingId"), "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req bookingUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.BookingStatus
		if req.Status != nil {
			parsed, err := enums.ParseBookingStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}

		updated, err := svc.Update(r.Context(), id, func(b *models.Booking) {
			if status != nil {
				b.Status = *status
			}
			if req.Description != nil {
				b.Description = *req.Description
			}
			if req.Amount != nil {
				b.Amount = *req.Amount
			}
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bookingResponseFromModel(updated))
	}
}

// BookingDetail returns a single booking.
func BookingDetail(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "bookingId"), "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bookingResponseFromModel(booking))
	}
}

// BookingList returns bookings matching the query filters.
func BookingList(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		filters, err := bookingFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]bookingResponse, 0, len(rows))
		for i := range rows {
			out = append(out, bookingResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func bookingFiltersFromQuery(r *http.Request) (bookings.ListFilters, error) {
	var filters bookings.ListFilters

	customerID, err := validators.ParseQueryUUID(r, "customer_id")
	if err != nil {
		return filters, err
	}
	filters.CustomerID = customerID

	if raw := r.URL.Query().Get("booking_type"); raw != "" {
		parsed, err := enums.ParseBookingType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking_type")
		}
		filters.BookingType = &parsed
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := enums.ParseBookingStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &parsed
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from timestamp")
		}
		filters.From = &parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to timestamp")
		}
		filters.To = &parsed
	}

	return filters, nil
}
