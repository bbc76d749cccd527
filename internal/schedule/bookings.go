package schedule

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"glowbook/backend/internal/domain"
)

type CreateBookingInput struct {
	StylistID      string
	StartTime      time.Time
	EndTime        time.Time
	Status         domain.BookingStatus
	IdempotencyKey string
}

// CreateBooking validates the request and hands it to the repository, which
// re-checks the interval against current availability under the stylist's
// calendar lock. Slots shown to a customer may have been taken since they
// were generated, so a store.ErrConflict here means "re-fetch slots and pick
// again", not a bug.
//
// An idempotency key pins the booking ID, so a retried request lands on the
// same row instead of double-booking; reusing a key with a different payload
// yields store.ErrIdempotencyConflict.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	if in.StylistID == "" {
		return domain.Booking{}, validationError("stylist_id is required")
	}

	start := in.StartTime.UTC()
	end := in.EndTime.UTC()
	if !end.After(start) {
		return domain.Booking{}, validationError("end_time must be after start_time")
	}
	if end.Sub(start) > 24*time.Hour {
		return domain.Booking{}, validationError("duration too long")
	}

	status := in.Status
	if status == "" {
		status = domain.BookingStatusPending
	}
	if !status.Blocks() {
		return domain.Booking{}, validationError("status must be pending or confirmed")
	}

	b := domain.Booking{
		StylistID: in.StylistID,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > 256 {
			return domain.Booking{}, validationError("idempotency_key too long")
		}
		b.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("glowbook:create_booking:"+in.StylistID+":"+key))
	}

	return s.repo.CreateBooking(ctx, b)
}

// CancelBooking marks the booking cancelled; it stops blocking slots but the
// row is kept.
func (s *Service) CancelBooking(ctx context.Context, stylistID string, bookingID uuid.UUID) error {
	if stylistID == "" {
		return validationError("stylist_id is required")
	}
	if bookingID == uuid.Nil {
		return validationError("booking_id is required")
	}
	return s.repo.CancelBooking(ctx, stylistID, bookingID)
}
