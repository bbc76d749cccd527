package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"glowbook/backend/internal/domain"
)

// StylistCalendarTx is the per-stylist transactional view used by writes that
// need to read and then decide under the stylist's calendar lock.
type StylistCalendarTx interface {
	ListWorkingHours(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error)
	ReplaceWorkingHours(ctx context.Context, stylistID string, rules []domain.WorkingHoursRule) ([]domain.WorkingHoursRule, error)

	ListOneOffUnavailability(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.OneOffUnavailability, error)
	CreateOneOffUnavailability(ctx context.Context, u domain.OneOffUnavailability) (domain.OneOffUnavailability, error)
	DeleteOneOffUnavailability(ctx context.Context, stylistID string, id uuid.UUID) error

	ListRecurringSeries(ctx context.Context, stylistID string) ([]domain.RecurringSeries, error)
	GetRecurringSeries(ctx context.Context, stylistID string, seriesID uuid.UUID) (domain.RecurringSeries, error)
	ListSeriesExceptions(ctx context.Context, seriesID uuid.UUID) ([]domain.SeriesException, error)
	CreateRecurringSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error)
	UpdateRecurringSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error)
	DeleteRecurringSeries(ctx context.Context, stylistID string, seriesID uuid.UUID) error
	UpsertSeriesException(ctx context.Context, ex domain.SeriesException) (domain.SeriesException, error)
	DeleteSeriesException(ctx context.Context, seriesID uuid.UUID, originalOccurrenceStart time.Time) error
	DeleteSeriesExceptions(ctx context.Context, seriesID uuid.UUID, originalOccurrenceStarts []time.Time) error

	ListActiveBookings(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.Booking, error)
	GetBooking(ctx context.Context, stylistID string, bookingID uuid.UUID) (domain.Booking, error)
	CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, stylistID string, bookingID uuid.UUID, status domain.BookingStatus) error
}
