package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"glowbook/backend/internal/domain"
)

// SeriesWithExceptions pairs a series with all of its per-occurrence
// overrides, as fetched in one read.
type SeriesWithExceptions struct {
	Series     domain.RecurringSeries
	Exceptions []domain.SeriesException
}

// SchedulingRepository is the storage surface the scheduling engine reads
// from and the mutation services write through. All writes for one stylist
// are serialized by the implementation.
type SchedulingRepository interface {
	GetWorkingHours(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error)
	ReplaceWorkingHours(ctx context.Context, stylistID string, rules []domain.WorkingHoursRule) ([]domain.WorkingHoursRule, error)

	ListOneOffUnavailability(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.OneOffUnavailability, error)
	CreateOneOffUnavailability(ctx context.Context, u domain.OneOffUnavailability) (domain.OneOffUnavailability, error)
	DeleteOneOffUnavailability(ctx context.Context, stylistID string, id uuid.UUID) error

	ListSeriesWithExceptions(ctx context.Context, stylistID string) ([]SeriesWithExceptions, error)
	GetSeries(ctx context.Context, stylistID string, seriesID uuid.UUID) (domain.RecurringSeries, error)
	CreateSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error)
	UpdateSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error)
	DeleteSeries(ctx context.Context, stylistID string, seriesID uuid.UUID) error
	UpsertSeriesException(ctx context.Context, stylistID string, ex domain.SeriesException) (domain.SeriesException, error)
	DeleteSeriesException(ctx context.Context, stylistID string, seriesID uuid.UUID, originalOccurrenceStart time.Time) error

	ListActiveBookings(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.Booking, error)
	CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error)
	CancelBooking(ctx context.Context, stylistID string, bookingID uuid.UUID) error
}
