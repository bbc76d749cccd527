package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"glowbook/backend/internal/domain"
	"glowbook/backend/internal/store"
)

type fakeRepo struct {
	getWorkingHoursFn          func(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error)
	replaceWorkingHoursFn      func(ctx context.Context, stylistID string, rules []domain.WorkingHoursRule) ([]domain.WorkingHoursRule, error)
	listOneOffFn               func(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.OneOffUnavailability, error)
	createOneOffFn             func(ctx context.Context, u domain.OneOffUnavailability) (domain.OneOffUnavailability, error)
	deleteOneOffFn             func(ctx context.Context, stylistID string, id uuid.UUID) error
	listSeriesWithExceptionsFn func(ctx context.Context, stylistID string) ([]store.SeriesWithExceptions, error)
	getSeriesFn                func(ctx context.Context, stylistID string, seriesID uuid.UUID) (domain.RecurringSeries, error)
	createSeriesFn             func(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error)
	updateSeriesFn             func(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error)
	deleteSeriesFn             func(ctx context.Context, stylistID string, seriesID uuid.UUID) error
	upsertExceptionFn          func(ctx context.Context, stylistID string, ex domain.SeriesException) (domain.SeriesException, error)
	deleteExceptionFn          func(ctx context.Context, stylistID string, seriesID uuid.UUID, originalOccurrenceStart time.Time) error
	listActiveBookingsFn       func(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.Booking, error)
	createBookingFn            func(ctx context.Context, b domain.Booking) (domain.Booking, error)
	cancelBookingFn            func(ctx context.Context, stylistID string, bookingID uuid.UUID) error
}

func (f *fakeRepo) GetWorkingHours(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error) {
	if f.getWorkingHoursFn == nil {
		return nil, nil
	}
	return f.getWorkingHoursFn(ctx, stylistID)
}

func (f *fakeRepo) ReplaceWorkingHours(ctx context.Context, stylistID string, rules []domain.WorkingHoursRule) ([]domain.WorkingHoursRule, error) {
	if f.replaceWorkingHoursFn == nil {
		panic("ReplaceWorkingHours not configured")
	}
	return f.replaceWorkingHoursFn(ctx, stylistID, rules)
}

func (f *fakeRepo) ListOneOffUnavailability(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.OneOffUnavailability, error) {
	if f.listOneOffFn == nil {
		return nil, nil
	}
	return f.listOneOffFn(ctx, stylistID, windowStart, windowEnd)
}

func (f *fakeRepo) CreateOneOffUnavailability(ctx context.Context, u domain.OneOffUnavailability) (domain.OneOffUnavailability, error) {
	if f.createOneOffFn == nil {
		panic("CreateOneOffUnavailability not configured")
	}
	return f.createOneOffFn(ctx, u)
}

func (f *fakeRepo) DeleteOneOffUnavailability(ctx context.Context, stylistID string, id uuid.UUID) error {
	if f.deleteOneOffFn == nil {
		panic("DeleteOneOffUnavailability not configured")
	}
	return f.deleteOneOffFn(ctx, stylistID, id)
}

func (f *fakeRepo) ListSeriesWithExceptions(ctx context.Context, stylistID string) ([]store.SeriesWithExceptions, error) {
	if f.listSeriesWithExceptionsFn == nil {
		return nil, nil
	}
	return f.listSeriesWithExceptionsFn(ctx, stylistID)
}

func (f *fakeRepo) GetSeries(ctx context.Context, stylistID string, seriesID uuid.UUID) (domain.RecurringSeries, error) {
	if f.getSeriesFn == nil {
		panic("GetSeries not configured")
	}
	return f.getSeriesFn(ctx, stylistID, seriesID)
}

func (f *fakeRepo) CreateSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error) {
	if f.createSeriesFn == nil {
		panic("CreateSeries not configured")
	}
	return f.createSeriesFn(ctx, series)
}

func (f *fakeRepo) UpdateSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error) {
	if f.updateSeriesFn == nil {
		panic("UpdateSeries not configured")
	}
	return f.updateSeriesFn(ctx, series)
}

func (f *fakeRepo) DeleteSeries(ctx context.Context, stylistID string, seriesID uuid.UUID) error {
	if f.deleteSeriesFn == nil {
		panic("DeleteSeries not configured")
	}
	return f.deleteSeriesFn(ctx, stylistID, seriesID)
}

func (f *fakeRepo) UpsertSeriesException(ctx context.Context, stylistID string, ex domain.SeriesException) (domain.SeriesException, error) {
	if f.upsertExceptionFn == nil {
		panic("UpsertSeriesException not configured")
	}
	return f.upsertExceptionFn(ctx, stylistID, ex)
}

func (f *fakeRepo) DeleteSeriesException(ctx context.Context, stylistID string, seriesID uuid.UUID, originalOccurrenceStart time.Time) error {
	if f.deleteExceptionFn == nil {
		panic("DeleteSeriesException not configured")
	}
	return f.deleteExceptionFn(ctx, stylistID, seriesID, originalOccurrenceStart)
}

func (f *fakeRepo) ListActiveBookings(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	if f.listActiveBookingsFn == nil {
		return nil, nil
	}
	return f.listActiveBookingsFn(ctx, stylistID, windowStart, windowEnd)
}

func (f *fakeRepo) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	if f.createBookingFn == nil {
		panic("CreateBooking not configured")
	}
	return f.createBookingFn(ctx, b)
}

func (f *fakeRepo) CancelBooking(ctx context.Context, stylistID string, bookingID uuid.UUID) error {
	if f.cancelBookingFn == nil {
		panic("CancelBooking not configured")
	}
	return f.cancelBookingFn(ctx, stylistID, bookingID)
}
