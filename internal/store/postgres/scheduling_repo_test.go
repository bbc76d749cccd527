package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"glowbook/backend/internal/domain"
	"glowbook/backend/internal/store"
)

type fakeCalendarTx struct {
	store.StylistCalendarTx

	listWorkingHoursFn     func(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error)
	listOneOffFn           func(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.OneOffUnavailability, error)
	listRecurringSeriesFn  func(ctx context.Context, stylistID string) ([]domain.RecurringSeries, error)
	listSeriesExceptionsFn func(ctx context.Context, seriesID uuid.UUID) ([]domain.SeriesException, error)
	listActiveBookingsFn   func(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.Booking, error)
	getBookingFn           func(ctx context.Context, stylistID string, bookingID uuid.UUID) (domain.Booking, error)
}

func (f *fakeCalendarTx) ListWorkingHours(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error) {
	if f.listWorkingHoursFn == nil {
		return nil, nil
	}
	return f.listWorkingHoursFn(ctx, stylistID)
}

func (f *fakeCalendarTx) ListOneOffUnavailability(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.OneOffUnavailability, error) {
	if f.listOneOffFn == nil {
		return nil, nil
	}
	return f.listOneOffFn(ctx, stylistID, windowStart, windowEnd)
}

func (f *fakeCalendarTx) ListRecurringSeries(ctx context.Context, stylistID string) ([]domain.RecurringSeries, error) {
	if f.listRecurringSeriesFn == nil {
		return nil, nil
	}
	return f.listRecurringSeriesFn(ctx, stylistID)
}

func (f *fakeCalendarTx) ListSeriesExceptions(ctx context.Context, seriesID uuid.UUID) ([]domain.SeriesException, error) {
	if f.listSeriesExceptionsFn == nil {
		return nil, nil
	}
	return f.listSeriesExceptionsFn(ctx, seriesID)
}

func (f *fakeCalendarTx) ListActiveBookings(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	if f.listActiveBookingsFn == nil {
		return nil, nil
	}
	return f.listActiveBookingsFn(ctx, stylistID, windowStart, windowEnd)
}

func (f *fakeCalendarTx) GetBooking(ctx context.Context, stylistID string, bookingID uuid.UUID) (domain.Booking, error) {
	if f.getBookingFn == nil {
		return domain.Booking{}, store.ErrNotFound
	}
	return f.getBookingFn(ctx, stylistID, bookingID)
}

// testMonday is 2026-01-05.
var testMonday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func mondayAt(hour, min int) time.Time {
	return time.Date(2026, 1, 5, hour, min, 0, 0, time.UTC)
}

func mondayRule(stylistID string) []domain.WorkingHoursRule {
	return []domain.WorkingHoursRule{{
		StylistID:   stylistID,
		Weekday:     0,
		StartMinute: 9 * 60,
		EndMinute:   17 * 60,
	}}
}

func testBooking(start, end time.Time) domain.Booking {
	return domain.Booking{
		StylistID: "stylist-1",
		StartTime: start,
		EndTime:   end,
		Status:    domain.BookingStatusPending,
	}
}

func TestEnsureBookableInterval_InsideWorkingHours(t *testing.T) {
	tx := &fakeCalendarTx{
		listWorkingHoursFn: func(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error) {
			return mondayRule(stylistID), nil
		},
	}

	err := ensureBookableInterval(context.Background(), tx, testBooking(mondayAt(9, 0), mondayAt(10, 0)))
	if err != nil {
		t.Fatalf("ensureBookableInterval: %v", err)
	}
}

func TestEnsureBookableInterval_OutsideWorkingHours(t *testing.T) {
	tx := &fakeCalendarTx{
		listWorkingHoursFn: func(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error) {
			return mondayRule(stylistID), nil
		},
	}
	ctx := context.Background()

	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"before opening", mondayAt(8, 0), mondayAt(9, 0)},
		{"runs past closing", mondayAt(16, 30), mondayAt(17, 30)},
		{"closed weekday", mondayAt(9, 0).AddDate(0, 0, 1), mondayAt(10, 0).AddDate(0, 0, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ensureBookableInterval(ctx, tx, testBooking(tc.start, tc.end))
			if !errors.Is(err, store.ErrConflict) {
				t.Fatalf("want ErrConflict, got %v", err)
			}
		})
	}
}

func TestEnsureBookableInterval_OneOffOverlap(t *testing.T) {
	tx := &fakeCalendarTx{
		listWorkingHoursFn: func(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error) {
			return mondayRule(stylistID), nil
		},
		listOneOffFn: func(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.OneOffUnavailability, error) {
			return []domain.OneOffUnavailability{{
				StylistID: stylistID,
				StartTime: mondayAt(10, 30),
				EndTime:   mondayAt(11, 30),
			}}, nil
		},
	}

	err := ensureBookableInterval(context.Background(), tx, testBooking(mondayAt(10, 0), mondayAt(11, 0)))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestEnsureBookableInterval_SeriesOccurrence(t *testing.T) {
	series := domain.RecurringSeries{
		ID:          uuid.MustParse("00000000-0000-0000-0000-000000000011"),
		StylistID:   "stylist-1",
		Title:       "lunch",
		StartMinute: 12 * 60,
		EndMinute:   13 * 60,
		Rule:        "weekly;byday=0",
		StartDate:   testMonday,
	}
	cancelAll := false
	tx := &fakeCalendarTx{
		listWorkingHoursFn: func(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error) {
			return mondayRule(stylistID), nil
		},
		listRecurringSeriesFn: func(ctx context.Context, stylistID string) ([]domain.RecurringSeries, error) {
			return []domain.RecurringSeries{series}, nil
		},
		listSeriesExceptionsFn: func(ctx context.Context, seriesID uuid.UUID) ([]domain.SeriesException, error) {
			if !cancelAll {
				return nil, nil
			}
			return []domain.SeriesException{{
				SeriesID:                series.ID,
				OriginalOccurrenceStart: mondayAt(12, 0),
			}}, nil
		},
	}
	ctx := context.Background()

	err := ensureBookableInterval(ctx, tx, testBooking(mondayAt(12, 30), mondayAt(13, 30)))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("want ErrConflict against the occurrence, got %v", err)
	}

	// A cancelled occurrence no longer blocks.
	cancelAll = true
	if err := ensureBookableInterval(ctx, tx, testBooking(mondayAt(12, 30), mondayAt(13, 30))); err != nil {
		t.Fatalf("want bookable after cancellation, got %v", err)
	}
}

func TestEnsureBookableInterval_MovedOccurrenceFromAnotherDay(t *testing.T) {
	series := domain.RecurringSeries{
		ID:          uuid.MustParse("00000000-0000-0000-0000-000000000014"),
		StylistID:   "stylist-1",
		Title:       "lunch",
		StartMinute: 12 * 60,
		EndMinute:   13 * 60,
		Rule:        "weekly;byday=0",
		StartDate:   testMonday,
	}
	friday := testMonday.AddDate(0, 0, 4)
	newStart := friday.Add(12 * time.Hour)
	newEnd := friday.Add(13 * time.Hour)
	tx := &fakeCalendarTx{
		listWorkingHoursFn: func(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error) {
			return []domain.WorkingHoursRule{
				{StylistID: stylistID, Weekday: 0, StartMinute: 9 * 60, EndMinute: 17 * 60},
				{StylistID: stylistID, Weekday: 4, StartMinute: 9 * 60, EndMinute: 17 * 60},
			}, nil
		},
		listRecurringSeriesFn: func(ctx context.Context, stylistID string) ([]domain.RecurringSeries, error) {
			return []domain.RecurringSeries{series}, nil
		},
		listSeriesExceptionsFn: func(ctx context.Context, seriesID uuid.UUID) ([]domain.SeriesException, error) {
			// The following Monday's occurrence relocated onto this Friday.
			return []domain.SeriesException{{
				SeriesID:                series.ID,
				OriginalOccurrenceStart: mondayAt(12, 0).AddDate(0, 0, 7),
				NewStart:                &newStart,
				NewEnd:                  &newEnd,
			}}, nil
		},
	}
	ctx := context.Background()

	err := ensureBookableInterval(ctx, tx, testBooking(newStart.Add(30*time.Minute), newEnd.Add(30*time.Minute)))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("want ErrConflict against the moved interval, got %v", err)
	}

	// Friday morning is untouched by the move.
	if err := ensureBookableInterval(ctx, tx, testBooking(friday.Add(9*time.Hour), friday.Add(10*time.Hour))); err != nil {
		t.Fatalf("want bookable outside the moved interval, got %v", err)
	}
}

func TestEnsureBookableInterval_ActiveBooking(t *testing.T) {
	tx := &fakeCalendarTx{
		listWorkingHoursFn: func(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error) {
			return mondayRule(stylistID), nil
		},
		listActiveBookingsFn: func(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
			return []domain.Booking{testBooking(mondayAt(9, 0), mondayAt(10, 0))}, nil
		},
	}

	err := ensureBookableInterval(context.Background(), tx, testBooking(mondayAt(9, 30), mondayAt(10, 30)))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestResolveIdempotentReplay(t *testing.T) {
	pinnedID := uuid.MustParse("00000000-0000-0000-0000-000000000021")
	stored := domain.Booking{
		ID:        pinnedID,
		StylistID: "stylist-1",
		StartTime: mondayAt(9, 0),
		EndTime:   mondayAt(10, 0),
		Status:    domain.BookingStatusPending,
	}
	tx := &fakeCalendarTx{
		getBookingFn: func(ctx context.Context, stylistID string, bookingID uuid.UUID) (domain.Booking, error) {
			if bookingID == pinnedID {
				return stored, nil
			}
			return domain.Booking{}, store.ErrNotFound
		},
	}
	ctx := context.Background()

	// Same pinned ID and interval replays the committed row.
	got, replayed, err := resolveIdempotentReplay(ctx, tx, testBookingWithID(pinnedID, mondayAt(9, 0), mondayAt(10, 0)))
	if err != nil {
		t.Fatalf("resolveIdempotentReplay: %v", err)
	}
	if !replayed {
		t.Fatal("want a replay hit for the stored booking")
	}
	if got.ID != pinnedID {
		t.Errorf("got ID %v, want %v", got.ID, pinnedID)
	}

	// Same ID with a different interval means the key was reused.
	_, _, err = resolveIdempotentReplay(ctx, tx, testBookingWithID(pinnedID, mondayAt(11, 0), mondayAt(12, 0)))
	if !errors.Is(err, store.ErrIdempotencyConflict) {
		t.Fatalf("want ErrIdempotencyConflict, got %v", err)
	}

	// An unknown ID is not a replay.
	otherID := uuid.MustParse("00000000-0000-0000-0000-000000000022")
	_, replayed, err = resolveIdempotentReplay(ctx, tx, testBookingWithID(otherID, mondayAt(9, 0), mondayAt(10, 0)))
	if err != nil {
		t.Fatalf("resolveIdempotentReplay: %v", err)
	}
	if replayed {
		t.Fatal("unknown ID must fall through to a fresh insert")
	}
}

func testBookingWithID(id uuid.UUID, start, end time.Time) domain.Booking {
	b := testBooking(start, end)
	b.ID = id
	return b
}

func TestFindOrphanedExceptions(t *testing.T) {
	series := domain.RecurringSeries{
		ID:          uuid.MustParse("00000000-0000-0000-0000-000000000012"),
		StylistID:   "stylist-1",
		Title:       "lunch",
		StartMinute: 12 * 60,
		EndMinute:   13 * 60,
		Rule:        "weekly;byday=2", // rule now fires on Wednesdays
		StartDate:   testMonday,
	}
	tx := &fakeCalendarTx{
		listSeriesExceptionsFn: func(ctx context.Context, seriesID uuid.UUID) ([]domain.SeriesException, error) {
			return []domain.SeriesException{
				// Monday override from before the edit; no longer produced.
				{SeriesID: series.ID, OriginalOccurrenceStart: mondayAt(12, 0)},
				// Wednesday override still matches.
				{SeriesID: series.ID, OriginalOccurrenceStart: mondayAt(12, 0).AddDate(0, 0, 2)},
			}, nil
		},
	}

	orphans, err := findOrphanedExceptions(context.Background(), tx, series)
	if err != nil {
		t.Fatalf("findOrphanedExceptions: %v", err)
	}
	if len(orphans) != 1 {
		t.Fatalf("got %d orphans, want 1: %v", len(orphans), orphans)
	}
	if !orphans[0].Equal(mondayAt(12, 0)) {
		t.Errorf("orphan = %v, want the Monday occurrence", orphans[0])
	}
}

func TestFindOrphanedExceptions_NoExceptions(t *testing.T) {
	series := domain.RecurringSeries{
		ID:        uuid.MustParse("00000000-0000-0000-0000-000000000013"),
		StylistID: "stylist-1",
		Rule:      "weekly;byday=0",
		StartDate: testMonday,
	}
	orphans, err := findOrphanedExceptions(context.Background(), &fakeCalendarTx{}, series)
	if err != nil {
		t.Fatalf("findOrphanedExceptions: %v", err)
	}
	if orphans != nil {
		t.Fatalf("want nil, got %v", orphans)
	}
}
