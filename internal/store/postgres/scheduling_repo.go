package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"glowbook/backend/internal/domain"
	"glowbook/backend/internal/store"
)

type SchedulingRepo struct {
	db *bun.DB
}

func NewSchedulingRepo(db *bun.DB) *SchedulingRepo {
	return &SchedulingRepo{db: db}
}

type calendarTx struct {
	tx bun.Tx
}

func (r *SchedulingRepo) GetWorkingHours(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error) {
	var rows []domain.WorkingHoursRule
	err := r.db.NewSelect().
		Model(&rows).
		Where("stylist_id = ?", stylistID).
		OrderExpr("weekday ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) ReplaceWorkingHours(ctx context.Context, stylistID string, rules []domain.WorkingHoursRule) ([]domain.WorkingHoursRule, error) {
	var out []domain.WorkingHoursRule
	err := r.InStylistTransaction(ctx, stylistID, func(ctx context.Context, tx store.StylistCalendarTx) error {
		rows, err := tx.ReplaceWorkingHours(ctx, stylistID, rules)
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SchedulingRepo) ListOneOffUnavailability(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.OneOffUnavailability, error) {
	var rows []domain.OneOffUnavailability
	err := r.db.NewSelect().
		Model(&rows).
		Where("stylist_id = ?", stylistID).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) CreateOneOffUnavailability(ctx context.Context, u domain.OneOffUnavailability) (domain.OneOffUnavailability, error) {
	var out domain.OneOffUnavailability
	err := r.InStylistTransaction(ctx, u.StylistID, func(ctx context.Context, tx store.StylistCalendarTx) error {
		row, err := tx.CreateOneOffUnavailability(ctx, u)
		if err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return domain.OneOffUnavailability{}, err
	}
	return out, nil
}

func (r *SchedulingRepo) DeleteOneOffUnavailability(ctx context.Context, stylistID string, id uuid.UUID) error {
	return r.InStylistTransaction(ctx, stylistID, func(ctx context.Context, tx store.StylistCalendarTx) error {
		return tx.DeleteOneOffUnavailability(ctx, stylistID, id)
	})
}

func (r *SchedulingRepo) ListSeriesWithExceptions(ctx context.Context, stylistID string) ([]store.SeriesWithExceptions, error) {
	var seriesRows []domain.RecurringSeries
	err := r.db.NewSelect().
		Model(&seriesRows).
		Where("stylist_id = ?", stylistID).
		OrderExpr("start_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]store.SeriesWithExceptions, 0, len(seriesRows))
	for _, s := range seriesRows {
		var exRows []domain.SeriesException
		err := r.db.NewSelect().
			Model(&exRows).
			Where("series_id = ?", s.ID).
			OrderExpr("original_occurrence_start ASC").
			Scan(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, store.SeriesWithExceptions{Series: s, Exceptions: exRows})
	}

	return out, nil
}

func (r *SchedulingRepo) GetSeries(ctx context.Context, stylistID string, seriesID uuid.UUID) (domain.RecurringSeries, error) {
	var row domain.RecurringSeries
	err := r.db.NewSelect().
		Model(&row).
		Where("stylist_id = ?", stylistID).
		Where("id = ?", seriesID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RecurringSeries{}, store.ErrNotFound
		}
		return domain.RecurringSeries{}, err
	}
	return row, nil
}

func (r *SchedulingRepo) CreateSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error) {
	var out domain.RecurringSeries
	err := r.InStylistTransaction(ctx, series.StylistID, func(ctx context.Context, tx store.StylistCalendarTx) error {
		row, err := tx.CreateRecurringSeries(ctx, series)
		if err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return domain.RecurringSeries{}, err
	}
	return out, nil
}

// UpdateSeries rewrites the series row and deletes exceptions orphaned by the
// new rule in the same transaction. Orphan cleanup is best effort for
// correctness (an unmatched exception never resolves anyway) but keeping the
// table clean avoids dead overrides accumulating across edits.
func (r *SchedulingRepo) UpdateSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error) {
	var out domain.RecurringSeries
	err := r.InStylistTransaction(ctx, series.StylistID, func(ctx context.Context, tx store.StylistCalendarTx) error {
		if _, err := tx.GetRecurringSeries(ctx, series.StylistID, series.ID); err != nil {
			return err
		}

		row, err := tx.UpdateRecurringSeries(ctx, series)
		if err != nil {
			return err
		}

		orphans, err := findOrphanedExceptions(ctx, tx, row)
		if err != nil {
			return err
		}
		if len(orphans) > 0 {
			if err := tx.DeleteSeriesExceptions(ctx, row.ID, orphans); err != nil {
				return err
			}
		}

		out = row
		return nil
	})
	if err != nil {
		return domain.RecurringSeries{}, err
	}
	return out, nil
}

func findOrphanedExceptions(ctx context.Context, tx store.StylistCalendarTx, series domain.RecurringSeries) ([]time.Time, error) {
	exRows, err := tx.ListSeriesExceptions(ctx, series.ID)
	if err != nil {
		return nil, err
	}
	if len(exRows) == 0 {
		return nil, nil
	}

	rule, err := domain.ParseRecurrenceRule(series.Rule)
	if err != nil {
		return nil, err
	}

	var orphans []time.Time
	for _, ex := range exRows {
		original := ex.OriginalOccurrenceStart.UTC()
		date := domain.DateOf(original)
		matched := false
		for _, d := range domain.ExpandDates(rule, series.StartDate, series.EndDate, date, date) {
			if series.OccurrenceInterval(d).Start.Equal(original) {
				matched = true
				break
			}
		}
		if !matched {
			orphans = append(orphans, original)
		}
	}
	return orphans, nil
}

func (r *SchedulingRepo) DeleteSeries(ctx context.Context, stylistID string, seriesID uuid.UUID) error {
	return r.InStylistTransaction(ctx, stylistID, func(ctx context.Context, tx store.StylistCalendarTx) error {
		return tx.DeleteRecurringSeries(ctx, stylistID, seriesID)
	})
}

func (r *SchedulingRepo) UpsertSeriesException(ctx context.Context, stylistID string, ex domain.SeriesException) (domain.SeriesException, error) {
	var out domain.SeriesException
	err := r.InStylistTransaction(ctx, stylistID, func(ctx context.Context, tx store.StylistCalendarTx) error {
		if _, err := tx.GetRecurringSeries(ctx, stylistID, ex.SeriesID); err != nil {
			return err
		}
		row, err := tx.UpsertSeriesException(ctx, ex)
		if err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return domain.SeriesException{}, err
	}
	return out, nil
}

func (r *SchedulingRepo) DeleteSeriesException(ctx context.Context, stylistID string, seriesID uuid.UUID, originalOccurrenceStart time.Time) error {
	return r.InStylistTransaction(ctx, stylistID, func(ctx context.Context, tx store.StylistCalendarTx) error {
		if _, err := tx.GetRecurringSeries(ctx, stylistID, seriesID); err != nil {
			return err
		}
		return tx.DeleteSeriesException(ctx, seriesID, originalOccurrenceStart)
	})
}

func (r *SchedulingRepo) ListActiveBookings(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("stylist_id = ?", stylistID).
		Where("status IN (?)", bun.In([]domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusConfirmed})).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateBooking re-validates the interval against current availability under
// the stylist's calendar lock before inserting. The slot list shown to the
// customer is inherently stale by the time they commit, so the read-then-
// decide race is resolved here, at write time.
//
// A non-nil booking ID means the caller pinned it with an idempotency key: a
// retry that finds the row already inserted with the same interval returns it
// as-is, and a key reused for a different interval is rejected.
func (r *SchedulingRepo) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	var out domain.Booking
	err := r.InStylistTransaction(ctx, b.StylistID, func(ctx context.Context, tx store.StylistCalendarTx) error {
		if b.ID != uuid.Nil {
			existing, replayed, err := resolveIdempotentReplay(ctx, tx, b)
			if err != nil {
				return err
			}
			if replayed {
				out = existing
				return nil
			}
		}
		if err := ensureBookableInterval(ctx, tx, b); err != nil {
			return err
		}
		row, err := tx.CreateBooking(ctx, b)
		if err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func (r *SchedulingRepo) CancelBooking(ctx context.Context, stylistID string, bookingID uuid.UUID) error {
	return r.InStylistTransaction(ctx, stylistID, func(ctx context.Context, tx store.StylistCalendarTx) error {
		return tx.UpdateBookingStatus(ctx, stylistID, bookingID, domain.BookingStatusCancelled)
	})
}

func (r *SchedulingRepo) InStylistTransaction(ctx context.Context, stylistID string, fn func(ctx context.Context, tx store.StylistCalendarTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockStylistCalendar(ctx, tx, stylistID); err != nil {
			return err
		}
		return fn(ctx, calendarTx{tx: tx})
	})
}

// resolveIdempotentReplay looks up a booking whose ID the caller pinned via an
// idempotency key. A hit with the same interval is a replay of an already
// committed request; a hit with a different interval means the key was reused.
func resolveIdempotentReplay(ctx context.Context, tx store.StylistCalendarTx, b domain.Booking) (domain.Booking, bool, error) {
	existing, err := tx.GetBooking(ctx, b.StylistID, b.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Booking{}, false, nil
		}
		return domain.Booking{}, false, err
	}
	if !existing.StartTime.Equal(b.StartTime.UTC()) || !existing.EndTime.Equal(b.EndTime.UTC()) {
		return domain.Booking{}, false, store.ErrIdempotencyConflict
	}
	return existing, true, nil
}

func lockStylistCalendar(ctx context.Context, tx bun.Tx, stylistID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", stylistID).Exec(ctx)
	return err
}

func ensureBookableInterval(ctx context.Context, tx store.StylistCalendarTx, b domain.Booking) error {
	start := b.StartTime.UTC()
	end := b.EndTime.UTC()
	date := domain.DateOf(start)
	dayEnd := date.AddDate(0, 0, 1)

	rules, err := tx.ListWorkingHours(ctx, b.StylistID)
	if err != nil {
		return err
	}
	weekday := domain.WeekdayOf(date)
	var working *domain.Interval
	for _, rule := range rules {
		if rule.Weekday == weekday {
			iv := rule.WorkingInterval(date)
			working = &iv
			break
		}
	}
	if working == nil || start.Before(working.Start) || end.After(working.End) {
		return store.ErrConflict
	}

	requested := domain.Interval{Start: start, End: end}

	oneOffs, err := tx.ListOneOffUnavailability(ctx, b.StylistID, start, end)
	if err != nil {
		return err
	}
	for _, u := range oneOffs {
		if requested.Overlaps(domain.Interval{Start: u.StartTime, End: u.EndTime}) {
			return store.ErrConflict
		}
	}

	seriesRows, err := tx.ListRecurringSeries(ctx, b.StylistID)
	if err != nil {
		return err
	}
	for _, s := range seriesRows {
		rule, err := domain.ParseRecurrenceRule(s.Rule)
		if err != nil {
			return err
		}
		exRows, err := tx.ListSeriesExceptions(ctx, s.ID)
		if err != nil {
			return err
		}
		// Moved occurrences may originate on dates far from the booking day,
		// so expansion has to chase exception originals too.
		dates := domain.ExpandDatesCoveringMoves(rule, s.StartDate, s.EndDate, exRows,
			date.AddDate(0, 0, -1), dayEnd)
		if len(dates) == 0 {
			continue
		}
		blocked, _ := domain.ResolveExceptions(s, dates, exRows, date.AddDate(0, 0, -1), dayEnd)
		if domain.OverlapsAnyBlocked(requested, blocked) {
			return store.ErrConflict
		}
	}

	bookings, err := tx.ListActiveBookings(ctx, b.StylistID, start, end)
	if err != nil {
		return err
	}
	if len(bookings) > 0 {
		return store.ErrConflict
	}

	return nil
}
