package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"glowbook/backend/internal/domain"
	"glowbook/backend/internal/store"
)

// mapInsertError turns a unique-constraint violation into store.ErrConflict.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrConflict
	}
	return err
}

func (r calendarTx) ListWorkingHours(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error) {
	var rows []domain.WorkingHoursRule
	err := r.tx.NewSelect().
		Model(&rows).
		Where("stylist_id = ?", stylistID).
		OrderExpr("weekday ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r calendarTx) ReplaceWorkingHours(ctx context.Context, stylistID string, rules []domain.WorkingHoursRule) ([]domain.WorkingHoursRule, error) {
	_, err := r.tx.NewDelete().
		Model((*domain.WorkingHoursRule)(nil)).
		Where("stylist_id = ?", stylistID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return []domain.WorkingHoursRule{}, nil
	}

	rows := make([]domain.WorkingHoursRule, len(rules))
	copy(rows, rules)
	if _, err := r.tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return nil, mapInsertError(err)
	}
	return rows, nil
}

func (r calendarTx) ListOneOffUnavailability(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.OneOffUnavailability, error) {
	var rows []domain.OneOffUnavailability
	err := r.tx.NewSelect().
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

func (r calendarTx) CreateOneOffUnavailability(ctx context.Context, u domain.OneOffUnavailability) (domain.OneOffUnavailability, error) {
	m := domain.OneOffUnavailability{
		ID:        u.ID,
		StylistID: u.StylistID,
		StartTime: u.StartTime,
		EndTime:   u.EndTime,
		Reason:    u.Reason,
		CreatedAt: u.CreatedAt,
	}
	if _, err := r.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.OneOffUnavailability{}, err
	}
	return m, nil
}

func (r calendarTx) DeleteOneOffUnavailability(ctx context.Context, stylistID string, id uuid.UUID) error {
	res, err := r.tx.NewDelete().
		Model((*domain.OneOffUnavailability)(nil)).
		Where("stylist_id = ?", stylistID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r calendarTx) ListRecurringSeries(ctx context.Context, stylistID string) ([]domain.RecurringSeries, error) {
	var rows []domain.RecurringSeries
	err := r.tx.NewSelect().
		Model(&rows).
		Where("stylist_id = ?", stylistID).
		OrderExpr("start_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r calendarTx) GetRecurringSeries(ctx context.Context, stylistID string, seriesID uuid.UUID) (domain.RecurringSeries, error) {
	var row domain.RecurringSeries
	err := r.tx.NewSelect().
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

func (r calendarTx) ListSeriesExceptions(ctx context.Context, seriesID uuid.UUID) ([]domain.SeriesException, error) {
	var rows []domain.SeriesException
	err := r.tx.NewSelect().
		Model(&rows).
		Where("series_id = ?", seriesID).
		OrderExpr("original_occurrence_start ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r calendarTx) CreateRecurringSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error) {
	m := domain.RecurringSeries{
		ID:          series.ID,
		StylistID:   series.StylistID,
		Title:       series.Title,
		StartMinute: series.StartMinute,
		EndMinute:   series.EndMinute,
		Rule:        series.Rule,
		StartDate:   series.StartDate,
		EndDate:     series.EndDate,
		CreatedAt:   series.CreatedAt,
		UpdatedAt:   series.UpdatedAt,
	}
	if _, err := r.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.RecurringSeries{}, mapInsertError(err)
	}
	return m, nil
}

func (r calendarTx) UpdateRecurringSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error) {
	m := series
	res, err := r.tx.NewUpdate().
		Model(&m).
		Column("title", "start_minute", "end_minute", "rule", "start_date", "end_date", "updated_at").
		Where("stylist_id = ?", series.StylistID).
		Where("id = ?", series.ID).
		Exec(ctx)
	if err != nil {
		return domain.RecurringSeries{}, err
	}
	if err := requireAffected(res); err != nil {
		return domain.RecurringSeries{}, err
	}
	return m, nil
}

func (r calendarTx) DeleteRecurringSeries(ctx context.Context, stylistID string, seriesID uuid.UUID) error {
	res, err := r.tx.NewDelete().
		Model((*domain.RecurringSeries)(nil)).
		Where("stylist_id = ?", stylistID).
		Where("id = ?", seriesID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r calendarTx) UpsertSeriesException(ctx context.Context, ex domain.SeriesException) (domain.SeriesException, error) {
	m := domain.SeriesException{
		ID:                      ex.ID,
		SeriesID:                ex.SeriesID,
		OriginalOccurrenceStart: ex.OriginalOccurrenceStart,
		NewStart:                ex.NewStart,
		NewEnd:                  ex.NewEnd,
		CreatedAt:               ex.CreatedAt,
		UpdatedAt:               ex.UpdatedAt,
	}
	_, err := r.tx.NewInsert().
		Model(&m).
		On("CONFLICT (series_id, original_occurrence_start) DO UPDATE").
		Set("new_start = EXCLUDED.new_start").
		Set("new_end = EXCLUDED.new_end").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return domain.SeriesException{}, err
	}
	return m, nil
}

func (r calendarTx) DeleteSeriesException(ctx context.Context, seriesID uuid.UUID, originalOccurrenceStart time.Time) error {
	res, err := r.tx.NewDelete().
		Model((*domain.SeriesException)(nil)).
		Where("series_id = ?", seriesID).
		Where("original_occurrence_start = ?", originalOccurrenceStart).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r calendarTx) DeleteSeriesExceptions(ctx context.Context, seriesID uuid.UUID, originalOccurrenceStarts []time.Time) error {
	if len(originalOccurrenceStarts) == 0 {
		return nil
	}
	_, err := r.tx.NewDelete().
		Model((*domain.SeriesException)(nil)).
		Where("series_id = ?", seriesID).
		Where("original_occurrence_start IN (?)", bun.In(originalOccurrenceStarts)).
		Exec(ctx)
	return err
}

func (r calendarTx) ListActiveBookings(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.tx.NewSelect().
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

func (r calendarTx) GetBooking(ctx context.Context, stylistID string, bookingID uuid.UUID) (domain.Booking, error) {
	var row domain.Booking
	err := r.tx.NewSelect().
		Model(&row).
		Where("stylist_id = ?", stylistID).
		Where("id = ?", bookingID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, store.ErrNotFound
		}
		return domain.Booking{}, err
	}
	return row, nil
}

func (r calendarTx) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	m := domain.Booking{
		ID:        b.ID,
		StylistID: b.StylistID,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if _, err := r.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Booking{}, mapInsertError(err)
	}
	return m, nil
}

func (r calendarTx) UpdateBookingStatus(ctx context.Context, stylistID string, bookingID uuid.UUID, status domain.BookingStatus) error {
	res, err := r.tx.NewUpdate().
		Model((*domain.Booking)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("stylist_id = ?", stylistID).
		Where("id = ?", bookingID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
