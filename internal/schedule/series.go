package schedule

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"glowbook/backend/internal/domain"
)

type CreateSeriesInput struct {
	StylistID   string
	Title       string
	StartMinute domain.MinuteOfDay
	EndMinute   domain.MinuteOfDay
	Rule        domain.RecurrenceRule
	StartDate   time.Time
	EndDate     *time.Time
}

func (s *Service) CreateSeries(ctx context.Context, in CreateSeriesInput) (domain.RecurringSeries, error) {
	series, err := buildSeries(in)
	if err != nil {
		return domain.RecurringSeries{}, err
	}
	return s.repo.CreateSeries(ctx, series)
}

type UpdateSeriesInput struct {
	SeriesID uuid.UUID
	CreateSeriesInput
}

// UpdateSeries rewrites the series row. Exceptions whose original occurrence
// start no longer matches any expansion of the new rule can never be resolved
// again; the repository deletes those orphans in the same transaction.
func (s *Service) UpdateSeries(ctx context.Context, in UpdateSeriesInput) (domain.RecurringSeries, error) {
	if in.SeriesID == uuid.Nil {
		return domain.RecurringSeries{}, validationError("series_id is required")
	}
	series, err := buildSeries(in.CreateSeriesInput)
	if err != nil {
		return domain.RecurringSeries{}, err
	}
	series.ID = in.SeriesID
	return s.repo.UpdateSeries(ctx, series)
}

func buildSeries(in CreateSeriesInput) (domain.RecurringSeries, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.RecurringSeries{}, validationError("title is required")
	}
	if in.StylistID == "" {
		return domain.RecurringSeries{}, validationError("stylist_id is required")
	}
	if !in.StartMinute.Valid() || !in.EndMinute.Valid() {
		return domain.RecurringSeries{}, validationError("invalid time of day")
	}
	if in.EndMinute <= in.StartMinute {
		return domain.RecurringSeries{}, validationError("end_time must be after start_time")
	}
	if err := in.Rule.Validate(); err != nil {
		return domain.RecurringSeries{}, validationError(err.Error())
	}
	if in.StartDate.IsZero() {
		return domain.RecurringSeries{}, validationError("start_date is required")
	}

	startDate := domain.DateOf(in.StartDate)
	var endDate *time.Time
	if in.EndDate != nil {
		e := domain.DateOf(*in.EndDate)
		if e.Before(startDate) {
			return domain.RecurringSeries{}, validationError("end_date must not be before start_date")
		}
		endDate = &e
	}

	return domain.RecurringSeries{
		StylistID:   in.StylistID,
		Title:       title,
		StartMinute: in.StartMinute,
		EndMinute:   in.EndMinute,
		Rule:        in.Rule.String(),
		StartDate:   startDate,
		EndDate:     endDate,
	}, nil
}

func (s *Service) ListSeries(ctx context.Context, stylistID string) ([]domain.RecurringSeries, error) {
	if stylistID == "" {
		return nil, validationError("stylist_id is required")
	}
	rows, err := s.repo.ListSeriesWithExceptions(ctx, stylistID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RecurringSeries, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Series)
	}
	return out, nil
}

// DeleteSeries removes the series and, by cascade, every exception it owns.
func (s *Service) DeleteSeries(ctx context.Context, stylistID string, seriesID uuid.UUID) error {
	if stylistID == "" {
		return validationError("stylist_id is required")
	}
	if seriesID == uuid.Nil {
		return validationError("series_id is required")
	}
	return s.repo.DeleteSeries(ctx, stylistID, seriesID)
}

// CancelOccurrence records a cancel override for one occurrence: its nominal
// interval stops blocking and is shown as freed. Re-invoking for the same
// occurrence replaces the previous override.
func (s *Service) CancelOccurrence(ctx context.Context, stylistID string, seriesID uuid.UUID, originalOccurrenceStart time.Time) (domain.SeriesException, error) {
	return s.upsertException(ctx, stylistID, seriesID, originalOccurrenceStart, nil, nil)
}

// MoveOccurrence relocates one occurrence to [newStart, newEnd); the nominal
// interval is freed and the new interval blocks instead, on that date only.
func (s *Service) MoveOccurrence(ctx context.Context, stylistID string, seriesID uuid.UUID, originalOccurrenceStart, newStart, newEnd time.Time) (domain.SeriesException, error) {
	ns := newStart.UTC()
	ne := newEnd.UTC()
	if !ne.After(ns) {
		return domain.SeriesException{}, validationError("new_end must be after new_start")
	}
	return s.upsertException(ctx, stylistID, seriesID, originalOccurrenceStart, &ns, &ne)
}

func (s *Service) upsertException(ctx context.Context, stylistID string, seriesID uuid.UUID, originalOccurrenceStart time.Time, newStart, newEnd *time.Time) (domain.SeriesException, error) {
	if stylistID == "" {
		return domain.SeriesException{}, validationError("stylist_id is required")
	}
	if seriesID == uuid.Nil {
		return domain.SeriesException{}, validationError("series_id is required")
	}

	series, err := s.repo.GetSeries(ctx, stylistID, seriesID)
	if err != nil {
		return domain.SeriesException{}, err
	}

	original := originalOccurrenceStart.UTC()
	if err := ensureOccurrenceExists(series, original); err != nil {
		return domain.SeriesException{}, err
	}

	return s.repo.UpsertSeriesException(ctx, stylistID, domain.SeriesException{
		SeriesID:                seriesID,
		OriginalOccurrenceStart: original,
		NewStart:                newStart,
		NewEnd:                  newEnd,
	})
}

// ensureOccurrenceExists verifies the instant is one the series' rule actually
// produces, so an exception can never be orphaned at creation time.
func ensureOccurrenceExists(series domain.RecurringSeries, originalOccurrenceStart time.Time) error {
	rule, err := domain.ParseRecurrenceRule(series.Rule)
	if err != nil {
		return err
	}
	date := domain.DateOf(originalOccurrenceStart)
	for _, d := range domain.ExpandDates(rule, series.StartDate, series.EndDate, date, date) {
		if series.OccurrenceInterval(d).Start.Equal(originalOccurrenceStart) {
			return nil
		}
	}
	return validationError("original_occurrence_start does not match any occurrence of the series")
}

// ClearOccurrenceException removes an override so the nominal occurrence
// blocks again.
func (s *Service) ClearOccurrenceException(ctx context.Context, stylistID string, seriesID uuid.UUID, originalOccurrenceStart time.Time) error {
	if stylistID == "" {
		return validationError("stylist_id is required")
	}
	if seriesID == uuid.Nil {
		return validationError("series_id is required")
	}
	return s.repo.DeleteSeriesException(ctx, stylistID, seriesID, originalOccurrenceStart.UTC())
}
