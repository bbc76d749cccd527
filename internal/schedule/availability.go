package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"glowbook/backend/internal/domain"
)

// BlockedIntervals merges one-off unavailability with every series' effective,
// exception-resolved intervals for the window. The result is ordered by start
// instant; overlapping entries are kept distinct so each retains its source
// tag.
func (s *Service) BlockedIntervals(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.BlockedInterval, error) {
	blocked, _, err := s.blockedAndFreed(ctx, stylistID, windowStart, windowEnd)
	return blocked, err
}

func (s *Service) blockedAndFreed(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.BlockedInterval, []domain.Interval, error) {
	if stylistID == "" {
		return nil, nil, validationError("stylist_id is required")
	}
	if err := validateWindow(windowStart, windowEnd); err != nil {
		return nil, nil, err
	}

	start := windowStart.UTC()
	end := windowEnd.UTC()

	oneOffs, err := s.repo.ListOneOffUnavailability(ctx, stylistID, start, end)
	if err != nil {
		return nil, nil, err
	}

	blocked := make([]domain.BlockedInterval, 0, len(oneOffs))
	for _, u := range oneOffs {
		blocked = append(blocked, u.Blocked())
	}

	seriesRows, err := s.repo.ListSeriesWithExceptions(ctx, stylistID)
	if err != nil {
		return nil, nil, err
	}

	var freed []domain.Interval
	for _, row := range seriesRows {
		rule, err := domain.ParseRecurrenceRule(row.Series.Rule)
		if err != nil {
			return nil, nil, err
		}

		// Expand one day beyond the window on each side so an occurrence
		// whose nominal interval crosses midnight is still seen; moved
		// occurrences can land on any date, so their originals are resolved
		// regardless of the window.
		dates := domain.ExpandDatesCoveringMoves(rule, row.Series.StartDate, row.Series.EndDate,
			row.Exceptions, start.AddDate(0, 0, -1), end.AddDate(0, 0, 1))
		if len(dates) == 0 {
			continue
		}

		b, f := domain.ResolveExceptions(row.Series, dates, row.Exceptions, start, end)
		blocked = append(blocked, b...)
		freed = append(freed, f...)
	}

	sortBlocked(blocked)
	return blocked, freed, nil
}

func sortBlocked(blocked []domain.BlockedInterval) {
	sort.SliceStable(blocked, func(i, j int) bool {
		if !blocked[i].Start.Equal(blocked[j].Start) {
			return blocked[i].Start.Before(blocked[j].Start)
		}
		if !blocked[i].End.Equal(blocked[j].End) {
			return blocked[i].End.Before(blocked[j].End)
		}
		return blocked[i].Source < blocked[j].Source
	})
}

type WorkingHoursInput struct {
	Weekday     domain.Weekday
	StartMinute domain.MinuteOfDay
	EndMinute   domain.MinuteOfDay
}

// ReplaceWorkingHours swaps a stylist's entire weekly schedule. Rules are
// never patched individually, which is what keeps the one-rule-per-weekday
// invariant.
func (s *Service) ReplaceWorkingHours(ctx context.Context, stylistID string, rules []WorkingHoursInput) ([]domain.WorkingHoursRule, error) {
	if stylistID == "" {
		return nil, validationError("stylist_id is required")
	}

	seen := make(map[domain.Weekday]struct{}, len(rules))
	out := make([]domain.WorkingHoursRule, 0, len(rules))
	for _, r := range rules {
		if !r.Weekday.Valid() {
			return nil, validationError("invalid weekday")
		}
		if _, ok := seen[r.Weekday]; ok {
			return nil, validationError("duplicate weekday")
		}
		seen[r.Weekday] = struct{}{}
		if !r.StartMinute.Valid() || !r.EndMinute.Valid() {
			return nil, validationError("invalid time of day")
		}
		if r.EndMinute <= r.StartMinute {
			return nil, validationError("end_time must be after start_time")
		}
		out = append(out, domain.WorkingHoursRule{
			StylistID:   stylistID,
			Weekday:     r.Weekday,
			StartMinute: r.StartMinute,
			EndMinute:   r.EndMinute,
		})
	}

	return s.repo.ReplaceWorkingHours(ctx, stylistID, out)
}

func (s *Service) GetWorkingHours(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error) {
	if stylistID == "" {
		return nil, validationError("stylist_id is required")
	}
	return s.repo.GetWorkingHours(ctx, stylistID)
}

// WorkingInterval returns the open interval for the date's weekday, or nil if
// the stylist does not work that weekday. There is no fallback between
// weekdays.
func (s *Service) WorkingInterval(ctx context.Context, stylistID string, date time.Time) (*domain.Interval, error) {
	rules, err := s.GetWorkingHours(ctx, stylistID)
	if err != nil {
		return nil, err
	}
	weekday := domain.WeekdayOf(domain.DateOf(date))
	for _, r := range rules {
		if r.Weekday == weekday {
			iv := r.WorkingInterval(date)
			return &iv, nil
		}
	}
	return nil, nil
}

type CreateOneOffInput struct {
	StylistID string
	StartTime time.Time
	EndTime   time.Time
	Reason    string
}

func (s *Service) CreateOneOffUnavailability(ctx context.Context, in CreateOneOffInput) (domain.OneOffUnavailability, error) {
	if in.StylistID == "" {
		return domain.OneOffUnavailability{}, validationError("stylist_id is required")
	}
	start := in.StartTime.UTC()
	end := in.EndTime.UTC()
	if !end.After(start) {
		return domain.OneOffUnavailability{}, validationError("end_time must be after start_time")
	}
	return s.repo.CreateOneOffUnavailability(ctx, domain.OneOffUnavailability{
		StylistID: in.StylistID,
		StartTime: start,
		EndTime:   end,
		Reason:    in.Reason,
	})
}

func (s *Service) ListOneOffUnavailability(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.OneOffUnavailability, error) {
	if stylistID == "" {
		return nil, validationError("stylist_id is required")
	}
	if err := validateWindow(windowStart, windowEnd); err != nil {
		return nil, err
	}
	return s.repo.ListOneOffUnavailability(ctx, stylistID, windowStart.UTC(), windowEnd.UTC())
}

func (s *Service) DeleteOneOffUnavailability(ctx context.Context, stylistID string, id uuid.UUID) error {
	if stylistID == "" {
		return validationError("stylist_id is required")
	}
	if id == uuid.Nil {
		return validationError("unavailability_id is required")
	}
	return s.repo.DeleteOneOffUnavailability(ctx, stylistID, id)
}
