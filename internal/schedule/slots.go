package schedule

import (
	"context"
	"time"

	"glowbook/backend/internal/domain"
)

const DefaultSlotGranularityMinutes = 30

// GenerateSlots returns the ordered bookable windows of the requested service
// duration for one calendar day. Candidate starts walk the working interval
// on a fixed grid; the grid matches how the booking UI presents slots, so no
// attempt is made to pack slots more tightly around blocked time. A day with
// no working-hours rule yields an empty list, not an error.
func (s *Service) GenerateSlots(ctx context.Context, stylistID string, date time.Time, serviceDurationMinutes, granularityMinutes int) ([]domain.Slot, error) {
	if stylistID == "" {
		return nil, validationError("stylist_id is required")
	}
	if serviceDurationMinutes < 1 {
		return nil, validationError("service duration must be at least 1 minute")
	}
	if granularityMinutes == 0 {
		granularityMinutes = DefaultSlotGranularityMinutes
	}
	if granularityMinutes < 1 {
		return nil, validationError("granularity must be at least 1 minute")
	}

	day := domain.DateOf(date)
	dayEnd := day.AddDate(0, 0, 1)

	working, err := s.WorkingInterval(ctx, stylistID, day)
	if err != nil {
		return nil, err
	}
	if working == nil {
		return []domain.Slot{}, nil
	}

	blocked, err := s.BlockedIntervals(ctx, stylistID, day, dayEnd)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListActiveBookings(ctx, stylistID, day, dayEnd)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		blocked = append(blocked, b.Blocked())
	}

	duration := time.Duration(serviceDurationMinutes) * time.Minute
	step := time.Duration(granularityMinutes) * time.Minute

	slots := make([]domain.Slot, 0, 16)
	for start := working.Start; !start.After(working.End); start = start.Add(step) {
		end := start.Add(duration)
		if end.After(working.End) {
			break
		}
		if domain.OverlapsAnyBlocked(domain.Interval{Start: start, End: end}, blocked) {
			continue
		}
		slots = append(slots, domain.Slot{Start: start, End: end})
	}

	return slots, nil
}

// DaySchedule is the full availability picture for one calendar day: the
// working interval (nil when the stylist is closed), every blocked interval
// with its source tag, and the nominal intervals freed by cancelled or moved
// occurrences. It lets callers tell "closed" apart from "open but fully
// booked".
type DaySchedule struct {
	Date    time.Time                `json:"date"`
	Working *domain.Interval         `json:"working,omitempty"`
	Blocked []domain.BlockedInterval `json:"blocked"`
	Freed   []domain.Interval        `json:"freed,omitempty"`
}

func (s *Service) DaySchedule(ctx context.Context, stylistID string, date time.Time) (DaySchedule, error) {
	if stylistID == "" {
		return DaySchedule{}, validationError("stylist_id is required")
	}

	day := domain.DateOf(date)
	dayEnd := day.AddDate(0, 0, 1)

	working, err := s.WorkingInterval(ctx, stylistID, day)
	if err != nil {
		return DaySchedule{}, err
	}

	blocked, freed, err := s.blockedAndFreed(ctx, stylistID, day, dayEnd)
	if err != nil {
		return DaySchedule{}, err
	}

	bookings, err := s.repo.ListActiveBookings(ctx, stylistID, day, dayEnd)
	if err != nil {
		return DaySchedule{}, err
	}
	for _, b := range bookings {
		blocked = append(blocked, b.Blocked())
	}
	sortBlocked(blocked)

	return DaySchedule{
		Date:    day,
		Working: working,
		Blocked: blocked,
		Freed:   freed,
	}, nil
}
