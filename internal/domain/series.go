package domain

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecurringSeries is a bounded or unbounded family of unavailability
// occurrences, one per date matched by its recurrence rule, each spanning
// [date+StartMinute, date+EndMinute). The rule is persisted in its compact
// string form; callers parse it once per read with ParseRecurrenceRule.
type RecurringSeries struct {
	bun.BaseModel `bun:"table:recurring_series"`

	ID          uuid.UUID   `bun:"id,pk,type:uuid"`
	StylistID   string      `bun:"stylist_id,notnull"`
	Title       string      `bun:"title,notnull"`
	StartMinute MinuteOfDay `bun:"start_minute,notnull"`
	EndMinute   MinuteOfDay `bun:"end_minute,notnull"`
	Rule        string      `bun:"rule,notnull"`
	StartDate   time.Time   `bun:"start_date,notnull"`
	EndDate     *time.Time  `bun:"end_date"`
	CreatedAt   time.Time   `bun:"created_at,notnull"`
	UpdatedAt   time.Time   `bun:"updated_at,notnull"`
}

func (s *RecurringSeries) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}

// OccurrenceInterval is the nominal blocked interval on one occurrence date,
// before exceptions are applied.
func (s RecurringSeries) OccurrenceInterval(date time.Time) Interval {
	return Interval{Start: s.StartMinute.OnDate(date), End: s.EndMinute.OnDate(date)}
}

// SeriesException overrides a single occurrence of its parent series. Both
// override fields absent means the occurrence is cancelled; both present means
// it is moved to [NewStart, NewEnd). Identity is
// (series_id, original_occurrence_start), so re-submitting an override for the
// same occurrence replaces the previous one.
type SeriesException struct {
	bun.BaseModel `bun:"table:series_exceptions"`

	ID                      uuid.UUID  `bun:"id,pk,type:uuid"`
	SeriesID                uuid.UUID  `bun:"series_id,notnull,type:uuid"`
	OriginalOccurrenceStart time.Time  `bun:"original_occurrence_start,notnull"`
	NewStart                *time.Time `bun:"new_start"`
	NewEnd                  *time.Time `bun:"new_end"`
	CreatedAt               time.Time  `bun:"created_at,notnull"`
	UpdatedAt               time.Time  `bun:"updated_at,notnull"`
}

func (e *SeriesException) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if e.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			e.ID = id
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		e.UpdatedAt = now
	}
	return nil
}

func (e SeriesException) IsCancellation() bool {
	return e.NewStart == nil && e.NewEnd == nil
}

// ExpandDatesCoveringMoves expands rule occurrences for
// [windowStart, windowEnd) and additionally resolves the nominal date of every
// moved exception whose original occurrence lies outside that range. A move
// may relocate an occurrence to any date, so the occurrence carrying the moved
// interval is not necessarily among the window's own occurrences. Exception
// originals that match no occurrence of the rule contribute nothing.
func ExpandDatesCoveringMoves(rule RecurrenceRule, seriesStart time.Time, seriesEnd *time.Time, exceptions []SeriesException, windowStart, windowEnd time.Time) []time.Time {
	dates := ExpandDates(rule, seriesStart, seriesEnd, windowStart, windowEnd)

	seen := make(map[int64]struct{}, len(dates))
	for _, d := range dates {
		seen[d.UnixNano()] = struct{}{}
	}

	added := false
	for _, e := range exceptions {
		if e.IsCancellation() {
			continue
		}
		day := DateOf(e.OriginalOccurrenceStart.UTC())
		if _, ok := seen[day.UnixNano()]; ok {
			continue
		}
		for _, d := range ExpandDates(rule, seriesStart, seriesEnd, day, day) {
			if _, ok := seen[d.UnixNano()]; ok {
				continue
			}
			seen[d.UnixNano()] = struct{}{}
			dates = append(dates, d)
			added = true
		}
	}

	if added {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	}
	return dates
}

// ResolveExceptions applies a series' exceptions to its expanded occurrence
// dates and returns the effective blocked intervals overlapping
// [windowStart, windowEnd), plus the nominal intervals inside the window that
// cancellations and moves freed. Exceptions are looked up by nominal
// occurrence start; an exception whose original start matches no occurrence
// has no effect.
func ResolveExceptions(series RecurringSeries, occurrenceDates []time.Time, exceptions []SeriesException, windowStart, windowEnd time.Time) (blocked []BlockedInterval, freed []Interval) {
	byOriginalStart := make(map[int64]SeriesException, len(exceptions))
	for _, e := range exceptions {
		byOriginalStart[e.OriginalOccurrenceStart.UTC().UnixNano()] = e
	}

	seriesID := series.ID
	for _, date := range occurrenceDates {
		nominal := series.OccurrenceInterval(date)

		ex, ok := byOriginalStart[nominal.Start.UnixNano()]
		if !ok {
			if nominal.Overlaps(Interval{Start: windowStart, End: windowEnd}) {
				blocked = append(blocked, BlockedInterval{
					Start:    nominal.Start,
					End:      nominal.End,
					Source:   BlockedSourceSeries,
					Label:    series.Title,
					SeriesID: &seriesID,
				})
			}
			continue
		}

		if nominal.Overlaps(Interval{Start: windowStart, End: windowEnd}) {
			freed = append(freed, nominal)
		}
		if ex.IsCancellation() {
			continue
		}

		moved := Interval{Start: ex.NewStart.UTC(), End: ex.NewEnd.UTC()}
		if moved.Overlaps(Interval{Start: windowStart, End: windowEnd}) {
			blocked = append(blocked, BlockedInterval{
				Start:    moved.Start,
				End:      moved.End,
				Source:   BlockedSourceSeries,
				Label:    series.Title,
				SeriesID: &seriesID,
			})
		}
	}

	return blocked, freed
}
