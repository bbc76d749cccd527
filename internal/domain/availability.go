package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Weekday is Monday-first: 0 = Monday .. 6 = Sunday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// MinuteOfDay is a time-of-day as minutes from midnight, 0..1440.
type MinuteOfDay int

const MinutesPerDay = 24 * 60

func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, errors.New("invalid time of day")
	}
	if h < 0 || m < 0 || m > 59 || h*60+m > MinutesPerDay {
		return 0, errors.New("invalid time of day")
	}
	return MinuteOfDay(h*60 + m), nil
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

func (m MinuteOfDay) Valid() bool {
	return m >= 0 && m <= MinutesPerDay
}

// OnDate places the time-of-day on the given calendar date.
func (m MinuteOfDay) OnDate(date time.Time) time.Time {
	return DateOf(date).Add(time.Duration(m) * time.Minute)
}

// DateOf truncates an instant to its UTC calendar date (midnight UTC).
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the two half-open intervals share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Slot is one bookable window of exactly the requested service duration.
// Slots are derived on every query and never persisted.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type BlockedSource string

const (
	BlockedSourceOneOff  BlockedSource = "one_off"
	BlockedSourceSeries  BlockedSource = "series"
	BlockedSourceBooking BlockedSource = "booking"
)

// BlockedInterval is a time range during which a stylist cannot be booked,
// tagged with where it came from. Overlapping entries from different sources
// are kept distinct for traceability.
type BlockedInterval struct {
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Source   BlockedSource `json:"source"`
	Label    string        `json:"label,omitempty"`
	SeriesID *uuid.UUID    `json:"series_id,omitempty"`
}

func (b BlockedInterval) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

// OverlapsAnyBlocked reports whether the candidate interval overlaps at least
// one blocked interval.
func OverlapsAnyBlocked(candidate Interval, blocked []BlockedInterval) bool {
	for _, b := range blocked {
		if candidate.Overlaps(b.Interval()) {
			return true
		}
	}
	return false
}

// WorkingHoursRule is the open interval for one weekday of a stylist's weekly
// schedule. At most one rule exists per (stylist, weekday); the whole weekly
// set is replaced wholesale on every edit.
type WorkingHoursRule struct {
	bun.BaseModel `bun:"table:working_hours_rules"`

	ID          uuid.UUID   `bun:"id,pk,type:uuid"`
	StylistID   string      `bun:"stylist_id,notnull"`
	Weekday     Weekday     `bun:"weekday,notnull"`
	StartMinute MinuteOfDay `bun:"start_minute,notnull"`
	EndMinute   MinuteOfDay `bun:"end_minute,notnull"`
	CreatedAt   time.Time   `bun:"created_at,notnull"`
}

func (r *WorkingHoursRule) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}

// WorkingInterval is the rule's interval placed on a concrete date.
func (r WorkingHoursRule) WorkingInterval(date time.Time) Interval {
	return Interval{Start: r.StartMinute.OnDate(date), End: r.EndMinute.OnDate(date)}
}

// OneOffUnavailability blocks a stylist for a single closed interval.
type OneOffUnavailability struct {
	bun.BaseModel `bun:"table:one_off_unavailability"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	StylistID string    `bun:"stylist_id,notnull"`
	StartTime time.Time `bun:"start_time,notnull"`
	EndTime   time.Time `bun:"end_time,notnull"`
	Reason    string    `bun:"reason"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (u *OneOffUnavailability) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if u.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			u.ID = id
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}

func (u OneOffUnavailability) Blocked() BlockedInterval {
	return BlockedInterval{
		Start:  u.StartTime,
		End:    u.EndTime,
		Source: BlockedSourceOneOff,
		Label:  u.Reason,
	}
}
