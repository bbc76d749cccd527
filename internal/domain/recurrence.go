package domain

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
)

type RecurrenceFrequency string

const (
	RecurrenceFrequencyDaily   RecurrenceFrequency = "daily"
	RecurrenceFrequencyWeekly  RecurrenceFrequency = "weekly"
	RecurrenceFrequencyMonthly RecurrenceFrequency = "monthly"
)

// RecurrenceRule is the structured form of a series' compact rule string.
// It is parsed once when a series is read and never re-parsed per occurrence.
type RecurrenceRule struct {
	Frequency RecurrenceFrequency
	// ByWeekday is required for weekly frequency and meaningless otherwise.
	ByWeekday []Weekday
	// Interval repeats every Nth day/week/month. Zero means 1.
	Interval int
	// Count caps the total number of occurrences, measured from the series
	// start regardless of the queried window.
	Count *int
}

func (r RecurrenceRule) Validate() error {
	switch r.Frequency {
	case RecurrenceFrequencyDaily, RecurrenceFrequencyMonthly:
		if len(r.ByWeekday) > 0 {
			return errors.New("weekday set is only valid for weekly frequency")
		}
	case RecurrenceFrequencyWeekly:
		if len(r.ByWeekday) == 0 {
			return errors.New("weekly frequency requires at least one weekday")
		}
		for _, wd := range r.ByWeekday {
			if !wd.Valid() {
				return errors.New("invalid weekday")
			}
		}
	default:
		return errors.New("unsupported frequency")
	}
	if r.Interval < 0 {
		return errors.New("interval must be at least 1")
	}
	if r.Count != nil && *r.Count < 1 {
		return errors.New("count must be at least 1")
	}
	return nil
}

// ParseRecurrenceRule decodes the persisted rule-string form, e.g.
// "weekly;byday=0,2;interval=2" or "monthly;interval=3;count=12".
func ParseRecurrenceRule(s string) (RecurrenceRule, error) {
	parts := strings.Split(strings.TrimSpace(s), ";")
	if len(parts) == 0 || parts[0] == "" {
		return RecurrenceRule{}, errors.New("empty recurrence rule")
	}

	rule := RecurrenceRule{Frequency: RecurrenceFrequency(parts[0])}
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return RecurrenceRule{}, errors.New("malformed recurrence rule")
		}
		switch key {
		case "byday":
			for _, field := range strings.Split(value, ",") {
				n, err := strconv.Atoi(field)
				if err != nil {
					return RecurrenceRule{}, errors.New("invalid weekday")
				}
				rule.ByWeekday = append(rule.ByWeekday, Weekday(n))
			}
		case "interval":
			n, err := strconv.Atoi(value)
			if err != nil {
				return RecurrenceRule{}, errors.New("invalid interval")
			}
			rule.Interval = n
		case "count":
			n, err := strconv.Atoi(value)
			if err != nil {
				return RecurrenceRule{}, errors.New("invalid count")
			}
			rule.Count = &n
		default:
			return RecurrenceRule{}, errors.New("unknown recurrence rule field")
		}
	}

	if err := rule.Validate(); err != nil {
		return RecurrenceRule{}, err
	}
	return rule, nil
}

// String encodes the canonical rule-string form.
func (r RecurrenceRule) String() string {
	var b strings.Builder
	b.WriteString(string(r.Frequency))
	if len(r.ByWeekday) > 0 {
		b.WriteString(";byday=")
		for i, wd := range normalizeWeekdays(r.ByWeekday) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(int(wd)))
		}
	}
	if r.Interval > 1 {
		b.WriteString(";interval=")
		b.WriteString(strconv.Itoa(r.Interval))
	}
	if r.Count != nil {
		b.WriteString(";count=")
		b.WriteString(strconv.Itoa(*r.Count))
	}
	return b.String()
}

// ExpandDates produces the ascending, duplicate-free calendar dates on which
// the series has an occurrence, restricted to the intersection of
// [seriesStart, seriesEnd] and [windowStart, windowEnd]. Both end bounds are
// inclusive dates. The rule is assumed validated; a disjoint window yields an
// empty slice, never an error.
func ExpandDates(rule RecurrenceRule, seriesStart time.Time, seriesEnd *time.Time, windowStart, windowEnd time.Time) []time.Time {
	start := DateOf(seriesStart)
	winStart := DateOf(windowStart)
	winEnd := DateOf(windowEnd)

	last := winEnd
	if seriesEnd != nil {
		end := DateOf(*seriesEnd)
		if end.Before(last) {
			last = end
		}
	}
	if last.Before(start) || winEnd.Before(winStart) {
		return nil
	}

	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}
	maxCount := -1
	if rule.Count != nil {
		maxCount = *rule.Count
	}

	var out []time.Time
	keep := func(d time.Time) {
		if !d.Before(winStart) && !d.After(last) {
			out = append(out, d)
		}
	}

	switch rule.Frequency {
	case RecurrenceFrequencyDaily:
		emitted := 0
		for d := start; !d.After(last); d = d.AddDate(0, 0, interval) {
			if maxCount >= 0 && emitted >= maxCount {
				break
			}
			keep(d)
			emitted++
		}

	case RecurrenceFrequencyWeekly:
		weekdays := normalizeWeekdays(rule.ByWeekday)
		startMonday := mondayOf(start)
		emitted := 0
	weeks:
		for weekIndex := 0; ; weekIndex++ {
			weekMonday := startMonday.AddDate(0, 0, weekIndex*interval*7)
			if weekMonday.After(last) {
				break
			}
			for _, wd := range weekdays {
				d := weekMonday.AddDate(0, 0, int(wd))
				if d.Before(start) {
					continue
				}
				if d.After(last) {
					break weeks
				}
				if maxCount >= 0 && emitted >= maxCount {
					break weeks
				}
				keep(d)
				emitted++
			}
		}

	case RecurrenceFrequencyMonthly:
		day := start.Day()
		emitted := 0
		for m := 0; ; m += interval {
			first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, m, 0)
			if first.After(last) {
				break
			}
			d := first.AddDate(0, 0, day-1)
			// A month without that day-of-month is skipped, never clamped.
			if d.Month() != first.Month() {
				continue
			}
			if d.After(last) {
				break
			}
			if maxCount >= 0 && emitted >= maxCount {
				break
			}
			keep(d)
			emitted++
		}
	}

	return out
}

func normalizeWeekdays(weekdays []Weekday) []Weekday {
	seen := make(map[Weekday]struct{}, len(weekdays))
	out := make([]Weekday, 0, len(weekdays))
	for _, wd := range weekdays {
		if _, ok := seen[wd]; ok {
			continue
		}
		seen[wd] = struct{}{}
		out = append(out, wd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func mondayOf(date time.Time) time.Time {
	return date.AddDate(0, 0, -int(WeekdayOf(date)))
}
