package timeline

import "time"

// Granularity is the spacing of grid lines.
type Granularity string

const (
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
)

// GranularityFor picks grid spacing from the window length: weekly up to
// three months, monthly up to a year, quarterly beyond.
func GranularityFor(start, end time.Time) Granularity {
	days := end.Sub(start).Hours() / 24
	switch {
	case days <= 92:
		return Weekly
	case days <= 366:
		return Monthly
	default:
		return Quarterly
	}
}

// GridLines returns the tick times within [start, end]: Mondays for
// weekly, first of month for monthly, first of Jan/Apr/Jul/Oct for
// quarterly. All ticks are UTC midnight.
func GridLines(start, end time.Time, g Granularity) []time.Time {
	start, end = start.UTC(), end.UTC()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	var t time.Time
	var next func(time.Time) time.Time
	switch g {
	case Weekly:
		offset := (int(time.Monday) - int(day.Weekday()) + 7) % 7
		t = day.AddDate(0, 0, offset)
		next = func(v time.Time) time.Time { return v.AddDate(0, 0, 7) }
	case Quarterly:
		q := (int(day.Month()) - 1) / 3 * 3
		t = time.Date(day.Year(), time.Month(q+1), 1, 0, 0, 0, 0, time.UTC)
		next = func(v time.Time) time.Time { return v.AddDate(0, 3, 0) }
	default:
		t = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		next = func(v time.Time) time.Time { return v.AddDate(0, 1, 0) }
	}
	if t.Before(start) {
		t = next(t)
	}

	lines := []time.Time{}
	for ; !t.After(end); t = next(t) {
		lines = append(lines, t)
	}
	return lines
}
