package clock

import "time"

// All day arithmetic is UTC midnight-to-midnight. There is no timezone
// configuration; clients see the same bucket boundaries everywhere.

const day = 24 * time.Hour

// DayBounds returns the UTC calendar-day window containing t: [start, end).
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := t.UTC().Truncate(day)
	return start, start.Add(day)
}

// PercentOfDayElapsed reports how much of t's UTC day has passed, in [0, 1).
func PercentOfDayElapsed(t time.Time) float64 {
	start, end := DayBounds(t)
	return float64(t.UTC().Sub(start)) / float64(end.Sub(start))
}

// DaysBetween returns the number of whole UTC calendar days from a's day
// to b's day. Same day yields 0, b on the day after a yields 1.
func DaysBetween(a, b time.Time) int {
	aStart, _ := DayBounds(a)
	bStart, _ := DayBounds(b)
	return int(bStart.Sub(aStart) / day)
}
