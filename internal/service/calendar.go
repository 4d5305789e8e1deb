package service

import "time"

const dateLayout = "2006-01-02"

// dateOnly truncates t to midnight UTC of its calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addMonths adds n calendar months, clamping to the last day of the target month.
func addMonths(t time.Time, n int) time.Time {
	t = dateOnly(t)
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func addYears(t time.Time, n int) time.Time {
	return addMonths(t, 12*n)
}

// daysBetween returns the whole calendar days from a to b, negative when b is before a.
func daysBetween(a, b time.Time) int {
	return int(dateOnly(b).Sub(dateOnly(a)).Hours() / 24)
}

// inclusiveDays counts the calendar days of [start, end].
func inclusiveDays(start, end time.Time) int {
	return daysBetween(start, end) + 1
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
