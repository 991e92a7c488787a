package types

import "time"

// AddClampedDate adds the given years, months and days to t. The year and
// month components clamp the day of month to the last valid day of the
// target month, so adding one month to Jan 31 lands on Feb 28 (29 in leap
// years), not Mar 2/3. The days component is plain calendar arithmetic and
// rolls over month boundaries as usual.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	// Calculate the proposed year and month
	newY := y + years
	newM := time.Month(int(m) + months)

	// If we move beyond December, it adjusts correctly,
	// for example adding 2 months to November will land on January next year.
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	// Find the last valid day of the new month
	firstOfNextMonth := time.Date(newY, newM+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.Add(-24 * time.Hour).Day()

	newD := d
	if newD > lastDay {
		// Clamp to last valid day
		newD = lastDay
	}

	clamped := time.Date(newY, newM, newD, h, min, sec, t.Nanosecond(), t.Location())
	return clamped.AddDate(0, 0, days)
}
