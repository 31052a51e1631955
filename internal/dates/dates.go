// Package dates provides weekend-aware calendar-date arithmetic for
// defaults offsets. Manually entered dates are never adjusted; only
// computed offsets go through here.
package dates

import "time"

// ISO is the storage layout for calendar dates.
const ISO = "2006-01-02"

// Increment moves a date by n days, skipping Saturdays and/or Sundays when
// excluded. With both weekend days included this is plain date arithmetic.
func Increment(from time.Time, days int, includeSaturday, includeSunday bool) time.Time {
	if includeSaturday && includeSunday {
		return from.AddDate(0, 0, days)
	}
	step := 1
	if days < 0 {
		step = -1
		days = -days
	}
	cur := from
	for days > 0 {
		cur = cur.AddDate(0, 0, step)
		if !excluded(cur, includeSaturday, includeSunday) {
			days--
		}
	}
	return cur
}

// AdjustForward moves a date forward to the next included day if it lands on
// an excluded weekend day.
func AdjustForward(d time.Time, includeSaturday, includeSunday bool) time.Time {
	for excluded(d, includeSaturday, includeSunday) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func excluded(d time.Time, includeSaturday, includeSunday bool) bool {
	switch d.Weekday() {
	case time.Saturday:
		return !includeSaturday
	case time.Sunday:
		return !includeSunday
	default:
		return false
	}
}
