package domain

import (
	"strconv"
	"strings"
	"time"
)

// Business calendar: Monday through Saturday 09:00-20:00, Sunday closed,
// appointments run 30 minutes and start only on 30-minute boundaries.
// Dates ("2006-01-02") and times ("15:04") are a naive local timestamp;
// no time-zone conversion is applied.

const (
	SlotMinutes = 30

	openingMinute = 9 * 60
	closingMinute = 20 * 60

	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

func parseDateTime(date, timeOfDay string) (time.Time, bool) {
	t, err := time.ParseInLocation(dateTimeLayout, date+" "+timeOfDay, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func timeToMinutes(timeOfDay string) (int, bool) {
	hh, mm, ok := strings.Cut(timeOfDay, ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// IsPast reports whether the requested slot is not strictly in the future
// relative to now. Unparseable input counts as past.
func IsPast(date, timeOfDay string, now time.Time) bool {
	t, ok := parseDateTime(date, timeOfDay)
	if !ok {
		return true
	}
	return !t.After(now)
}

// IsValidSlot reports whether the time lands on a 30-minute boundary
// (09:00, 09:30, 10:00, ...).
func IsValidSlot(timeOfDay string) bool {
	minutes, ok := timeToMinutes(timeOfDay)
	if !ok {
		return false
	}
	return minutes%SlotMinutes == 0
}

// IsWithinBusinessHours reports whether an appointment starting at the given
// slot fits the business calendar: not Sunday, starts at or after opening,
// and ends at or before closing. The last bookable start is 19:30.
func IsWithinBusinessHours(date, timeOfDay string) bool {
	t, ok := parseDateTime(date, timeOfDay)
	if !ok {
		return false
	}
	if t.Weekday() == time.Sunday {
		return false
	}

	start, ok := timeToMinutes(timeOfDay)
	if !ok {
		return false
	}
	if start < openingMinute {
		return false
	}
	return start+SlotMinutes <= closingMinute
}

// BusinessHoursMessage explains the calendar rule that applies on the given
// date, for rejection messages.
func BusinessHoursMessage(date string) string {
	t, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return "Invalid date"
	}
	if t.Weekday() == time.Sunday {
		return "Closed on Sundays"
	}
	return "Open Monday to Saturday, 09:00 to 20:00. Last slot 19:30, slots every 30 minutes"
}
