// Package dateutil parses stored CRM dates into calendar days and computes
// day deltas that ignore time-of-day and timezone artifacts.
package dateutil

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISODate is the layout used for due dates.
const ISODate = "2006-01-02"

var (
	isoPrefix   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:$|[T ])`)
	monthDayISO = regexp.MustCompile(`^-{0,2}(\d{1,2})-(\d{1,2})$`)
	usDate      = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)
)

// Midnight returns local midnight of t's calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysUntil returns the number of whole days from b to a, after both are
// normalized to midnight. Past dates yield negative values.
func DaysUntil(a, b time.Time) int {
	a = Midnight(a)
	b = Midnight(b.In(a.Location()))
	return int(math.Round(a.Sub(b).Hours() / 24))
}

// ParseDate reads the calendar date at the start of s ("2024-06-10",
// "2024-06-10T00:00:00.000Z", ...) and returns midnight of that day in loc.
// The components are taken from the string as written, so a UTC suffix
// never shifts the day.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	m := isoPrefix.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	if err := checkMonthDay(mo, d); err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, loc)
	if t.Day() != d {
		return time.Time{}, fmt.Errorf("date %q: day out of range", s)
	}
	return t, nil
}

// ParseMonthDay extracts month and day from a stored birthday. Accepted
// forms are ISO dates with or without a time part, "--MM-DD", "MM-DD" and
// US style "M/D" or "M/D/YYYY".
func ParseMonthDay(stored string) (time.Month, int, error) {
	s := strings.TrimSpace(stored)

	var mo, d int
	switch {
	case isoPrefix.MatchString(s):
		m := isoPrefix.FindStringSubmatch(s)
		mo, _ = strconv.Atoi(m[2])
		d, _ = strconv.Atoi(m[3])
	case monthDayISO.MatchString(s):
		m := monthDayISO.FindStringSubmatch(s)
		mo, _ = strconv.Atoi(m[1])
		d, _ = strconv.Atoi(m[2])
	case usDate.MatchString(s):
		m := usDate.FindStringSubmatch(s)
		mo, _ = strconv.Atoi(m[1])
		d, _ = strconv.Atoi(m[2])
	default:
		return 0, 0, fmt.Errorf("unrecognized birthday %q", stored)
	}

	if err := checkMonthDay(mo, d); err != nil {
		return 0, 0, fmt.Errorf("birthday %q: %w", stored, err)
	}
	return time.Month(mo), d, nil
}

// NextBirthday projects a stored birthday onto its next occurrence on or
// after today's calendar day. February 29 falls on February 28 in common
// years.
func NextBirthday(stored string, today time.Time) (time.Time, error) {
	month, day, err := ParseMonthDay(stored)
	if err != nil {
		return time.Time{}, err
	}

	today = Midnight(today)
	next := occurrence(today.Year(), month, day, today.Location())
	if next.Before(today) {
		next = occurrence(today.Year()+1, month, day, today.Location())
	}
	return next, nil
}

// DaysUntilBirthday is DaysUntil applied to NextBirthday.
func DaysUntilBirthday(stored string, today time.Time) (int, time.Time, error) {
	next, err := NextBirthday(stored, today)
	if err != nil {
		return 0, time.Time{}, err
	}
	return DaysUntil(next, today), next, nil
}

// Phrase renders a day delta the same way for every alert type.
func Phrase(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("%d days overdue", -days)
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// DuePhrase is Phrase for things that fall due: "is due today",
// "is due in 3 days", "is 2 days overdue".
func DuePhrase(days int) string {
	if days < 0 {
		return "is " + Phrase(days)
	}
	return "is due " + Phrase(days)
}

func occurrence(year int, month time.Month, day int, loc *time.Location) time.Time {
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func checkMonthDay(month, day int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month %d out of range", month)
	}
	// Leap year so February 29 stays a valid birthday.
	if day < 1 || day > daysIn(time.Month(month), 2000) {
		return fmt.Errorf("day %d out of range for %s", day, time.Month(month))
	}
	return nil
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
