// Package dates turns the loosely formatted date cells of a spreadsheet export
// into canonical YYYY-MM-DD calendar days.
//
// Calendar days are handled as civil dates: a time.Time at midnight UTC whose
// Y/M/D is the day in question. Day arithmetic on those values never crosses a
// DST transition, so "days between" is always an exact multiple of 24h.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
)

// ISOLayout is the canonical date format of every record.
const ISOLayout = "2006-01-02"

// maxSerial is 9999-12-31 in the 1900 date system.
const maxSerial = 2958465

const secondsPerDay = 24 * 60 * 60

var (
	isoRe    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	serialRe = regexp.MustCompile(`^\d+(\.\d+)?$`)
	dmyRe    = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})$`)
)

// Normalize converts a spreadsheet cell into a canonical date. The bool is
// false when the cell cannot be read as a date; callers drop such rows.
//
// Accepted forms, tried in order:
//   - YYYY-MM-DD (returned as-is when valid)
//   - a spreadsheet serial number, e.g. 45689 or 45689.75; numbers outside
//     the serial range go on to the later forms
//   - D/M/Y or DD/MM/YYYY ('-' also accepted), years below 100 are 20YY
//   - anything dateparse understands, read in loc
//
// Out-of-range day or month values roll over the way time.Date does, so
// 31/04/2025 becomes 2025-05-01 rather than being rejected.
func Normalize(cell string, loc *time.Location) (string, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return "", false
	}
	if loc == nil {
		loc = time.Local
	}

	if m := isoRe.FindStringSubmatch(s); m != nil {
		return fromParts(m[1], m[2], m[3])
	}

	if serialRe.MatchString(s) {
		if iso, ok := fromSerial(s); ok {
			return iso, true
		}
	}

	if m := dmyRe.FindStringSubmatch(s); m != nil {
		year, err := strconv.Atoi(m[3])
		if err != nil {
			return "", false
		}
		if year < 100 {
			year += 2000
		}
		return fromParts(strconv.Itoa(year), m[2], m[1])
	}

	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return "", false
	}
	t = t.In(loc)
	return Civil(t.Year(), t.Month(), t.Day()).Format(ISOLayout), true
}

func fromParts(y, m, d string) (string, bool) {
	year, err := strconv.Atoi(y)
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(m)
	if err != nil {
		return "", false
	}
	day, err := strconv.Atoi(d)
	if err != nil {
		return "", false
	}
	return Civil(year, time.Month(month), day).Format(ISOLayout), true
}

func fromSerial(s string) (string, bool) {
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < 1 || serial > maxSerial {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	return Civil(t.Year(), t.Month(), t.Day()).Format(ISOLayout), true
}

// Civil returns the civil date for y/m/d, normalizing overflowing fields.
func Civil(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseISO reads a canonical date into a civil date.
func ParseISO(s string) (time.Time, error) {
	return time.Parse(ISOLayout, s)
}

// FormatISO formats a civil (or any) date as YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// Today returns the civil date of now as seen in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	return Civil(local.Year(), local.Month(), local.Day())
}

// DaysBetween returns the whole number of days from a to b (negative when b
// is before a). Both must be civil dates. Spans longer than a time.Duration
// can hold are still exact.
func DaysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

// AddDays shifts a civil date by n days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}
