package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Date is a civil calendar date with no time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf is the civil date of t in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate reads "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t, nil), nil
}

// Time is the date at UTC midnight, the storage representation.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n), nil) }

func (d Date) After(o Date) bool { return d.Time().After(o.Time()) }

func (d Date) IsZero() bool { return d == Date{} }

// EndOfMonth is the last day of d's month.
func (d Date) EndOfMonth() Date {
	return DateOf(time.Date(d.Year, d.Month+1, 0, 0, 0, 0, 0, time.UTC), nil)
}

// AddMonths moves n months, clamping to the target month's last day.
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year, d.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := DateOf(first, nil).EndOfMonth()
	if d.Day > last.Day {
		return last
	}
	return Date{Year: first.Year(), Month: first.Month(), Day: d.Day}
}

func (d Date) String() string { return d.Time().Format(time.DateOnly) }

// Display renders "15/03/2025", the format users type.
func (d Date) Display() string { return d.Time().Format("02/01/2006") }

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("conversation: invalid date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

var months = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"setiembre": time.September, "octubre": time.October, "noviembre": time.November,
	"diciembre": time.December,
}

var (
	reInDays     = regexp.MustCompile(`^(?:en|in) (\d{1,3}) (?:dias?|days?)$`)
	reISO        = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	reDayMonthYr = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2}|\d{4})$`)
	reDayMonth   = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})$`)
	reSpanish    = regexp.MustCompile(`^(?:el )?(\d{1,2}) (?:de )?([a-z]+)(?: (?:de |del )?(\d{4}))?$`)
)

// ResolveDate maps free text to a civil date relative to today. Relative
// expressions are always accepted; explicit dates only when strictly after
// today. Anything unrecognised, impossible or past is rejected.
func ResolveDate(input string, today Date) (Date, bool) {
	text := Fold(input)

	switch text {
	case "manana", "tomorrow":
		return today.AddDays(1), true
	case "pasado manana", "day after tomorrow":
		return today.AddDays(2), true
	case "en una semana", "una semana", "en 1 semana", "in a week", "in one week", "proxima semana", "la proxima semana", "semana":
		return today.AddDays(7), true
	case "en dos semanas", "en 2 semanas", "in two weeks", "in 2 weeks":
		return today.AddDays(14), true
	case "fin de mes", "a fin de mes", "fin del mes", "end of month", "end of the month":
		return today.EndOfMonth(), true
	case "en un mes", "un mes", "proximo mes", "el proximo mes", "in a month", "next month":
		return today.AddMonths(1), true
	}

	if m := reInDays.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n < 1 {
			return Date{}, false
		}
		return today.AddDays(n), true
	}

	var (
		d  Date
		ok bool
	)
	switch {
	case reISO.MatchString(text):
		m := reISO.FindStringSubmatch(text)
		d, ok = civil(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	case reDayMonthYr.MatchString(text):
		m := reDayMonthYr.FindStringSubmatch(text)
		year := atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		d, ok = civil(year, atoi(m[2]), atoi(m[1]))
	case reDayMonth.MatchString(text):
		m := reDayMonth.FindStringSubmatch(text)
		d, ok = civil(today.Year, atoi(m[2]), atoi(m[1]))
	case reSpanish.MatchString(text):
		m := reSpanish.FindStringSubmatch(text)
		month, known := months[m[2]]
		if !known {
			return Date{}, false
		}
		year := today.Year
		if m[3] != "" {
			year = atoi(m[3])
		}
		d, ok = civil(year, int(month), atoi(m[1]))
	}
	if !ok || !d.After(today) {
		return Date{}, false
	}
	return d, true
}

// civil rejects dates time.Date would normalise (e.g. 31/02).
func civil(year, month, day int) (Date, bool) {
	if month < 1 || month > 12 || day < 1 {
		return Date{}, false
	}
	d := DateOf(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil)
	if d.Day != day || int(d.Month) != month {
		return Date{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
