// Package rotation maps calendar dates to purchase days and to the person whose
// turn it is. Every function is a pure function of its arguments: "today" is
// always passed in, never read from the wall clock.
package rotation

import (
	"fmt"
	"time"

	"github.com/mmynk/sodarota/internal/models"
)

// DateKeyLayout is the layout of a calendar date key.
const DateKeyLayout = "2006-01-02"

// Nobody is returned by ResponsibleFor when no people are registered.
const Nobody = ""

// Midnight truncates t to the start of its calendar day in t's own location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayOfYear returns the 1-based ordinal of t's calendar date within its year.
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// IsPurchaseDay reports whether t falls on an odd day of the year.
// Even days are rest days.
func IsPurchaseDay(t time.Time) bool {
	return DayOfYear(t)%2 == 1
}

// PurchaseIndex returns ceil(dayOfYear / 2). It is defined for every date, but
// only meaningful on purchase days: a rest day shares the index of the
// purchase day before it.
func PurchaseIndex(t time.Time) int {
	return (DayOfYear(t) + 1) / 2
}

// ResponsibleFor returns whose turn it is on t: people[(index-1) mod n].
// It returns Nobody when people is empty.
func ResponsibleFor(t time.Time, people []string) string {
	if len(people) == 0 {
		return Nobody
	}
	return people[(PurchaseIndex(t)-1)%len(people)]
}

// DateKey formats t's calendar date as "2006-01-02".
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey parses a "2006-01-02" key as midnight in loc.
// A nil loc means time.Local.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// Upcoming walks forward from the day after from and returns the next n
// purchase days with the person responsible for each.
func Upcoming(from time.Time, n int, people []string) []models.Assignment {
	if n <= 0 {
		return []models.Assignment{}
	}

	upcoming := make([]models.Assignment, 0, n)
	day := Midnight(from)
	for len(upcoming) < n {
		// AddDate keeps DST transitions from skipping or repeating a calendar day.
		day = day.AddDate(0, 0, 1)
		if !IsPurchaseDay(day) {
			continue
		}
		upcoming = append(upcoming, models.Assignment{
			Date:   DateKey(day),
			Person: ResponsibleFor(day, people),
		})
	}
	return upcoming
}

// CalendarDay is one cell of a month grid.
type CalendarDay struct {
	Date        string       `json:"date"`
	Day         int          `json:"day"`
	Weekday     time.Weekday `json:"weekday"`
	PurchaseDay bool         `json:"purchaseDay"`
	Responsible string       `json:"responsible,omitempty"`
	Payer       string       `json:"payer,omitempty"`
}

// Month returns every day of the given month in loc, annotated with the
// rotation and with the payer recorded in paid, if any. Responsible is only
// set on purchase days.
func Month(year int, month time.Month, loc *time.Location, people []string, paid map[string]string) []CalendarDay {
	if loc == nil {
		loc = time.Local
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	days := make([]CalendarDay, 0, 31)
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		key := DateKey(day)
		cell := CalendarDay{
			Date:        key,
			Day:         day.Day(),
			Weekday:     day.Weekday(),
			PurchaseDay: IsPurchaseDay(day),
			Payer:       paid[key],
		}
		if cell.PurchaseDay {
			cell.Responsible = ResponsibleFor(day, people)
		}
		days = append(days, cell)
	}
	return days
}
