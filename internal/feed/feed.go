// Package feed publishes the upcoming purchase days as an iCalendar feed.
package feed

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/mmynk/sodarota/internal/models"
	"github.com/mmynk/sodarota/internal/rotation"
)

// iCalendar properties and values.
const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Sodarota//Rotation//EN"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "sodarota"

	PropRefresh    = "REFRESH-INTERVAL"
	PropXWRCalName = "X-WR-CALNAME"

	// DefaultRefresh is the refresh interval suggested to clients.
	DefaultRefresh = 6 * time.Hour
)

// stubCalendar is a valid calendar without events.
const stubCalendar = "BEGIN:VCALENDAR\r\nVERSION:" + ICalVersion + "\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

// Text supplies the localized strings of the feed.
type Text interface {
	EventSummary(name string) string
	EventDescription(index int) string
	CalendarName() string
}

// Generate renders one all-day event per assignment.
//
// DTSTAMP is the UTC midnight of now so the output, and therefore its ETag,
// only changes when the schedule does or the day rolls over.
func Generate(now time.Time, assignments []models.Assignment, loc *time.Location, text Text) ([]byte, error) {
	if len(assignments) == 0 {
		return []byte(stubCalendar), nil
	}
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, ICalVersion)
	cal.Props.SetText(ical.PropProductID, ICalProdid)
	cal.Props.SetText(PropXWRCalName, text.CalendarName())
	cal.Props.SetText(ical.PropCalendarScale, ICalScale)
	cal.Props.SetText(ical.PropMethod, ICalMethod)

	refreshProp := ical.NewProp(PropRefresh)
	refreshProp.SetDuration(DefaultRefresh)
	cal.Props.Set(refreshProp)

	y, m, d := now.UTC().Date()
	dtStampProp := ical.NewProp(ical.PropDateTimeStamp)
	dtStampProp.SetDateTime(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))

	for _, a := range assignments {
		date, err := rotation.ParseDateKey(a.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid assignment date %q: %w", a.Date, err)
		}

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("%s@%s", a.Date, ICalDomain))
		event.Props.SetText(ical.PropSummary, text.EventSummary(a.Person))
		event.Props.SetText(ical.PropDescription, text.EventDescription(rotation.PurchaseIndex(date)))
		event.Props.Set(dtStampProp)

		dtStartProp := ical.NewProp(ical.PropDateTimeStart)
		dtStartProp.SetDate(date)
		event.Props.Set(dtStartProp)

		dtEndProp := ical.NewProp(ical.PropDateTimeEnd)
		dtEndProp.SetDate(date.AddDate(0, 0, 1))
		event.Props.Set(dtEndProp)

		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode iCalendar data: %w", err)
	}
	return buf.Bytes(), nil
}
