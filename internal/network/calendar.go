package network

import (
	"fmt"
	"time"
)

// RawCalendar mirrors a GTFS calendar.txt row: the days of the week a
// service runs, between two dates (both YYYYMMDD).
type RawCalendar struct {
	ServiceID string
	StartDate string // YYYYMMDD
	EndDate   string // YYYYMMDD
	Weekday   [7]bool
}

// RawCalendarDateExceptionType mirrors GTFS calendar_dates.txt exception_type.
type RawCalendarDateExceptionType int8

const (
	ServiceAdded   RawCalendarDateExceptionType = 1
	ServiceRemoved RawCalendarDateExceptionType = 2
)

// RawCalendarDate mirrors a GTFS calendar_dates.txt row.
type RawCalendarDate struct {
	ServiceID     string
	Date          string // YYYYMMDD
	ExceptionType RawCalendarDateExceptionType
}

// ActiveServices resolves which service ids run on modelDate (YYYYMMDD),
// combining calendar.txt's weekday/date-range rule with calendar_dates.txt's
// per-date additions/removals, exactly as GTFS consumers are expected to.
func ActiveServices(modelDate string, calendars []RawCalendar, calendarDates []RawCalendarDate) (map[string]bool, error) {
	date, err := time.Parse("20060102", modelDate)
	if err != nil {
		return nil, fmt.Errorf("parsing model date %q: %w", modelDate, err)
	}
	weekday := int(date.Weekday())

	active := make(map[string]bool, len(calendars))
	for _, c := range calendars {
		start, err := time.Parse("20060102", c.StartDate)
		if err != nil {
			continue
		}
		end, err := time.Parse("20060102", c.EndDate)
		if err != nil {
			continue
		}
		if (date.Equal(start) || date.After(start)) && (date.Equal(end) || date.Before(end)) && c.Weekday[weekday] {
			active[c.ServiceID] = true
		}
	}
	for _, cd := range calendarDates {
		if cd.Date != modelDate {
			continue
		}
		switch cd.ExceptionType {
		case ServiceAdded:
			active[cd.ServiceID] = true
		case ServiceRemoved:
			delete(active, cd.ServiceID)
		}
	}
	return active, nil
}
