package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/scheduleai/internal/schedule"
)

// toEvent converts a Google Calendar API event into the domain event.
// Timed events carry an RFC3339 dateTime; all-day events carry a bare date.
func toEvent(item *calendar.Event) schedule.Event {
	ev := schedule.Event{Summary: untitledEvent}
	if item == nil {
		return ev
	}

	if item.Summary != "" {
		ev.Summary = item.Summary
	}
	ev.Location = item.Location

	if item.Start != nil {
		switch {
		case item.Start.DateTime != "":
			if t, err := time.Parse(time.RFC3339, item.Start.DateTime); err == nil {
				ev.Start = t
			} else {
				// A malformed start time would otherwise render as a bogus
				// midnight; degrade to all-day instead.
				ev.AllDay = true
			}
		case item.Start.Date != "":
			ev.AllDay = true
			if t, err := time.Parse("2006-01-02", item.Start.Date); err == nil {
				ev.Start = t
			}
		}
	}

	return ev
}
