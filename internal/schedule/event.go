package schedule

import "time"

// Event is a read-only calendar event as consumed by the formatter. Events
// are fetched fresh per request and discarded after formatting; nothing here
// is persisted.
type Event struct {
	// Summary is the display title. The fetcher substitutes "No title"
	// when the provider omits it.
	Summary string

	// Location is an optional display string.
	Location string

	// Start is the precise start timestamp for timed events. For all-day
	// events it holds midnight of the calendar date and AllDay is set.
	Start time.Time

	// AllDay marks events that carry only a calendar date.
	AllDay bool
}
