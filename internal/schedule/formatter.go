package schedule

import (
	"fmt"
	"strings"
)

// timeDisplayLayout renders timed events on a 12-hour clock, e.g. "02:30 PM".
const timeDisplayLayout = "03:04 PM"

// allDayMarker is rendered instead of a clock time for date-only events.
const allDayMarker = "All day"

// Format renders events into a human-readable schedule summary. It is a pure
// function over any well-formed event list, including the empty one, and must
// not re-sort: the fetcher guarantees time order upstream.
func Format(events []Event, dateLabel string) string {
	if len(events) == 0 {
		return fmt.Sprintf("No events scheduled for %s.", dateLabel)
	}

	lines := make([]string, 0, len(events)+1)
	lines = append(lines, fmt.Sprintf("Schedule for %s:", dateLabel))

	for _, event := range events {
		timeStr := allDayMarker
		if !event.AllDay {
			timeStr = event.Start.Format(timeDisplayLayout)
		}

		line := fmt.Sprintf("%s at %s", event.Summary, timeStr)
		if event.Location != "" {
			line += fmt.Sprintf(" (%s)", event.Location)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}
