package calendar

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/scheduleai/internal/logging"
	"github.com/teemow/scheduleai/internal/schedule"
)

const (
	// primaryCalendar is the calendar queried for every user.
	primaryCalendar = "primary"

	// untitledEvent replaces an empty event summary in the output.
	untitledEvent = "No title"
)

// ClientProvider supplies an HTTP client that authenticates as the given
// user, running whatever credential lifecycle is needed to get one.
type ClientProvider interface {
	HTTPClient(ctx context.Context, userID string) (*http.Client, error)
}

// Fetcher retrieves calendar events per user. It implements
// schedule.EventFetcher.
type Fetcher struct {
	provider ClientProvider
	logger   *slog.Logger
	pageSize int64

	// endpoint overrides the Calendar API base URL in tests.
	endpoint string
}

// NewFetcher creates a Fetcher. pageSize caps the number of events
// requested per fetch; values below 1 fall back to 50.
func NewFetcher(provider ClientProvider, pageSize int64, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize < 1 {
		pageSize = 50
	}
	return &Fetcher{
		provider: provider,
		logger:   logger,
		pageSize: pageSize,
	}
}

// FetchEvents returns the user's events between start and end, ordered by
// start time. Authorization runs first, so auth errors surface with their
// own classification rather than as API failures.
func (f *Fetcher) FetchEvents(ctx context.Context, userID string, start, end time.Time) ([]schedule.Event, error) {
	client, err := f.provider.HTTPClient(ctx, userID)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, schedule.Errorf(schedule.KindUnexpected, userID,
			"failed to create Calendar service: %v", err)
	}

	began := time.Now()
	resp, err := svc.Events.List(primaryCalendar).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(f.pageSize).
		Context(ctx).
		Do()
	if err != nil {
		if apiErr, ok := err.(*googleapi.Error); ok {
			return nil, schedule.Errorf(schedule.KindCalendarAPI, userID,
				"calendar request failed with status %d: %s", apiErr.Code, apiErr.Message)
		}
		return nil, schedule.NewError(schedule.KindUnexpected, userID, err)
	}

	events := make([]schedule.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, toEvent(item))
	}

	f.logger.Debug("fetched calendar events",
		logging.UserHash(userID),
		slog.Int("count", len(events)),
		slog.Duration(logging.KeyDuration, time.Since(began)),
	)
	return events, nil
}
