package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/scheduleai/internal/logging"
)

// EventFetcher retrieves a time-sorted list of events for a user. A zero
// start and end selects the default window (local midnight today, +24h).
type EventFetcher interface {
	FetchEvents(ctx context.Context, userID string, start, end time.Time) ([]Event, error)
}

// RevokeResult reports the two distinguishable outcomes of a revocation:
// whether the local credential is gone and whether the provider accepted the
// remote revocation. They are deliberately not conflated into one boolean.
type RevokeResult struct {
	// HadCredential is false when no credential was stored for the user.
	HadCredential bool

	// Deleted is true when the local record was removed (or never existed).
	Deleted bool

	// RemoteRevoked is true when the provider acknowledged the revocation.
	RemoteRevoked bool

	// RemoteErr holds the provider-side failure, if any. Remote failures
	// never prevent local deletion.
	RemoteErr error
}

// Revoker deletes a user's stored credential with best-effort revocation
// against the authorization server.
type Revoker interface {
	Revoke(ctx context.Context, userID string) (RevokeResult, error)
}

// dateLabelLayout is the date format used in schedule headers.
const dateLabelLayout = "2006-01-02"

// Service exposes the public operations of the calendar access manager.
// Every operation returns a plain string or a (bool, string) pair, never an
// unhandled fault, so any caller can render something to the end user.
type Service struct {
	fetcher EventFetcher
	revoker Revoker
	logger  *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a Service on top of a fetcher and a revoker.
func NewService(fetcher EventFetcher, revoker Revoker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher: fetcher,
		revoker: revoker,
		logger:  logger,
		now:     time.Now,
	}
}

// GetSchedule returns the formatted schedule for today.
func (s *Service) GetSchedule(ctx context.Context, userID string) string {
	return s.GetScheduleForDate(ctx, userID, s.now())
}

// GetScheduleForDate returns the formatted schedule for the day containing
// date, in local time. Failures are rendered into the returned string.
func (s *Service) GetScheduleForDate(ctx context.Context, userID string, date time.Time) string {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.Add(24 * time.Hour)
	dateLabel := start.Format(dateLabelLayout)

	events, err := s.fetcher.FetchEvents(ctx, userID, start, end)
	if err != nil {
		s.logger.Warn("failed to fetch events",
			logging.UserHash(userID),
			slog.String("kind", KindOf(err).String()),
			logging.Err(err))
		return fmt.Sprintf("Calendar access error for user %s: %v", userID, err)
	}

	s.logger.Debug("fetched events",
		logging.UserHash(userID),
		slog.Int("count", len(events)))

	return Format(events, dateLabel)
}

// Revoke deletes the stored credential for a user, attempting best-effort
// revocation against the authorization server first. Revoking a user with no
// stored credential succeeds trivially.
func (s *Service) Revoke(ctx context.Context, userID string) (bool, string) {
	result, err := s.revoker.Revoke(ctx, userID)
	if err != nil {
		s.logger.Error("revocation failed",
			logging.UserHash(userID),
			logging.Err(err))
		return false, fmt.Sprintf("Failed to revoke access for user %s: %v", userID, err)
	}

	if !result.HadCredential {
		return true, fmt.Sprintf("No stored credentials found for user %s", userID)
	}

	if result.RemoteErr != nil {
		// Local deletion succeeded; report the remote failure as a
		// separate fact rather than failing the operation.
		s.logger.Warn("provider-side revocation failed, local credential deleted",
			logging.UserHash(userID),
			logging.Err(result.RemoteErr))
		return true, fmt.Sprintf(
			"Access revoked locally for user %s (provider-side revocation failed: %v)",
			userID, result.RemoteErr)
	}

	s.logger.Info("access revoked", logging.UserHash(userID))
	return true, fmt.Sprintf("Access revoked for user %s", userID)
}
