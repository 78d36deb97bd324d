package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/scheduleai/internal/logging"
)

type fakeFetcher struct {
	events []Event
	err    error

	gotUserID string
	gotStart  time.Time
	gotEnd    time.Time
	calls     int
}

func (f *fakeFetcher) FetchEvents(ctx context.Context, userID string, start, end time.Time) ([]Event, error) {
	f.calls++
	f.gotUserID = userID
	f.gotStart = start
	f.gotEnd = end
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

type fakeRevoker struct {
	result RevokeResult
	err    error
	calls  int
}

func (r *fakeRevoker) Revoke(ctx context.Context, userID string) (RevokeResult, error) {
	r.calls++
	if r.err != nil {
		return RevokeResult{}, r.err
	}
	return r.result, nil
}

func newTestService(fetcher *fakeFetcher, revoker *fakeRevoker) *Service {
	svc := NewService(fetcher, revoker, logging.Setup(false))
	svc.now = func() time.Time {
		return time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	}
	return svc
}

func TestGetSchedule(t *testing.T) {
	fetcher := &fakeFetcher{events: []Event{
		{Summary: "Team Sync", Location: "Room 5", Start: time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC)},
	}}
	svc := newTestService(fetcher, &fakeRevoker{})

	out := svc.GetSchedule(context.Background(), "alice@example.com")
	assert.Equal(t, "Schedule for 2024-01-01:\nTeam Sync at 02:30 PM (Room 5)", out)

	// The fetch window is the whole current day.
	assert.Equal(t, "alice@example.com", fetcher.gotUserID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), fetcher.gotStart)
	assert.Equal(t, fetcher.gotStart.Add(24*time.Hour), fetcher.gotEnd)
}

func TestGetSchedule_Empty(t *testing.T) {
	svc := newTestService(&fakeFetcher{}, &fakeRevoker{})

	out := svc.GetSchedule(context.Background(), "alice@example.com")
	assert.Equal(t, "No events scheduled for 2024-01-01.", out)
}

func TestGetSchedule_FetchErrorBecomesMessage(t *testing.T) {
	fetcher := &fakeFetcher{err: Errorf(KindCalendarAPI, "alice@example.com", "calendar request failed with status 403")}
	svc := newTestService(fetcher, &fakeRevoker{})

	out := svc.GetSchedule(context.Background(), "alice@example.com")
	assert.Contains(t, out, "Calendar access error for user alice@example.com")
	assert.Contains(t, out, "403")
}

func TestGetScheduleForDate(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := newTestService(fetcher, &fakeRevoker{})

	date := time.Date(2024, 3, 15, 18, 45, 0, 0, time.UTC)
	out := svc.GetScheduleForDate(context.Background(), "alice@example.com", date)

	assert.Equal(t, "No events scheduled for 2024-03-15.", out)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), fetcher.gotStart)
}

func TestRevoke(t *testing.T) {
	tests := []struct {
		name    string
		revoker *fakeRevoker
		wantOK  bool
		want    string
	}{
		{
			name:    "full success",
			revoker: &fakeRevoker{result: RevokeResult{HadCredential: true, Deleted: true, RemoteRevoked: true}},
			wantOK:  true,
			want:    "Access revoked for user alice@example.com",
		},
		{
			name:    "no stored credentials",
			revoker: &fakeRevoker{result: RevokeResult{}},
			wantOK:  true,
			want:    "No stored credentials found for user alice@example.com",
		},
		{
			name: "remote revocation failed",
			revoker: &fakeRevoker{result: RevokeResult{
				HadCredential: true,
				Deleted:       true,
				RemoteErr:     errors.New("revocation endpoint returned status 400"),
			}},
			wantOK: true,
			want:   "Access revoked locally for user alice@example.com (provider-side revocation failed: revocation endpoint returned status 400)",
		},
		{
			name:    "revocation error",
			revoker: &fakeRevoker{err: errors.New("store unavailable")},
			wantOK:  false,
			want:    "Failed to revoke access for user alice@example.com: store unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeFetcher{}, tt.revoker)

			ok, msg := svc.Revoke(context.Background(), "alice@example.com")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestRevoke_NoCredentialMakesNoFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	revoker := &fakeRevoker{result: RevokeResult{}}
	svc := newTestService(fetcher, revoker)

	ok, msg := svc.Revoke(context.Background(), "nobody@example.com")
	require.True(t, ok)
	assert.Contains(t, msg, "nobody@example.com")
	assert.Equal(t, 1, revoker.calls)
	assert.Zero(t, fetcher.calls)
}
