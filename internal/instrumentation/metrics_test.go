package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/metric"
)

func newTestMetrics(t *testing.T, detailedLabels bool) *Metrics {
	t.Helper()

	provider := metric.NewMeterProvider()
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	m, err := NewMetrics(provider.Meter("test"), detailedLabels)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m
}

func TestNewMetrics(t *testing.T) {
	m := newTestMetrics(t, false)

	if m.httpRequestsTotal == nil {
		t.Error("httpRequestsTotal not initialized")
	}
	if m.googleAPIOperationsTotal == nil {
		t.Error("googleAPIOperationsTotal not initialized")
	}
	if m.oauthAuthTotal == nil {
		t.Error("oauthAuthTotal not initialized")
	}
	if m.oauthRevocationsTotal == nil {
		t.Error("oauthRevocationsTotal not initialized")
	}
	if m.toolInvocationsTotal == nil {
		t.Error("toolInvocationsTotal not initialized")
	}
}

func TestMetrics_RecordDoesNotPanic(t *testing.T) {
	m := newTestMetrics(t, true)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 10*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationList, StatusSuccess, 50*time.Millisecond)
	m.RecordOAuthAuth(ctx, OAuthResultSuccess)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
	m.RecordRevocation(ctx, OAuthResultSuccess)
	m.RecordToolInvocation(ctx, "schedule_get", StatusSuccess, 100*time.Millisecond)
	m.RecordToolInvocationForUser(ctx, "schedule_get", StatusSuccess, "jane@example.com", 100*time.Millisecond)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)
}

func TestMetrics_ZeroValueIsNoOp(t *testing.T) {
	// A zero Metrics is returned when instrumentation is disabled; every
	// recording method must be safe to call on it.
	var m Metrics
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationList, StatusError, time.Millisecond)
	m.RecordOAuthAuth(ctx, OAuthResultFailure)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	m.RecordRevocation(ctx, OAuthResultFailure)
	m.RecordToolInvocation(ctx, "schedule_revoke", StatusError, time.Millisecond)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)
}

func TestExtractUserDomain(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"jane@example.com", "example.com"},
		{"user@gmail.com", "gmail.com"},
		{"invalid", "unknown"},
		{"", "unknown"},
		{"trailing@", "unknown"},
		{"a@b@c", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ExtractUserDomain(tt.input); got != tt.want {
				t.Errorf("ExtractUserDomain(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
