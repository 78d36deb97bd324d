package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/oauth2"

	"github.com/teemow/scheduleai/internal/config"
	"github.com/teemow/scheduleai/internal/credentials"
	"github.com/teemow/scheduleai/internal/instrumentation"
	"github.com/teemow/scheduleai/internal/logging"
	"github.com/teemow/scheduleai/internal/schedule"
)

const testUser = "alice@example.com"

// newTestAuthenticator wires an Authenticator against a file store in a
// temp dir and a fake token endpoint.
func newTestAuthenticator(t *testing.T, tokenURL string) (*Authenticator, credentials.Store) {
	t.Helper()

	store := credentials.NewFileStore(t.TempDir())
	cfg := &config.Config{
		ClientSecretFile: "unused",
		CallbackPort:     -1,
		FlowTimeout:      time.Minute,
	}
	a := NewAuthenticator(cfg, store, logging.Setup(false))
	a.loadConfig = func() (*oauth2.Config, error) {
		return &oauth2.Config{
			ClientID:     "test-client",
			ClientSecret: "test-secret",
			Endpoint:     oauth2.Endpoint{AuthURL: tokenURL, TokenURL: tokenURL},
			Scopes:       Scopes,
		}, nil
	}
	return a, store
}

// fakeTokenEndpoint responds to refresh requests with a fresh access token,
// or with an invalid_grant error when fail is true.
func fakeTokenEndpoint(t *testing.T, fail bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "refreshed-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
}

func storedRecord(expiry time.Time) *credentials.Record {
	return &credentials.Record{
		Version:      credentials.RecordVersion,
		AccessToken:  "stored-access-token",
		RefreshToken: "stored-refresh-token",
		TokenType:    "Bearer",
		Expiry:       expiry,
		Scopes:       Scopes,
	}
}

func TestAuthenticate_UsesValidStoredToken(t *testing.T) {
	a, store := newTestAuthenticator(t, "http://unused.invalid")
	require.NoError(t, store.Save(testUser, storedRecord(time.Now().Add(time.Hour))))

	token, err := a.Authenticate(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "stored-access-token", token.AccessToken)
}

func TestAuthenticate_RefreshesExpiredToken(t *testing.T) {
	srv := fakeTokenEndpoint(t, false)
	defer srv.Close()

	a, store := newTestAuthenticator(t, srv.URL)
	require.NoError(t, store.Save(testUser, storedRecord(time.Now().Add(-time.Hour))))

	token, err := a.Authenticate(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access-token", token.AccessToken)
	// The refresh response carried no refresh token; the stored one survives.
	assert.Equal(t, "stored-refresh-token", token.RefreshToken)

	rec, err := store.Load(testUser)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access-token", rec.AccessToken)
	assert.Equal(t, "stored-refresh-token", rec.RefreshToken)
}

func TestAuthenticate_RefreshFailurePreservesRecord(t *testing.T) {
	srv := fakeTokenEndpoint(t, true)
	defer srv.Close()

	dir := t.TempDir()
	store := credentials.NewFileStore(dir)
	cfg := &config.Config{ClientSecretFile: "unused", CallbackPort: -1, FlowTimeout: time.Minute}
	a := NewAuthenticator(cfg, store, logging.Setup(false))
	a.loadConfig = func() (*oauth2.Config, error) {
		return &oauth2.Config{
			ClientID: "test-client",
			Endpoint: oauth2.Endpoint{AuthURL: srv.URL, TokenURL: srv.URL},
		}, nil
	}

	require.NoError(t, store.Save(testUser, storedRecord(time.Now().Add(-time.Hour))))

	path := filepath.Join(dir, "token_"+credentials.UserKey(testUser)+".json")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), testUser)
	require.Error(t, err)
	assert.Equal(t, schedule.KindRefreshFailed, schedule.KindOf(err))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "stored record must not change on refresh failure")
}

func TestAuthenticate_NoCredentialRunsFlow(t *testing.T) {
	a, store := newTestAuthenticator(t, "http://unused.invalid")

	flowRan := false
	a.runFlow = func(ctx context.Context, conf *oauth2.Config, userID string) (*oauth2.Token, error) {
		flowRan = true
		return &oauth2.Token{
			AccessToken:  "flow-access-token",
			RefreshToken: "flow-refresh-token",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		}, nil
	}

	token, err := a.Authenticate(context.Background(), testUser)
	require.NoError(t, err)
	assert.True(t, flowRan)
	assert.Equal(t, "flow-access-token", token.AccessToken)

	// The new credential is persisted for the next call.
	rec, err := store.Load(testUser)
	require.NoError(t, err)
	assert.Equal(t, "flow-access-token", rec.AccessToken)
	assert.Equal(t, Scopes, rec.Scopes)
}

func TestAuthenticate_FlowFailure(t *testing.T) {
	a, _ := newTestAuthenticator(t, "http://unused.invalid")
	a.runFlow = func(ctx context.Context, conf *oauth2.Config, userID string) (*oauth2.Token, error) {
		return nil, schedule.Errorf(schedule.KindAuthorizationFailed, userID, "authorization denied: access_denied")
	}

	_, err := a.Authenticate(context.Background(), testUser)
	require.Error(t, err)
	assert.Equal(t, schedule.KindAuthorizationFailed, schedule.KindOf(err))
	assert.False(t, a.HasCredential(testUser))
}

func TestAuthenticator_RecordsOAuthMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := instrumentation.NewMetrics(provider.Meter("test"), false)
	require.NoError(t, err)

	tokenSrv := fakeTokenEndpoint(t, false)
	defer tokenSrv.Close()
	revokeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer revokeSrv.Close()

	a, store := newTestAuthenticator(t, tokenSrv.URL)
	a.SetMetrics(m)
	a.revokeURL = revokeSrv.URL
	a.runFlow = func(ctx context.Context, conf *oauth2.Config, userID string) (*oauth2.Token, error) {
		return &oauth2.Token{
			AccessToken: "flow-access-token",
			TokenType:   "Bearer",
			Expiry:      time.Now().Add(time.Hour),
		}, nil
	}

	ctx := context.Background()

	// Interactive authorization, then a refresh, then a revocation.
	_, err = a.Authenticate(ctx, testUser)
	require.NoError(t, err)
	require.NoError(t, store.Save(testUser, storedRecord(time.Now().Add(-time.Hour))))
	_, err = a.Authenticate(ctx, testUser)
	require.NoError(t, err)
	_, err = a.Revoke(ctx, testUser)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	recorded := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			recorded[met.Name] = true
		}
	}
	for _, name := range []string{"oauth_auth_total", "oauth_token_refresh_total", "oauth_revocations_total"} {
		assert.True(t, recorded[name], "expected %s to be recorded", name)
	}
}

func TestAuthenticate_AfterRevokeRunsFlowAgain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a, _ := newTestAuthenticator(t, "http://unused.invalid")
	a.revokeURL = srv.URL

	flowRuns := 0
	a.runFlow = func(ctx context.Context, conf *oauth2.Config, userID string) (*oauth2.Token, error) {
		flowRuns++
		return &oauth2.Token{
			AccessToken:  "flow-access-token",
			RefreshToken: "flow-refresh-token",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		}, nil
	}

	ctx := context.Background()

	_, err := a.Authenticate(ctx, testUser)
	require.NoError(t, err)
	require.Equal(t, 1, flowRuns)

	// The persisted credential is reused; no second flow.
	_, err = a.Authenticate(ctx, testUser)
	require.NoError(t, err)
	require.Equal(t, 1, flowRuns)

	result, err := a.Revoke(ctx, testUser)
	require.NoError(t, err)
	require.True(t, result.Deleted)

	// Revocation removed the credential, so the flow runs again.
	_, err = a.Authenticate(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 2, flowRuns)
}

func TestRevoke_NoCredential(t *testing.T) {
	a, _ := newTestAuthenticator(t, "http://unused.invalid")
	// No HTTP server is running; without a credential no request is made.
	a.revokeURL = "http://127.0.0.1:1/revoke"

	result, err := a.Revoke(context.Background(), testUser)
	require.NoError(t, err)
	assert.False(t, result.HadCredential)
	assert.False(t, result.Deleted)
}

func TestRevoke_Success(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotToken = r.Form.Get("token")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a, store := newTestAuthenticator(t, "http://unused.invalid")
	a.revokeURL = srv.URL
	require.NoError(t, store.Save(testUser, storedRecord(time.Now().Add(time.Hour))))

	result, err := a.Revoke(context.Background(), testUser)
	require.NoError(t, err)
	assert.True(t, result.HadCredential)
	assert.True(t, result.RemoteRevoked)
	assert.True(t, result.Deleted)
	// The refresh token is revoked to invalidate the whole grant.
	assert.Equal(t, "stored-refresh-token", gotToken)

	_, err = store.Load(testUser)
	assert.ErrorIs(t, err, credentials.ErrNotFound)
}

func TestRevoke_RemoteFailureStillDeletesLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	a, store := newTestAuthenticator(t, "http://unused.invalid")
	a.revokeURL = srv.URL
	require.NoError(t, store.Save(testUser, storedRecord(time.Now().Add(time.Hour))))

	result, err := a.Revoke(context.Background(), testUser)
	require.NoError(t, err)
	assert.True(t, result.HadCredential)
	assert.False(t, result.RemoteRevoked)
	assert.Error(t, result.RemoteErr)
	assert.True(t, result.Deleted)

	_, err = store.Load(testUser)
	assert.ErrorIs(t, err, credentials.ErrNotFound)
}
