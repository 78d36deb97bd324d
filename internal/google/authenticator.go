package google

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/scheduleai/internal/config"
	"github.com/teemow/scheduleai/internal/credentials"
	"github.com/teemow/scheduleai/internal/instrumentation"
	"github.com/teemow/scheduleai/internal/logging"
	"github.com/teemow/scheduleai/internal/schedule"
)

// Authenticator manages the full per-user credential lifecycle: load,
// refresh, interactive authorization, and revocation.
type Authenticator struct {
	store  credentials.Store
	logger *slog.Logger

	clientSecretFile string
	callbackPort     int
	flowTimeout      time.Duration

	flows *flowStore

	// metrics counts authorization, refresh and revocation outcomes.
	// The zero value records nothing.
	metrics *instrumentation.Metrics

	// loadConfig and runFlow are swapped out by tests.
	loadConfig func() (*oauth2.Config, error)
	runFlow    func(ctx context.Context, conf *oauth2.Config, userID string) (*oauth2.Token, error)

	// revokeURL overrides the provider revocation endpoint in tests.
	revokeURL string
}

// NewAuthenticator creates an Authenticator backed by the given credential
// store and configuration.
func NewAuthenticator(cfg *config.Config, store credentials.Store, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authenticator{
		store:            store,
		logger:           logger,
		clientSecretFile: cfg.ClientSecretFile,
		callbackPort:     cfg.CallbackPort,
		flowTimeout:      cfg.FlowTimeout,
		flows:            newFlowStore(cfg.FlowTimeout),
		metrics:          &instrumentation.Metrics{},
		revokeURL:        revokeEndpoint,
	}
	a.loadConfig = func() (*oauth2.Config, error) {
		return LoadOAuthConfig(a.clientSecretFile)
	}
	a.runFlow = a.runLoopbackFlow
	return a
}

// SetMetrics attaches a metrics recorder after instrumentation is set up.
func (a *Authenticator) SetMetrics(m *instrumentation.Metrics) {
	if m != nil {
		a.metrics = m
	}
}

// Authenticate returns a valid OAuth token for userID. Stored credentials
// are used when still valid, refreshed when expired, and the interactive
// authorization flow runs only when no credential exists at all.
//
// A failed refresh does not fall back to interactive authorization and does
// not touch the stored record: headless callers need the explicit error,
// and the record may still carry a usable refresh token for a later retry.
func (a *Authenticator) Authenticate(ctx context.Context, userID string) (*oauth2.Token, error) {
	rec, err := a.store.Load(userID)
	switch {
	case errors.Is(err, credentials.ErrNotFound):
		return a.authorize(ctx, userID)
	case err != nil:
		return nil, schedule.NewError(schedule.KindUnexpected, userID, err)
	}

	if rec.Usable() {
		a.logger.Debug("using stored credentials",
			logging.UserHash(userID),
		)
		return rec.Token(), nil
	}

	if rec.RefreshToken != "" {
		return a.refresh(ctx, userID, rec)
	}

	// Expired with no refresh token: only a new authorization helps.
	return a.authorize(ctx, userID)
}

// Authorize always runs the interactive flow, replacing any stored
// credential. The auth command uses it to re-consent explicitly.
func (a *Authenticator) Authorize(ctx context.Context, userID string) (*oauth2.Token, error) {
	return a.authorize(ctx, userID)
}

// HasCredential reports whether any credential is stored for userID,
// without validating or refreshing it.
func (a *Authenticator) HasCredential(userID string) bool {
	_, err := a.store.Load(userID)
	return err == nil
}

// HTTPClient returns an HTTP client that authenticates requests as userID,
// refreshing the token transparently during use.
func (a *Authenticator) HTTPClient(ctx context.Context, userID string) (*http.Client, error) {
	token, err := a.Authenticate(ctx, userID)
	if err != nil {
		return nil, err
	}
	conf, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}

func (a *Authenticator) refresh(ctx context.Context, userID string, rec *credentials.Record) (*oauth2.Token, error) {
	conf, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	token, err := conf.TokenSource(ctx, rec.Token()).Token()
	if err != nil {
		a.logger.Warn("token refresh failed",
			logging.UserHash(userID),
			logging.Err(err),
		)
		a.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil, schedule.Errorf(schedule.KindRefreshFailed, userID,
			"failed to refresh access token: %v", err)
	}
	a.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)

	// Google omits the refresh token from refresh responses; keep the one
	// we already have.
	if token.RefreshToken == "" {
		token.RefreshToken = rec.RefreshToken
	}

	if err := a.store.Save(userID, credentials.FromToken(token, rec.Scopes)); err != nil {
		return nil, schedule.NewError(schedule.KindUnexpected, userID, err)
	}

	a.logger.Info("refreshed credentials",
		logging.UserHash(userID),
	)
	return token, nil
}

func (a *Authenticator) authorize(ctx context.Context, userID string) (*oauth2.Token, error) {
	conf, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	token, err := a.runFlow(ctx, conf, userID)
	if err != nil {
		a.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, err
	}
	a.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)

	if err := a.store.Save(userID, credentials.FromToken(token, conf.Scopes)); err != nil {
		return nil, schedule.NewError(schedule.KindUnexpected, userID, err)
	}

	a.logger.Info("stored new credentials",
		logging.UserHash(userID),
	)
	return token, nil
}
