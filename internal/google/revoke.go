package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/scheduleai/internal/credentials"
	"github.com/teemow/scheduleai/internal/instrumentation"
	"github.com/teemow/scheduleai/internal/logging"
	"github.com/teemow/scheduleai/internal/schedule"
)

// revokeEndpoint is Google's OAuth token revocation endpoint.
const revokeEndpoint = "https://oauth2.googleapis.com/revoke"

// revokeTimeout bounds the provider-side revocation call so a slow or
// unreachable provider cannot block the local cleanup.
const revokeTimeout = 10 * time.Second

// Revoke removes the user's stored credential. Provider-side revocation is
// attempted first but is strictly best effort: the local credential is
// deleted regardless of whether Google accepted the revocation.
func (a *Authenticator) Revoke(ctx context.Context, userID string) (schedule.RevokeResult, error) {
	var result schedule.RevokeResult

	rec, err := a.store.Load(userID)
	if errors.Is(err, credentials.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return result, schedule.NewError(schedule.KindUnexpected, userID, err)
	}
	result.HadCredential = true

	if remoteErr := a.revokeRemote(ctx, rec); remoteErr != nil {
		a.logger.Warn("provider-side revocation failed",
			logging.UserHash(userID),
			logging.Err(remoteErr),
		)
		result.RemoteErr = remoteErr
		a.metrics.RecordRevocation(ctx, instrumentation.OAuthResultFailure)
	} else {
		result.RemoteRevoked = true
		a.metrics.RecordRevocation(ctx, instrumentation.OAuthResultSuccess)
	}

	deleted, err := a.store.Delete(userID)
	if err != nil {
		return result, schedule.NewError(schedule.KindUnexpected, userID, err)
	}
	result.Deleted = deleted

	a.logger.Info("revoked credentials",
		logging.UserHash(userID),
		slog.Bool("remote_revoked", result.RemoteRevoked),
	)
	return result, nil
}

// revokeRemote posts the token to the provider revocation endpoint. The
// refresh token is preferred; revoking it invalidates the whole grant.
func (a *Authenticator) revokeRemote(ctx context.Context, rec *credentials.Record) error {
	token := rec.RefreshToken
	if token == "" {
		token = rec.AccessToken
	}
	if token == "" {
		return fmt.Errorf("no token to revoke")
	}

	ctx, cancel := context.WithTimeout(ctx, revokeTimeout)
	defer cancel()

	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.revokeURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revocation endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
