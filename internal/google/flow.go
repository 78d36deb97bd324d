package google

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/scheduleai/internal/logging"
	"github.com/teemow/scheduleai/internal/schedule"
)

const (
	// callbackPath is the redirect path registered with the OAuth client.
	callbackPath = "/callback"

	// portRangeBase and portRangeSize bound the deterministic per-user
	// callback ports. Each user maps to a stable port so their registered
	// redirect URI stays valid across flows.
	portRangeBase = 8000
	portRangeSize = 1000
)

// CallbackPort resolves the loopback port for a user's authorization flow.
// A configured port of -1 selects the deterministic per-user port, 0 asks
// the OS for an ephemeral port, and any other value is used as-is.
func CallbackPort(userID string, configured int) int {
	if configured >= 0 {
		return configured
	}
	sum := sha256.Sum256([]byte(userID))
	n := binary.BigEndian.Uint32(sum[:4])
	return portRangeBase + int(n%portRangeSize)
}

// callbackResult carries the outcome of a single redirect hit.
type callbackResult struct {
	code string
	err  error
}

// pendingFlow tracks one in-progress authorization, keyed by its state
// parameter. Entries expire so abandoned flows cannot be completed later
// with a replayed state.
type pendingFlow struct {
	userID  string
	ch      chan callbackResult
	created time.Time
}

// flowStore holds the set of in-progress authorization flows. It exists so
// concurrent flows for different users (the server transports) cannot
// complete each other's authorization.
type flowStore struct {
	mu    sync.Mutex
	flows map[string]*pendingFlow
	ttl   time.Duration
}

func newFlowStore(ttl time.Duration) *flowStore {
	return &flowStore{flows: make(map[string]*pendingFlow), ttl: ttl}
}

func (s *flowStore) put(state, userID string) *pendingFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	f := &pendingFlow{userID: userID, ch: make(chan callbackResult, 1), created: time.Now()}
	s.flows[state] = f
	return f
}

func (s *flowStore) take(state string) (*pendingFlow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	f, ok := s.flows[state]
	if ok {
		delete(s.flows, state)
	}
	return f, ok
}

func (s *flowStore) drop(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, state)
}

func (s *flowStore) sweepLocked() {
	cutoff := time.Now().Add(-s.ttl)
	for state, f := range s.flows {
		if f.created.Before(cutoff) {
			delete(s.flows, state)
		}
	}
}

// randomState returns an unguessable OAuth state parameter.
func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// runLoopbackFlow performs one interactive authorization: it starts a
// loopback HTTP listener, prints and opens the consent URL, waits for
// the redirect, and exchanges the authorization code for tokens.
func (a *Authenticator) runLoopbackFlow(ctx context.Context, conf *oauth2.Config, userID string) (*oauth2.Token, error) {
	port := CallbackPort(userID, a.callbackPort)

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, schedule.Errorf(schedule.KindAuthorizationFailed, userID,
			"failed to listen on callback port %d: %v", port, err)
	}
	defer listener.Close()

	actualPort := listener.Addr().(*net.TCPAddr).Port

	// The redirect URL is bound to the listener actually opened, which
	// matters when the OS assigns the port.
	flowConf := *conf
	flowConf.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d%s", actualPort, callbackPath)

	state, err := randomState()
	if err != nil {
		return nil, schedule.NewError(schedule.KindAuthorizationFailed, userID, err)
	}
	flow := a.flows.put(state, userID)
	defer a.flows.drop(state)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		a.handleCallback(w, r)
	})
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		_ = srv.Serve(listener)
	}()
	defer srv.Close()

	authURL := flowConf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	fmt.Printf("Open the following URL to authorize calendar access for %s:\n\n%s\n\n", userID, authURL)
	if opened := openBrowser(authURL); opened {
		a.logger.Debug("opened browser for authorization",
			logging.UserHash(userID),
		)
	}

	timeout := a.flowTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-flow.ch:
		if res.err != nil {
			return nil, schedule.NewError(schedule.KindAuthorizationFailed, userID, res.err)
		}
		token, err := flowConf.Exchange(ctx, res.code)
		if err != nil {
			return nil, schedule.Errorf(schedule.KindAuthorizationFailed, userID,
				"failed to exchange authorization code: %v", err)
		}
		return token, nil
	case <-timer.C:
		return nil, schedule.Errorf(schedule.KindAuthorizationFailed, userID,
			"authorization not completed within %s", timeout)
	case <-ctx.Done():
		return nil, schedule.NewError(schedule.KindAuthorizationFailed, userID, ctx.Err())
	}
}

// handleCallback completes the pending flow matching the redirect's state
// parameter. Unknown or expired states get a 400 and complete nothing.
func (a *Authenticator) handleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	flow, ok := a.flows.take(state)
	if !ok {
		http.Error(w, "unknown or expired authorization state", http.StatusBadRequest)
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		flow.ch <- callbackResult{err: fmt.Errorf("authorization denied: %s", errParam)}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><h3>Authorization failed.</h3><p>You can close this window.</p></body></html>")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		flow.ch <- callbackResult{err: fmt.Errorf("callback missing authorization code")}
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	flow.ch <- callbackResult{code: code}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h3>Authorization complete.</h3><p>You can close this window and return to the terminal.</p></body></html>")
}

// openBrowser tries to open url in the default browser. Failure is fine;
// the URL is always printed as well.
func openBrowser(url string) bool {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start() == nil
}
