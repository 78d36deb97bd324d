package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/scheduleai/internal/calendar"
	"github.com/teemow/scheduleai/internal/config"
	"github.com/teemow/scheduleai/internal/credentials"
	"github.com/teemow/scheduleai/internal/google"
	"github.com/teemow/scheduleai/internal/instrumentation"
	"github.com/teemow/scheduleai/internal/schedule"
)

// ServerContext holds the shared dependencies of the MCP server: the
// schedule service with its authenticator and fetcher, plus the shutdown
// state consulted by the readiness probe.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg     *config.Config
	logger  *slog.Logger
	auth    *google.Authenticator
	fetcher *calendar.Fetcher
	service *schedule.Service
	metrics *instrumentation.Metrics

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext wires the credential store, authenticator, fetcher, and
// service from configuration.
func NewServerContext(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	store := credentials.NewStore(cfg.StoreBackend, cfg.TokensDir(), logger)
	auth := google.NewAuthenticator(cfg, store, logger)
	fetcher := calendar.NewFetcher(auth, int64(cfg.EventPageSize), logger)
	service := schedule.NewService(fetcher, auth, logger)

	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  logger,
		auth:    auth,
		fetcher: fetcher,
		service: service,
	}, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the server configuration.
func (sc *ServerContext) Config() *config.Config {
	return sc.cfg
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Service returns the schedule service.
func (sc *ServerContext) Service() *schedule.Service {
	return sc.service
}

// Authenticator returns the OAuth authenticator.
func (sc *ServerContext) Authenticator() *google.Authenticator {
	return sc.auth
}

// Fetcher returns the calendar event fetcher.
func (sc *ServerContext) Fetcher() *calendar.Fetcher {
	return sc.fetcher
}

// SetMetrics attaches a metrics recorder after instrumentation is set up.
// The authenticator picks it up too, so OAuth lifecycle counters are
// recorded alongside the tool-level ones.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
	sc.auth.SetMetrics(m)
}

// Metrics returns the metrics recorder, or nil when instrumentation was
// never configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
