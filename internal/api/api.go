// Package api provides the HTTP surface and main wiring for the routine
// check-in engine.
//
// It exposes the deep-link trigger bridge, the state snapshot used by the UI
// layer, the "what's next" query, and the local check-in event history.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/medeasy-app/routinecore/internal/checkin"
	"github.com/medeasy-app/routinecore/internal/models"
	"github.com/medeasy-app/routinecore/internal/notify"
	"github.com/medeasy-app/routinecore/internal/routineapi"
	"github.com/medeasy-app/routinecore/internal/scheduler"
	"github.com/medeasy-app/routinecore/internal/store"
)

// Default server configuration.
const (
	DefaultAddr            = ":8080"
	DefaultRefreshCron     = "*/15 * * * *"
	DefaultShutdownTimeout = 10 * time.Second
)

// Opts holds API server configuration.
type Opts struct {
	Addr        string
	RefreshCron string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithRefreshCron sets the cron expression for the next-up cache refresh.
func WithRefreshCron(expr string) Option {
	return func(o *Opts) { o.RefreshCron = expr }
}

// Server bundles the engine components behind HTTP handlers.
type Server struct {
	orchestrator *checkin.Orchestrator
	bus          *notify.Bus
	refresher    *scheduler.RoutineRefresher
	events       store.Store
}

// NewServer creates a server over already-constructed components.
func NewServer(orchestrator *checkin.Orchestrator, bus *notify.Bus, refresher *scheduler.RoutineRefresher, events store.Store) *Server {
	return &Server{
		orchestrator: orchestrator,
		bus:          bus,
		refresher:    refresher,
		events:       events,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/trigger", s.triggerHandler)
	mux.HandleFunc("/close", s.closeHandler)
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/next", s.nextHandler)
	mux.HandleFunc("/events", s.eventsHandler)
	return mux
}

// Run builds every module from options and serves until SIGINT/SIGTERM.
func Run(clientOpts []routineapi.Option, storeOpts []store.Option, engineOpts []checkin.Option, apiOpts []Option) error {
	cfg := Opts{Addr: DefaultAddr, RefreshCron: DefaultRefreshCron}
	for _, opt := range apiOpts {
		opt(&cfg)
	}

	client, err := routineapi.NewHTTPClient(clientOpts...)
	if err != nil {
		return err
	}

	eventStore, err := openStore(storeOpts)
	if err != nil {
		return err
	}
	defer func() {
		if err := eventStore.Close(); err != nil {
			slog.Warn("api.Run: failed to close event store", "error", err)
		}
	}()

	bus := notify.NewBus()
	engineOpts = append([]checkin.Option{checkin.WithEventStore(eventStore)}, engineOpts...)
	orchestrator := checkin.NewOrchestrator(client, bus, engineOpts...)

	var engineCfg checkin.Opts
	for _, opt := range engineOpts {
		opt(&engineCfg)
	}
	clock := engineCfg.Clock
	if clock == nil {
		clock = models.SystemClock{}
	}
	refresher := scheduler.NewRoutineRefresher(client, clock)
	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddJob(cfg.RefreshCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), routineapi.DefaultTimeout)
		defer cancel()
		if err := refresher.Refresh(ctx); err != nil {
			slog.Warn("api.Run: scheduled next-up refresh failed", "error", err)
		}
	}); err != nil {
		return err
	}

	server := NewServer(orchestrator, bus, refresher, eventStore)
	httpServer := &http.Server{Addr: cfg.Addr, Handler: server.Handler()}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api.Run: listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("api.Run: shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

// openStore picks the event-log backend from the DSN: empty means
// in-memory, postgres URLs mean Postgres, anything else is a SQLite path.
func openStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	switch {
	case cfg.DSN == "":
		slog.Info("api.openStore: no DSN set, using in-memory event log")
		return store.NewInMemoryStore(), nil
	case strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://"):
		return store.NewPostgresStore(storeOpts...)
	default:
		return store.NewSQLiteStore(storeOpts...)
	}
}
