package main

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecoeats/mealplanner/internal/cache"
	"github.com/ecoeats/mealplanner/internal/journal"
	"github.com/ecoeats/mealplanner/internal/notify"
	"github.com/ecoeats/mealplanner/internal/planner"
	"github.com/ecoeats/mealplanner/internal/plansync"
	"github.com/ecoeats/mealplanner/internal/session"
	"github.com/ecoeats/mealplanner/pkg/apiclient"
	"github.com/ecoeats/mealplanner/pkg/config"
	"github.com/ecoeats/mealplanner/pkg/db"
	"github.com/ecoeats/mealplanner/pkg/logger"
	"github.com/ecoeats/mealplanner/pkg/metrics"
	"github.com/ecoeats/mealplanner/pkg/redis"
)

const flushTimeout = 15 * time.Second

// app is everything one CLI process holds for the signed-in user.
type app struct {
	logg     *logger.Logger
	out      io.Writer
	loc      *time.Location
	client   *apiclient.Client
	planner  *planner.Planner
	recorder *notify.Recorder
	bus      *session.Bus
	session  session.Session
	signedIn bool
	metrics  *metrics.PlanSyncMetrics
	journal  *journal.Repository
	now      func() time.Time

	closers []func() error
}

// bootstrap wires the planner from cfg. Redis, the journal and the metrics
// endpoint are optional; when one of them cannot be reached the planner runs
// without it.
func bootstrap(ctx context.Context, cfg *config.Config, logg *logger.Logger, out io.Writer) (*app, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}
	sess, err := session.FromConfig(cfg.Session)
	if err != nil {
		return nil, err
	}
	client, err := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithTokenSource(sess),
	)
	if err != nil {
		return nil, err
	}

	a := &app{
		logg:     logg,
		out:      out,
		loc:      loc,
		client:   client,
		recorder: notify.NewRecorder(),
		bus:      session.NewBus(),
		session:  sess,
		now:      time.Now,
	}
	a.bus.Subscribe(a.onSessionEvent)

	registry := prometheus.NewRegistry()
	a.metrics = metrics.NewPlanSyncMetrics(registry)
	if cfg.Metrics.Addr != "" {
		metricsCtx := logg.WithField(ctx, "metrics_addr", cfg.Metrics.Addr)
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, registry); err != nil {
				logg.Error(metricsCtx, "metrics server stopped", err)
			}
		}()
		logg.Info(metricsCtx, "metrics endpoint enabled")
	}

	var snapshots *cache.Snapshots
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "redis unavailable, snapshot cache disabled")
		} else {
			a.closers = append(a.closers, redisClient.Close)
			snapshots = cache.New(redisClient, cfg.Redis.CacheTTL, logg)
		}
	}

	var planJournal plansync.Journal
	if cfg.Journal.Enabled() {
		if repo, err := openJournal(ctx, cfg.Journal, logg, a); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "journal unavailable, failed writes will not be kept")
		} else {
			a.journal = repo
			planJournal = repo
		}
	}

	notifier := notify.Multi{a.recorder, notify.LogNotifier{Logger: logg}}
	p, err := planner.New(planner.Params{
		Backend:   client,
		Session:   sess,
		Bus:       a.bus,
		Cache:     snapshots,
		Journal:   planJournal,
		Metrics:   a.metrics,
		Notifier:  notifier,
		Logger:    logg,
		Location:  loc,
		Threshold: cfg.Planner.SuggestThreshold,
		Now:       func() time.Time { return a.now() },
	})
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.planner = p
	a.bus.Publish(ctx, session.EventLoggedIn, sess)
	return a, nil
}

// onSessionEvent logs session transitions and tracks whether commands may
// still run.
func (a *app) onSessionEvent(ctx context.Context, event session.Event, s session.Session) {
	ctx = a.logg.WithUserID(ctx, s.UserID)
	switch event {
	case session.EventLoggedIn:
		a.signedIn = true
		a.logg.Info(ctx, "session started")
	case session.EventLoggedOut:
		a.signedIn = false
		a.logg.Info(ctx, "session ended")
	}
}

func openJournal(ctx context.Context, cfg config.JournalConfig, logg *logger.Logger, a *app) (*journal.Repository, error) {
	client, err := db.New(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	repo := journal.NewRepository(client)
	if err := repo.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	return repo, nil
}

// close drains queued writes and releases every connection.
func (a *app) close(ctx context.Context) {
	if a.planner != nil {
		flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
		if err := a.planner.Flush(flushCtx); err != nil {
			a.logg.Warn(ctx, "exiting before queued plan writes finished")
		}
		cancel()
		if err := a.planner.Close(); err != nil {
			a.logg.Error(ctx, "error closing planner", err)
		}
		a.printNotices()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logg.Error(ctx, "error closing dependency", err)
		}
	}
	a.closers = nil
}
