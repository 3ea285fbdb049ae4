package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/haukened/rr-hostblock/internal/dns/common/clock"
	"github.com/haukened/rr-hostblock/internal/dns/common/log"
	"github.com/haukened/rr-hostblock/internal/dns/config"
	"github.com/haukened/rr-hostblock/internal/dns/domain"
	"github.com/haukened/rr-hostblock/internal/dns/gateways/admin"
	"github.com/haukened/rr-hostblock/internal/dns/gateways/source"
	"github.com/haukened/rr-hostblock/internal/dns/metrics"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist/bloom"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist/bolt"
	"github.com/haukened/rr-hostblock/internal/dns/repos/blocklist/lru"
	"github.com/haukened/rr-hostblock/internal/dns/services/filter"
	"github.com/haukened/rr-hostblock/internal/dns/services/refresher"
)

// Application holds the wired components.
type Application struct {
	config    *config.AppConfig
	logger    log.Logger
	request   domain.RebuildRequest
	service   *filter.Service
	refresher *refresher.Refresher
	admin     *admin.Server
	registry  *prometheus.Registry
	store     blocklist.SnapshotStore
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig, logger log.Logger) (*Application, error) {
	clk := clock.RealClock{}

	req, err := cfg.RebuildRequest()
	if err != nil {
		return nil, err
	}

	suffixes, err := cfg.Suffixes()
	if err != nil {
		return nil, err
	}

	resolver := source.NewResolver(source.Options{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
		Rate:      cfg.Fetch.Rate,
		Burst:     cfg.Fetch.Burst,
	})

	var bf blocklist.BloomFactory
	if cfg.Bloom.Enabled {
		bf = bloom.NewFactory()
	}
	db := blocklist.NewDatabase(blocklist.Options{
		Resolver:    resolver,
		MaxClimb:    cfg.Hosts.MaxClimb,
		Suffixes:    suffixes,
		Bloom:       bf,
		BloomFPRate: cfg.Bloom.FPRate,
		Logger:      logger.With(map[string]any{"component": "database"}),
		Clock:       clk,
	})

	cache, err := lru.New(cfg.Cache.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision cache: %w", err)
	}

	var store blocklist.SnapshotStore
	if cfg.Store.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		store, err = bolt.New(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot store: %w", err)
		}
	}

	registry := metrics.NewRegistry()
	svc := filter.NewService(filter.Options{
		Database: db,
		Cache:    cache,
		Store:    store,
		Metrics:  metrics.New(registry),
		Logger:   logger.With(map[string]any{"component": "filter"}),
		Clock:    clk,
	})

	rcfg := cfg.RefresherConfig(func(loc string) (string, bool) {
		kind, path := source.Classify(loc)
		return path, kind == source.KindFile
	})
	ref := refresher.New(rcfg, svc, func() domain.RebuildRequest { return req }, logger.With(map[string]any{"component": "refresher"}))

	app := &Application{
		config:    cfg,
		logger:    logger,
		request:   req,
		service:   svc,
		refresher: ref,
		registry:  registry,
		store:     store,
	}
	if cfg.Admin.Addr != "" {
		router := admin.NewRouter(admin.Options{
			Checker:  svc,
			Trigger:  ref,
			Gatherer: registry,
			Logger:   logger.With(map[string]any{"component": "admin"}),
		})
		app.admin = admin.NewServer(cfg.Admin.Addr, router, logger)
	}
	return app, nil
}

// Run restores the persisted set, then runs the refresher and the admin API
// until ctx is done.
func (app *Application) Run(ctx context.Context) error {
	restored, err := app.service.Restore()
	switch {
	case err != nil:
		app.logger.Warn(map[string]any{"error": err}, "restore_failed")
	case restored:
		st := app.service.Stats().Snapshot
		app.logger.Info(map[string]any{"hosts": st.Hosts, "built_at": st.BuiltAt}, "restore_done")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if app.admin != nil {
		g.Go(func() error { return app.admin.Run(ctx) })
	}
	return g.Wait()
}

// RebuildOnce runs a single rebuild with the configured request.
func (app *Application) RebuildOnce(ctx context.Context) (domain.RebuildResult, error) {
	return app.service.Rebuild(ctx, app.request)
}

// Close releases the snapshot store.
func (app *Application) Close() {
	if app.store == nil {
		return
	}
	if err := app.store.Close(); err != nil {
		app.logger.Warn(map[string]any{"error": err}, "store_close_failed")
	}
}
