// Package runtime assembles the purge engine and its surrounding services
// from a loaded configuration.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/pkg/api"
	"github.com/marmos91/artifactguard/pkg/api/handlers"
	"github.com/marmos91/artifactguard/pkg/artifacts"
	"github.com/marmos91/artifactguard/pkg/catalog"
	"github.com/marmos91/artifactguard/pkg/config"
	"github.com/marmos91/artifactguard/pkg/metrics"
	"github.com/marmos91/artifactguard/pkg/monitor"
	"github.com/marmos91/artifactguard/pkg/policy"
	"github.com/marmos91/artifactguard/pkg/purge"
)

// historyTimeout bounds how long recording one run may block the worker.
const historyTimeout = 5 * time.Second

// AuxiliaryServer is an HTTP server run alongside the engine. Start blocks
// until ctx is cancelled.
type AuxiliaryServer interface {
	Start(ctx context.Context) error
}

// Runtime owns every long-lived component of a running server.
type Runtime struct {
	cfg *config.Config

	catalog   catalog.Store
	artifacts artifacts.Store
	queue     *catalog.ProtectionQueue
	policy    purge.PolicyProvider
	watcher   *policy.Watcher
	engine    *purge.Engine
	monitor   *monitor.Monitor

	apiServer     AuxiliaryServer
	metricsServer *metrics.Server

	closers []func() error

	serveOnce sync.Once
}

// New builds a runtime. configPath is the file the policy watcher follows;
// when empty the policy is fixed at cfg.Purge.
func New(ctx context.Context, cfg *config.Config, configPath string) (_ *Runtime, err error) {
	r := &Runtime{cfg: cfg}
	defer func() {
		if err != nil {
			r.close()
		}
	}()

	if cfg.Metrics.Enabled {
		reg := metrics.InitRegistry()
		r.metricsServer = metrics.NewServer(cfg.Metrics.Port, reg)
	}

	r.catalog, err = openCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, r.catalog.Close)
	logger.Info("Catalog opened", "type", cfg.Catalog.Type)

	store, probe, closeStore, err := openArtifacts(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r.artifacts = store
	if closeStore != nil {
		r.closers = append(r.closers, closeStore)
	}
	logger.Info("Artifact store opened", logger.Backend(string(cfg.Artifacts.Type)))

	if err := r.initPolicy(configPath); err != nil {
		return nil, err
	}

	purgeMetrics := newPurgeMetrics()
	r.queue = catalog.NewProtectionQueue(r.catalog)
	r.engine, err = purge.NewEngine(purge.Config{
		Policy:  r.policy,
		Probe:   probe,
		Source:  catalog.NewCandidateSource(r.catalog, cfg.Catalog.BatchSize, cfg.Catalog.KeepLatest),
		Target:  artifacts.NewPurger(store, r.catalog, string(cfg.Artifacts.Type), newArtifactMetrics()),
		Flush:   r.queue,
		Metrics: purgeMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create purge engine: %w", err)
	}
	r.engine.OnReport(catalog.RecordReports(r.catalog, historyTimeout))

	r.monitor = monitor.New(probe, r.engine, cfg.Monitor.Interval, purgeMetrics)

	if r.watcher != nil {
		r.watcher.OnChange(func(_, _ purge.Policy) {
			checkCtx, cancel := context.WithTimeout(context.Background(), cfg.Monitor.Interval)
			defer cancel()
			if _, err := r.monitor.Check(checkCtx); err != nil {
				logger.Warn("Free space check after policy change failed", logger.Err(err))
			}
		})
	}

	if cfg.API.Enabled {
		srv, err := api.NewServer(cfg.API, api.Deps{
			Engine:  r.engine,
			Monitor: r.monitor,
			Catalog: r.catalog,
			Queue:   r.queue,
			Checks: []handlers.HealthCheck{
				{Name: "catalog", Check: r.catalog.Healthcheck},
				{Name: "artifacts", Check: r.artifacts.Healthcheck},
			},
		})
		if err != nil {
			return nil, err
		}
		r.apiServer = srv
	}

	return r, nil
}

func (r *Runtime) initPolicy(configPath string) error {
	if configPath == "" {
		r.policy = policy.NewStatic(r.cfg.Purge.Policy())
		return nil
	}

	w, err := policy.NewWatcher(configPath, loadPolicy)
	if err != nil {
		return fmt.Errorf("load purge policy: %w", err)
	}
	r.watcher = w
	r.policy = w
	return nil
}

func loadPolicy(path string) (purge.Policy, error) {
	p, err := config.LoadPurge(path)
	if err != nil {
		return purge.Policy{}, err
	}
	return p.Policy(), nil
}

// Engine returns the purge engine.
func (r *Runtime) Engine() *purge.Engine { return r.engine }

// Monitor returns the free-space monitor.
func (r *Runtime) Monitor() *monitor.Monitor { return r.monitor }

// Catalog returns the stage catalog.
func (r *Runtime) Catalog() catalog.Store { return r.catalog }

// Queue returns the protection queue the engine flushes.
func (r *Runtime) Queue() *catalog.ProtectionQueue { return r.queue }

// Serve starts every component and blocks until ctx is cancelled or an
// auxiliary server fails. It may only be called once.
func (r *Runtime) Serve(ctx context.Context) error {
	err := errors.New("runtime already served")
	r.serveOnce.Do(func() {
		err = r.serve(ctx)
	})
	return err
}

func (r *Runtime) serve(ctx context.Context) error {
	logger.Info("Starting artifactguard runtime")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The engine outlives ctx so shutdown can give a running purge
	// ShutdownTimeout to wind down.
	if err := r.engine.Start(context.WithoutCancel(ctx)); err != nil {
		r.close()
		return fmt.Errorf("start purge engine: %w", err)
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.monitor.Run(ctx)
	}()

	if r.watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.watcher.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Policy watcher stopped, policy is now fixed", logger.Err(err))
			}
		}()
	}

	if r.metricsServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.metricsServer.Serve(ctx); err != nil {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	if r.apiServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.apiServer.Start(ctx); err != nil {
				errChan <- fmt.Errorf("API server error: %w", err)
			}
		}()
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received", "reason", ctx.Err())
	case err := <-errChan:
		logger.Error("Auxiliary server failed, initiating shutdown", logger.Err(err))
		shutdownErr = err
	}

	cancel()
	wg.Wait()
	r.shutdown()

	logger.Info("artifactguard runtime stopped")
	return shutdownErr
}

func (r *Runtime) shutdown() {
	if err := r.engine.Stop(r.cfg.ShutdownTimeout); err != nil {
		logger.Warn("Purge engine did not stop cleanly", logger.Err(err))
	}

	if pending := r.queue.Pending(); len(pending) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.queue.Flush(ctx); err != nil {
			logger.Warn("Protection changes lost at shutdown", "pending", len(pending), logger.Err(err))
		}
		cancel()
	}

	r.close()
}

func (r *Runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			logger.Warn("Close failed", logger.Err(err))
		}
	}
	r.closers = nil
}
