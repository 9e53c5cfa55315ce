package runtime

import (
	"context"
	"fmt"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/pkg/artifacts"
	"github.com/marmos91/artifactguard/pkg/artifacts/filesystem"
	"github.com/marmos91/artifactguard/pkg/artifacts/s3"
	"github.com/marmos91/artifactguard/pkg/catalog"
	"github.com/marmos91/artifactguard/pkg/catalog/badger"
	"github.com/marmos91/artifactguard/pkg/catalog/memory"
	"github.com/marmos91/artifactguard/pkg/catalog/sqlstore"
	"github.com/marmos91/artifactguard/pkg/config"
	"github.com/marmos91/artifactguard/pkg/diskspace"
	"github.com/marmos91/artifactguard/pkg/metrics"
	prommetrics "github.com/marmos91/artifactguard/pkg/metrics/prometheus"
	"github.com/marmos91/artifactguard/pkg/purge"
)

func openCatalog(cfg catalog.Config) (catalog.Store, error) {
	switch cfg.Type {
	case catalog.TypeMemory:
		logger.Warn("Using in-memory catalog, stages are lost on restart")
		return memory.New(), nil

	case catalog.TypeSQLite, catalog.TypePostgres:
		store, err := sqlstore.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("open %s catalog: %w", cfg.Type, err)
		}
		return store, nil

	case catalog.TypeBadger:
		store, err := badger.New(cfg.Badger.Path)
		if err != nil {
			return nil, fmt.Errorf("open badger catalog: %w", err)
		}
		if metrics.IsEnabled() {
			if err := prommetrics.RegisterBadgerMetrics(store); err != nil {
				logger.Warn("Badger cache metrics unavailable", logger.Err(err))
			}
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown catalog type %q", cfg.Type)
	}
}

// openArtifacts returns the store, the space probe that measures it and an
// optional closer.
func openArtifacts(ctx context.Context, cfg *config.Config) (artifacts.Store, purge.SpaceProbe, func() error, error) {
	ac := cfg.Artifacts
	switch ac.Type {
	case artifacts.TypeFilesystem:
		store := filesystem.New(ac.Filesystem.Root, ac.Preserve)
		return store, diskspace.New(cfg.MonitorPath()), nil, nil

	case artifacts.TypeS3:
		store, err := s3.NewFromConfig(ctx, ac.S3, ac.Preserve)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open s3 artifact store: %w", err)
		}
		return store, s3.NewQuotaProbe(store, ac.S3.Capacity.Uint64()), store.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown artifacts type %q", ac.Type)
	}
}

// The prometheus constructors return nil interfaces when metrics are
// disabled, which the engine and purger treat as no-ops.
func newPurgeMetrics() purge.Metrics {
	return prommetrics.NewPurgeMetrics()
}

func newArtifactMetrics() artifacts.Metrics {
	return prommetrics.NewArtifactMetrics()
}
