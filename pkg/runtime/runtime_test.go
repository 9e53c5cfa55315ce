package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/internal/bytesize"
	"github.com/marmos91/artifactguard/pkg/artifacts"
	"github.com/marmos91/artifactguard/pkg/catalog"
	"github.com/marmos91/artifactguard/pkg/config"
	"github.com/marmos91/artifactguard/pkg/purge"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Catalog.Type = catalog.TypeMemory
	cfg.Artifacts.Filesystem.Root = filepath.Join(dir, "artifacts")
	cfg.Purge = config.PurgeConfig{Enabled: true, StartThreshold: bytesize.GiB, TargetThreshold: 2 * bytesize.GiB}
	cfg.Monitor.Interval = time.Hour
	cfg.ShutdownTimeout = time.Second
	config.ApplyDefaults(cfg)
	cfg.Catalog.SQLite.Path = filepath.Join(dir, "catalog.db")
	cfg.Catalog.Badger.Path = filepath.Join(dir, "catalog.badger")

	require.NoError(t, os.MkdirAll(cfg.Artifacts.Filesystem.Root, 0o755))
	return cfg
}

func TestNewStaticPolicy(t *testing.T) {
	cfg := testConfig(t)

	rt, err := New(context.Background(), cfg, "")
	require.NoError(t, err)
	t.Cleanup(rt.close)

	assert.Equal(t, cfg.Purge.Policy(), rt.Engine().CurrentPolicy())
	assert.Equal(t, uint64(bytesize.GiB), rt.Engine().CurrentLimitBytes())
	assert.Nil(t, rt.watcher)
}

func TestNewCatalogBackends(t *testing.T) {
	for _, typ := range []catalog.Type{catalog.TypeMemory, catalog.TypeSQLite, catalog.TypeBadger} {
		t.Run(string(typ), func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Catalog.Type = typ

			rt, err := New(context.Background(), cfg, "")
			require.NoError(t, err)
			t.Cleanup(rt.close)

			require.NoError(t, rt.Catalog().Healthcheck(context.Background()))
		})
	}
}

func TestNewRejectsUnknownCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Type = "etcd"

	_, err := New(context.Background(), cfg, "")
	assert.ErrorContains(t, err, "unknown catalog type")
}

func TestNewClosesCatalogOnLaterFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Type = catalog.TypeBadger
	cfg.Artifacts.Type = "nfs"

	_, err := New(context.Background(), cfg, "")
	require.ErrorContains(t, err, "unknown artifacts type")

	// Badger locks its directory, so a second open only succeeds once the
	// first runtime released the catalog.
	cfg.Artifacts.Type = artifacts.TypeFilesystem
	rt, err := New(context.Background(), cfg, "")
	require.NoError(t, err)
	t.Cleanup(rt.close)
}

func TestServeStopsAndFlushesQueue(t *testing.T) {
	cfg := testConfig(t)
	cfg.Purge.Enabled = false

	rt, err := New(context.Background(), cfg, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Serve(ctx) }()

	rt.Queue().Submit(catalog.StageKey{Pipeline: "p", Stage: "s"}, true)
	require.Eventually(t, func() bool { return rt.Engine().State() == purge.StateIdle }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	assert.Empty(t, rt.Queue().Pending(), "pending changes are flushed on shutdown")
	assert.Error(t, rt.Serve(context.Background()), "Serve runs once")
}

func TestWatcherFollowsConfigFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writePurge := func(start string) {
		data := "purge:\n  enabled: true\n  start_threshold: " + start + "\n  target_threshold: 4GiB\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	}
	writePurge("1GiB")

	rt, err := New(context.Background(), cfg, path)
	require.NoError(t, err)
	require.NotNil(t, rt.watcher)
	assert.Equal(t, uint64(bytesize.GiB), rt.Engine().CurrentLimitBytes())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	writePurge("3GiB")

	require.Eventually(t, func() bool {
		return rt.Engine().CurrentLimitBytes() == uint64(3*bytesize.GiB)
	}, 5*time.Second, 20*time.Millisecond)
}
