package policy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/pkg/purge"
)

// lineLoader parses "enabled start target" from the file.
func lineLoader(path string) (purge.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return purge.Policy{}, err
	}
	f := strings.Fields(string(data))
	if len(f) != 3 {
		return purge.Policy{}, errors.New("want 3 fields")
	}
	start, err := strconv.ParseUint(f[1], 10, 64)
	if err != nil {
		return purge.Policy{}, err
	}
	target, err := strconv.ParseUint(f[2], 10, 64)
	if err != nil {
		return purge.Policy{}, err
	}
	return purge.Policy{Enabled: f[0] == "on", StartThresholdBytes: start, TargetThresholdBytes: target}, nil
}

func writePolicy(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestStatic(t *testing.T) {
	p := purge.Policy{Enabled: true, StartThresholdBytes: 5, TargetThresholdBytes: 9}
	assert.Equal(t, p, NewStatic(p).CurrentPolicy())
	assert.Equal(t, uint64(5), NewStatic(p).CurrentPolicy().Limit())
}

func TestWatcherInitialLoadError(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), lineLoader)
	assert.Error(t, err)
}

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writePolicy(t, path, "on 10 20")

	w, err := NewWatcher(path, lineLoader)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), w.CurrentPolicy().StartThresholdBytes)

	var changes atomic.Int32
	w.OnChange(func(old, updated purge.Policy) {
		assert.Equal(t, uint64(10), old.StartThresholdBytes)
		changes.Add(1)
	})

	writePolicy(t, path, "on 15 30")
	require.NoError(t, w.Reload())
	assert.Equal(t, uint64(30), w.CurrentPolicy().TargetThresholdBytes)
	assert.Equal(t, int32(1), changes.Load())

	// Unchanged content does not notify.
	require.NoError(t, w.Reload())
	assert.Equal(t, int32(1), changes.Load())
}

func TestWatcherKeepsPolicyOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writePolicy(t, path, "on 10 20")
	w, err := NewWatcher(path, lineLoader)
	require.NoError(t, err)

	writePolicy(t, path, "garbage")
	assert.Error(t, w.Reload())
	assert.Equal(t, uint64(10), w.CurrentPolicy().StartThresholdBytes)
}

func TestWatcherFollowsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writePolicy(t, path, "on 10 20")
	w, err := NewWatcher(path, lineLoader)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated"), []byte("x"), 0644))
	writePolicy(t, path, "off 10 20")

	require.Eventually(t, func() bool {
		return !w.CurrentPolicy().Enabled
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, purge.Unbounded, w.CurrentPolicy().Limit())
}
