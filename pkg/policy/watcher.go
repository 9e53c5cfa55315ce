package policy

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/pkg/purge"
)

// Loader reads the purge policy from the file at path.
type Loader func(path string) (purge.Policy, error)

// settle absorbs the burst of events editors produce for a single save.
const settle = 100 * time.Millisecond

// Watcher serves the policy found in a configuration file and reloads it
// whenever the file changes. A file that fails to load leaves the previous
// policy in place.
type Watcher struct {
	path    string
	load    Loader
	current atomic.Pointer[purge.Policy]

	mu       sync.Mutex
	onChange []func(old, updated purge.Policy)
}

// NewWatcher loads the initial policy from path.
func NewWatcher(path string, load Loader) (*Watcher, error) {
	p, err := load(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: path, load: load}
	w.current.Store(&p)
	return w, nil
}

// CurrentPolicy implements purge.PolicyProvider.
func (w *Watcher) CurrentPolicy() purge.Policy {
	return *w.current.Load()
}

// OnChange registers fn to run after every effective policy change.
func (w *Watcher) OnChange(fn func(old, updated purge.Policy)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Reload re-reads the file now.
func (w *Watcher) Reload() error {
	p, err := w.load(w.path)
	if err != nil {
		return err
	}

	old := w.current.Swap(&p)
	if *old == p {
		return nil
	}

	logger.Info("Purge policy reloaded",
		logger.KeyPath, w.path,
		"enabled", p.Enabled,
		logger.LimitBytes(p.StartThresholdBytes),
		logger.TargetBytes(p.TargetThresholdBytes))

	w.mu.Lock()
	fns := slices.Clone(w.onChange)
	w.mu.Unlock()
	for _, fn := range fns {
		fn(*old, p)
	}
	return nil
}

// Run watches the file's directory until ctx is done. Watching the
// directory keeps working across atomic rename-over-write saves.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Clean(w.path)

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(settle)
			}

		case <-timer.C:
			if err := w.Reload(); err != nil {
				logger.Warn("Keeping previous purge policy", logger.KeyPath, w.path, logger.Err(err))
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Config watcher error", logger.Err(err))
		}
	}
}
