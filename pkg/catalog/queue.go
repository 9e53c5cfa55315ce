package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/marmos91/artifactguard/internal/logger"
)

// ProtectionChange is a queued protect or unprotect request.
type ProtectionChange struct {
	Key       StageKey
	Protected bool
}

// ProtectionQueue buffers protection changes until Flush writes them to the
// store. The purge engine flushes it before every candidate query, so a
// protection submitted before a pass is honoured by that pass.
type ProtectionQueue struct {
	store Store

	mu      sync.Mutex
	pending []ProtectionChange

	// flushMu serialises Flush calls from the API and the purge worker.
	flushMu sync.Mutex
}

// NewProtectionQueue creates a queue writing to store.
func NewProtectionQueue(store Store) *ProtectionQueue {
	return &ProtectionQueue{store: store}
}

// Submit queues a change. A later change for the same key replaces an
// earlier unflushed one.
func (q *ProtectionQueue) Submit(key StageKey, protected bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, c := range q.pending {
		if c.Key == key {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	q.pending = append(q.pending, ProtectionChange{Key: key, Protected: protected})
}

// Pending returns a copy of the unflushed changes in submission order.
func (q *ProtectionQueue) Pending() []ProtectionChange {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]ProtectionChange(nil), q.pending...)
}

// Flush applies queued changes in order. On failure the unapplied changes
// stay queued, behind nothing submitted since, and the error is returned.
func (q *ProtectionQueue) Flush(ctx context.Context) error {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for i, c := range batch {
		if err := q.store.SetProtection(ctx, c.Key, c.Protected); err != nil {
			q.requeue(batch[i:])
			return fmt.Errorf("apply protection %s: %w", c.Key, err)
		}
		logger.Debug("Protection applied", logger.KeyPipeline, c.Key.Pipeline,
			logger.KeyStage, c.Key.Stage, "protected", c.Protected)
	}
	return nil
}

// requeue puts failed changes back ahead of newer submissions, dropping any
// that a newer submission for the same key supersedes.
func (q *ProtectionQueue) requeue(failed []ProtectionChange) {
	q.mu.Lock()
	defer q.mu.Unlock()

	newer := make(map[StageKey]bool, len(q.pending))
	for _, c := range q.pending {
		newer[c.Key] = true
	}
	merged := make([]ProtectionChange, 0, len(failed)+len(q.pending))
	for _, c := range failed {
		if !newer[c.Key] {
			merged = append(merged, c)
		}
	}
	q.pending = append(merged, q.pending...)
}
