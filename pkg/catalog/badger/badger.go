// Package badger implements the catalog on an embedded BadgerDB. Completed
// stages are indexed by completion time so OldestPurgeable is a prefix scan.
package badger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/pkg/catalog"
)

const maxConflictRetries = 5

// Store is a BadgerDB-backed catalog.Store.
type Store struct {
	db *badgerdb.DB
}

// New opens or creates the database at path.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory: %w", err)
	}
	db, err := badgerdb.Open(badgerdb.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	logger.Debug("Catalog database ready", logger.KeyBackend, "badger", logger.KeyPath, path)
	return &Store{db: db}, nil
}

// update runs fn in a read-write transaction, retrying on conflicts with
// concurrent writers.
func (s *Store) update(ctx context.Context, fn func(txn *badgerdb.Txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if !errors.Is(err, badgerdb.ErrConflict) || attempt == maxConflictRetries {
			return translate(err)
		}
	}
}

func (s *Store) view(ctx context.Context, fn func(txn *badgerdb.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return translate(s.db.View(fn))
}

func translate(err error) error {
	if errors.Is(err, badgerdb.ErrDBClosed) {
		return catalog.ErrClosed
	}
	return err
}

func getJSON(txn *badgerdb.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badgerdb.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func getStage(txn *badgerdb.Txn, id string) (catalog.Stage, error) {
	var st catalog.Stage
	err := getJSON(txn, keyStage(id), &st)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return st, catalog.ErrStageNotFound
	}
	return st, err
}

func (s *Store) RegisterStage(ctx context.Context, st *catalog.Stage) error {
	if err := st.Validate(); err != nil {
		return err
	}
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}

	return s.update(ctx, func(txn *badgerdb.Txn) error {
		for _, key := range [][]byte{keyIdentifier(*st), keyStage(st.ID)} {
			if _, err := txn.Get(key); err == nil {
				return catalog.ErrDuplicateStage
			} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
				return err
			}
		}

		if err := setJSON(txn, keyStage(st.ID), st); err != nil {
			return err
		}
		if err := txn.Set(keyIdentifier(*st), []byte(st.ID)); err != nil {
			return err
		}
		if !st.Completed() {
			return nil
		}
		if !st.ArtifactsDeleted {
			if err := txn.Set(keyIndex(*st.CompletedAt, st.ID), nil); err != nil {
				return err
			}
		}
		return s.bumpLatest(txn, *st)
	})
}

// bumpLatest records st as the newest completed run of its pair if it is.
func (s *Store) bumpLatest(txn *badgerdb.Txn, st catalog.Stage) error {
	key := keyLatest(st.Key())
	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badgerdb.ErrKeyNotFound):
	case err != nil:
		return err
	default:
		curID, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		cur, err := getStage(txn, string(curID))
		if err != nil {
			return err
		}
		if !st.NewerThan(cur) {
			return nil
		}
	}
	return txn.Set(key, []byte(st.ID))
}

func (s *Store) GetStage(ctx context.Context, id string) (*catalog.Stage, error) {
	var st catalog.Stage
	err := s.view(ctx, func(txn *badgerdb.Txn) error {
		var err error
		st, err = getStage(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) ListStages(ctx context.Context, f catalog.StageFilter) ([]catalog.Stage, error) {
	out := make([]catalog.Stage, 0)
	err := s.view(ctx, func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixStage)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var st catalog.Stage
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &st)
			}); err != nil {
				return err
			}
			if f.Matches(st) {
				out = append(out, st)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortByCreation(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) OldestPurgeable(ctx context.Context, limit int, keepLatest bool) ([]catalog.Stage, error) {
	out := make([]catalog.Stage, 0)
	err := s.view(ctx, func(txn *badgerdb.Txn) error {
		protected, err := protectedKeys(txn)
		if err != nil {
			return err
		}

		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixIndex)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			st, err := getStage(txn, indexID(it.Item().Key()))
			if err != nil {
				return err
			}
			if st.Keep || protected[st.Key()] {
				continue
			}
			if keepLatest {
				latest, err := latestID(txn, st.Key())
				if err != nil {
					return err
				}
				if latest == st.ID {
					continue
				}
			}
			out = append(out, st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func protectedKeys(txn *badgerdb.Txn) (map[catalog.StageKey]bool, error) {
	protected := make(map[catalog.StageKey]bool)
	err := eachProtection(txn, func(p catalog.Protection) {
		protected[p.StageKey] = true
	})
	return protected, err
}

func latestID(txn *badgerdb.Txn, k catalog.StageKey) (string, error) {
	item, err := txn.Get(keyLatest(k))
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	id, err := item.ValueCopy(nil)
	return string(id), err
}

func (s *Store) MarkArtifactsDeleted(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badgerdb.Txn) error {
		st, err := getStage(txn, id)
		if err != nil {
			return err
		}
		if st.ArtifactsDeleted {
			return nil
		}
		now := time.Now().UTC()
		st.ArtifactsDeleted = true
		st.DeletedAt = &now
		if st.Completed() {
			if err := txn.Delete(keyIndex(*st.CompletedAt, st.ID)); err != nil {
				return err
			}
		}
		return setJSON(txn, keyStage(id), st)
	})
}

func (s *Store) SetKeep(ctx context.Context, id string, keep bool) error {
	return s.update(ctx, func(txn *badgerdb.Txn) error {
		st, err := getStage(txn, id)
		if err != nil {
			return err
		}
		st.Keep = keep
		return setJSON(txn, keyStage(id), st)
	})
}

func (s *Store) SetProtection(ctx context.Context, key catalog.StageKey, protected bool) error {
	return s.update(ctx, func(txn *badgerdb.Txn) error {
		k := keyProtection(key)
		if !protected {
			return txn.Delete(k)
		}
		if _, err := txn.Get(k); err == nil {
			return nil
		} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		return setJSON(txn, k, catalog.Protection{StageKey: key, CreatedAt: time.Now().UTC()})
	})
}

func eachProtection(txn *badgerdb.Txn, fn func(catalog.Protection)) error {
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = []byte(prefixProtection)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var p catalog.Protection
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		}); err != nil {
			return err
		}
		fn(p)
	}
	return nil
}

func (s *Store) ListProtections(ctx context.Context) ([]catalog.Protection, error) {
	out := make([]catalog.Protection, 0)
	err := s.view(ctx, func(txn *badgerdb.Txn) error {
		return eachProtection(txn, func(p catalog.Protection) {
			out = append(out, p)
		})
	})
	return out, err
}

func (s *Store) RecordRun(ctx context.Context, r catalog.RunRecord) error {
	return s.update(ctx, func(txn *badgerdb.Txn) error {
		return setJSON(txn, keyRun(r.StartedAt, r.ID), r)
	})
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]catalog.RunRecord, error) {
	out := make([]catalog.RunRecord, 0)
	err := s.view(ctx, func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRun)
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must seek past the last key under the prefix.
		seek := append([]byte(prefixRun), bytes.Repeat([]byte{0xff}, 9)...)
		for it.Seek(seek); it.Valid(); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var r catalog.RunRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.view(ctx, func(txn *badgerdb.Txn) error { return nil }); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// sortByCreation orders stages by registration; stage keys are random IDs.
func sortByCreation(stages []catalog.Stage) {
	sort.Slice(stages, func(i, j int) bool {
		a, b := stages[i], stages[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

var _ catalog.Store = (*Store)(nil)

// CacheStat describes one BadgerDB cache.
type CacheStat struct {
	Kind   string
	Hits   uint64
	Misses uint64
	Ratio  float64
}

// CacheStats reports block and index cache effectiveness.
func (s *Store) CacheStats() []CacheStat {
	block, index := s.db.BlockCacheMetrics(), s.db.IndexCacheMetrics()
	return []CacheStat{
		{Kind: "block", Hits: block.Hits(), Misses: block.Misses(), Ratio: block.Ratio()},
		{Kind: "index", Hits: index.Hits(), Misses: index.Misses(), Ratio: index.Ratio()},
	}
}
