// Package sqlstore implements the catalog on SQLite or PostgreSQL through
// GORM. Both dialects share one code path.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/pkg/catalog"
)

// Store is a GORM-backed catalog.Store.
type Store struct {
	db *gorm.DB
}

// New opens the database described by cfg and migrates the schema.
// cfg.Type must be sqlite or postgres.
func New(cfg catalog.Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case catalog.TypeSQLite:
		if cfg.SQLite.Path == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// WAL lets the API read while the purge worker writes.
		dsn := cfg.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)
	case catalog.TypePostgres:
		dialector = postgres.Open(cfg.Postgres.DSN())
	default:
		return nil, fmt.Errorf("unsupported sql catalog type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Type == catalog.TypePostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying database: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	}

	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}

	logger.Debug("Catalog database ready", logger.KeyBackend, string(cfg.Type))
	return &Store{db: db}, nil
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
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

	m := fromStage(st)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueConstraintError(err) {
			return catalog.ErrDuplicateStage
		}
		return err
	}
	return nil
}

func (s *Store) GetStage(ctx context.Context, id string) (*catalog.Stage, error) {
	var m stageModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, convertNotFoundError(err, catalog.ErrStageNotFound)
	}
	st := m.toStage()
	return &st, nil
}

func (s *Store) ListStages(ctx context.Context, f catalog.StageFilter) ([]catalog.Stage, error) {
	q := s.db.WithContext(ctx).Model(&stageModel{})
	if f.Pipeline != "" {
		q = q.Where("pipeline = ?", f.Pipeline)
	}
	if f.Stage != "" {
		q = q.Where("name = ?", f.Stage)
	}
	if f.OnlyWithArtifacts {
		q = q.Where("artifacts_deleted = ?", false)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var ms []stageModel
	if err := q.Order("created_at ASC, id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return toStages(ms), nil
}

func (s *Store) OldestPurgeable(ctx context.Context, limit int, keepLatest bool) ([]catalog.Stage, error) {
	q := s.db.WithContext(ctx).
		Table("stages AS s").
		Select("s.*").
		Where("s.completed_at IS NOT NULL").
		Where("s.artifacts_deleted = ? AND s.keep = ?", false, false).
		Where("NOT EXISTS (SELECT 1 FROM protections p WHERE p.pipeline = s.pipeline AND p.stage = s.name)")

	if keepLatest {
		q = q.Where(`EXISTS (SELECT 1 FROM stages n
			WHERE n.pipeline = s.pipeline AND n.name = s.name AND n.completed_at IS NOT NULL
			AND (n.pipeline_counter > s.pipeline_counter
				OR (n.pipeline_counter = s.pipeline_counter AND n.counter > s.counter)))`)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var ms []stageModel
	if err := q.Order("s.completed_at ASC, s.id ASC").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("query purgeable stages: %w", err)
	}
	return toStages(ms), nil
}

func (s *Store) MarkArtifactsDeleted(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).
		Model(&stageModel{}).
		Where("id = ? AND artifacts_deleted = ?", id, false).
		Updates(map[string]any{"artifacts_deleted": true, "deleted_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.exists(ctx, id)
	}
	return nil
}

func (s *Store) SetKeep(ctx context.Context, id string, keep bool) error {
	res := s.db.WithContext(ctx).
		Model(&stageModel{}).
		Where("id = ?", id).
		Update("keep", keep)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.exists(ctx, id)
	}
	return nil
}

// exists distinguishes a no-op update from a missing row.
func (s *Store) exists(ctx context.Context, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&stageModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrStageNotFound
	}
	return nil
}

func (s *Store) SetProtection(ctx context.Context, key catalog.StageKey, protected bool) error {
	db := s.db.WithContext(ctx)
	if !protected {
		return db.Where("pipeline = ? AND stage = ?", key.Pipeline, key.Stage).
			Delete(&protectionModel{}).Error
	}

	m := protectionModel{Pipeline: key.Pipeline, Stage: key.Stage, CreatedAt: time.Now().UTC()}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error
}

func (s *Store) ListProtections(ctx context.Context) ([]catalog.Protection, error) {
	var ms []protectionModel
	if err := s.db.WithContext(ctx).Order("pipeline ASC, stage ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.Protection, len(ms))
	for i, m := range ms {
		out[i] = catalog.Protection{
			StageKey:  catalog.StageKey{Pipeline: m.Pipeline, Stage: m.Stage},
			CreatedAt: m.CreatedAt.UTC(),
		}
	}
	return out, nil
}

func (s *Store) RecordRun(ctx context.Context, r catalog.RunRecord) error {
	m := fromRun(r)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]catalog.RunRecord, error) {
	q := s.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ms []runModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.RunRecord, len(ms))
	for i, m := range ms {
		out[i] = m.toRun()
	}
	return out, nil
}

func (s *Store) Healthcheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func convertNotFoundError(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

var _ catalog.Store = (*Store)(nil)
