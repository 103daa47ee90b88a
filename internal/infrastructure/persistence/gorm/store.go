package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dietcompass/planner/internal/ports/outbound"
)

// Store implements outbound.KeyValueStore on a SQL database. Every update
// runs in one database transaction; reads inside it lock their rows where
// the dialect supports row locks.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a store over a migrated database
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("kv-store")}
}

// Get reads one document
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	return get(s.db.WithContext(ctx), key, false)
}

// Update runs fn inside a transaction
func (s *Store) Update(ctx context.Context, keys []string, fn func(tx outbound.KVTx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
	if err != nil {
		s.logger.Debug("Update rolled back", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// Keys lists stored keys with the given prefix in order
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&KVEntryModel{}).
		Where("key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").
		Order("key").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Get(key string) ([]byte, error) {
	return get(t.db, key, true)
}

func (t *gormTx) Put(key string, value []byte) error {
	entry := KVEntryModel{Key: key, Value: value}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (t *gormTx) Delete(key string) error {
	if err := t.db.Delete(&KVEntryModel{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func get(db *gorm.DB, key string, lock bool) ([]byte, error) {
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var entry KVEntryModel
	err := db.Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, outbound.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return []byte(entry.Value), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ outbound.KeyValueStore = (*Store)(nil)
