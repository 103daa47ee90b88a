// Package redis provides the Redis-backed key-value store
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/infrastructure/config"
	"github.com/dietcompass/planner/internal/ports/outbound"
	apperrors "github.com/dietcompass/planner/pkg/errors"
)

// NewClient creates a Redis client from configuration and checks the
// connection
func NewClient(ctx context.Context, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  10 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Store implements outbound.KeyValueStore with optimistic transactions. An
// update watches its keys, stages its writes and commits them in one
// MULTI/EXEC; a concurrent change to a watched key retries the update.
type Store struct {
	client  redis.UniversalClient
	retries int
	logger  *zap.Logger
}

// NewStore creates a store. retries bounds the re-runs of an update whose
// watched keys changed underneath it.
func NewStore(client redis.UniversalClient, retries int, logger *zap.Logger) *Store {
	if retries < 0 {
		retries = 0
	}
	return &Store{client: client, retries: retries, logger: logger.Named("redis-store")}
}

// Get reads one document
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, outbound.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Update runs fn under WATCH on keys and commits its writes atomically
func (s *Store) Update(ctx context.Context, keys []string, fn func(tx outbound.KVTx) error) error {
	txf := func(tx *redis.Tx) error {
		staged := &redisTx{ctx: ctx, tx: tx, writes: make(map[string][]byte)}
		if err := fn(staged); err != nil {
			return err
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range staged.order() {
				value := staged.writes[key]
				if value == nil {
					pipe.Del(ctx, key)
					continue
				}
				pipe.Set(ctx, key, value, 0)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt <= s.retries; attempt++ {
		err := s.client.Watch(ctx, txf, keys...)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.logger.Debug("Watched keys changed, retrying update",
			zap.Strings("keys", keys),
			zap.Int("attempt", attempt+1),
		)
	}

	return apperrors.NewConflictError("concurrent update did not settle").
		WithMetadata("keys", keys).
		WithMetadata("attempts", s.retries+1)
}

// Close closes the client
func (s *Store) Close() error {
	return s.client.Close()
}

// redisTx reads through the watched connection and buffers writes. A nil
// value marks a delete.
type redisTx struct {
	ctx    context.Context
	tx     *redis.Tx
	writes map[string][]byte
}

func (t *redisTx) Get(key string) ([]byte, error) {
	if value, staged := t.writes[key]; staged {
		if value == nil {
			return nil, outbound.ErrKeyNotFound
		}
		return value, nil
	}
	value, err := t.tx.Get(t.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, outbound.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (t *redisTx) Put(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	t.writes[key] = value
	return nil
}

func (t *redisTx) Delete(key string) error {
	t.writes[key] = nil
	return nil
}

func (t *redisTx) order() []string {
	keys := make([]string, 0, len(t.writes))
	for key := range t.writes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var _ outbound.KeyValueStore = (*Store)(nil)
