// Package redis mirrors the org-list snapshot into redis.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/store"
)

const (
	// DefaultSnapshotTTL bounds how long a mirrored snapshot survives without refresh.
	DefaultSnapshotTTL = 48 * time.Hour
	// DefaultOpTimeout bounds a single Load or Save.
	DefaultOpTimeout = 2 * time.Second
)

// Store is a redis-backed store.SnapshotStore.
type Store struct {
	client    redis.UniversalClient
	key       string
	ttl       time.Duration
	opTimeout time.Duration
	logger    logger.Logger
}

// NewStore creates a redis mirror. ttl <= 0 uses DefaultSnapshotTTL.
func NewStore(client redis.UniversalClient, namespace string, ttl time.Duration, log logger.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Store{
		client:    client,
		key:       SnapshotKey(namespace),
		ttl:       ttl,
		opTimeout: DefaultOpTimeout,
		logger:    log,
	}
}

func (s *Store) Load(ctx context.Context) (*store.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("failed to read org snapshot from redis",
				logger.String("key", s.key),
				logger.Error(err))
		}
		return nil, false
	}

	snap, err := store.Decode(raw)
	if err != nil {
		s.logger.Warn("ignoring org snapshot from redis",
			logger.String("key", s.key),
			logger.Error(err))
		return nil, false
	}
	return snap, true
}

func (s *Store) Save(ctx context.Context, snap store.Snapshot) {
	raw, err := store.Encode(snap)
	if err != nil {
		s.logger.Warn("failed to encode org snapshot", logger.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to save org snapshot to redis",
			logger.String("key", s.key),
			logger.Error(err))
	}
}

// Clear removes every sflens key, scanning by prefix.
func (s *Store) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
