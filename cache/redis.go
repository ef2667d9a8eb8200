package cache

import (
	"context"
	"encoding/json"
	"time"

	"ocpp-monitor/models"

	"github.com/go-redis/redis/v8"
)

const snapshotKey = "snapshot:latest"

// RedisClient publishes committed snapshots so other readers can serve them
// without running the analysis themselves.
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(ctx context.Context, addr string, ttl time.Duration) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	return &RedisClient{
		client: rdb,
		ttl:    ttl,
	}, nil
}

func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

// Publish stores the snapshot under snapshot:latest with the configured TTL.
func (rc *RedisClient) Publish(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return rc.client.Set(ctx, snapshotKey, data, rc.ttl).Err()
}

// GetSnapshot returns the last published snapshot, or nil if none is cached.
func (rc *RedisClient) GetSnapshot(ctx context.Context) (*models.Snapshot, error) {
	val, err := rc.client.Get(ctx, snapshotKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
