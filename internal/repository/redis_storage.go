package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisStorage struct {
	client    *redis.Client
	namespace string
}

// NewRedisStorage returns Redis-backed storage whose keys live under namespace.
// Its change feed is a pub/sub channel per key.
func NewRedisStorage(client *redis.Client, namespace string) *redisStorage {
	return &redisStorage{client: client, namespace: namespace}
}

func (r *redisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.valueKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *redisStorage) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.valueKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *redisStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.valueKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *redisStorage) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisStorage) Publish(ctx context.Context, change StorageChange) error {
	change.Namespace = r.namespace
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal storage change: %w", err)
	}
	return r.client.Publish(ctx, r.channel(change.Key), payload).Err()
}

func (r *redisStorage) Watch(ctx context.Context, key string, fn func(StorageChange)) error {
	sub := r.client.Subscribe(ctx, r.channel(key))
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", r.channel(key), err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var change StorageChange
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				continue
			}
			fn(change)
		}
	}
}

func (r *redisStorage) valueKey(key string) string {
	return fmt.Sprintf("%s:storage:%s", r.namespace, key)
}

func (r *redisStorage) channel(key string) string {
	return fmt.Sprintf("%s:storage-changes:%s", r.namespace, key)
}
