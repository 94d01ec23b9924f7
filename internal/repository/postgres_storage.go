package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StorageChangesChannel is the LISTEN/NOTIFY channel used for storage changes.
const StorageChangesChannel = "storage_changes"

type postgresStorage struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewPostgresStorage returns storage persisted in the storage_entries table.
func NewPostgresStorage(pool *pgxpool.Pool, namespace string) *postgresStorage {
	return &postgresStorage{pool: pool, namespace: namespace}
}

func (r *postgresStorage) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM storage_entries WHERE namespace=$1 AND key=$2`

	var value string
	err := r.pool.QueryRow(ctx, query, r.namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select storage entry %s: %w", key, err)
	}
	return value, true, nil
}

func (r *postgresStorage) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO storage_entries (namespace, key, value, updated_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (namespace, key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`

	if _, err := r.pool.Exec(ctx, query, r.namespace, key, value); err != nil {
		return fmt.Errorf("upsert storage entry %s: %w", key, err)
	}
	return nil
}

func (r *postgresStorage) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM storage_entries WHERE namespace=$1 AND key=$2`
	if _, err := r.pool.Exec(ctx, query, r.namespace, key); err != nil {
		return fmt.Errorf("delete storage entry %s: %w", key, err)
	}
	return nil
}

func (r *postgresStorage) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *postgresStorage) Publish(ctx context.Context, change StorageChange) error {
	change.Namespace = r.namespace
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal storage change: %w", err)
	}
	if _, err := r.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, StorageChangesChannel, string(payload)); err != nil {
		return fmt.Errorf("notify storage change: %w", err)
	}
	return nil
}

// Watch holds one pooled connection in LISTEN mode for its whole lifetime.
func (r *postgresStorage) Watch(ctx context.Context, key string, fn func(StorageChange)) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+StorageChangesChannel); err != nil {
		return fmt.Errorf("listen %s: %w", StorageChangesChannel, err)
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), "UNLISTEN *")
	}()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}

		var change StorageChange
		if err := json.Unmarshal([]byte(n.Payload), &change); err != nil {
			continue
		}
		if change.Namespace != r.namespace || change.Key != key {
			continue
		}
		fn(change)
	}
}
