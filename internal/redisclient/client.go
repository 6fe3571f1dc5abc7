package redisclient

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

const (
	idempotencyPrefix = "idempotency:"
	lockPrefix        = "lock:idempotency:"
	minLockTTL        = 2 * time.Minute
	lockMargin        = time.Minute
)

// LockTTLFor returns how long a processing lock lives when a charge may take
// up to gatewayTimeout. The lock has to outlast the charge plus the stock
// and transaction writes around it.
func LockTTLFor(gatewayTimeout time.Duration) time.Duration {
	if ttl := gatewayTimeout + lockMargin; ttl > minLockTTL {
		return ttl
	}
	return minLockTTL
}

// Client keeps payment idempotency keys in Redis
type Client struct {
	rdb            *redis.Client
	releaseScript  *redis.Script
	idempotencyTTL time.Duration
	lockTTL        time.Duration
}

// NewClient creates a new Redis client and checks the connection
func NewClient(addr, password string, db int, idempotencyTTL, lockTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:            rdb,
		releaseScript:  redis.NewScript(releaseLockScript),
		idempotencyTTL: idempotencyTTL,
		lockTTL:        lockTTL,
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetTransactionID returns the transaction bound to an idempotency key
func (c *Client) GetTransactionID(ctx context.Context, key string) (int64, bool, error) {
	value, err := c.rdb.Get(ctx, idempotencyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency value for %q: %w", key, err)
	}
	return id, true, nil
}

// Acquire takes the processing lock of a key. ok is false when another
// request holds it. The returned token is needed to release it.
func (c *Client) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.New().String()
	ok, err := c.rdb.SetNX(ctx, lockPrefix+key, token, c.lockTTL).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Bind stores the transaction id for a key
func (c *Client) Bind(ctx context.Context, key string, transactionID int64) error {
	return c.rdb.Set(ctx, idempotencyPrefix+key, transactionID, c.idempotencyTTL).Err()
}

// Release drops the processing lock if token still owns it
func (c *Client) Release(ctx context.Context, key, token string) error {
	if err := c.releaseScript.Run(ctx, c.rdb, []string{lockPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}
