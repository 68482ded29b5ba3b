package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis transport failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Redis stores keys as "<prefix>:<namespace>:<key>". A namespace usually identifies the
// device or kiosk seat so several clients can share one server.
type Redis struct {
	redis     redis.UniversalClient
	prefix    string
	namespace string
	ttl       time.Duration
	// ownsClient is set when Open dialed the client.
	ownsClient bool
}

// NewRedis builds a Redis store. A zero ttl keeps values until deleted.
func NewRedis(client redis.UniversalClient, prefix, namespace string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "campus"
	}
	return &Redis{
		redis:     client,
		prefix:    prefix,
		namespace: normalizeNamespace(namespace),
		ttl:       ttl,
	}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + r.namespace + ":" + key
}

func normalizeNamespace(namespace string) string {
	if namespace == "" {
		return "0"
	}
	return namespace
}

// Get implements Storage.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	if err := checkKey(ctx, key); err != nil {
		return "", err
	}
	v, err := r.redis.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return v, nil
}

// Set implements Storage.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	if err := r.redis.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete implements Storage.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Close closes the client when Open dialed it. A client passed in by the caller is left
// open.
func (r *Redis) Close() error {
	if !r.ownsClient {
		return nil
	}
	return r.redis.Close()
}
