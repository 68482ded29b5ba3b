package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Platform names a storage backend.
type Platform string

const (
	// PlatformWeb persists to a plain JSON file, the browser local-storage analog.
	PlatformWeb Platform = "web"
	// PlatformNative persists to an encrypted file, the secure-store analog.
	PlatformNative Platform = "native"
	// PlatformRedis persists to a Redis server.
	PlatformRedis Platform = "redis"
	// PlatformMemory keeps values in process memory.
	PlatformMemory Platform = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Platform Platform

	// Path is the file used by web and native.
	Path string
	// Passphrase seals native values.
	Passphrase string
	KDF        KDFConfig

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string
	RedisNamespace string
	RedisTTL       time.Duration
	// RedisClient, when set, is used instead of dialing RedisAddr.
	RedisClient redis.UniversalClient
}

// Open builds the Storage described by cfg.
func Open(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Platform {
	case PlatformMemory, "":
		return NewMemory(), nil
	case PlatformWeb:
		return NewFile(cfg.Path)
	case PlatformNative:
		f, err := NewFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		kdf := cfg.KDF
		if kdf == (KDFConfig{}) {
			kdf = DefaultKDFConfig()
		}
		return NewSealed(ctx, f, cfg.Passphrase, kdf)
	case PlatformRedis:
		if cfg.RedisClient != nil {
			return NewRedis(cfg.RedisClient, cfg.RedisPrefix, cfg.RedisNamespace, cfg.RedisTTL), nil
		}
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("vault: redis address required")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		r := NewRedis(client, cfg.RedisPrefix, cfg.RedisNamespace, cfg.RedisTTL)
		r.ownsClient = true
		return r, nil
	default:
		return nil, fmt.Errorf("vault: unknown platform %q", cfg.Platform)
	}
}
