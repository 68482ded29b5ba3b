package goCampus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goCampus/internal/logger"
	"github.com/MrEthical07/goCampus/navigation"
	"github.com/MrEthical07/goCampus/role"
	"github.com/MrEthical07/goCampus/vault"
)

// Config defines a public type used by goCampus APIs.
//
// Config instances are intended to be configured during initialization and then treated
// as immutable.
type Config struct {
	API     APIConfig
	Storage StorageConfig
	Routes  RoutesConfig
	Metrics MetricsConfig
	Events  EventsConfig
	Log     LogConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig configures the backend REST client. A zero Timeout means no timeout.
// Retries apply to every endpoint except login and session check.
type APIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	UserAgent  string
	Debug      bool
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig selects where the credential record lives. Platform is one of "memory",
// "web", "native" or "redis".
type StorageConfig struct {
	Platform   string
	Path       string
	Passphrase string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string
	RedisNamespace string
	RedisTTL       time.Duration
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig holds the login path and each role's home path. A role's screens are
// the group named by the first segment of its home.
type RoutesConfig struct {
	Login    string
	Dean     string
	ViceDean string
	Teacher  string
	Student  string
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// MetricsConfig defines a public type used by goCampus APIs.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// EventsConfig controls asynchronous session event delivery.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// LogConfig controls the default logger built when none is supplied.
type LogConfig struct {
	Level string
	JSON  bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Platform:    string(vault.PlatformMemory),
			RedisPrefix: "campus",
		},
		Routes: RoutesConfig{
			Login:    "/auth/login",
			Dean:     "/dean/dashboard",
			ViceDean: "/vice-dean",
			Teacher:  "/teacher",
			Student:  "/student",
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Log: LogConfig{
			Level: string(logger.InfoLevel),
		},
	}
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the whole configuration, including storage and the API base URL.
func (c *Config) Validate() error {
	return c.validate(true, true)
}

func (c *Config) validate(checkStorage, checkAPI bool) error {
	// API
	if checkAPI && strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("API BaseURL is required")
	}
	if c.API.Timeout < 0 {
		return errors.New("API Timeout must be >= 0")
	}
	if c.API.RetryCount < 0 {
		return errors.New("API RetryCount must be >= 0")
	}
	if c.API.RetryWait < 0 {
		return errors.New("API RetryWait must be >= 0")
	}

	// Storage
	if checkStorage {
		switch vault.Platform(c.Storage.Platform) {
		case vault.PlatformMemory, "":
		case vault.PlatformWeb:
			if c.Storage.Path == "" {
				return errors.New("Storage Path is required for the web platform")
			}
		case vault.PlatformNative:
			if c.Storage.Path == "" {
				return errors.New("Storage Path is required for the native platform")
			}
			if c.Storage.Passphrase == "" {
				return errors.New("Storage Passphrase is required for the native platform")
			}
		case vault.PlatformRedis:
			if c.Storage.RedisAddr == "" {
				return errors.New("Storage RedisAddr is required for the redis platform")
			}
			if c.Storage.RedisTTL < 0 {
				return errors.New("Storage RedisTTL must be >= 0")
			}
		default:
			return fmt.Errorf("unsupported storage platform %q", c.Storage.Platform)
		}
	}

	// Routes
	if _, err := c.Routes.navigationRoutes(); err != nil {
		return err
	}

	// Events
	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0 when enabled")
	}

	// Log
	switch logger.LogLevel(c.Log.Level) {
	case "", logger.DebugLevel, logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel, logger.DisabledLevel:
	default:
		return fmt.Errorf("unsupported log level %q", c.Log.Level)
	}

	return nil
}

func (r RoutesConfig) navigationRoutes() (navigation.Routes, error) {
	homes := map[role.Kind]string{
		role.Dean:     r.Dean,
		role.ViceDean: r.ViceDean,
		role.Teacher:  r.Teacher,
		role.Student:  r.Student,
	}
	out := navigation.Routes{
		Login:     r.Login,
		AuthGroup: navigation.ParseLocation(r.Login).Group(),
		Homes:     make(map[role.Kind]navigation.Route, len(homes)),
	}
	for kind, home := range homes {
		if home == "" {
			return navigation.Routes{}, fmt.Errorf("Routes home for %s is required", kind)
		}
		out.Homes[kind] = navigation.Route{
			Home:  home,
			Group: navigation.ParseLocation(home).Group(),
		}
	}
	if err := out.Validate(); err != nil {
		return navigation.Routes{}, err
	}
	return out, nil
}

func (s StorageConfig) vaultConfig() vault.Config {
	return vault.Config{
		Platform:       vault.Platform(s.Platform),
		Path:           s.Path,
		Passphrase:     s.Passphrase,
		KDF:            vault.DefaultKDFConfig(),
		RedisAddr:      s.RedisAddr,
		RedisPassword:  s.RedisPassword,
		RedisDB:        s.RedisDB,
		RedisPrefix:    s.RedisPrefix,
		RedisNamespace: s.RedisNamespace,
		RedisTTL:       s.RedisTTL,
	}
}
