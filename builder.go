package goCampus

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/MrEthical07/goCampus/api"
	"github.com/MrEthical07/goCampus/internal/events"
	"github.com/MrEthical07/goCampus/internal/logger"
	"github.com/MrEthical07/goCampus/navigation"
	"github.com/MrEthical07/goCampus/role"
	"github.com/MrEthical07/goCampus/session"
	"github.com/MrEthical07/goCampus/vault"
)

// UnknownRoleHandler is called once each time the session enters the unknown-role state.
type UnknownRoleHandler = navigation.UnknownRoleHandler

// Builder assembles an Engine.
//
// Builder instances are intended to be configured during initialization and then used
// for a single Build call.
type Builder struct {
	config Config

	storage   vault.Storage
	backend   session.Backend
	router    Router
	log       Logger
	eventSink EventSink
	registry  *role.Registry
	onUnknown UnknownRoleHandler

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage sets the credential storage. Without it Build opens the storage named by
// Config.Storage; a supplied storage is never closed by the Engine.
func (b *Builder) WithStorage(s vault.Storage) *Builder {
	b.storage = s
	return b
}

// WithBackend replaces the REST client as the login and session-check backend.
func (b *Builder) WithBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

// WithRouter sets the router redirects are applied to. It is required.
func (b *Builder) WithRouter(r Router) *Builder {
	b.router = r
	return b
}

// WithLogger sets the logger. Without it one is built from Config.Log.
func (b *Builder) WithLogger(l Logger) *Builder {
	b.log = l
	return b
}

// WithEventSink sets the sink for session events and enables delivery.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	b.config.Events.Enabled = sink != nil
	return b
}

// WithRoleRegistry replaces the default role registry.
func (b *Builder) WithRoleRegistry(r *role.Registry) *Builder {
	b.registry = r
	return b
}

// WithUnknownRoleHandler installs a callback for unrecognized roles.
func (b *Builder) WithUnknownRoleHandler(h UnknownRoleHandler) *Builder {
	b.onUnknown = h
	return b
}

// WithMetricsEnabled toggles counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the session check histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine. A Builder can be built once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.router == nil {
		return nil, ErrRouterRequired
	}
	hasBaseURL := strings.TrimSpace(cfg.API.BaseURL) != ""
	if b.backend == nil && !hasBaseURL {
		return nil, ErrBackendRequired
	}
	if err := cfg.validate(b.storage == nil, false); err != nil {
		return nil, err
	}

	log := b.log
	if log == nil {
		log = logger.NewLogger(&logger.Config{
			Level:      logger.LogLevel(cfg.Log.Level),
			Output:     os.Stderr,
			JSON:       cfg.Log.JSON,
			TimeFormat: "15:04:05",
		})
	}

	engine := &Engine{
		config:  cloneConfig(cfg),
		log:     log,
		metrics: NewMetrics(cfg.Metrics),
	}

	// -------- STORAGE --------
	storage := b.storage
	if storage == nil {
		s, err := vault.Open(context.Background(), cfg.Storage.vaultConfig())
		if err != nil {
			return nil, err
		}
		storage = s
		engine.ownsStorage = true
	}
	engine.storage = storage

	// -------- API CLIENT --------
	backend := b.backend
	if hasBaseURL {
		client, err := api.New(api.Config{
			BaseURL:    cfg.API.BaseURL,
			Timeout:    cfg.API.Timeout,
			RetryCount: cfg.API.RetryCount,
			RetryWait:  cfg.API.RetryWait,
			UserAgent:  cfg.API.UserAgent,
			Debug:      cfg.API.Debug,
		},
			api.WithLogger(log.With("component", "api")),
			api.WithTokenSource(api.TokenSourceFunc(engine.token)),
		)
		if err != nil {
			engine.closeStorage()
			return nil, err
		}
		engine.client = client
		if backend == nil {
			backend = client
		}
	}

	// -------- GUARD --------
	routes, err := cfg.Routes.navigationRoutes()
	if err != nil {
		engine.closeStorage()
		return nil, err
	}
	guard, err := navigation.NewGuard(b.registry, routes)
	if err != nil {
		engine.closeStorage()
		return nil, err
	}
	engine.guard = guard

	// -------- EVENTS --------
	engine.events = events.NewDispatcher(events.Config{
		Enabled:    cfg.Events.Enabled,
		BufferSize: cfg.Events.BufferSize,
		DropIfFull: cfg.Events.DropIfFull,
	}, b.eventSink)

	// -------- SESSION STORE --------
	engine.store = session.NewStore(backend, storage,
		session.WithLogger(log.With("component", "session")),
		session.WithHooks(engine.sessionHooks()),
	)

	// -------- NAVIGATOR --------
	onUnknown := b.onUnknown
	nav, err := navigation.NewNavigator(guard, b.router,
		navigation.WithNavigatorLogger(log.With("component", "navigation")),
		navigation.WithRedirectHook(engine.onRedirect),
		navigation.WithUnknownRoleHandler(func(ctx context.Context, raw string, err error) {
			engine.onUnknownRole(ctx, raw, err)
			if onUnknown != nil {
				onUnknown(ctx, raw, err)
			}
		}),
	)
	if err != nil {
		engine.events.Close()
		engine.closeStorage()
		return nil, err
	}
	engine.nav = nav
	engine.unsubscribe = engine.store.Subscribe(engine.onSession)
	engine.onSession(engine.store.Snapshot())

	b.built = true

	return engine, nil
}
