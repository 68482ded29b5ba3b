package goCampus

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goCampus/api"
	"github.com/MrEthical07/goCampus/internal/events"
	"github.com/MrEthical07/goCampus/navigation"
	"github.com/MrEthical07/goCampus/session"
	"github.com/MrEthical07/goCampus/vault"
)

// Engine ties the session store, the navigation guard and the REST client together.
//
// Start, CheckSession, Login and Logout are serialized. Navigate and RouterReady may be
// called from the router at any time, including from inside Router.Replace.
type Engine struct {
	config  Config
	log     Logger
	store   *session.Store
	client  *api.Client
	guard   *navigation.Guard
	nav     *navigation.Navigator
	metrics *Metrics
	events  *events.Dispatcher

	storage     vault.Storage
	ownsStorage bool
	unsubscribe func()

	opMu  sync.Mutex
	ctxMu sync.RWMutex
	opCtx context.Context

	closeOnce sync.Once
	closed    atomic.Bool
}

/*
====================================================================================
LIFECYCLE
====================================================================================
*/

// Start resolves the persisted session and applies the first navigation decision. It
// never fails because of an invalid token; the only errors are ctx's and the router's.
func (e *Engine) Start(ctx context.Context) (SessionSnapshot, error) {
	if e.unusable() {
		return SessionSnapshot{}, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	release := e.enter(ctx)
	snap := e.store.Initialize(ctx)
	release()

	if _, err := e.nav.OnSession(ctx, snap); err != nil && !errors.Is(err, ErrUnknownRole) {
		return snap, err
	}
	return snap, ctx.Err()
}

// Close unsubscribes the navigator, drains pending events and closes storage the
// Engine opened itself.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		e.closed.Store(true)

		if e.unsubscribe != nil {
			e.unsubscribe()
		}
		if e.events != nil {
			e.events.Close()
		}
		e.closeStorage()
	})
}

func (e *Engine) closeStorage() {
	if !e.ownsStorage {
		return
	}
	if c, ok := e.storage.(io.Closer); ok {
		if err := c.Close(); err != nil {
			e.log.Warn("close credential storage", "error", err)
		}
	}
}

func (e *Engine) unusable() bool {
	return e == nil || e.store == nil || e.closed.Load()
}

// enter serializes a store operation and exposes ctx to the hooks it triggers.
func (e *Engine) enter(ctx context.Context) (release func()) {
	e.opMu.Lock()
	e.ctxMu.Lock()
	e.opCtx = ctx
	e.ctxMu.Unlock()
	return func() {
		e.ctxMu.Lock()
		e.opCtx = nil
		e.ctxMu.Unlock()
		e.opMu.Unlock()
	}
}

func (e *Engine) hookContext() context.Context {
	e.ctxMu.RLock()
	defer e.ctxMu.RUnlock()
	if e.opCtx == nil {
		return context.Background()
	}
	return e.opCtx
}

/*
====================================================================================
SESSION
====================================================================================
*/

// Snapshot returns the current session state.
func (e *Engine) Snapshot() SessionSnapshot {
	if e == nil || e.store == nil {
		return SessionSnapshot{}
	}
	return e.store.Snapshot()
}

// CheckSession re-validates the persisted token. A rejected token signs the user out
// and returns a nil identity without error.
func (e *Engine) CheckSession(ctx context.Context) (*Identity, error) {
	if e.unusable() {
		return nil, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}
	release := e.enter(ctx)
	defer release()
	return e.store.CheckSession(ctx)
}

// Login signs in with creds. Failures are *LoginError values carrying the message to
// show; the previous session, if any, is kept.
func (e *Engine) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	if e.unusable() {
		return nil, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}
	release := e.enter(ctx)
	defer release()
	return e.store.Login(ctx, creds)
}

// Logout clears the credential record locally. The backend is not contacted.
func (e *Engine) Logout(ctx context.Context) {
	if e.unusable() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	release := e.enter(ctx)
	defer release()
	e.store.Logout(ctx)
}

/*
====================================================================================
NAVIGATION
====================================================================================
*/

// Navigate reports that the router now shows path and applies the resulting decision.
func (e *Engine) Navigate(ctx context.Context, path string) (Decision, error) {
	if e == nil || e.nav == nil {
		return Decision{}, ErrEngineNotReady
	}
	return e.nav.OnLocation(ctx, navigation.ParseLocation(path))
}

// RouterReady reports that the router is mounted and may accept redirects.
func (e *Engine) RouterReady(ctx context.Context) (Decision, error) {
	if e == nil || e.nav == nil {
		return Decision{}, ErrEngineNotReady
	}
	return e.nav.OnRouterReady(ctx)
}

// Decide evaluates the guard for path against the current session without touching the
// router.
func (e *Engine) Decide(path string) (Decision, error) {
	if e == nil || e.guard == nil {
		return Decision{}, ErrEngineNotReady
	}
	snap := e.store.Snapshot()
	return e.guard.Evaluate(navigation.Input{
		RouterReady:   true,
		Loading:       snap.Loading(),
		Authenticated: snap.Authenticated,
		Role:          snap.Role(),
		Location:      navigation.ParseLocation(path),
	})
}

// Guard returns the navigation guard.
func (e *Engine) Guard() *navigation.Guard {
	if e == nil {
		return nil
	}
	return e.guard
}

// API returns the REST client, or nil when no base URL was configured. Calls made
// through it carry the persisted token.
func (e *Engine) API() *api.Client {
	if e == nil {
		return nil
	}
	return e.client
}

/*
====================================================================================
PUSH
====================================================================================
*/

// RegisterPushToken sends the device push token to the backend. It is skipped without a
// session and failures are only logged.
func (e *Engine) RegisterPushToken(ctx context.Context, pushToken string) {
	if e == nil || e.client == nil || pushToken == "" {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	snap := e.store.Snapshot()
	if !snap.Authenticated {
		e.log.Debug("push token registration skipped, no session")
		return
	}
	if _, err := e.client.RegisterPushToken(ctx, pushToken); err != nil {
		if errors.Is(err, ErrAuthRequired) {
			e.log.Debug("push token registration skipped, no token")
			return
		}
		e.log.Warn("push token registration failed", "error", err)
		e.emitEvent(ctx, EventPushRegistered, false, snap.Identity, err, nil)
		return
	}
	e.metricInc(MetricPushRegistered)
	e.emitEvent(ctx, EventPushRegistered, true, snap.Identity, nil, nil)
}

/*
====================================================================================
OBSERVABILITY
====================================================================================
*/

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// EventsDropped returns how many session events were discarded.
func (e *Engine) EventsDropped() uint64 {
	if e == nil || e.events == nil {
		return 0
	}
	return e.events.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) token(ctx context.Context) (string, bool) {
	if e.store == nil {
		return "", false
	}
	return e.store.Token(ctx)
}

/*
====================================================================================
WIRING
====================================================================================
*/

func (e *Engine) onSession(snap SessionSnapshot) {
	ctx := e.hookContext()
	if _, err := e.nav.OnSession(ctx, snap); err != nil && !errors.Is(err, ErrUnknownRole) {
		e.log.Warn("apply navigation decision", "error", err)
	}
}

func (e *Engine) onRedirect(from Location, d Decision) {
	e.metricInc(MetricRedirect)
	e.emitEvent(context.Background(), EventRedirect, true, nil, nil, func() map[string]string {
		return map[string]string{
			"from":  from.String(),
			"to":    d.Target,
			"state": d.State.String(),
		}
	})
}

func (e *Engine) onUnknownRole(ctx context.Context, raw string, err error) {
	e.metricInc(MetricUnknownRole)
	e.emitEvent(context.WithoutCancel(ctx), EventUnknownRole, false, &Identity{Role: raw}, err, nil)
}

func (e *Engine) sessionHooks() session.Hooks {
	return session.Hooks{
		OnLogin: func(id *api.Identity, err error) {
			ctx := context.WithoutCancel(e.hookContext())
			if err != nil {
				e.metricInc(MetricLoginFailure)
				e.emitEvent(ctx, EventLoginFailure, false, nil, err, nil)
				return
			}
			e.metricInc(MetricLoginSuccess)
			e.emitEvent(ctx, EventLoginSuccess, true, id, nil, nil)
		},
		OnSessionCheck: func(id *api.Identity, err error, elapsed time.Duration) {
			ctx := context.WithoutCancel(e.hookContext())
			e.metrics.Observe(MetricSessionCheckLatency, elapsed)
			latency := func() map[string]string {
				return map[string]string{"latency_ms": strconv.FormatInt(elapsed.Milliseconds(), 10)}
			}
			if err != nil {
				e.metricInc(MetricSessionCheckFailure)
				e.emitEvent(ctx, EventSessionDropped, false, nil, err, latency)
				return
			}
			e.metricInc(MetricSessionCheckSuccess)
			e.emitEvent(ctx, EventSessionConfirmed, true, id, nil, latency)
		},
		OnLogout: func(prev *api.Identity, implicit bool) {
			ctx := context.WithoutCancel(e.hookContext())
			e.metricInc(MetricLogout)
			e.emitEvent(ctx, EventLogout, true, prev, nil, func() map[string]string {
				return map[string]string{"implicit": strconv.FormatBool(implicit)}
			})
		},
		OnStorageFailure: func(op, key string, err error) {
			ctx := context.WithoutCancel(e.hookContext())
			e.metricInc(MetricStorageFailure)
			e.emitEvent(ctx, EventStorageFailure, false, nil, err, func() map[string]string {
				return map[string]string{"op": op, "key": key}
			})
		},
	}
}
