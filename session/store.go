package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MrEthical07/goCampus/api"
	"github.com/MrEthical07/goCampus/internal/logger"
	"github.com/MrEthical07/goCampus/vault"
)

// Hooks observe store outcomes for metrics and event emission. Nil fields are skipped.
// Hooks run synchronously on the calling goroutine.
type Hooks struct {
	// OnLogin reports every login attempt; err is nil on success.
	OnLogin func(id *api.Identity, err error)
	// OnSessionCheck reports every check that reached the backend. err is the reason the
	// session was dropped, or nil when it was confirmed.
	OnSessionCheck func(id *api.Identity, err error, elapsed time.Duration)
	// OnLogout reports a completed logout. implicit is true when it followed a failed check.
	OnLogout func(prev *api.Identity, implicit bool)
	// OnStorageFailure reports a storage error the store recovered from.
	OnStorageFailure func(op, key string, err error)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = logger.OrNop(l) }
}

// WithHooks installs outcome hooks.
func WithHooks(h Hooks) Option {
	return func(s *Store) { s.hooks = h }
}

// Store holds the authenticated identity and the persisted credential record.
//
// Initialize, CheckSession, Login and Logout are serialized so writes to the record never
// interleave. Observers are notified in order on the goroutine that made the change and
// must not call those four methods synchronously.
type Store struct {
	backend Backend
	storage vault.Storage
	log     logger.Logger
	hooks   Hooks

	opMu sync.Mutex

	mu       sync.RWMutex
	status   Status
	identity *api.Identity

	subMu   sync.Mutex
	subs    map[uint64]Observer
	nextSub uint64
}

// NewStore builds a Store over backend and storage.
func NewStore(backend Backend, storage vault.Storage, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		storage: storage,
		log:     logger.NewNop(),
		subs:    make(map[uint64]Observer),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

/*
====================================================================================
READS
====================================================================================
*/

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Status:        s.status,
		Identity:      s.identity.Clone(),
		Authenticated: s.identity != nil,
	}
}

// Token returns the persisted bearer token. ok is false when no token is stored or the
// storage cannot be read.
func (s *Store) Token(ctx context.Context) (string, bool) {
	tok, err := s.storage.Get(ctx, vault.KeyToken)
	if err != nil || tok == "" {
		return "", false
	}
	return tok, true
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

/*
====================================================================================
OPERATIONS
====================================================================================
*/

// Initialize resolves the session at application start. It never fails: an unverifiable
// token leaves the store resolved and unauthenticated.
func (s *Store) Initialize(ctx context.Context) Snapshot {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setStatus(StatusLoading)
	s.notify()

	if _, err := s.checkLocked(ctx); err != nil {
		s.log.Debug("session check interrupted", "error", err)
	}

	s.setStatus(StatusResolved)
	return s.notify()
}

// CheckSession validates the persisted token against the backend. With no token it makes
// no network call. A rejected or unverifiable token signs the user out locally and
// returns a nil identity with a nil error. Either way the store ends resolved. The only
// error returned is ctx's, in which case the record and status are left as they were.
func (s *Store) CheckSession(ctx context.Context) (*api.Identity, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	id, err := s.checkLocked(ctx)
	if err == nil {
		s.setStatus(StatusResolved)
	}
	s.notify()
	return id, err
}

func (s *Store) checkLocked(ctx context.Context) (*api.Identity, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	token, err := s.storage.Get(ctx, vault.KeyToken)
	switch {
	case errors.Is(err, vault.ErrNotFound) || (err == nil && token == ""):
		s.adopt(nil)
		return nil, nil
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.adopt(nil)
			return nil, ctxErr
		}
		s.storageFailure("get", vault.KeyToken, err)
		s.logoutLocked(ctx, true)
		return nil, nil
	}

	start := time.Now()
	id, err := s.backend.Me(ctx, token)
	elapsed := time.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.adopt(nil)
			return nil, ctxErr
		}
		s.log.Info("session check failed, signing out", "error", err)
		if s.hooks.OnSessionCheck != nil {
			s.hooks.OnSessionCheck(nil, err, elapsed)
		}
		s.logoutLocked(ctx, true)
		return nil, nil
	}

	if data, err := json.Marshal(id); err == nil {
		if err := s.storage.Set(ctx, vault.KeyUserData, string(data)); err != nil {
			s.storageFailure("set", vault.KeyUserData, err)
		}
	}
	s.adopt(id)
	if s.hooks.OnSessionCheck != nil {
		s.hooks.OnSessionCheck(id.Clone(), nil, elapsed)
	}
	s.log.Debug("session confirmed", "user_id", id.ID, "role", id.Role)
	return id.Clone(), nil
}

// Login submits credentials once. On success the token and identity snapshot are
// persisted, the identity is adopted and the server reply is returned unchanged. On
// failure it returns a *LoginError and leaves state and storage untouched. If the reply
// cannot be persisted, the keys already written are restored to their previous values,
// the current identity is kept and ErrStorageUnavailable is returned.
func (s *Store) Login(ctx context.Context, creds api.Credentials) (*api.LoginResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()

	resp, err := s.backend.Login(ctx, creds)
	if err != nil {
		lerr := toLoginError(err)
		s.reportLogin(nil, lerr)
		return nil, lerr
	}
	if resp.Token() == "" {
		lerr := &LoginError{Message: fallbackMessage(resp.Raw), Status: 200}
		s.reportLogin(nil, lerr)
		return nil, lerr
	}
	if resp.User == nil || resp.User.ID == "" {
		lerr := &LoginError{Message: api.LoginFallbackMessage, Status: 200, Err: api.ErrMalformedResponse}
		s.reportLogin(nil, lerr)
		return nil, lerr
	}

	if err := s.persist(ctx, resp); err != nil {
		s.reportLogin(nil, err)
		s.notify()
		return nil, err
	}

	s.adopt(resp.User)
	s.setStatus(StatusResolved)
	s.reportLogin(resp.User.Clone(), nil)
	s.log.Info("signed in", "user_id", resp.User.ID, "role", resp.User.Role)
	s.notify()
	return resp, nil
}

func (s *Store) persist(ctx context.Context, resp *api.LoginResponse) error {
	data, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("%w: encode identity: %v", ErrStorageUnavailable, err)
	}
	entries := []struct{ key, value string }{
		{vault.KeyToken, resp.Token()},
		{vault.KeyUserData, string(data)},
	}

	var written []priorValue
	for _, e := range entries {
		prev := s.readPrior(ctx, e.key)
		if err := s.storage.Set(ctx, e.key, e.value); err != nil {
			s.storageFailure("set", e.key, err)
			s.restore(ctx, written)
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		written = append(written, prev)
	}
	return nil
}

// priorValue is a key's content before a write; present is false when it was absent.
type priorValue struct {
	key     string
	value   string
	present bool
}

func (s *Store) readPrior(ctx context.Context, key string) priorValue {
	v, err := s.storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, vault.ErrNotFound) {
			s.storageFailure("get", key, err)
		}
		return priorValue{key: key}
	}
	return priorValue{key: key, value: v, present: true}
}

// restore puts written keys back so token and userData never disagree.
func (s *Store) restore(ctx context.Context, written []priorValue) {
	ctx = context.WithoutCancel(ctx)
	for i := len(written) - 1; i >= 0; i-- {
		p := written[i]
		if p.present {
			if err := s.storage.Set(ctx, p.key, p.value); err != nil {
				s.storageFailure("set", p.key, err)
			}
			continue
		}
		if err := s.storage.Delete(ctx, p.key); err != nil {
			s.storageFailure("delete", p.key, err)
		}
	}
}

// Logout deletes the credential record and clears the identity. Storage failures are
// logged and otherwise ignored; no backend call is made.
func (s *Store) Logout(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.logoutLocked(ctx, false)
	s.notify()
}

func (s *Store) logoutLocked(ctx context.Context, implicit bool) {
	s.deleteRecord(ctx)

	s.mu.Lock()
	prev := s.identity
	s.identity = nil
	s.status = StatusResolved
	s.mu.Unlock()

	if s.hooks.OnLogout != nil {
		s.hooks.OnLogout(prev.Clone(), implicit)
	}
}

func (s *Store) deleteRecord(ctx context.Context) {
	for _, key := range []string{vault.KeyToken, vault.KeyUserData} {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.storageFailure("delete", key, err)
		}
	}
}

/*
====================================================================================
INTERNALS
====================================================================================
*/

func (s *Store) adopt(id *api.Identity) {
	s.mu.Lock()
	s.identity = id.Clone()
	s.mu.Unlock()
}

func (s *Store) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func (s *Store) notify() Snapshot {
	snap := s.Snapshot()
	s.subMu.Lock()
	observers := make([]Observer, 0, len(s.subs))
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		observers = append(observers, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
	return snap
}

func (s *Store) storageFailure(op, key string, err error) {
	s.log.Warn("credential storage failure", "op", op, "key", key, "error", err)
	if s.hooks.OnStorageFailure != nil {
		s.hooks.OnStorageFailure(op, key, err)
	}
}

func (s *Store) reportLogin(id *api.Identity, err error) {
	if err != nil {
		s.log.Info("login failed", "error", err)
	}
	if s.hooks.OnLogin != nil {
		s.hooks.OnLogin(id, err)
	}
}

func toLoginError(err error) *LoginError {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return &LoginError{Message: apiErr.Message, Status: apiErr.Status, Err: err}
	}
	return &LoginError{Message: api.LoginFallbackMessage, Err: err}
}

func fallbackMessage(raw []byte) string {
	if msg := api.ServerMessage(raw); msg != "" {
		return msg
	}
	return api.LoginFallbackMessage
}
