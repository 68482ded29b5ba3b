package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goCampus/api"
	"github.com/MrEthical07/goCampus/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	users    map[string]*api.Identity
	loginFn  func(api.Credentials) (*api.LoginResponse, error)
	meCalls  atomic.Int32
	logCalls atomic.Int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{users: map[string]*api.Identity{}}
}

func (f *fakeBackend) addToken(token string, id *api.Identity) {
	f.mu.Lock()
	f.users[token] = id
	f.mu.Unlock()
}

func (f *fakeBackend) Login(ctx context.Context, creds api.Credentials) (*api.LoginResponse, error) {
	f.logCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.loginFn(creds)
}

func (f *fakeBackend) Me(ctx context.Context, token string) (*api.Identity, error) {
	f.meCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.users[token]
	if !ok {
		return nil, &api.APIError{Status: http.StatusUnauthorized, Path: "/api/auth/me", Message: "Invalid session"}
	}
	return id.Clone(), nil
}

func loginOK(token string, id *api.Identity) func(api.Credentials) (*api.LoginResponse, error) {
	return func(api.Credentials) (*api.LoginResponse, error) {
		raw, _ := json.Marshal(map[string]any{"user": id, "session": map[string]string{"access_token": token}})
		return &api.LoginResponse{User: id.Clone(), Session: &api.SessionToken{AccessToken: token}, Raw: raw}, nil
	}
}

// faultyStorage fails the configured operations and delegates the rest.
type faultyStorage struct {
	*vault.Memory
	failSet    map[string]bool
	failDelete map[string]bool
	deletes    []string
}

func newFaultyStorage() *faultyStorage {
	return &faultyStorage{Memory: vault.NewMemory(), failSet: map[string]bool{}, failDelete: map[string]bool{}}
}

func (f *faultyStorage) Set(ctx context.Context, key, value string) error {
	if f.failSet[key] {
		return errors.New("disk full")
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *faultyStorage) Delete(ctx context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	if f.failDelete[key] {
		return errors.New("read-only filesystem")
	}
	return f.Memory.Delete(ctx, key)
}

var dean = &api.Identity{ID: "u-1", FullName: "Айгерим Сапарова", Email: "dean@uni.kz", Role: "  Декан "}

func TestInitialize(t *testing.T) {
	t.Run("Should resolve unauthenticated without a network call when no token is stored", func(t *testing.T) {
		backend := newFakeBackend()
		store := NewStore(backend, vault.NewMemory())

		var seen []Status
		store.Subscribe(func(s Snapshot) { seen = append(seen, s.Status) })

		snap := store.Initialize(context.Background())
		assert.Equal(t, StatusResolved, snap.Status)
		assert.False(t, snap.Authenticated)
		assert.Nil(t, snap.Identity)
		assert.Equal(t, int32(0), backend.meCalls.Load())
		assert.Equal(t, []Status{StatusLoading, StatusResolved}, seen)
	})

	t.Run("Should adopt the identity confirmed by the backend", func(t *testing.T) {
		backend := newFakeBackend()
		backend.addToken("tok-1", dean)
		storage := vault.NewMemory()
		ctx := context.Background()
		require.NoError(t, storage.Set(ctx, vault.KeyToken, "tok-1"))
		require.NoError(t, storage.Set(ctx, vault.KeyUserData, `{"id":"stale"}`))

		store := NewStore(backend, storage)
		snap := store.Initialize(ctx)

		assert.True(t, snap.Authenticated)
		assert.Equal(t, dean, snap.Identity)
		assert.Equal(t, int32(1), backend.meCalls.Load())

		data, err := storage.Get(ctx, vault.KeyUserData)
		require.NoError(t, err)
		var cached api.Identity
		require.NoError(t, json.Unmarshal([]byte(data), &cached))
		assert.Equal(t, "u-1", cached.ID)
	})

	t.Run("Should sign out silently when the token is rejected", func(t *testing.T) {
		backend := newFakeBackend()
		storage := vault.NewMemory()
		ctx := context.Background()
		require.NoError(t, storage.Set(ctx, vault.KeyToken, "stale"))
		require.NoError(t, storage.Set(ctx, vault.KeyUserData, `{"id":"u-1"}`))

		var implicit bool
		store := NewStore(backend, storage, WithHooks(Hooks{
			OnLogout: func(_ *api.Identity, i bool) { implicit = i },
		}))
		snap := store.Initialize(ctx)

		assert.Equal(t, StatusResolved, snap.Status)
		assert.False(t, snap.Authenticated)
		assert.Equal(t, int32(1), backend.meCalls.Load())
		assert.True(t, implicit)
		assert.Equal(t, 0, storage.Len())
	})

	t.Run("Should keep the record when the check is cancelled", func(t *testing.T) {
		backend := newFakeBackend()
		backend.addToken("tok-1", dean)
		storage := vault.NewMemory()
		require.NoError(t, storage.Set(context.Background(), vault.KeyToken, "tok-1"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		store := NewStore(backend, storage)
		id, err := store.CheckSession(ctx)

		assert.Nil(t, id)
		assert.ErrorIs(t, err, context.Canceled)
		tok, ok := store.Token(context.Background())
		assert.True(t, ok)
		assert.Equal(t, "tok-1", tok)
	})
}

func TestLogin(t *testing.T) {
	t.Run("Should persist the record and return the reply verbatim", func(t *testing.T) {
		backend := newFakeBackend()
		backend.loginFn = loginOK("tok-9", dean)
		storage := vault.NewMemory()
		ctx := context.Background()

		var last Snapshot
		store := NewStore(backend, storage)
		store.Subscribe(func(s Snapshot) { last = s })

		resp, err := store.Login(ctx, api.Credentials{Email: "dean@uni.kz", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "tok-9", resp.Token())
		assert.Contains(t, string(resp.Raw), `"access_token":"tok-9"`)

		tok, err := storage.Get(ctx, vault.KeyToken)
		require.NoError(t, err)
		assert.Equal(t, "tok-9", tok)
		data, err := storage.Get(ctx, vault.KeyUserData)
		require.NoError(t, err)
		assert.Contains(t, data, `"full_name":"Айгерим Сапарова"`)

		assert.True(t, last.Authenticated)
		assert.Equal(t, StatusResolved, last.Status)
		assert.Equal(t, "  Декан ", last.Role())
	})

	t.Run("Should surface the server message and leave state untouched", func(t *testing.T) {
		backend := newFakeBackend()
		backend.loginFn = func(api.Credentials) (*api.LoginResponse, error) {
			return nil, &api.APIError{Status: http.StatusUnauthorized, Path: "/api/login", Message: "Неверный email или пароль"}
		}
		storage := vault.NewMemory()
		store := NewStore(backend, storage)

		_, err := store.Login(context.Background(), api.Credentials{Email: "x@uni.kz"})
		var lerr *LoginError
		require.ErrorAs(t, err, &lerr)
		assert.ErrorIs(t, err, ErrLoginRejected)
		assert.Equal(t, "Неверный email или пароль", lerr.Message)
		assert.Equal(t, http.StatusUnauthorized, lerr.Status)
		assert.Equal(t, 0, storage.Len())
		assert.False(t, store.Snapshot().Authenticated)
	})

	t.Run("Should use the fallback message for transport failures", func(t *testing.T) {
		backend := newFakeBackend()
		cause := errors.New("connection refused")
		backend.loginFn = func(api.Credentials) (*api.LoginResponse, error) { return nil, cause }
		store := NewStore(backend, vault.NewMemory())

		_, err := store.Login(context.Background(), api.Credentials{})
		var lerr *LoginError
		require.ErrorAs(t, err, &lerr)
		assert.Equal(t, "Ошибка входа", lerr.Message)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Should reject a reply without a session", func(t *testing.T) {
		backend := newFakeBackend()
		backend.loginFn = func(api.Credentials) (*api.LoginResponse, error) {
			return &api.LoginResponse{User: dean.Clone(), Raw: json.RawMessage(`{"user":{"id":"u-1"}}`)}, nil
		}
		storage := vault.NewMemory()
		store := NewStore(backend, storage)

		_, err := store.Login(context.Background(), api.Credentials{})
		assert.ErrorIs(t, err, ErrLoginRejected)
		assert.Equal(t, 0, storage.Len())
		assert.False(t, store.Snapshot().Authenticated)
	})

	t.Run("Should keep the previous session after a rejected login", func(t *testing.T) {
		backend := newFakeBackend()
		backend.loginFn = loginOK("tok-1", dean)
		storage := vault.NewMemory()
		store := NewStore(backend, storage)
		ctx := context.Background()
		_, err := store.Login(ctx, api.Credentials{})
		require.NoError(t, err)

		backend.loginFn = func(api.Credentials) (*api.LoginResponse, error) {
			return nil, &api.APIError{Status: http.StatusBadRequest, Message: "bad"}
		}
		_, err = store.Login(ctx, api.Credentials{})
		require.Error(t, err)

		assert.True(t, store.Snapshot().Authenticated)
		tok, ok := store.Token(ctx)
		assert.True(t, ok)
		assert.Equal(t, "tok-1", tok)
	})

	t.Run("Should leave no partial record when the first login cannot be written", func(t *testing.T) {
		backend := newFakeBackend()
		backend.loginFn = loginOK("tok-1", dean)
		storage := newFaultyStorage()
		storage.failSet[vault.KeyUserData] = true

		var failures []string
		store := NewStore(backend, storage, WithHooks(Hooks{
			OnStorageFailure: func(op, key string, _ error) { failures = append(failures, op+":"+key) },
		}))
		_, err := store.Login(context.Background(), api.Credentials{})

		assert.ErrorIs(t, err, ErrStorageUnavailable)
		assert.Equal(t, 0, storage.Len())
		assert.False(t, store.Snapshot().Authenticated)
		assert.Equal(t, []string{"set:userData"}, failures)
	})

	t.Run("Should keep the previous session when a new login cannot be written", func(t *testing.T) {
		backend := newFakeBackend()
		backend.loginFn = loginOK("tok-1", dean)
		storage := newFaultyStorage()
		store := NewStore(backend, storage)
		ctx := context.Background()
		_, err := store.Login(ctx, api.Credentials{})
		require.NoError(t, err)
		prevData, err := storage.Get(ctx, vault.KeyUserData)
		require.NoError(t, err)

		other := &api.Identity{ID: "u-2", FullName: "Олег Смирнов", Role: "Преподаватель (лектор)"}
		backend.loginFn = loginOK("tok-2", other)
		storage.failSet[vault.KeyUserData] = true
		_, err = store.Login(ctx, api.Credentials{})
		require.ErrorIs(t, err, ErrStorageUnavailable)

		snap := store.Snapshot()
		assert.True(t, snap.Authenticated)
		assert.Equal(t, "u-1", snap.Identity.ID)
		tok, ok := store.Token(ctx)
		assert.True(t, ok)
		assert.Equal(t, "tok-1", tok)
		data, err := storage.Get(ctx, vault.KeyUserData)
		require.NoError(t, err)
		assert.Equal(t, prevData, data)
		assert.Empty(t, storage.deletes)
	})
}

func TestCheckSessionResolvesWithoutInitialize(t *testing.T) {
	t.Run("Should resolve the status when called first", func(t *testing.T) {
		backend := newFakeBackend()
		backend.addToken("tok-1", dean)
		storage := vault.NewMemory()
		require.NoError(t, storage.Set(context.Background(), vault.KeyToken, "tok-1"))
		store := NewStore(backend, storage)

		id, err := store.CheckSession(context.Background())
		require.NoError(t, err)
		require.NotNil(t, id)

		snap := store.Snapshot()
		assert.Equal(t, StatusResolved, snap.Status)
		assert.False(t, snap.Loading())
		assert.True(t, snap.Authenticated)
	})

	t.Run("Should resolve unauthenticated without a token", func(t *testing.T) {
		store := NewStore(newFakeBackend(), vault.NewMemory())
		_, err := store.CheckSession(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusResolved, store.Snapshot().Status)
	})

	t.Run("Should leave the status alone when cancelled", func(t *testing.T) {
		backend := newFakeBackend()
		backend.addToken("tok-1", dean)
		storage := vault.NewMemory()
		require.NoError(t, storage.Set(context.Background(), vault.KeyToken, "tok-1"))
		store := NewStore(backend, storage)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := store.CheckSession(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StatusUninitialized, store.Snapshot().Status)
	})
}

func TestLogout(t *testing.T) {
	t.Run("Should clear identity even when deletes fail", func(t *testing.T) {
		backend := newFakeBackend()
		backend.loginFn = loginOK("tok-1", dean)
		storage := newFaultyStorage()
		store := NewStore(backend, storage)
		ctx := context.Background()
		_, err := store.Login(ctx, api.Credentials{})
		require.NoError(t, err)

		storage.failDelete[vault.KeyToken] = true
		store.Logout(ctx)

		snap := store.Snapshot()
		assert.False(t, snap.Authenticated)
		assert.Equal(t, StatusResolved, snap.Status)
		assert.Equal(t, []string{vault.KeyToken, vault.KeyUserData}, storage.deletes)
		_, err = storage.Get(ctx, vault.KeyUserData)
		assert.ErrorIs(t, err, vault.ErrNotFound)
	})

	t.Run("Should not call the backend", func(t *testing.T) {
		backend := newFakeBackend()
		store := NewStore(backend, vault.NewMemory())
		store.Logout(context.Background())
		assert.Equal(t, int32(0), backend.meCalls.Load())
		assert.Equal(t, int32(0), backend.logCalls.Load())
	})
}

func TestSubscribe(t *testing.T) {
	store := NewStore(newFakeBackend(), vault.NewMemory())
	var calls atomic.Int32
	unsubscribe := store.Subscribe(func(Snapshot) { calls.Add(1) })

	store.Logout(context.Background())
	unsubscribe()
	unsubscribe()
	store.Logout(context.Background())

	assert.Equal(t, int32(1), calls.Load())
}

func TestSnapshotIsACopy(t *testing.T) {
	backend := newFakeBackend()
	backend.loginFn = loginOK("tok-1", dean)
	store := NewStore(backend, vault.NewMemory())
	_, err := store.Login(context.Background(), api.Credentials{})
	require.NoError(t, err)

	snap := store.Snapshot()
	snap.Identity.Role = "студент"
	assert.Equal(t, "  Декан ", store.Snapshot().Role())
}

func TestConcurrentOperationsKeepRecordConsistent(t *testing.T) {
	backend := newFakeBackend()
	backend.loginFn = loginOK("tok-1", dean)
	backend.addToken("tok-1", dean)
	storage := vault.NewMemory()
	store := NewStore(backend, storage)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_, _ = store.Login(ctx, api.Credentials{})
			case 1:
				store.Logout(ctx)
			default:
				_, _ = store.CheckSession(ctx)
			}
		}(i)
	}
	wg.Wait()

	_, tokErr := storage.Get(ctx, vault.KeyToken)
	_, dataErr := storage.Get(ctx, vault.KeyUserData)
	authenticated := store.Snapshot().Authenticated
	assert.Equal(t, tokErr == nil, dataErr == nil, "token and userData must exist together")
	assert.Equal(t, tokErr == nil, authenticated, "record must exist iff authenticated")
}

func TestHooksReportSessionCheckLatency(t *testing.T) {
	backend := newFakeBackend()
	backend.addToken("tok-1", dean)
	storage := vault.NewMemory()
	require.NoError(t, storage.Set(context.Background(), vault.KeyToken, "tok-1"))

	var elapsed time.Duration = -1
	store := NewStore(backend, storage, WithHooks(Hooks{
		OnSessionCheck: func(_ *api.Identity, err error, d time.Duration) {
			assert.NoError(t, err)
			elapsed = d
		},
	}))
	store.Initialize(context.Background())
	assert.GreaterOrEqual(t, elapsed, time.Duration(0))
}
