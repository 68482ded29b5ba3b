package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	goCampus "github.com/MrEthical07/goCampus"
	"github.com/MrEthical07/goCampus/internal/logger"
	"github.com/MrEthical07/goCampus/internal/settings"
	"github.com/MrEthical07/goCampus/vault"
)

// terminalRouter stands in for a screen router: it only remembers where the guard sent
// the user.
type terminalRouter struct {
	mu   sync.Mutex
	path string
}

func (r *terminalRouter) Replace(_ context.Context, path string) error {
	r.mu.Lock()
	r.path = path
	r.mu.Unlock()
	return nil
}

func (r *terminalRouter) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// app holds what every command needs once settings are loaded.
type app struct {
	opts     settings.Options
	settings *settings.Settings
	log      logger.Logger

	storage vault.Storage
	engine  *goCampus.Engine
	router  *terminalRouter
}

func (a *app) load() error {
	s, err := settings.Load(a.opts)
	if err != nil {
		return err
	}
	a.settings = s
	a.log = logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(s.Log.Level),
		Output:     os.Stderr,
		JSON:       s.Log.JSON,
		TimeFormat: "15:04:05",
	})
	return nil
}

// open builds and starts the engine at "/" with the router mounted, so a resolved
// session is immediately redirected home.
func (a *app) open(ctx context.Context) error {
	if a.engine != nil {
		return nil
	}
	storage, err := vault.Open(ctx, a.settings.Vault())
	if err != nil {
		return fmt.Errorf("open session storage: %w", err)
	}
	router := &terminalRouter{}
	engine, err := goCampus.New().
		WithConfig(a.settings.Engine()).
		WithStorage(storage).
		WithRouter(router).
		WithLogger(a.log).
		WithUnknownRoleHandler(func(_ context.Context, raw string, _ error) {
			a.log.Warn("signed in with a role that has no home screen", "role", raw)
		}).
		Build()
	if err != nil {
		closeStorage(storage)
		return err
	}
	a.storage, a.engine, a.router = storage, engine, router

	if _, err := engine.Start(ctx); err != nil {
		return err
	}
	if _, err := engine.Navigate(ctx, "/"); err != nil && !errors.Is(err, goCampus.ErrUnknownRole) {
		return err
	}
	if _, err := engine.RouterReady(ctx); err != nil && !errors.Is(err, goCampus.ErrUnknownRole) {
		return err
	}
	return nil
}

func (a *app) close() {
	if a.engine != nil {
		a.engine.Close()
	}
	closeStorage(a.storage)
}

func closeStorage(s vault.Storage) {
	if c, ok := s.(io.Closer); ok {
		_ = c.Close()
	}
}

// identity returns the signed-in user or an error naming the login command.
func (a *app) identity() (*goCampus.Identity, error) {
	snap := a.engine.Snapshot()
	if !snap.Authenticated || snap.Identity == nil {
		return nil, errors.New("not signed in, run campusctl login")
	}
	return snap.Identity, nil
}
