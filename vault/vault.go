package vault

import (
	"context"
	"errors"
	"sync"
)

const (
	// KeyToken stores the opaque bearer token.
	KeyToken = "userToken"
	// KeyUserData stores the serialized identity snapshot.
	KeyUserData = "userData"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("vault: key not found")
	// ErrInvalidKey is returned for empty keys.
	ErrInvalidKey = errors.New("vault: invalid key")
)

// Storage is durable string storage. Delete of a missing key succeeds.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process Storage.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements Storage.
func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	if err := checkKey(ctx, key); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Storage.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

// Delete implements Storage.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

func checkKey(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ctx != nil {
		return ctx.Err()
	}
	return nil
}
