package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 10 * time.Millisecond

// File stores all keys in one JSON object file. Writers hold an exclusive advisory lock
// on "<path>.lock" and replace the file through a temp file and rename, so a reader
// never observes a partial write.
type File struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFile prepares a File store at path, creating the parent directory with mode 0700.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("vault: file path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("vault: create dir: %w", err)
	}
	return &File{path: path, lock: flock.New(path + ".lock")}, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Get implements Storage.
func (f *File) Get(ctx context.Context, key string) (string, error) {
	if err := checkKey(ctx, key); err != nil {
		return "", err
	}
	var (
		value string
		found bool
	)
	err := f.withLock(ctx, false, func() error {
		values, err := f.load()
		if err != nil {
			return err
		}
		value, found = values[key]
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}
	return value, nil
}

// Set implements Storage.
func (f *File) Set(ctx context.Context, key, value string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	return f.withLock(ctx, true, func() error {
		values, err := f.load()
		if err != nil {
			return err
		}
		values[key] = value
		return f.persist(values)
	})
}

// Delete implements Storage.
func (f *File) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	return f.withLock(ctx, true, func() error {
		values, err := f.load()
		if err != nil {
			return err
		}
		if _, ok := values[key]; !ok {
			return nil
		}
		delete(values, key)
		return f.persist(values)
	})
}

func (f *File) withLock(ctx context.Context, exclusive bool, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = f.lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		ok, err = f.lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("vault: lock %q: %w", f.lock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("vault: lock %q not acquired", f.lock.Path())
	}
	defer func() { _ = f.lock.Unlock() }()
	return fn()
}

func (f *File) load() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vault: read %q: %w", f.path, err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("vault: decode %q: %w", f.path, err)
	}
	return values, nil
}

func (f *File) persist(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("vault: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("vault: write: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("vault: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("vault: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("vault: write: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("vault: commit: %w", err)
	}
	return nil
}
