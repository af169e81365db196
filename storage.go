package guauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// SessionStore persists the credential pair under stable keys and reloads
// it at startup. Absence of either value means "no session"; Clear is
// idempotent.
type SessionStore interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

/*
====================================
MEMORY STORE
====================================
*/

// MemorySessionStore keeps the session in process memory. It is the default
// store and the natural choice for tests.
type MemorySessionStore struct {
	mu  sync.Mutex
	cur Session
	set bool
}

// NewMemorySessionStore returns an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (m *MemorySessionStore) Load(context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return Session{}, nil
	}
	return m.cur, nil
}

func (m *MemorySessionStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = s
	m.set = true
	return nil
}

func (m *MemorySessionStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = Session{}
	m.set = false
	return nil
}

/*
====================================
FILE STORE
====================================
*/

// FileSessionStore persists the session as a small JSON key-value file, the
// desktop/CLI analogue of the mobile platform's defaults database. Values
// are stored under the configured token and user-ID keys.
type FileSessionStore struct {
	path      string
	tokenKey  string
	userIDKey string
	mu        sync.Mutex
}

// NewFileSessionStore returns a store writing to path. Keys come from cfg so
// that previously persisted sessions keep working across releases.
func NewFileSessionStore(path string, cfg SessionConfig) *FileSessionStore {
	return &FileSessionStore{
		path:      path,
		tokenKey:  cfg.TokenKey,
		userIDKey: cfg.UserIDKey,
	}
}

func (f *FileSessionStore) Load(context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session file: %w", err)
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return Session{}, fmt.Errorf("decode session file: %w", err)
	}
	return Session{Token: values[f.tokenKey], UserID: values[f.userIDKey]}, nil
}

func (f *FileSessionStore) Save(_ context.Context, s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(map[string]string{
		f.tokenKey:  s.Token,
		f.userIDKey: s.UserID,
	})
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	// Write-then-rename so a crash never leaves a torn session file.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (f *FileSessionStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
