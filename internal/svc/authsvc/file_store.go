package authsvc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/amanihub/sheetcms/internal/domain"
)

// FileStoreConfig holds configuration for the file-backed session store.
type FileStoreConfig struct {
	// Path is the session file location
	Path string `env:"SESSION_PATH" default:"var/session.json"`
}

// FileStore persists the session as a JSON file with owner-only permissions.
// The file location is configurable, so multiple profiles can coexist.
type FileStore struct {
	cfg FileStoreConfig
	mu  sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a session store backed by the configured file.
func NewFileStore(cfg FileStoreConfig) *FileStore {
	return &FileStore{cfg: cfg}
}

// Load implements Store.Load. A missing file loads as the zero session.
func (s *FileStore) Load() (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.cfg.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Session{}, nil
		}

		return domain.Session{}, fmt.Errorf("read session file: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, fmt.Errorf("parse session file: %w", err)
	}

	return session, nil
}

// Save implements Store.Save, writing the file with 0600 permissions.
func (s *FileStore) Save(session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if dir := filepath.Dir(s.cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}

	if err := os.WriteFile(s.cfg.Path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	return nil
}

// Clear implements Store.Clear. Clearing an absent session is not an error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.cfg.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}

	return nil
}
