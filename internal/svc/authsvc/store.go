package authsvc

import (
	"sync"

	"github.com/amanihub/sheetcms/internal/domain"
)

// Store persists the session (token, refresh token, user projection) between
// runs. Implementations must be safe for concurrent use; the refresh path
// and regular requests touch the store from different goroutines.
type Store interface {
	// Load returns the stored session. A missing session is not an error;
	// it loads as the zero Session.
	Load() (domain.Session, error)

	// Save replaces the stored session.
	Save(session domain.Session) error

	// Clear removes the stored session.
	Clear() error
}

// MemStore is an in-memory session store, used in tests and for short-lived
// programs that have no reason to persist a session.
type MemStore struct {
	mu      sync.Mutex
	session domain.Session
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory session store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load implements Store.Load.
func (s *MemStore) Load() (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session, nil
}

// Save implements Store.Save.
func (s *MemStore) Save(session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = session

	return nil
}

// Clear implements Store.Clear.
func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = domain.Session{}

	return nil
}
