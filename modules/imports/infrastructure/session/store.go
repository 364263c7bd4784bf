// Package session keeps conflicting rows between the two import phases.
// Sessions live in process memory with an absolute TTL; losing them on
// restart only means the user re-runs phase 1.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flyroom/flyroom/modules/imports/domain/importing"
)

// Session holds everything phase 2 needs to finish an import.
type Session struct {
	ID              string
	TenantID        string
	ConflictingRows []importing.ConflictingRow
	Config          importing.Config
	ColumnMappings  []importing.ColumnMapping
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// Store is a mutex-guarded in-memory session map. The clock is injected so
// tests can control expiry.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new session and returns its id. Expired sessions are
// swept opportunistically on every create.
func (s *Store) Create(tenantID string, rows []importing.ConflictingRow, cfg importing.Config, mappings []importing.ColumnMapping) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := uuid.New().String()
	s.sessions[id] = &Session{
		ID:              id,
		TenantID:        tenantID,
		ConflictingRows: rows,
		Config:          cfg,
		ColumnMappings:  mappings,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.ttl),
	}
	s.sweepLocked(now)
	return id
}

// Get returns the session when it exists, belongs to the tenant and has not
// expired. Expired sessions are removed on access.
func (s *Store) Get(id, tenantID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if sess.TenantID != tenantID {
		return nil, false
	}
	if now.After(sess.ExpiresAt) {
		delete(s.sessions, id)
		return nil, false
	}
	return sess, true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) sweepLocked(now time.Time) {
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}
