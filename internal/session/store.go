package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/editsync/editsync/pkg/logger"
	"github.com/editsync/editsync/pkg/metrics"
)

// User is the cached identity of the signed-in user. It is written once at
// login/registration and treated as immutable until the next login.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Credentials is the persisted session credential: the bearer token plus the
// user identity it was issued for.
type Credentials struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Invalidation is broadcast to subscribers when the session is force-cleared
// (recognized 401 from the backend, or another writer clearing the session).
type Invalidation struct {
	Code    string
	Message string
}

// Store holds the process-wide session credential, persisted as a JSON file.
// Consumers subscribe for invalidation instead of polling the file.
type Store struct {
	mu      sync.RWMutex
	path    string
	creds   *Credentials
	subs    map[int]chan Invalidation
	nextSub int
}

func NewStore(path string) *Store {
	return &Store{path: path, subs: make(map[int]chan Invalidation)}
}

// Load hydrates the store from the credential file. A missing file is not an
// error; a corrupt file is discarded and removed, matching a fresh signed-out
// state.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.creds = nil
			return nil
		}
		return err
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil || c.Token == "" {
		logger.Warnf("discarding unreadable credential file %s", s.path)
		s.creds = nil
		_ = os.Remove(s.path)
		return nil
	}
	s.creds = &c
	return nil
}

// Set replaces the credential and persists it with owner-only permissions.
func (s *Store) Set(c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return err
	}
	s.creds = &c
	return nil
}

// Clear removes the credential locally and on disk. It does not broadcast;
// use Invalidate for forced logout.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Current returns the cached credential, if any.
func (s *Store) Current() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return Credentials{}, false
	}
	return *s.creds, true
}

// Token returns the bearer token or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.Token
}

// Subscribe registers for invalidation notifications. The returned cancel
// func must be called when the consumer goes away; late events after cancel
// are dropped rather than delivered.
func (s *Store) Subscribe() (<-chan Invalidation, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Invalidation, 1)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
	return ch, cancel
}

// Invalidate clears the stored credential and notifies every subscriber.
// Sends are non-blocking: a subscriber that stopped draining its channel
// cannot wedge the caller.
func (s *Store) Invalidate(code, message string) {
	s.mu.Lock()
	s.creds = nil
	_ = os.Remove(s.path)
	subs := make([]chan Invalidation, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	metrics.SessionInvalidations.Inc()
	logger.Warnf("session invalidated: %s (%s)", code, message)

	ev := Invalidation{Code: code, Message: message}
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
