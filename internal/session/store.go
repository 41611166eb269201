// Package session keeps the recording session for each project: an
// in-memory map with TTL expiry, optionally written through to a SQLite
// backend so sessions survive restarts.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
	"github.com/p-blackswan/screencast-studio/internal/recording"
)

type entry struct {
	session   *recording.Session
	updatedAt time.Time
}

// Store maps project ids to their recording session. Thread-safe. Entries
// expire after the TTL; writes go through to the backend when one is set.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	backend  *Backend
	logger   zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithBackend adds a SQLite write-through backend.
func WithBackend(b *Backend) Option {
	return func(s *Store) { s.backend = b }
}

// NewStore creates a session store. A zero or negative TTL disables expiry.
func NewStore(ttl time.Duration, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		logger:   logger.With().Str("component", "session").Logger(),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores or replaces the session for its project. A backend write
// failure degrades to a warning; the in-memory copy stays authoritative.
func (s *Store) Put(sess *recording.Session) error {
	if sess == nil || sess.ProjectID == "" {
		return fmt.Errorf("session needs a project id: %w", apperr.ErrInvalidInput)
	}
	now := time.Now()
	s.mu.Lock()
	s.sessions[sess.ProjectID] = &entry{session: sess, updatedAt: now}
	s.mu.Unlock()

	if s.backend != nil {
		if err := s.backend.Save(sess, now); err != nil {
			s.logger.Warn().Err(err).Str("project_id", sess.ProjectID).Msg("session persist failed")
		}
	}
	return nil
}

// Get returns the session for a project, cold-starting from the backend
// when the map has no entry. Expired sessions count as missing.
func (s *Store) Get(projectID string) (*recording.Session, error) {
	s.mu.RLock()
	e, ok := s.sessions[projectID]
	s.mu.RUnlock()
	if ok {
		if s.expired(e.updatedAt, time.Now()) {
			return nil, fmt.Errorf("recording session for project %s: %w", projectID, apperr.ErrNotFound)
		}
		return e.session, nil
	}

	if s.backend != nil {
		sess, updatedAt, err := s.backend.Load(projectID)
		if err != nil {
			return nil, err
		}
		if sess != nil && !s.expired(updatedAt, time.Now()) {
			s.mu.Lock()
			s.sessions[projectID] = &entry{session: sess, updatedAt: updatedAt}
			s.mu.Unlock()
			return sess, nil
		}
	}
	return nil, fmt.Errorf("recording session for project %s: %w", projectID, apperr.ErrNotFound)
}

// Delete removes a project's session from memory and the backend.
func (s *Store) Delete(projectID string) error {
	s.mu.Lock()
	_, had := s.sessions[projectID]
	delete(s.sessions, projectID)
	s.mu.Unlock()

	if s.backend != nil {
		deleted, err := s.backend.Delete(projectID)
		if err != nil {
			return err
		}
		had = had || deleted
	}
	if !had {
		return fmt.Errorf("recording session for project %s: %w", projectID, apperr.ErrNotFound)
	}
	return nil
}

// Active counts unexpired in-memory sessions.
func (s *Store) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	n := 0
	for _, e := range s.sessions {
		if !s.expired(e.updatedAt, now) {
			n++
		}
	}
	return n
}

// Cleanup drops expired entries from memory and sweeps the backend,
// returning how many in-memory entries were removed.
func (s *Store) Cleanup() int {
	now := time.Now()
	s.mu.Lock()
	removed := 0
	for k, e := range s.sessions {
		if s.expired(e.updatedAt, now) {
			delete(s.sessions, k)
			removed++
		}
	}
	s.mu.Unlock()

	if s.backend != nil && s.ttl > 0 {
		if _, err := s.backend.DeleteExpired(now.Add(-s.ttl)); err != nil {
			s.logger.Warn().Err(err).Msg("backend sweep failed")
		}
	}
	return removed
}

// StartJanitor sweeps expired sessions on the given interval until Stop
// is called. A non-positive interval disables the janitor.
func (s *Store) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := s.Cleanup(); removed > 0 {
					s.logger.Debug().Int("removed", removed).Msg("expired sessions swept")
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the janitor. Safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Close stops the janitor and closes the backend, if any.
func (s *Store) Close() error {
	s.Stop()
	if s.backend != nil {
		return s.backend.Close()
	}
	return nil
}

// Ping reports backend connectivity. A memory-only store is always healthy.
func (s *Store) Ping(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Ping(ctx)
}

func (s *Store) expired(updatedAt, now time.Time) bool {
	return s.ttl > 0 && now.Sub(updatedAt) > s.ttl
}
