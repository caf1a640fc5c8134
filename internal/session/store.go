// Package session keeps per-browser page state in memory. Browsers hold a
// signed cookie naming their session; nothing is written to disk.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry[T any] struct {
	value    T
	lastSeen time.Time
}

// Store maps session ids to values of T. All methods are safe for
// concurrent use.
type Store[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

func NewStore[T any](ttl time.Duration, logger *slog.Logger) *Store[T] {
	return &Store[T]{
		entries: make(map[string]*entry[T]),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// Create starts an empty session and returns its id.
func (s *Store[T]) Create() string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &entry[T]{lastSeen: s.now()}
	return id
}

// Get returns a copy of the value for id. The bool is false for unknown or
// expired sessions.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(id)
	if !ok {
		var zero T
		return zero, false
	}
	e.lastSeen = s.now()
	return e.value, true
}

// Update runs fn on the value for id while holding the store lock, so a
// read-check-write inside fn is atomic with respect to other requests of
// the same session. Unknown ids are created. fn must not block.
func (s *Store[T]) Update(id string, fn func(*T)) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(id)
	if !ok {
		e = &entry[T]{}
		s.entries[id] = e
	}
	fn(&e.value)
	e.lastSeen = s.now()
	return e.value
}

// Exists reports whether id names a live session.
func (s *Store[T]) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live(id)
	return ok
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// live must be called with mu held.
func (s *Store[T]) live(id string) (*entry[T], bool) {
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.lastSeen) > s.ttl {
		delete(s.entries, id)
		return nil, false
	}
	return e, true
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	cutoff := s.now().Add(-s.ttl)
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done. It blocks.
func (s *Store[T]) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Info("expired sessions removed", "removed", removed, "remaining", s.Len())
			}
		case <-ctx.Done():
			s.logger.Debug("session janitor stopped")
			return
		}
	}
}
