// internal/store/memory.go
//
// In-memory registry of live game sessions for multi-client hosting.
//
// Characteristics:
//   - Sessions are keyed by ID and owned by one client (user or anon id).
//   - A lookup by a different owner behaves like a missing session.
//   - Every operation on a session runs under that session's own mutex,
//     so one client's requests are applied one at a time.
//   - The map itself is guarded by an RWMutex.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/codebreaker/internal/game"
)

// ErrNotFound is returned when no session exists for (id, owner).
var ErrNotFound = errors.New("not found")

// Store defines the hosting interface for live sessions.
type Store interface {
	// Add registers a new session for owner.
	Add(ctx context.Context, owner string, s *game.Session) error

	// Do runs fn with exclusive access to the session.
	Do(ctx context.Context, id, owner string, fn func(*game.Session) error) error

	// Remove forgets a session. Missing ids are not an error.
	Remove(ctx context.Context, id string) error

	// Prune drops sessions untouched since before cutoff and reports how many.
	Prune(ctx context.Context, cutoff time.Time) int

	// Claim hands every session of from over to to and reports how many moved.
	Claim(ctx context.Context, from, to string) int
}

type entry struct {
	mu      sync.Mutex // serialises operations on sess
	owner   string
	sess    *game.Session
	touched time.Time
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex // guards entries
	entries map[string]*entry
	now     func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{entries: make(map[string]*entry), now: time.Now}
}

func (m *memory) Add(ctx context.Context, owner string, s *game.Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.ID()] = &entry{owner: owner, sess: s, touched: m.now()}
	return nil
}

func (m *memory) Do(ctx context.Context, id, owner string, fn func(*game.Session) error) error {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok || e.owner != owner {
		return ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.touched = m.now()
	return fn(e.sess)
}

func (m *memory) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *memory) Claim(ctx context.Context, from, to string) int {
	if from == "" || to == "" || from == to {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		e.mu.Lock()
		if e.owner == from {
			e.owner = to
			n++
		}
		e.mu.Unlock()
	}
	return n
}

func (m *memory) Prune(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		e.mu.Lock()
		stale := e.touched.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(m.entries, id)
			n++
		}
	}
	if n > 0 {
		log.Debug().Int("pruned", n).Int("live", len(m.entries)).Msg("pruned idle sessions")
	}
	return n
}
