package server

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playperu/treesleuth/internal/game"
)

// Session is one player's game. The token authenticates requests; ID keys
// the player's stored progress and leaderboard entries.
type Session struct {
	ID      string
	Token   string
	Name    string
	machine *game.Machine

	// startMu serializes starts so the stored countdown always belongs to
	// the newest case.
	startMu sync.Mutex

	mu         sync.Mutex
	rng        *rand.Rand
	candidates []SpeciesSummary
	stop       context.CancelFunc
	recorded   int

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) idleSince() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// setCountdown replaces the running countdown's cancel func.
func (s *Session) setCountdown(cancel context.CancelFunc) {
	s.mu.Lock()
	prev := s.stop
	s.stop = cancel
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
}

func (s *Session) stopCountdown() { s.setCountdown(nil) }

func (s *Session) Candidates() []SpeciesSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidates
}

// markRecorded reports whether case number n still needs recording and marks
// it recorded.
func (s *Session) markRecorded(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= s.recorded {
		return false
	}
	s.recorded = n
	return true
}

// Registry holds the live sessions by token.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers s unless its token is taken, and returns the registered
// session.
func (r *Registry) Add(s *Session) *Session {
	r.mu.RLock()
	existing, ok := r.sessions[s.Token]
	r.mu.RUnlock()
	if ok {
		return existing
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock.
	if existing, ok := r.sessions[s.Token]; ok {
		return existing
	}
	r.sessions[s.Token] = s
	return s
}

func (r *Registry) Get(token string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[token]
	r.mu.RUnlock()
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Reap removes sessions idle since before cutoff, stops their countdowns and
// returns them.
func (r *Registry) Reap(cutoff time.Time) []*Session {
	r.mu.Lock()
	var reaped []*Session
	for token, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, token)
			reaped = append(reaped, s)
		}
	}
	r.mu.Unlock()

	for _, s := range reaped {
		s.stopCountdown()
	}
	return reaped
}

// Close removes every session, stops their countdowns and returns them.
func (r *Registry) Close() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	closed := make([]*Session, 0, len(r.sessions))
	for token, s := range r.sessions {
		s.stopCountdown()
		delete(r.sessions, token)
		closed = append(closed, s)
	}
	return closed
}
