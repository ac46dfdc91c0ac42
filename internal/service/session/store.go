// Package session keeps per-user conversational state for the lifetime of
// the process. Reminders and profiles are durable elsewhere; this is the
// ephemeral memory a conversation needs between turns.
package session

import (
	"sync"
	"time"

	"github.com/skinbuddy/concierge/internal/model/profile"
	"github.com/skinbuddy/concierge/internal/service/calendar"
)

// Turn roles, matching the transcript convention of the chat boundary.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one history entry. History is append-only and ordered.
type Turn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Session is the full per-user state. Callers only touch it while holding
// the per-user lock handed out by Store.Acquire.
type Session struct {
	UserID      string
	History     []Turn
	Profile     profile.Profile
	LastResults map[string]any
	PendingPlan *calendar.Plan
	CreatedAt   time.Time
}

// Append records one exchanged turn.
func (s *Session) Append(role, message string) {
	s.History = append(s.History, Turn{Role: role, Message: message})
}

// SetResult caches the most recent result of the given kind for follow-ups.
func (s *Session) SetResult(kind string, value any) {
	s.LastResults[kind] = value
}

// Result returns the cached result of the given kind, if any.
func (s *Session) Result(kind string) (any, bool) {
	v, ok := s.LastResults[kind]
	return v, ok
}

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Store maps user ids to sessions. The outer map lock is held only for
// lookups; each session carries its own lock so one user's turn never
// blocks another's.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore bootstraps an empty in-memory session store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Acquire returns the user's session locked for exclusive use, creating it
// with empty defaults on first contact. The returned release function must
// be called when the turn completes; until then further turns for the same
// user block, which is what serializes plan-state transitions.
func (s *Store) Acquire(userID string) (*Session, func()) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{session: &Session{
			UserID:      userID,
			Profile:     profile.Profile{},
			LastResults: make(map[string]any),
			CreatedAt:   time.Now().UTC(),
		}}
		s.entries[userID] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	return e.session, e.mu.Unlock
}

// Len reports how many sessions exist.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
