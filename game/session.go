package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the durable, reconnection-capable identity behind a transport
// connection. The client picks the id; the authoritative record lives here.
type Session struct {
	ID         string
	RoomCode   string
	PlayerName string
	Avatar     [4]int
	CreatedAt  time.Time
	GameEnded  bool
	endedAt    time.Time
}

// SessionRegistry is a plain lookup/expiry table; it holds no game logic.
type SessionRegistry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	ttl         time.Duration
	endedWindow time.Duration
}

func NewSessionRegistry(ttl, endedWindow time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		endedWindow: endedWindow,
	}
}

// Create stores (or refreshes) the record for a session id. An empty id gets
// a server-generated one; the id in use is returned either way.
func (r *SessionRegistry) Create(id, playerName string, avatar [4]int) string {
	if id == "" {
		id = "session_" + uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &Session{
		ID:         id,
		PlayerName: playerName,
		Avatar:     avatar,
		CreatedAt:  time.Now(),
	}
	return id
}

// Touch records the room a session last joined and restarts its inactivity
// window.
func (r *SessionRegistry) Touch(id, roomCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.RoomCode = roomCode
		s.CreatedAt = time.Now()
	}
}

// Resolve returns a copy of the session record. Expired or game-ended
// records fail with ErrSessionExpired and are deleted as a side effect.
func (r *SessionRegistry) Resolve(id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if s.GameEnded || time.Since(s.CreatedAt) > r.ttl {
		delete(r.sessions, id)
		return Session{}, ErrSessionExpired
	}
	return *s, nil
}

// MarkEnded flags a session whose game reached its end; the record survives
// for a short display window (see Sweep) and then goes away.
func (r *SessionRegistry) MarkEnded(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.GameEnded = true
		s.endedAt = time.Now()
	}
}

// Sweep drops expired records and ended records past their display window.
func (r *SessionRegistry) Sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if now.Sub(s.CreatedAt) > r.ttl {
			delete(r.sessions, id)
			continue
		}
		if s.GameEnded && now.Sub(s.endedAt) > r.endedWindow {
			delete(r.sessions, id)
		}
	}
}

func (r *SessionRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
