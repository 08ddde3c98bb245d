package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tunehall/tunehall/internal/domain"
)

var ErrAlreadyBound = errors.New("session already bound")

type SessionID string

// Conn is the transport endpoint a session fans out to. Owned by the
// adapter; the adapter must Close it.
type Conn interface {
	TrySend([]byte) error
	Close()
}

// Session binds one live connection to at most one (user, room) pair. A
// connection binds once for its lifetime; switching rooms means
// reconnecting. Bound fields are written once by Bind and read only from
// the hub's dispatch goroutine afterwards.
type Session struct {
	ID   SessionID
	Conn Conn

	UserID domain.UserID
	RoomID domain.RoomID
	bound  bool
	spent  bool
}

func (s *Session) Bound() bool { return s.bound }

// Registry is the connection→(user, room) table plus the reverse index
// used for broadcast. It is purely a lookup structure: it never sends
// anything itself.
type Registry struct {
	mu     sync.RWMutex
	byID   map[SessionID]*Session
	byRoom map[domain.RoomID]map[SessionID]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[SessionID]*Session),
		byRoom: make(map[domain.RoomID]map[SessionID]*Session),
	}
}

// Bind attaches a user and room to the session. A session binds at most
// once; a second call fails regardless of arguments.
func (r *Registry) Bind(s *Session, uid domain.UserID, roomID domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.spent {
		return ErrAlreadyBound
	}
	s.UserID = uid
	s.RoomID = roomID
	s.bound = true
	s.spent = true
	r.byID[s.ID] = s
	room := r.byRoom[roomID]
	if room == nil {
		room = make(map[SessionID]*Session)
		r.byRoom[roomID] = room
	}
	room[s.ID] = s
	log.Debug().Str("module", "app.registry").Str("sid", string(s.ID)).Str("room", string(roomID)).Msg("bound session")
	return nil
}

// Unbind is idempotent; a session with no binding is a no-op.
func (r *Registry) Unbind(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !s.bound {
		return
	}
	delete(r.byID, s.ID)
	if room, ok := r.byRoom[s.RoomID]; ok {
		delete(room, s.ID)
		if len(room) == 0 {
			delete(r.byRoom, s.RoomID)
		}
	}
	s.bound = false
	log.Debug().Str("module", "app.registry").Str("sid", string(s.ID)).Msg("unbound session")
}

// ConnectionsFor returns every session bound to the room, excluding
// nothing. Callers filter the sender themselves when needed.
func (r *Registry) ConnectionsFor(roomID domain.RoomID) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.byRoom[roomID]
	out := make([]*Session, 0, len(room))
	for _, s := range room {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
