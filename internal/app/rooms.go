package app

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tunehall/tunehall/internal/domain"
)

var ErrRoomExists = errors.New("room already exists")

// RoomManager owns the room collection. Rooms are created with a
// client-chosen code and die when their last member leaves; the idle
// reaper catches any that leak through ungraceful disconnects.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*domain.Room
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[domain.RoomID]*domain.Room)}
}

// Create constructs a room with the host as its only member. A taken code
// is rejected, never reused in place.
func (m *RoomManager) Create(id domain.RoomID, host *domain.User, now time.Time) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; ok {
		return nil, ErrRoomExists
	}
	room := domain.NewRoom(id, host, now)
	m.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("host", host.Name).Msg("room created")
	return room, nil
}

func (m *RoomManager) Get(id domain.RoomID) (*domain.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	return room, ok
}

func (m *RoomManager) Delete(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room deleted")
}

func (m *RoomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"memberCount"`
	QueueLength int           `json:"queueLength"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func (m *RoomManager) Infos() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		snap := r.Snapshot()
		out = append(out, RoomInfo{
			ID:          id,
			MemberCount: len(snap.Users),
			QueueLength: len(snap.Queue),
			CreatedAt:   r.CreatedAt,
		})
	}
	return out
}

// ReapIdle deletes rooms that have sat empty past the grace window and
// returns their ids. Normal teardown is eager; this sweep only bounds
// memory growth from connections that never said goodbye.
func (m *RoomManager) ReapIdle(grace time.Duration, now time.Time) []domain.RoomID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var reaped []domain.RoomID
	for id, r := range m.rooms {
		if r.MemberCount() == 0 && now.Sub(r.CreatedAt) > grace {
			delete(m.rooms, id)
			reaped = append(reaped, id)
			log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("reaped idle room")
		}
	}
	return reaped
}
