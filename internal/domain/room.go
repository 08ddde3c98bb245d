package domain

import (
	"errors"
	"sync"
	"time"
)

// MaxRoomMembers is a hardening cap; the protocol has no notion of a full
// room beyond this.
const MaxRoomMembers = 64

var (
	ErrRoomFull      = errors.New("room full")
	ErrAlreadyMember = errors.New("already a member")
)

type Member struct {
	User     *User
	Host     bool
	JoinedAt time.Time
}

// Room is a threadsafe in-memory room: membership, host identity, and the
// voted queue. It never touches transport resources.
//
// Host succession follows membership insertion order, tracked explicitly
// in joinOrder: a Go map does not preserve it.
type Room struct {
	ID        RoomID
	CreatedAt time.Time

	mu        sync.RWMutex
	hostID    UserID
	members   map[UserID]*Member
	joinOrder []UserID
	queue     Queue
}

// NewRoom constructs a room whose sole member is the host.
func NewRoom(id RoomID, host *User, now time.Time) *Room {
	r := &Room{
		ID:        id,
		CreatedAt: now,
		hostID:    host.ID,
		members:   make(map[UserID]*Member),
	}
	r.members[host.ID] = &Member{User: host, Host: true, JoinedAt: now}
	r.joinOrder = append(r.joinOrder, host.ID)
	return r
}

func (r *Room) HostID() UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostID
}

func (r *Room) IsHost(uid UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uid == r.hostID
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *Room) Member(uid UserID) (*Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[uid]
	return m, ok
}

// AddMember appends a non-host member.
func (r *Room) AddMember(u *User, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[u.ID]; ok {
		return ErrAlreadyMember
	}
	if len(r.members) >= MaxRoomMembers {
		return ErrRoomFull
	}
	r.members[u.ID] = &Member{User: u, JoinedAt: now}
	r.joinOrder = append(r.joinOrder, u.ID)
	return nil
}

// RemoveMember deletes a member. When the host leaves and members remain,
// the earliest-joined remaining member is promoted; the new host id is
// returned. An empty id means the host did not change, or nobody is left
// (check Empty on the second return).
func (r *Room) RemoveMember(uid UserID) (newHost UserID, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[uid]; !ok {
		return "", len(r.members) == 0
	}
	delete(r.members, uid)
	for i, id := range r.joinOrder {
		if id == uid {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			break
		}
	}
	if len(r.members) == 0 {
		return "", true
	}
	if uid == r.hostID {
		next := r.members[r.joinOrder[0]]
		next.Host = true
		r.hostID = next.User.ID
		return r.hostID, false
	}
	return "", false
}

// AddSong queues (or immediately plays) a track, stamped with the display
// name of whoever added it.
func (r *Room) AddSong(spec TrackSpec, addedBy string, now time.Time) *Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := NewTrack(spec, addedBy, now)
	r.queue.Insert(t)
	return t
}

func (r *Room) VoteSong(id TrackID, uid UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.Vote(id, uid)
}

func (r *Room) RemoveSong(id TrackID) *Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.Remove(id)
}

func (r *Room) ClearQueue() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue.Clear()
}

// Skip advances playback and returns the track that was playing.
// Authorization (host-only) is the caller's concern, not the room's.
func (r *Room) Skip() *Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.Advance()
}

func (r *Room) NowPlaying() *Track {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.queue.NowPlaying()
}

// MemberView is the wire shape of a member.
type MemberView struct {
	ID       UserID    `json:"id"`
	Name     string    `json:"name"`
	IsHost   bool      `json:"isHost"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Snapshot is a full, serializable copy of room state, fanned out to every
// client after each mutation so they converge regardless of interleaving.
type Snapshot struct {
	ID          RoomID       `json:"id"`
	HostID      UserID       `json:"hostId"`
	Users       []MemberView `json:"users"`
	Queue       []TrackView  `json:"queue"`
	CurrentSong *TrackView   `json:"currentSong"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Snapshot expands the room into an immutable view. Members appear in
// join order.
func (r *Room) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]MemberView, 0, len(r.members))
	for _, uid := range r.joinOrder {
		m := r.members[uid]
		users = append(users, MemberView{
			ID:       m.User.ID,
			Name:     m.User.Name,
			IsHost:   m.Host,
			JoinedAt: m.JoinedAt,
		})
	}

	pending := r.queue.Tracks()
	queue := make([]TrackView, 0, len(pending))
	for _, t := range pending {
		queue = append(queue, t.View())
	}

	var current *TrackView
	if np := r.queue.NowPlaying(); np != nil {
		v := np.View()
		current = &v
	}

	return Snapshot{
		ID:          r.ID,
		HostID:      r.hostID,
		Users:       users,
		Queue:       queue,
		CurrentSong: current,
		CreatedAt:   r.CreatedAt,
	}
}
