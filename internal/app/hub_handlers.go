package app

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/tunehall/tunehall/internal/domain"
	"github.com/tunehall/tunehall/internal/protocol"
)

func (h *Hub) handleCreateRoom(s *Session, data []byte) {
	if s.Bound() {
		h.sendError(s, protocol.CodeConflict, "Already in a room")
		return
	}
	var p protocol.CreateRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(s, protocol.CodeProtocol, "Invalid message format")
		return
	}
	user, err := domain.NewUser(p.UserName)
	if err != nil {
		h.sendError(s, protocol.CodeProtocol, err.Error())
		return
	}
	roomID, err := domain.NormalizeRoomCode(p.RoomCode)
	if err != nil {
		h.sendError(s, protocol.CodeProtocol, err.Error())
		return
	}

	room, err := h.rooms.Create(roomID, user, h.now())
	if err != nil {
		h.sendError(s, protocol.CodeConflict, "Room already exists")
		return
	}
	if err := h.registry.Bind(s, user.ID, roomID); err != nil {
		// Session was spent by an earlier room; roll the creation back.
		h.rooms.Delete(roomID)
		h.sendError(s, protocol.CodeConflict, "Session already used")
		return
	}

	log.Info().Str("module", "app.hub").Str("room", string(roomID)).Str("user", user.Name).Msg("room created")
	h.send(s, protocol.NewRoomCreated(user.ID, room.Snapshot()))
}

func (h *Hub) handleJoinRoom(s *Session, data []byte) {
	if s.Bound() {
		h.sendError(s, protocol.CodeConflict, "Already in a room")
		return
	}
	var p protocol.JoinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(s, protocol.CodeProtocol, "Invalid message format")
		return
	}
	user, err := domain.NewUser(p.UserName)
	if err != nil {
		h.sendError(s, protocol.CodeProtocol, err.Error())
		return
	}
	roomID, err := domain.NormalizeRoomCode(p.RoomCode)
	if err != nil {
		h.sendError(s, protocol.CodeProtocol, err.Error())
		return
	}

	room, ok := h.rooms.Get(roomID)
	if !ok {
		h.sendError(s, protocol.CodeNotFound, "Room not found")
		return
	}
	if err := room.AddMember(user, h.now()); err != nil {
		if errors.Is(err, domain.ErrRoomFull) {
			h.sendError(s, protocol.CodeConflict, "Room is full")
		} else {
			h.sendError(s, protocol.CodeConflict, err.Error())
		}
		return
	}
	if err := h.registry.Bind(s, user.ID, roomID); err != nil {
		room.RemoveMember(user.ID)
		h.sendError(s, protocol.CodeConflict, "Session already used")
		return
	}

	log.Info().Str("module", "app.hub").Str("room", string(roomID)).Str("user", user.Name).Msg("user joined")

	snap := room.Snapshot()
	h.send(s, protocol.NewRoomJoined(user.ID, snap))

	member, _ := room.Member(user.ID)
	view := domain.MemberView{ID: user.ID, Name: user.Name, IsHost: member.Host, JoinedAt: member.JoinedAt}
	h.broadcast(roomID, protocol.NewUserJoined(view, snap), s.ID)
}

// boundRoom resolves the session's room for the mutating handlers. A
// missing binding or a vanished room gets an error reply and a nil room.
func (h *Hub) boundRoom(s *Session) *domain.Room {
	if !s.Bound() {
		h.sendError(s, protocol.CodeProtocol, "Not in a room")
		return nil
	}
	room, ok := h.rooms.Get(s.RoomID)
	if !ok {
		h.sendError(s, protocol.CodeNotFound, "Room not found")
		return nil
	}
	return room
}

// hostRoom is boundRoom plus the host-only check.
func (h *Hub) hostRoom(s *Session) *domain.Room {
	room := h.boundRoom(s)
	if room == nil {
		return nil
	}
	if !room.IsHost(s.UserID) {
		h.sendError(s, protocol.CodeForbidden, "Only the host can do that")
		return nil
	}
	return room
}

func (h *Hub) handleAddSong(s *Session, data []byte) {
	room := h.boundRoom(s)
	if room == nil {
		return
	}
	var p protocol.AddSongPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(s, protocol.CodeProtocol, "Invalid message format")
		return
	}
	if !h.limiter.Allow(s.UserID, h.now()) {
		h.sendError(s, protocol.CodeLimited, "Too many songs added, slow down")
		return
	}
	member, ok := room.Member(s.UserID)
	if !ok {
		h.sendError(s, protocol.CodeNotFound, "Not a member of this room")
		return
	}

	track := room.AddSong(p.Song, member.User.Name, h.now())
	log.Info().Str("module", "app.hub").Str("room", string(room.ID)).Str("title", track.Title).Str("by", track.AddedBy).Msg("song added")
	h.broadcast(room.ID, protocol.NewSongAdded(track.View(), room.Snapshot()), "")
}

func (h *Hub) handleVoteSong(s *Session, data []byte) {
	room := h.boundRoom(s)
	if room == nil {
		return
	}
	var p protocol.VoteSongPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(s, protocol.CodeProtocol, "Invalid message format")
		return
	}

	if !room.VoteSong(domain.TrackID(p.SongID), s.UserID) {
		h.sendError(s, protocol.CodeConflict, "Already voted for this song")
		return
	}
	h.broadcast(room.ID, protocol.NewSongVoted(domain.TrackID(p.SongID), s.UserID, room.Snapshot()), "")
}

func (h *Hub) handleRemoveSong(s *Session, data []byte) {
	room := h.hostRoom(s)
	if room == nil {
		return
	}
	var p protocol.RemoveSongPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(s, protocol.CodeProtocol, "Invalid message format")
		return
	}

	removed := room.RemoveSong(domain.TrackID(p.SongID))
	if removed == nil {
		h.sendError(s, protocol.CodeNotFound, "Song not found")
		return
	}
	h.broadcast(room.ID, protocol.NewSongRemoved(removed.View(), room.Snapshot()), "")
}

func (h *Hub) handleSkipSong(s *Session) {
	room := h.hostRoom(s)
	if room == nil {
		return
	}

	var skippedView *domain.TrackView
	if skipped := room.Skip(); skipped != nil {
		v := skipped.View()
		skippedView = &v
	}
	h.broadcast(room.ID, protocol.NewSongSkipped(skippedView, room.Snapshot()), "")
}

func (h *Hub) handleClearQueue(s *Session) {
	room := h.hostRoom(s)
	if room == nil {
		return
	}
	room.ClearQueue()
	h.broadcast(room.ID, protocol.NewQueueCleared(room.Snapshot()), "")
}

func (h *Hub) handleGetRoomState(s *Session) {
	room := h.boundRoom(s)
	if room == nil {
		return
	}
	h.send(s, protocol.NewRoomState(room.Snapshot()))
}

// handleEndRoom tears the whole room down on the host's order. The notice
// goes out before any unbinding so every member still hears it.
func (h *Hub) handleEndRoom(s *Session) {
	room := h.hostRoom(s)
	if room == nil {
		return
	}

	h.broadcast(room.ID, protocol.NewRoomEnded(), "")
	for _, member := range h.registry.ConnectionsFor(room.ID) {
		h.limiter.Forget(member.UserID)
		h.registry.Unbind(member)
	}
	h.rooms.Delete(room.ID)
	log.Info().Str("module", "app.hub").Str("room", string(room.ID)).Msg("room ended by host")
}

// leaveRoom handles both an explicit leave_room and a dropped transport.
// The departing client gets no reply; the rest of the room learns who
// left and, when the host left, who inherited the room.
func (h *Hub) leaveRoom(s *Session) {
	roomID := s.RoomID
	room, ok := h.rooms.Get(roomID)
	if !ok {
		h.registry.Unbind(s)
		return
	}

	var name string
	if member, ok := room.Member(s.UserID); ok {
		name = member.User.Name
	}
	newHost, empty := room.RemoveMember(s.UserID)
	h.limiter.Forget(s.UserID)
	h.registry.Unbind(s)

	log.Info().Str("module", "app.hub").Str("room", string(roomID)).Str("user", name).Msg("user left")

	if empty {
		h.rooms.Delete(roomID)
		return
	}
	h.broadcast(roomID, protocol.NewUserLeft(s.UserID, name, newHost, room.Snapshot()), "")
	if newHost != "" {
		log.Info().Str("module", "app.hub").Str("room", string(roomID)).Str("new_host", string(newHost)).Msg("host reassigned")
	}
}
