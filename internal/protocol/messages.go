// Package protocol defines the wire messages: one JSON object per text
// frame, discriminated by a mandatory "type" field. Inbound payloads are
// decoded in two steps, envelope first, then the per-type shape.
package protocol

import (
	"encoding/json"

	"github.com/tunehall/tunehall/internal/domain"
)

// Inbound message types.
const (
	TypeCreateRoom   = "create_room"
	TypeJoinRoom     = "join_room"
	TypeAddSong      = "add_song"
	TypeVoteSong     = "vote_song"
	TypeRemoveSong   = "remove_song"
	TypeSkipSong     = "skip_song"
	TypeClearQueue   = "clear_queue"
	TypeGetRoomState = "get_room_state"
	TypeEndRoom      = "end_room"
	TypeLeaveRoom    = "leave_room"
	TypePing         = "ping"
)

// Envelope carries just the discriminator.
type Envelope struct {
	Type string `json:"type"`
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(data, &env)
	return env, err
}

type CreateRoomPayload struct {
	UserName string `json:"userName"`
	RoomCode string `json:"roomCode"`
}

type JoinRoomPayload struct {
	UserName string `json:"userName"`
	RoomCode string `json:"roomCode"`
}

type AddSongPayload struct {
	Song domain.TrackSpec `json:"song"`
}

type VoteSongPayload struct {
	SongID string `json:"songId"`
}

type RemoveSongPayload struct {
	SongID string `json:"songId"`
}

// Outbound messages. Each mutation reply carries the full room snapshot;
// clients render whatever state arrives and stay in sync by construction.

type RoomCreated struct {
	Type   string          `json:"type"`
	RoomID domain.RoomID   `json:"roomId"`
	UserID domain.UserID   `json:"userId"`
	Room   domain.Snapshot `json:"room"`
}

func NewRoomCreated(uid domain.UserID, snap domain.Snapshot) RoomCreated {
	return RoomCreated{Type: "room_created", RoomID: snap.ID, UserID: uid, Room: snap}
}

type RoomJoined struct {
	Type   string          `json:"type"`
	RoomID domain.RoomID   `json:"roomId"`
	UserID domain.UserID   `json:"userId"`
	Room   domain.Snapshot `json:"room"`
}

func NewRoomJoined(uid domain.UserID, snap domain.Snapshot) RoomJoined {
	return RoomJoined{Type: "room_joined", RoomID: snap.ID, UserID: uid, Room: snap}
}

type UserJoined struct {
	Type string            `json:"type"`
	User domain.MemberView `json:"user"`
	Room domain.Snapshot   `json:"room"`
}

func NewUserJoined(user domain.MemberView, snap domain.Snapshot) UserJoined {
	return UserJoined{Type: "user_joined", User: user, Room: snap}
}

type UserLeft struct {
	Type     string          `json:"type"`
	UserID   domain.UserID   `json:"userId"`
	UserName string          `json:"userName"`
	NewHost  domain.UserID   `json:"newHost,omitempty"`
	Room     domain.Snapshot `json:"room"`
}

func NewUserLeft(uid domain.UserID, name string, newHost domain.UserID, snap domain.Snapshot) UserLeft {
	return UserLeft{Type: "user_left", UserID: uid, UserName: name, NewHost: newHost, Room: snap}
}

type SongAdded struct {
	Type string           `json:"type"`
	Song domain.TrackView `json:"song"`
	Room domain.Snapshot  `json:"room"`
}

func NewSongAdded(song domain.TrackView, snap domain.Snapshot) SongAdded {
	return SongAdded{Type: "song_added", Song: song, Room: snap}
}

type SongVoted struct {
	Type   string          `json:"type"`
	SongID domain.TrackID  `json:"songId"`
	UserID domain.UserID   `json:"userId"`
	Room   domain.Snapshot `json:"room"`
}

func NewSongVoted(songID domain.TrackID, uid domain.UserID, snap domain.Snapshot) SongVoted {
	return SongVoted{Type: "song_voted", SongID: songID, UserID: uid, Room: snap}
}

type SongRemoved struct {
	Type string           `json:"type"`
	Song domain.TrackView `json:"song"`
	Room domain.Snapshot  `json:"room"`
}

func NewSongRemoved(song domain.TrackView, snap domain.Snapshot) SongRemoved {
	return SongRemoved{Type: "song_removed", Song: song, Room: snap}
}

type SongSkipped struct {
	Type        string            `json:"type"`
	SkippedSong *domain.TrackView `json:"skippedSong"`
	Room        domain.Snapshot   `json:"room"`
}

func NewSongSkipped(skipped *domain.TrackView, snap domain.Snapshot) SongSkipped {
	return SongSkipped{Type: "song_skipped", SkippedSong: skipped, Room: snap}
}

type QueueCleared struct {
	Type string          `json:"type"`
	Room domain.Snapshot `json:"room"`
}

func NewQueueCleared(snap domain.Snapshot) QueueCleared {
	return QueueCleared{Type: "queue_cleared", Room: snap}
}

type RoomState struct {
	Type string          `json:"type"`
	Room domain.Snapshot `json:"room"`
}

func NewRoomState(snap domain.Snapshot) RoomState {
	return RoomState{Type: "room_state", Room: snap}
}

type RoomEnded struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewRoomEnded() RoomEnded {
	return RoomEnded{Type: "room_ended", Message: "Host has ended the session"}
}

type Pong struct {
	Type string `json:"type"`
}

func NewPong() Pong { return Pong{Type: "pong"} }

type ServerShutdown struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewServerShutdown() ServerShutdown {
	return ServerShutdown{Type: "server_shutdown", Message: "Server is shutting down"}
}

type ErrorReply struct {
	Type    string `json:"type"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func NewError(code Code, message string) ErrorReply {
	return ErrorReply{Type: "error", Code: code, Message: message}
}
