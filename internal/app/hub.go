package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tunehall/tunehall/internal/config"
	"github.com/tunehall/tunehall/internal/domain"
	"github.com/tunehall/tunehall/internal/protocol"
)

type eventKind int

const (
	evConnect eventKind = iota
	evFrame
	evDisconnect
)

type event struct {
	kind eventKind
	sess *Session
	data []byte
}

// Hub is the protocol router. All room and registry mutations happen on
// its single Run goroutine: read pumps only enqueue events, so every
// message is processed to completion before the next one and no handler
// ever observes half-mutated state. The idle-room reaper ticks inside the
// same loop.
type Hub struct {
	cfg      *config.Config
	registry *Registry
	rooms    *RoomManager
	limiter  *SubmitLimiter

	conns  map[SessionID]*Session // hub goroutine only
	events chan event
	done   chan struct{}

	now func() time.Time
}

func NewHub(cfg *config.Config, registry *Registry, rooms *RoomManager) *Hub {
	return &Hub{
		cfg:      cfg,
		registry: registry,
		rooms:    rooms,
		limiter:  NewSubmitLimiter(cfg.SongsPerUser, cfg.SongsWindow),
		conns:    make(map[SessionID]*Session),
		events:   make(chan event, 256),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// NewSession wraps a transport connection. The session is inert until
// Connect is called.
func (h *Hub) NewSession(conn Conn) *Session {
	return &Session{ID: SessionID(uuid.NewString()), Conn: conn}
}

func (h *Hub) Connect(s *Session) { h.enqueue(event{kind: evConnect, sess: s}) }

func (h *Hub) Receive(s *Session, data []byte) {
	h.enqueue(event{kind: evFrame, sess: s, data: data})
}

func (h *Hub) Disconnect(s *Session) { h.enqueue(event{kind: evDisconnect, sess: s}) }

func (h *Hub) enqueue(ev event) {
	select {
	case h.events <- ev:
	case <-h.done:
	}
}

// Run drives the event loop until ctx is canceled, then notifies every
// open connection of the shutdown before returning.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case ev := <-h.events:
			h.handle(ev)
		case <-ticker.C:
			h.sweep()
		}
	}
}

func (h *Hub) handle(ev event) {
	switch ev.kind {
	case evConnect:
		h.conns[ev.sess.ID] = ev.sess
		log.Info().Str("module", "app.hub").Str("sid", string(ev.sess.ID)).Msg("connection opened")
	case evFrame:
		h.dispatch(ev.sess, ev.data)
	case evDisconnect:
		delete(h.conns, ev.sess.ID)
		log.Info().Str("module", "app.hub").Str("sid", string(ev.sess.ID)).Msg("connection closed")
		if ev.sess.Bound() {
			h.leaveRoom(ev.sess)
		}
	}
}

// dispatch decodes one frame and routes it. A panic in any handler is
// converted to an error reply; a bad message never takes the process or
// even the connection down.
func (h *Hub) dispatch(s *Session, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "app.hub").Str("sid", string(s.ID)).Interface("panic", r).Msg("handler panic")
			h.sendError(s, protocol.CodeInternal, "Internal error")
		}
	}()

	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		h.sendError(s, protocol.CodeProtocol, "Invalid message format")
		return
	}

	switch env.Type {
	case protocol.TypeCreateRoom:
		h.handleCreateRoom(s, data)
	case protocol.TypeJoinRoom:
		h.handleJoinRoom(s, data)
	case protocol.TypeAddSong:
		h.handleAddSong(s, data)
	case protocol.TypeVoteSong:
		h.handleVoteSong(s, data)
	case protocol.TypeRemoveSong:
		h.handleRemoveSong(s, data)
	case protocol.TypeSkipSong:
		h.handleSkipSong(s)
	case protocol.TypeClearQueue:
		h.handleClearQueue(s)
	case protocol.TypeGetRoomState:
		h.handleGetRoomState(s)
	case protocol.TypeEndRoom:
		h.handleEndRoom(s)
	case protocol.TypeLeaveRoom:
		if !s.Bound() {
			h.sendError(s, protocol.CodeProtocol, "Not in a room")
			return
		}
		h.leaveRoom(s)
	case protocol.TypePing:
		h.send(s, protocol.NewPong())
	default:
		h.sendError(s, protocol.CodeProtocol, "Unknown message type")
	}
}

// sweep runs the idle-room reaper and logs server stats, mirroring the
// periodic housekeeping interval.
func (h *Hub) sweep() {
	reaped := h.rooms.ReapIdle(h.cfg.ReapGrace, h.now())
	log.Info().Str("module", "app.hub").
		Int("rooms", h.rooms.Count()).
		Int("connections", len(h.conns)).
		Int("reaped", len(reaped)).
		Msg("housekeeping sweep")
}

func (h *Hub) shutdown() {
	log.Info().Str("module", "app.hub").Int("connections", len(h.conns)).Msg("notifying clients of shutdown")
	notice := protocol.NewServerShutdown()
	for _, s := range h.conns {
		h.send(s, notice)
		s.Conn.Close()
	}
	close(h.done)
}

// send marshals and fires a message at one session. A full send buffer
// means the client stopped draining; the connection is closed and the
// read pump turns that into an implicit leave.
func (h *Hub) send(s *Session, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("marshal outbound")
		return
	}
	if err := s.Conn.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "app.hub").Str("sid", string(s.ID)).Msg("send failed, kicking slow client")
		s.Conn.Close()
	}
}

func (h *Hub) sendError(s *Session, code protocol.Code, msg string) {
	h.send(s, protocol.NewError(code, msg))
}

// broadcast fans a message out to every session bound to the room,
// optionally excluding one (the sender, for join notices).
func (h *Hub) broadcast(roomID domain.RoomID, v any, exclude SessionID) {
	for _, s := range h.registry.ConnectionsFor(roomID) {
		if s.ID == exclude {
			continue
		}
		h.send(s, v)
	}
}

// Stats returns room and connection counts for the HTTP surface. Safe to
// call from any goroutine.
func (h *Hub) Stats() (rooms, connections int) {
	return h.rooms.Count(), h.registry.Count()
}

func (h *Hub) RoomInfos() []RoomInfo {
	return h.rooms.Infos()
}
