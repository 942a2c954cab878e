package game

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// Draw events stream at canvas frame rate, so the inbound limiter has to
	// be generous; it only exists to stop outright floods.
	inboundEventsPerSec = 60
	inboundBurst        = 120
)

// Gateway turns raw connections into room traffic. Each connection gets its
// own context (player + room, no globals): pre-room events are resolved
// against the registries right here, everything after joining is forwarded
// into the owning room's serialized inbox. It is also the single place where
// low-level failures become client-facing error events.
type Gateway struct {
	registry *Registry
	sessions *SessionRegistry
	log      zerolog.Logger
}

func NewGateway(registry *Registry, sessions *SessionRegistry, log zerolog.Logger) *Gateway {
	return &Gateway{registry: registry, sessions: sessions, log: log}
}

// HandleConnection runs a connection's read loop until the socket dies or
// the client leaves. Blocking; callers start it on its own goroutine.
func (g *Gateway) HandleConnection(ns NetworkSession) {
	connID := uuid.NewString()
	limiter := rate.NewLimiter(inboundEventsPerSec, inboundBurst)
	log := g.log.With().Str("conn", connID).Logger()

	var player *Player
	var room *Room
	left := false

	sendBack := func(data []byte) {
		if player != nil {
			player.Send(data)
			return
		}
		ns.Write(data)
	}

	for {
		data, err := ns.Read()
		if err != nil {
			break
		}
		if !limiter.Allow() {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			sendBack(MakeError("malformed event"))
			continue
		}

		if room == nil {
			switch env.Event {
			case EventCreateRoom:
				player, room = g.createRoom(ns, connID, env.Data, log)
			case EventJoinRoom:
				player, room = g.joinRoom(ns, connID, env.Data, log)
			case EventReconnect:
				player, room = g.reconnect(ns, connID, env.Data, log)
			default:
				sendBack(MakeError("join a room first"))
			}
			continue
		}

		if env.Event == EventLeaveRoom {
			left = true
		}
		room.Deliver(env, player, connID)
		if left {
			// The room closes the transport as part of removal.
			return
		}
	}

	if room != nil && player != nil {
		room.NotifyDisconnect(player, connID)
		return
	}
	ns.Close("")
}

func (g *Gateway) createRoom(ns NetworkSession, connID string, data json.RawMessage, log zerolog.Logger) (*Player, *Room) {
	var d CreateRoomData
	if err := json.Unmarshal(data, &d); err != nil {
		ns.Write(MakeError("malformed createRoom payload"))
		return nil, nil
	}
	name := NormalizeName(d.PlayerName)
	avatar := ClampAvatar(d.Avatar)
	sessionID := g.sessions.Create(d.SessionID, name, avatar)

	p := NewPlayer(connID, sessionID, name, avatar)
	p.Attach(ns)

	room, err := g.registry.CreateRoom(p, DefaultSettings())
	if err != nil {
		log.Error().Err(err).Msg("room create failed")
		p.Send(MakeError("could not create a room, try again"))
		p.Detach()
		return nil, nil
	}
	g.sessions.Touch(sessionID, room.Code())
	p.Send(MakeRoomCreated(room.Code(), connID, true, sessionID))
	log.Info().Str("room", room.Code()).Str("player", name).Msg("room created")
	return p, room
}

func (g *Gateway) joinRoom(ns NetworkSession, connID string, data json.RawMessage, log zerolog.Logger) (*Player, *Room) {
	var d JoinRoomData
	if err := json.Unmarshal(data, &d); err != nil {
		ns.Write(MakeError("malformed joinRoom payload"))
		return nil, nil
	}
	code := strings.ToUpper(strings.TrimSpace(d.RoomID))
	room, err := g.registry.Find(code)
	if err != nil {
		ns.Write(MakeError("room not found: check the code"))
		return nil, nil
	}

	name := NormalizeName(d.PlayerName)
	avatar := ClampAvatar(d.Avatar)
	sessionID := g.sessions.Create(d.SessionID, name, avatar)

	p := NewPlayer(connID, sessionID, name, avatar)
	p.Attach(ns)

	jr := joinRequest{player: p, reply: make(chan error, 1)}
	room.RequestJoin(jr)
	if err := <-jr.reply; err != nil {
		p.Send(MakeError(joinErrorMessage(err)))
		p.Detach()
		return nil, nil
	}
	p.Send(MakeRoomJoined(code, false, sessionID))
	log.Info().Str("room", code).Str("player", name).Msg("room joined")
	return p, room
}

func (g *Gateway) reconnect(ns NetworkSession, connID string, data json.RawMessage, log zerolog.Logger) (*Player, *Room) {
	var d ReconnectData
	if err := json.Unmarshal(data, &d); err != nil {
		ns.Write(MakeError("malformed reconnect payload"))
		return nil, nil
	}
	sess, err := g.sessions.Resolve(d.SessionID)
	if err != nil {
		ns.Write(MakeError("reconnection failed: session expired"))
		return nil, nil
	}
	code := strings.ToUpper(strings.TrimSpace(d.RoomID))
	if code == "" {
		code = sess.RoomCode
	}
	room, err := g.registry.Find(code)
	if err != nil {
		ns.Write(MakeError("reconnection failed: room no longer exists"))
		return nil, nil
	}

	rr := reconnectRequest{
		sessionID: sess.ID,
		connID:    connID,
		transport: ns,
		reply:     make(chan reconnectReply, 1),
	}
	room.RequestReconnect(rr)
	rep := <-rr.reply
	if rep.err != nil {
		ns.Write(MakeError("reconnection failed: no seat held for this session"))
		return nil, nil
	}
	g.sessions.Touch(sess.ID, code)
	log.Info().Str("room", code).Str("session", sess.ID).Msg("reconnected")
	return rep.player, room
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrRoomFull):
		return "that room is full"
	case errors.Is(err, ErrRoomClosed):
		return "that room has closed"
	default:
		return "could not join the room"
	}
}
