package game

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type RoomPhase int

const (
	PhaseLobby RoomPhase = iota
	PhaseWordSelection
	PhaseDrawing
	PhaseTurnResults
	PhaseGameOver
)

func (p RoomPhase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseWordSelection:
		return "wordSelection"
	case PhaseDrawing:
		return "drawing"
	case PhaseTurnResults:
		return "turnResults"
	case PhaseGameOver:
		return "gameOver"
	}
	return "unknown"
}

const (
	wordSelectionSeconds = 8
	turnResultsSeconds   = 5
	chatLogCap           = 32

	roomInboxSize = 1024
)

// Settings are per-room game parameters, host-mutable between turns.
type Settings struct {
	Rounds                int
	DrawTimeSec           int
	WordCount             int
	CustomWords           []string
	CustomWordProbability int
	MaxPlayers            int
}

func DefaultSettings() Settings {
	return Settings{
		Rounds:                3,
		DrawTimeSec:           60,
		WordCount:             3,
		CustomWordProbability: 50,
		MaxPlayers:            8,
	}
}

// Clamped coerces every field into its documented range instead of rejecting
// out-of-range values, to tolerate minor client drift.
func (s Settings) Clamped() Settings {
	s.Rounds = clamp(s.Rounds, 1, 10)
	s.DrawTimeSec = clamp(s.DrawTimeSec, 30, 180)
	s.WordCount = clamp(s.WordCount, 3, 5)
	s.CustomWordProbability = clamp(s.CustomWordProbability, 0, 100)
	s.MaxPlayers = clamp(s.MaxPlayers, 2, 16)
	return s
}

func (s Settings) drawTime() time.Duration {
	return time.Duration(s.DrawTimeSec) * time.Second
}

func (s Settings) Wire() SettingsData {
	return SettingsData{
		Rounds:                s.Rounds,
		DrawTime:              s.DrawTimeSec,
		WordCount:             s.WordCount,
		CustomWords:           WordList(s.CustomWords),
		CustomWordProbability: s.CustomWordProbability,
		MaxPlayers:            s.MaxPlayers,
	}
}

func SettingsFromWire(d SettingsData) Settings {
	return Settings{
		Rounds:                d.Rounds,
		DrawTimeSec:           d.DrawTime,
		WordCount:             d.WordCount,
		CustomWords:           d.CustomWords,
		CustomWordProbability: d.CustomWordProbability,
		MaxPlayers:            d.MaxPlayers,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type envelopeFrom struct {
	env    Envelope
	from   *Player
	connID string
}

type joinRequest struct {
	player *Player
	reply  chan error
}

type reconnectRequest struct {
	sessionID string
	connID    string
	transport NetworkSession
	reply     chan reconnectReply
}

type reconnectReply struct {
	player *Player
	err    error
}

type disconnectNotice struct {
	player *Player
	connID string
}

// Room owns one game: roster, settings and the turn state machine. All
// state is touched only by the room's own goroutine (GameLoop); everything
// outside talks to it through channels, so timer ticks, guesses and joins
// are serialized against each other.
type Room struct {
	code          string
	hostSessionID string
	settings      Settings

	phase           RoomPhase
	round           int
	turn            int
	drawerSessionID string
	currentWord     string
	wordChoices     []string
	correctGuessers map[string]bool
	scoreIncrements map[string]int
	drawnThisRound  map[string]bool
	turnStart       time.Time
	turnDeadline    time.Time
	nextTick        time.Time
	revealed        int

	players []*Player
	strokes json.RawMessage
	chatLog []ChatItem

	sessions       *SessionRegistry
	words          WordSource
	grace          time.Duration
	releaseFromReg func(code string)
	log            zerolog.Logger

	inbox      chan envelopeFrom
	joins      chan joinRequest
	reconnects chan reconnectRequest
	drops      chan disconnectNotice
	ticks      chan time.Time
	pings      chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

func NewRoom(code string, host *Player, settings Settings, sessions *SessionRegistry,
	words WordSource, grace time.Duration, release func(code string), log zerolog.Logger) *Room {
	r := &Room{
		code:            code,
		hostSessionID:   host.sessionID,
		settings:        settings.Clamped(),
		phase:           PhaseLobby,
		correctGuessers: make(map[string]bool),
		scoreIncrements: make(map[string]int),
		drawnThisRound:  make(map[string]bool),
		players:         []*Player{host},
		sessions:        sessions,
		words:           words,
		grace:           grace,
		releaseFromReg:  release,
		log:             log.With().Str("room", code).Logger(),
		inbox:           make(chan envelopeFrom, roomInboxSize),
		joins:           make(chan joinRequest),
		reconnects:      make(chan reconnectRequest),
		drops:           make(chan disconnectNotice, 64),
		ticks:           make(chan time.Time, 8),
		pings:           make(chan struct{}, 1),
		done:            make(chan struct{}),
	}
	return r
}

func (r *Room) Code() string { return r.code }

// Deliver queues an inbound event for the room actor. connID names the
// connection that read the event, so input from a transport that was
// superseded by a reconnect can be discarded instead of acting as the
// reconnected player.
func (r *Room) Deliver(env Envelope, from *Player, connID string) {
	select {
	case r.inbox <- envelopeFrom{env: env, from: from, connID: connID}:
	case <-r.done:
	}
}

func (r *Room) RequestJoin(jr joinRequest) {
	select {
	case r.joins <- jr:
	case <-r.done:
		jr.reply <- ErrRoomClosed
	}
}

func (r *Room) RequestReconnect(rr reconnectRequest) {
	select {
	case r.reconnects <- rr:
	case <-r.done:
		rr.reply <- reconnectReply{err: ErrRoomClosed}
	}
}

// NotifyDisconnect reports a dropped transport; the player keeps their
// roster slot until the reconnection grace period runs out. connID names
// the connection that died, so a drop from a superseded transport cannot
// knock out a player who already reconnected.
func (r *Room) NotifyDisconnect(p *Player, connID string) {
	select {
	case r.drops <- disconnectNotice{player: p, connID: connID}:
	case <-r.done:
	}
}

// Tick forwards a shared timer tick; a busy room just skips one.
func (r *Room) Tick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

func (r *Room) PingPlayers() {
	select {
	case r.pings <- struct{}{}:
	default:
	}
}

// Close stops the actor. Called by the registry when the room is reaped.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}
