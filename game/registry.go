package game

import (
	"time"

	"github.com/rs/zerolog"
)

const sessionSweepEvery = 30 // seconds of registry ticks between sweeps

type createRequest struct {
	host     *Player
	settings Settings
	reply    chan createReply
}

type createReply struct {
	room *Room
	err  error
}

type resolveRequest struct {
	code  string
	reply chan *Room
}

// Registry owns the room map: it allocates codes, runs each room's actor,
// fans a shared one-second ticker out to every room, and reaps rooms whose
// roster has emptied. It is itself an actor, so the map needs no lock.
type Registry struct {
	sessions *SessionRegistry
	words    WordSource
	grace    time.Duration
	tickers  TickerFactory
	log      zerolog.Logger

	rooms map[string]*Room

	createReqs  chan createRequest
	resolveReqs chan resolveRequest
	removeReqs  chan string
}

func NewRegistry(sessions *SessionRegistry, words WordSource, grace time.Duration,
	tickers TickerFactory, log zerolog.Logger) *Registry {
	return &Registry{
		sessions:    sessions,
		words:       words,
		grace:       grace,
		tickers:     tickers,
		log:         log,
		rooms:       make(map[string]*Room),
		createReqs:  make(chan createRequest, 32),
		resolveReqs: make(chan resolveRequest, 256),
		removeReqs:  make(chan string, 32),
	}
}

// Run is the registry actor; started is closed once the loop is live.
func (reg *Registry) Run(started chan struct{}) {
	ticker := reg.tickers.Create(time.Second)
	pingTicker := reg.tickers.Create(30 * time.Second)
	sweepCountdown := sessionSweepEvery

	close(started)

	for {
		select {
		case now := <-ticker:
			for _, room := range reg.rooms {
				room.Tick(now)
			}
			if sweepCountdown--; sweepCountdown <= 0 {
				sweepCountdown = sessionSweepEvery
				reg.sessions.Sweep(now)
			}
		case <-pingTicker:
			for _, room := range reg.rooms {
				room.PingPlayers()
			}
		case req := <-reg.createReqs:
			req.reply <- reg.handleCreate(req)
		case req := <-reg.resolveReqs:
			req.reply <- reg.rooms[req.code]
		case code := <-reg.removeReqs:
			reg.handleRemove(code)
		}
	}
}

func (reg *Registry) handleCreate(req createRequest) createReply {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := newRoomCode()
		if _, taken := reg.rooms[code]; taken {
			continue
		}
		room := NewRoom(code, req.host, req.settings, reg.sessions, reg.words,
			reg.grace, reg.RemoveRoom, reg.log)
		reg.rooms[code] = room
		go room.GameLoop()
		reg.log.Info().Str("room", code).Int("rooms", len(reg.rooms)).Msg("room created")
		return createReply{room: room}
	}
	return createReply{err: ErrCodeSpaceExhausted}
}

func (reg *Registry) handleRemove(code string) {
	room, ok := reg.rooms[code]
	if !ok {
		return
	}
	delete(reg.rooms, code)
	room.Close()
	reg.log.Info().Str("room", code).Int("rooms", len(reg.rooms)).Msg("room removed")
}

// CreateRoom allocates a code and starts a room with host already seated.
func (reg *Registry) CreateRoom(host *Player, settings Settings) (*Room, error) {
	req := createRequest{host: host, settings: settings, reply: make(chan createReply, 1)}
	reg.createReqs <- req
	rep := <-req.reply
	return rep.room, rep.err
}

// Find resolves a room code; missing codes report ErrRoomNotFound.
func (reg *Registry) Find(code string) (*Room, error) {
	req := resolveRequest{code: code, reply: make(chan *Room, 1)}
	reg.resolveReqs <- req
	room := <-req.reply
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// RemoveRoom reaps a room; rooms call this themselves once their roster
// empties out.
func (reg *Registry) RemoveRoom(code string) {
	select {
	case reg.removeReqs <- code:
	default:
		go func() { reg.removeReqs <- code }()
	}
}
