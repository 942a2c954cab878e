package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	maxNameLength    = 12
	playerOutboxSize = 256
)

// Player is one roster slot in a Room. id is connection-scoped and changes
// on reconnect; sessionID is the durable key that reunites the record with a
// returning client. Game state fields are mutated only on the owning room's
// goroutine; the transport fields are additionally guarded by mu because a
// gateway read loop may still Send while the room swaps transports on
// reconnect.
type Player struct {
	id        string
	sessionID string
	name      string
	avatar    [4]int
	score     int
	connected bool

	// spectator marks a mid-game joiner waiting for the next round.
	spectator bool
	// graceDeadline is when a disconnected player's slot stops being held.
	graceDeadline time.Time

	mu      sync.Mutex
	session NetworkSession
	outbox  chan []byte
	done    chan struct{}
}

func NewPlayer(id, sessionID, name string, avatar [4]int) *Player {
	return &Player{
		id:        id,
		sessionID: sessionID,
		name:      name,
		avatar:    avatar,
		connected: true,
	}
}

// Attach binds a transport to the player and starts its write pump. Called
// once by the gateway before the player enters a room, and again by the room
// on reconnect.
func (p *Player) Attach(ns NetworkSession) {
	p.mu.Lock()
	p.session = ns
	p.outbox = make(chan []byte, playerOutboxSize)
	p.done = make(chan struct{})
	p.connected = true
	outbox, done := p.outbox, p.done
	p.mu.Unlock()
	go writePump(ns, outbox, done)
}

// Detach stops the write pump. The socket itself is left to the reader side,
// which is usually already seeing errors when this runs.
func (p *Player) Detach() {
	p.mu.Lock()
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
	p.connected = false
	p.mu.Unlock()
}

// Send queues an outbound frame without blocking. A consumer too slow to
// drain its outbox loses frames rather than stalling the whole room.
func (p *Player) Send(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected || p.outbox == nil {
		return
	}
	select {
	case p.outbox <- data:
	default:
	}
}

func (p *Player) Ping() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected && p.session != nil {
		p.session.Ping()
	}
}

func (p *Player) Info() PlayerInfo {
	return PlayerInfo{
		ID:        p.id,
		Name:      p.name,
		Score:     p.score,
		Avatar:    p.avatar,
		Connected: p.connected,
	}
}

func writePump(ns NetworkSession, outbox <-chan []byte, done <-chan struct{}) {
	for {
		select {
		case data := <-outbox:
			if err := ns.Write(data); err != nil {
				return
			}
		case <-done:
			// Flush whatever is already queued so parting error events
			// still reach the client.
			for {
				select {
				case data := <-outbox:
					if err := ns.Write(data); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// NormalizeName truncates to the display limit and substitutes a generated
// guest name when the submitted one is blank.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("Player-%04d", rand.Intn(10000))
	}
	runes := []rune(name)
	if len(runes) > maxNameLength {
		return string(runes[:maxNameLength])
	}
	return name
}

// ClampAvatar coerces the 4-tuple of palette indices into shape: missing or
// negative entries become 0, oversized ones are clamped to the palette edge.
func ClampAvatar(raw []int) [4]int {
	// Palette sizes for color/eyes/mouth/accessory on the client.
	limits := [4]int{10, 10, 10, 10}
	var out [4]int
	for i := 0; i < 4; i++ {
		v := 0
		if i < len(raw) {
			v = raw[i]
		}
		if v < 0 {
			v = 0
		}
		if v >= limits[i] {
			v = limits[i] - 1
		}
		out[i] = v
	}
	return out
}
