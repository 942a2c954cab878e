package game

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

// --- WordSource ---

type MockWordSource struct {
	mock.Mock
}

func (m *MockWordSource) Offer(count int, custom []string, customPct int) []string {
	args := m.Called(count, custom, customPct)
	return args.Get(0).([]string)
}

// --- TickerFactory ---

type MockTickerFactory struct {
	mock.Mock
}

func (m *MockTickerFactory) Create(d time.Duration) <-chan time.Time {
	args := m.Called(d)
	return args.Get(0).(chan time.Time)
}

// --- NetworkSession ---

// fakeConn is a scriptable NetworkSession: Read pops pre-queued inbound
// frames (then reports EOF), Write captures every outbound frame for
// inspection. Safe to share between the test and a write pump.
type fakeConn struct {
	mu     sync.Mutex
	reads  [][]byte
	frames [][]byte
	closed bool
	pings  int
}

func newFakeConn(reads ...string) *fakeConn {
	c := &fakeConn{}
	for _, r := range reads {
		c.reads = append(c.reads, []byte(r))
	}
	return c
}

func (c *fakeConn) Read() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.reads) == 0 {
		return nil, io.EOF
	}
	data := c.reads[0]
	c.reads = c.reads[1:]
	return data, nil
}

func (c *fakeConn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
	return nil
}

func (c *fakeConn) Close(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) events(t *testing.T) []Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	return decodeFrames(t, c.frames)
}

func (c *fakeConn) hasEvent(t *testing.T, name string) bool {
	t.Helper()
	for _, e := range c.events(t) {
		if e.Event == name {
			return true
		}
	}
	return false
}

// --- frame helpers ---

func decodeFrames(t *testing.T, frames [][]byte) []Envelope {
	t.Helper()
	out := make([]Envelope, 0, len(frames))
	for _, f := range frames {
		var env Envelope
		if err := json.Unmarshal(f, &env); err != nil {
			t.Fatalf("undecodable frame %q: %v", f, err)
		}
		out = append(out, env)
	}
	return out
}

func eventNames(events []Envelope) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Event)
	}
	return names
}

// findEvent returns the payload of the last event with the given name.
func findEvent(events []Envelope, name string) (json.RawMessage, bool) {
	var data json.RawMessage
	found := false
	for _, e := range events {
		if e.Event == name {
			data = e.Data
			found = true
		}
	}
	return data, found
}

// newBufferedPlayer builds a player whose outbox can be drained directly by
// the test: frames queue synchronously, no write pump involved.
func newBufferedPlayer(connID, sessionID, name string) *Player {
	p := NewPlayer(connID, sessionID, name, [4]int{1, 2, 3, 4})
	p.outbox = make(chan []byte, playerOutboxSize)
	return p
}

// takeEvents drains and decodes everything queued on a buffered player's
// outbox, so later assertions see only frames from later actions.
func takeEvents(t *testing.T, p *Player) []Envelope {
	t.Helper()
	var frames [][]byte
	for {
		select {
		case data := <-p.outbox:
			frames = append(frames, data)
		default:
			return decodeFrames(t, frames)
		}
	}
}
