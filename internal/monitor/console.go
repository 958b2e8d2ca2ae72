package monitor

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lightdimmer/internal/dimmer"
	"github.com/coreman2200/lightdimmer/internal/protocol"
)

const (
	consoleIn  = 256
	consoleOut = 64
)

// Console is a programming port reached over a websocket. Every connected
// client feeds the same byte stream and sees every reply.
type Console struct {
	s       *State
	clients map[*websocket.Conn]bool // guarded by s.mu
	in      chan byte
	out     chan []byte
	overrun atomic.Int64

	// feedMu serializes clients feeding in.
	feedMu sync.Mutex
	line   protocol.Resync
}

func newConsole(s *State) *Console {
	return &Console{
		s:       s,
		clients: map[*websocket.Conn]bool{},
		in:      make(chan byte, consoleIn),
		out:     make(chan []byte, consoleOut),
	}
}

// Port wires the console into a controller.
func (c *Console) Port() dimmer.Port {
	return dimmer.Port{Name: "console", In: c.in, Out: c}
}

// Write queues p for the clients. It never blocks; replies are dropped while
// the queue is full.
func (c *Console) Write(p []byte) (int, error) {
	b := append([]byte(nil), p...)
	select {
	case c.out <- b:
	default:
		log.Debug().Int("bytes", len(p)).Msg("console reply dropped")
	}
	return len(p), nil
}

func (c *Console) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c.s.mu.Lock()
	c.clients[conn] = true
	c.s.mu.Unlock()

	go func() {
		defer func() {
			c.s.mu.Lock()
			delete(c.clients, conn)
			c.s.mu.Unlock()
			conn.Close()
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			c.feed(data)
		}
	}()
}

// feed queues data without blocking. An overrun discards the rest of the
// line it hit.
func (c *Console) feed(data []byte) {
	c.feedMu.Lock()
	defer c.feedMu.Unlock()
	for _, b := range data {
		if c.line.Push(c.in, b) {
			continue
		}
		if n := c.overrun.Add(1); n == 1 || n%1000 == 0 {
			log.Warn().Int64("dropped", n).Msg("console input overrun")
		}
	}
}

func (c *Console) broadcast(b []byte) {
	c.s.broadcast(c.clients, b)
}
