// Package monitor serves the dimmer's status, diagnostics and a programming
// console over HTTP and websockets.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lightdimmer/internal/diagnostics"
	"github.com/coreman2200/lightdimmer/internal/dimmer"
)

const (
	writeWait = 200 * time.Millisecond
	diagQueue = 64
	// recentDiags are replayed to a diagnostics client when it connects.
	recentDiags = 16
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// State fans controller output out to websocket clients. PublishStatus,
// PushDiag and the console writer never block, so they are safe to call from
// the control loop.
type State struct {
	mu          sync.RWMutex
	status      dimmer.Status
	hasStatus   bool
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	recent      []diagnostics.Diagnostic

	wake    chan struct{}
	diags   chan diagnostics.Diagnostic
	dropped int

	console *Console
}

func NewState() *State {
	s := &State{
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
		wake:        make(chan struct{}, 1),
		diags:       make(chan diagnostics.Diagnostic, diagQueue),
	}
	s.console = newConsole(s)
	return s
}

// Console returns the websocket programming port.
func (s *State) Console() *Console { return s.console }

// PublishStatus records the latest snapshot. Intermediate snapshots may be
// skipped by slow clients; the newest one always goes out.
func (s *State) PublishStatus(st dimmer.Status) {
	s.mu.Lock()
	s.status = st
	s.hasStatus = true
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// PushDiag queues d for the diagnostics clients, dropping it if the queue is
// full.
func (s *State) PushDiag(d diagnostics.Diagnostic) {
	select {
	case s.diags <- d:
	default:
		s.mu.Lock()
		s.dropped++
		n := s.dropped
		s.mu.Unlock()
		if n == 1 || n%100 == 0 {
			log.Warn().Int("dropped", n).Msg("diagnostics queue full")
		}
	}
}

// Status returns the latest published snapshot.
func (s *State) Status() (dimmer.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.hasStatus
}

// Run broadcasts queued updates until ctx is done.
func (s *State) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-s.wake:
			st, _ := s.Status()
			s.broadcastStatus(st)
		case d := <-s.diags:
			s.remember(d)
			s.broadcastDiag(d)
		case b := <-s.console.out:
			s.console.broadcast(b)
		}
	}
}

func (s *State) HandleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	// registered and primed under the lock so no broadcast interleaves
	s.mu.Lock()
	s.clients[conn] = true
	if s.hasStatus {
		send(conn, s.status)
	}
	s.mu.Unlock()
	go s.drainReads(conn, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	for _, d := range s.recent {
		send(conn, d)
	}
	s.mu.Unlock()
	go s.drainReads(conn, s.diagClients)
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"uptime_s":     time.Since(s.startTime).Seconds(),
		"booted":       s.hasStatus,
		"state":        s.status.State,
		"output":       s.status.Hex,
		"patch":        s.status.Patch,
		"credits":      s.status.Credits,
		"cycle":        s.status.Cycle,
		"clients":      len(s.clients),
		"diag_clients": len(s.diagClients),
	}
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// drainReads keeps conn registered in set until the peer goes away.
func (s *State) drainReads(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *State) remember(d diagnostics.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, d)
	if len(s.recent) > recentDiags {
		s.recent = s.recent[len(s.recent)-recentDiags:]
	}
}

func (s *State) broadcastStatus(st dimmer.Status) {
	b, _ := json.Marshal(st)
	s.broadcast(s.clients, b)
}

func (s *State) broadcastDiag(d diagnostics.Diagnostic) {
	b, _ := json.Marshal(d)
	s.broadcast(s.diagClients, b)
}

func (s *State) broadcast(set map[*websocket.Conn]bool, b []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range set {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("websocket write")
		}
	}
}

func (s *State) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, set := range []map[*websocket.Conn]bool{s.clients, s.diagClients, s.console.clients} {
		for c := range set {
			c.Close()
		}
	}
}

func send(conn *websocket.Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Debug().Err(err).Msg("websocket write")
	}
}
