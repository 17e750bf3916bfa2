package main

import (
	"net"
	"sync"

	"github.com/traderoom/chat-core/internal/presence"
)

// clientState tracks per-connection gateway state: the identified user and
// the presence pollers for each room view the client has open. The poller map
// is mutated from the connection's read loop and, on disconnect, from the
// cleanup goroutine, so access goes through the mutex-guarded methods.
type clientState struct {
	userID   string
	userName string

	mu      sync.Mutex
	closed  bool
	pollers map[string]*presence.Poller // keyed by room ID
}

func newClientState(userID, userName string) *clientState {
	return &clientState{
		userID:   userID,
		userName: userName,
		pollers:  make(map[string]*presence.Poller),
	}
}

// setPoller registers a room's poller. Returns false if the state was already
// closed by disconnect cleanup; the caller must stop the poller itself.
func (s *clientState) setPoller(roomID string, p *presence.Poller) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.pollers[roomID] = p
	return true
}

// takePoller removes and returns a room's poller, or nil if none.
func (s *clientState) takePoller(roomID string) *presence.Poller {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pollers[roomID]
	delete(s.pollers, roomID)
	return p
}

// takeAll marks the state closed and returns every registered poller. After
// takeAll, setPoller refuses new registrations, so a poller racing in from
// the read loop during disconnect can never leak unstopped.
func (s *clientState) takeAll() map[string]*presence.Poller {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	out := s.pollers
	s.pollers = nil
	return out
}

// clientRegistry maps connection IDs to their clientState.
type clientRegistry struct {
	mu      sync.Mutex
	clients map[string]*clientState
}

func newClientRegistry() *clientRegistry {
	return &clientRegistry{clients: make(map[string]*clientState)}
}

func (r *clientRegistry) add(connID string, state *clientState) {
	r.mu.Lock()
	r.clients[connID] = state
	r.mu.Unlock()
}

func (r *clientRegistry) get(connID string) *clientState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients[connID]
}

func (r *clientRegistry) remove(connID string) *clientState {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.clients[connID]
	delete(r.clients, connID)
	return state
}

// roomRegistry tracks which connections have each room open, for message
// fan-out within this gateway instance.
type roomRegistry struct {
	mu    sync.Mutex
	rooms map[string]map[string]bool // roomID -> set of connIDs
}

func newRoomRegistry() *roomRegistry {
	return &roomRegistry{rooms: make(map[string]map[string]bool)}
}

// join adds a connection to a room's member set. Returns true if this was
// the room's first local member.
func (r *roomRegistry) join(roomID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[string]bool)
	}
	first := len(r.rooms[roomID]) == 0
	r.rooms[roomID][connID] = true
	return first
}

// leave removes a connection from a room's member set. Returns true if the
// room has no local members left.
func (r *roomRegistry) leave(roomID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.rooms[roomID]
	if members == nil {
		return false
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
		return true
	}
	return false
}

func (r *roomRegistry) members(roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.rooms[roomID]))
	for connID := range r.rooms[roomID] {
		ids = append(ids, connID)
	}
	return ids
}

// clientHost extracts the host part of a remote address for per-address rate
// limiting. Falls back to the whole address when it has no port.
func clientHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
