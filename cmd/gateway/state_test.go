package main

import (
	"sync"
	"testing"

	"github.com/traderoom/chat-core/internal/presence"
)

func newIdlePoller() *presence.Poller {
	// Never started, so tests exercise registry bookkeeping only.
	return presence.NewPoller(nil, "room1", "u1", presence.DefaultConfig(), nil)
}

func TestClientState_TakeAllClosesRegistration(t *testing.T) {
	state := newClientState("u1", "Uma")

	if !state.setPoller("room1", newIdlePoller()) {
		t.Fatal("registration before close must succeed")
	}

	taken := state.takeAll()
	if len(taken) != 1 {
		t.Fatalf("takeAll returned %d pollers, want 1", len(taken))
	}

	// A poller racing in from the read loop during disconnect is refused, so
	// the caller stops it instead of leaking it.
	if state.setPoller("room2", newIdlePoller()) {
		t.Error("registration after takeAll must be refused")
	}
	if p := state.takePoller("room2"); p != nil {
		t.Error("refused poller must not be registered")
	}
}

func TestClientState_TakePollerRemoves(t *testing.T) {
	state := newClientState("u1", "Uma")
	poller := newIdlePoller()
	state.setPoller("room1", poller)

	if got := state.takePoller("room1"); got != poller {
		t.Fatal("takePoller must return the registered poller")
	}
	if got := state.takePoller("room1"); got != nil {
		t.Error("second take must return nil")
	}
}

func TestClientState_ConcurrentAccess(t *testing.T) {
	// Handlers mutate the poller map on the read-loop goroutine while
	// disconnect cleanup drains it from another; the registry must survive
	// that interleaving.
	state := newClientState("u1", "Uma")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if state.setPoller("room1", newIdlePoller()) {
					state.takePoller("room1")
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		state.takeAll()
	}()
	wg.Wait()

	if state.setPoller("room1", newIdlePoller()) {
		t.Error("state must be closed after takeAll")
	}
}

func TestRoomRegistry_FirstAndLast(t *testing.T) {
	rooms := newRoomRegistry()

	if !rooms.join("r1", "c1") {
		t.Error("first member must report first=true")
	}
	if rooms.join("r1", "c2") {
		t.Error("second member must report first=false")
	}
	if rooms.leave("r1", "c1") {
		t.Error("leaving with members left must report last=false")
	}
	if !rooms.leave("r1", "c2") {
		t.Error("last member leaving must report last=true")
	}
	if rooms.leave("r1", "c2") {
		t.Error("leaving an empty room must report last=false")
	}
}

func TestClientHost(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"203.0.113.9:51442", "203.0.113.9"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.9", "203.0.113.9"},
	}

	for _, tt := range tests {
		if got := clientHost(tt.addr); got != tt.want {
			t.Errorf("clientHost(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
