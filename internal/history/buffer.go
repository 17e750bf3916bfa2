// Package history retains the most recent messages per room in memory.
// The gateway snapshots a room's history when a message is blocked so the
// moderation log entry carries conversation context for moderators.
package history

import "sync"

// DefaultCapacity is the number of recent messages retained per room.
const DefaultCapacity = 5

// Message is a single retained chat message.
type Message struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
	Ts     int64  `json:"ts"`
}

// Buffer stores the last N messages per room. It is goroutine-safe and uses
// a fixed-size ring per room internally.
type Buffer struct {
	capacity int
	mu       sync.RWMutex
	rooms    map[string]*ring // roomID -> ring
}

type ring struct {
	items []Message
	pos   int
	count int
}

// NewBuffer creates a Buffer retaining capacity messages per room.
// A capacity <= 0 falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		rooms:    make(map[string]*ring),
	}
}

// Record appends a message to the room's ring. When the ring is full the
// oldest message is overwritten.
func (b *Buffer) Record(roomID string, msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rooms[roomID]
	if !ok {
		r = &ring{items: make([]Message, b.capacity)}
		b.rooms[roomID] = r
	}

	r.items[r.pos] = msg
	r.pos = (r.pos + 1) % b.capacity
	if r.count < b.capacity {
		r.count++
	}
}

// Recent returns the room's retained messages in chronological order
// (oldest first). Returns an empty slice for an unknown room.
func (b *Buffer) Recent(roomID string) []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.rooms[roomID]
	if !ok {
		return []Message{}
	}

	out := make([]Message, r.count)
	start := (r.pos - r.count + b.capacity) % b.capacity
	for i := 0; i < r.count; i++ {
		out[i] = r.items[(start+i)%b.capacity]
	}
	return out
}

// Drop discards a room's history (called when the last member leaves).
func (b *Buffer) Drop(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.rooms, roomID)
}
