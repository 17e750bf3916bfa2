// Package presence tracks who is typing in a chat room. Typing records are
// ephemeral: each keystroke burst refreshes a per-user record, every room
// member's poller reads them on a throttled interval, and records that outlive
// the staleness threshold are excluded from display and opportunistically
// deleted by whichever client sees them first.
package presence

import "time"

// TypingRecord is one user's ephemeral typing marker in a room. At most one
// record per (room, user) is meaningful.
type TypingRecord struct {
	RoomID      string    `json:"room_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	IsTyping    bool      `json:"is_typing"`
	LastTypedAt time.Time `json:"last_typed_at"`
}

// Stale reports whether the record is old enough to be treated as absent.
func (r TypingRecord) Stale(now time.Time, threshold time.Duration) bool {
	return now.Sub(r.LastTypedAt) >= threshold
}

// Partition splits fetched records into the active typing set (fresh, typing,
// not the local user) and the stale set (eligible for best-effort cleanup).
// Fresh records belonging to selfID land in neither set.
func Partition(records []TypingRecord, selfID string, now time.Time, threshold time.Duration) (active, stale []TypingRecord) {
	for _, r := range records {
		switch {
		case r.Stale(now, threshold):
			stale = append(stale, r)
		case r.IsTyping && r.UserID != selfID:
			active = append(active, r)
		}
	}
	return active, stale
}
