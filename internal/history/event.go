package history

// RoomEvent is the payload published to NATS room.events.<room_id> subjects
// for fanning accepted messages out across gateway instances.
type RoomEvent struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Text     string `json:"text"`
	Ts       int64  `json:"ts"`
}
