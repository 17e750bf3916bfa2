// Package audit provides PostgreSQL-backed storage for the moderation log.
// Each entry captures one blocked message: who sent it, where, the offending
// text, the primary violation, and a snapshot of the surrounding conversation
// for moderator review. Entries are append-only.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/traderoom/chat-core/internal/moderation"
)

// ActionBlocked is the only action this subsystem records: the message was
// rejected before commit.
const ActionBlocked = "blocked"

// validActions matches the CHECK constraint on the moderation_log table.
var validActions = map[string]bool{
	ActionBlocked: true,
}

// ContextMessage is one message in the conversation snapshot attached to an
// entry.
type ContextMessage struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
	Ts     int64  `json:"ts"`
}

// Entry is a single moderation log record.
type Entry struct {
	ID             string
	UserID         string
	RoomID         string
	MessageContent string
	ViolationType  string
	Severity       moderation.Severity
	ActionTaken    string
	Context        []ContextMessage // recent room messages, may be empty
	CreatedAt      time.Time
}

// Store manages moderation log entries in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a moderation log store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts one moderation log entry. The context snapshot is marshalled
// to JSONB. The action is validated against the allowed set before insertion.
// A zero ID or CreatedAt is filled in.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	if !validActions[entry.ActionTaken] {
		return fmt.Errorf("audit: invalid action %q", entry.ActionTaken)
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var contextJSON []byte
	if len(entry.Context) > 0 {
		var err error
		contextJSON, err = json.Marshal(entry.Context)
		if err != nil {
			return fmt.Errorf("audit: marshal context: %w", err)
		}
	}

	const query = `
		INSERT INTO moderation_log (id, user_id, room_id, message_content, violation_type, severity, action_taken, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.RoomID,
		entry.MessageContent,
		entry.ViolationType,
		string(entry.Severity),
		entry.ActionTaken,
		contextJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// CountRecent returns the number of entries logged against a user within the
// given time window. Useful for spotting repeat offenders.
func (s *Store) CountRecent(ctx context.Context, userID string, window time.Duration) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM moderation_log
		WHERE user_id = $1
		  AND created_at >= NOW() - $2::interval`

	var count int
	err := s.db.QueryRowContext(ctx, query, userID, window.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("audit: count recent: %w", err)
	}
	return count, nil
}
