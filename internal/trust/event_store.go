package trust

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PGEventStore persists score-adjustment events in PostgreSQL. Rows are
// append-only: this store never updates or deletes them.
type PGEventStore struct {
	db *sql.DB
}

// NewPGEventStore creates an event store backed by the given database handle.
func NewPGEventStore(db *sql.DB) *PGEventStore {
	return &PGEventStore{db: db}
}

// AppendEvent inserts one adjustment event.
func (s *PGEventStore) AppendEvent(ctx context.Context, ev Event) error {
	const query = `
		INSERT INTO trust_events (id, user_id, delta, reason, resulting_score, related_entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`

	_, err := s.db.ExecContext(ctx, query,
		ev.ID,
		ev.UserID,
		ev.Delta,
		ev.Reason,
		ev.ResultingScore,
		ev.RelatedEntityID,
		ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("trust: insert event: %w", err)
	}
	return nil
}

// RecentEvents returns a user's adjustment events within the given window,
// newest first. Used by moderator tooling to review a user's history.
func (s *PGEventStore) RecentEvents(ctx context.Context, userID string, window time.Duration, limit int) ([]Event, error) {
	const query = `
		SELECT id, user_id, delta, reason, resulting_score, COALESCE(related_entity_id, ''), created_at
		FROM trust_events
		WHERE user_id = $1
		  AND created_at >= NOW() - $2::interval
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, userID, window.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("trust: query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Delta, &ev.Reason, &ev.ResultingScore, &ev.RelatedEntityID, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("trust: scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trust: iterate events: %w", err)
	}
	return events, nil
}
