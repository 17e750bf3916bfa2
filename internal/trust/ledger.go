// Package trust maintains per-user reputation scores for the chat platform.
// Scores are clamped to [0, 100], start at a neutral default for unknown
// users, and every effective adjustment is recorded in an append-only event
// trail. The score itself is authoritative; the event trail is best-effort.
package trust

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Score bounds and the neutral starting value for users with no history.
const (
	MinScore     = 0.0
	MaxScore     = 100.0
	DefaultScore = 50.0
)

// Adjustment deltas. These are product policy and shared by every caller so
// reward and penalty sizing has a single source of truth.
const (
	// DeltaValidMessage rewards a clean text message that was committed.
	DeltaValidMessage = 0.1

	// DeltaFileShared rewards a successfully shared file.
	DeltaFileShared = 0.2

	// PenaltyHighSeverity is applied when a message is blocked for a
	// high-severity violation.
	PenaltyHighSeverity = -10.0

	// PenaltyDefault is applied when a message is blocked for a low- or
	// medium-severity violation.
	PenaltyDefault = -5.0
)

// Event is one append-only audit entry recording a score adjustment.
type Event struct {
	ID              string
	UserID          string
	Delta           float64
	Reason          string
	ResultingScore  float64
	RelatedEntityID string // optional, e.g. the offending message id
	CreatedAt       time.Time
}

// ScoreStore is the persistence boundary for current scores. GetScore
// distinguishes "no record" from zero so the ledger can apply the neutral
// default exactly once, at read time.
type ScoreStore interface {
	GetScore(ctx context.Context, userID string) (score float64, found bool, err error)
	SetScore(ctx context.Context, userID string, score float64) error
}

// EventStore is the persistence boundary for the audit trail.
type EventStore interface {
	AppendEvent(ctx context.Context, ev Event) error
}

// Ledger owns read-default-adjust-clamp-write score updates and their audit
// events. Concurrent adjustments for the same user from different devices may
// race; last write wins on the score, both events are still recorded.
type Ledger struct {
	scores ScoreStore
	events EventStore
}

// NewLedger creates a Ledger over the given stores.
func NewLedger(scores ScoreStore, events EventStore) *Ledger {
	return &Ledger{scores: scores, events: events}
}

// Score returns the user's current score, applying the neutral default when
// the user has no record.
func (l *Ledger) Score(ctx context.Context, userID string) (float64, error) {
	score, found, err := l.scores.GetScore(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("trust: get score for %s: %w", userID, err)
	}
	if !found {
		return DefaultScore, nil
	}
	return score, nil
}

// Adjust applies delta to the user's score, clamped to [MinScore, MaxScore],
// and appends an audit event. It returns the resulting score.
//
// If the clamped result equals the current score (already at a floor or
// ceiling), nothing is written and no event is appended. If the event write
// fails after the score write succeeded, the failure is logged and swallowed:
// the score is authoritative and the audit trail is eventually consistent.
func (l *Ledger) Adjust(ctx context.Context, userID string, delta float64, reason, relatedEntityID string) (float64, error) {
	current, err := l.Score(ctx, userID)
	if err != nil {
		return 0, err
	}

	clamped := clamp(current + delta)
	if clamped == current {
		return current, nil
	}

	if err := l.scores.SetScore(ctx, userID, clamped); err != nil {
		return current, fmt.Errorf("trust: set score for %s: %w", userID, err)
	}

	ev := Event{
		ID:              uuid.New().String(),
		UserID:          userID,
		Delta:           delta,
		Reason:          reason,
		ResultingScore:  clamped,
		RelatedEntityID: relatedEntityID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := l.events.AppendEvent(ctx, ev); err != nil {
		log.Printf("[trust] event append failed user=%s delta=%+.1f: %v", userID, delta, err)
	}

	return clamped, nil
}

// clamp bounds a score to [MinScore, MaxScore].
func clamp(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
