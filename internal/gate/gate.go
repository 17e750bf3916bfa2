// Package gate decides whether a chat message is accepted or blocked.
// It orchestrates the content classifier, the moderation log, and the trust
// ledger: a violation blocks the message, writes an audit entry, and applies
// a severity-sized trust penalty. The block decision is final regardless of
// whether the bookkeeping writes succeed.
package gate

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/traderoom/chat-core/internal/audit"
	"github.com/traderoom/chat-core/internal/moderation"
)

// Notice display durations surfaced to clients alongside decisions.
const (
	// BlockedNoticeTTL is how long a client shows the block reason.
	BlockedNoticeTTL = 5 * time.Second

	// AdvisoryNoticeTTL is how long a client shows the low-trust advisory.
	AdvisoryNoticeTTL = 3 * time.Second
)

// Classifier is the content-classification boundary.
type Classifier interface {
	Classify(text string) moderation.Verdict
}

// LogStore is the moderation-log boundary.
type LogStore interface {
	Append(ctx context.Context, entry audit.Entry) error
}

// Penalizer is the trust-ledger boundary used to apply block penalties.
type Penalizer interface {
	Adjust(ctx context.Context, userID string, delta float64, reason, relatedEntityID string) (float64, error)
}

// Message is one submission to evaluate. Context optionally carries recent
// room messages that are attached to the audit entry when the message is
// blocked.
type Message struct {
	UserID  string
	RoomID  string
	Text    string
	Context []audit.ContextMessage
}

// Decision is the outcome of evaluating a message. It is always returned as
// a value, never an error: callers render user-facing feedback from it
// deterministically.
type Decision struct {
	Accepted       bool
	Reason         string              // user-facing, empty when accepted
	ViolationType  string              // primary violation type, empty when accepted
	Severity       moderation.Severity // primary violation severity
	PenaltyApplied float64             // negative delta applied, 0 when accepted
	NewScore       float64             // score after penalty, 0 when accepted or on ledger failure
	LogID          string              // moderation log entry id, empty when accepted
}

// Gate evaluates messages before they are committed.
type Gate struct {
	classifier Classifier
	logs       LogStore
	ledger     Penalizer
}

// New creates a Gate over the given collaborators.
func New(classifier Classifier, logs LogStore, ledger Penalizer) *Gate {
	return &Gate{classifier: classifier, logs: logs, ledger: ledger}
}

// Evaluate classifies the message and returns an accept/block decision.
//
// On a violation it appends a moderation log entry and applies the
// severity-sized trust penalty. Both writes are best-effort: failures are
// logged and swallowed, and the block decision stands either way. The happy
// path has no side effects; the caller applies the positive reward delta
// after committing the message.
func (g *Gate) Evaluate(ctx context.Context, msg Message) Decision {
	verdict := g.classifier.Classify(msg.Text)
	if !verdict.IsViolation {
		return Decision{Accepted: true}
	}

	primary := verdict.Primary()
	logID := uuid.New().String()

	entry := audit.Entry{
		ID:             logID,
		UserID:         msg.UserID,
		RoomID:         msg.RoomID,
		MessageContent: msg.Text,
		ViolationType:  primary.Type,
		Severity:       primary.Severity,
		ActionTaken:    audit.ActionBlocked,
		Context:        msg.Context,
	}
	if err := g.logs.Append(ctx, entry); err != nil {
		log.Printf("[gate] moderation log append failed user=%s room=%s: %v", msg.UserID, msg.RoomID, err)
	}

	penalty := PenaltyFor(primary.Severity)
	newScore, err := g.ledger.Adjust(ctx, msg.UserID, penalty, primary.Reason, logID)
	if err != nil {
		// Reputation bookkeeping never reverts a block decision.
		log.Printf("[gate] penalty adjust failed user=%s: %v", msg.UserID, err)
		newScore = 0
	}

	return Decision{
		Accepted:       false,
		Reason:         assembleReason(verdict),
		ViolationType:  primary.Type,
		Severity:       primary.Severity,
		PenaltyApplied: penalty,
		NewScore:       newScore,
		LogID:          logID,
	}
}

// assembleReason joins every firing rule's reason into the user-facing
// block message.
func assembleReason(v moderation.Verdict) string {
	reasons := make([]string, 0, len(v.Violations))
	for _, viol := range v.Violations {
		reasons = append(reasons, viol.Reason)
	}
	return strings.Join(reasons, "; ")
}
