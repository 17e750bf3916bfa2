package gate

import (
	"context"
	"log"

	"github.com/traderoom/chat-core/internal/moderation"
	"github.com/traderoom/chat-core/internal/trust"
)

// SendPermission is the pre-classification verdict on whether a user may
// submit at all, derived from their current trust score.
type SendPermission int

const (
	// SendAllowed passes the message on to evaluation with no notice.
	SendAllowed SendPermission = iota

	// SendWarned passes the message on but attaches a non-blocking
	// low-trust advisory.
	SendWarned

	// SendMuted rejects the submission before classification. Muted users
	// never reach Evaluate.
	SendMuted
)

// Policy holds the trust thresholds gating send privileges. The same values
// apply to every room; per-room drift is deliberately not supported.
type Policy struct {
	MuteThreshold float64 // below this: hard mute
	WarnThreshold float64 // below this: advisory warning
}

// DefaultPolicy returns the platform thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MuteThreshold: 20,
		WarnThreshold: 40,
	}
}

// ScoreReader provides a user's current trust score.
type ScoreReader interface {
	Score(ctx context.Context, userID string) (float64, error)
}

// Screen reads the user's current score and maps it to a send permission.
// Every submission path, messages and files alike, goes through Screen before
// any reward or classification. A score read failure falls back to the
// default score so a store outage does not mute everyone.
func (p Policy) Screen(ctx context.Context, scores ScoreReader, userID string) SendPermission {
	score, err := scores.Score(ctx, userID)
	if err != nil {
		log.Printf("[gate] score lookup user=%s: %v", userID, err)
		score = trust.DefaultScore
	}
	return p.CheckSend(score)
}

// CheckSend maps a trust score to a send permission. The check happens before
// any message or file submission, ahead of content classification.
func (p Policy) CheckSend(score float64) SendPermission {
	switch {
	case score < p.MuteThreshold:
		return SendMuted
	case score < p.WarnThreshold:
		return SendWarned
	default:
		return SendAllowed
	}
}

// PenaltyFor returns the trust delta applied when a message is blocked with
// the given primary-violation severity.
func PenaltyFor(severity moderation.Severity) float64 {
	if severity == moderation.SeverityHigh {
		return trust.PenaltyHighSeverity
	}
	return trust.PenaltyDefault
}
