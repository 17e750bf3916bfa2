// Package moderation provides content classification for chat messages.
// It screens message text against an ordered list of detection rules and
// returns a verdict that downstream components use to block messages,
// size trust penalties, and write audit entries.
package moderation

// Severity grades how serious a detected violation is. It drives the size
// of the trust penalty applied when a message is blocked.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Violation is a single rule match in a message.
type Violation struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Reason   string   `json:"reason"`
}

// Verdict is the outcome of classifying one message. Violations are ordered
// by rule precedence: the first entry is the primary violation used for
// penalty sizing and audit logging, later entries are reported for analytics.
type Verdict struct {
	IsViolation bool        `json:"is_violation"`
	Violations  []Violation `json:"violations"`
}

// Primary returns the first-matched violation. It must only be called when
// IsViolation is true.
func (v Verdict) Primary() Violation {
	return v.Violations[0]
}

// MaxScanChars caps how much of a message is scanned. Longer input is
// truncated, not rejected, so classification runs in bounded time even for
// pathological input.
const MaxScanChars = 2000

// Moderator classifies message text against an ordered rule list.
// It is stateless and safe for concurrent use: rules compile their patterns
// once and Classify has no side effects.
type Moderator struct {
	rules []Rule
}

// NewModerator creates a Moderator with the given ordered rule list.
// Rule order matters: the first rule that fires becomes the verdict's
// primary violation.
func NewModerator(rules []Rule) *Moderator {
	return &Moderator{rules: rules}
}

// NewDefaultModerator creates a Moderator with the built-in trading-abuse
// rule set.
func NewDefaultModerator() *Moderator {
	return NewModerator(DefaultRules())
}

// Classify runs every rule against text in order and returns the verdict.
// It is deterministic: the same input always yields the same verdict.
// Input beyond MaxScanChars characters is ignored.
func (m *Moderator) Classify(text string) Verdict {
	text = truncateRunes(text, MaxScanChars)

	var violations []Violation
	for _, r := range m.rules {
		if r.Match(text) {
			violations = append(violations, Violation{
				Type:     r.Type,
				Severity: r.Severity,
				Reason:   r.Reason,
			})
		}
	}

	if len(violations) == 0 {
		return Verdict{}
	}
	return Verdict{IsViolation: true, Violations: violations}
}

// truncateRunes returns s cut to at most n runes.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
