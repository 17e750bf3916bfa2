package gate

// SubmitRequest is published on moderation.submit when a platform service
// needs a message evaluated out-of-band.
type SubmitRequest struct {
	SubmissionID string `json:"submission_id"`
	UserID       string `json:"user_id"`
	RoomID       string `json:"room_id"`
	Text         string `json:"text"`
	Ts           int64  `json:"ts"`
}

// SubmitResult is published back on moderation.verdict.<submission_id> with
// the evaluation outcome.
type SubmitResult struct {
	SubmissionID   string  `json:"submission_id"`
	Accepted       bool    `json:"accepted"`
	Reason         string  `json:"reason,omitempty"`
	ViolationType  string  `json:"violation_type,omitempty"`
	Severity       string  `json:"severity,omitempty"`
	PenaltyApplied float64 `json:"penalty_applied,omitempty"`
	NewScore       float64 `json:"new_score,omitempty"`
}

// ResultFromDecision converts a Decision into its wire form.
func ResultFromDecision(submissionID string, d Decision) SubmitResult {
	return SubmitResult{
		SubmissionID:   submissionID,
		Accepted:       d.Accepted,
		Reason:         d.Reason,
		ViolationType:  d.ViolationType,
		Severity:       string(d.Severity),
		PenaltyApplied: d.PenaltyApplied,
		NewScore:       d.NewScore,
	}
}
