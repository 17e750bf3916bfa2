package moderation

import (
	"strings"
	"testing"
)

func TestNewDefaultModerator(t *testing.T) {
	m := NewDefaultModerator()
	if m == nil {
		t.Fatal("NewDefaultModerator returned nil")
	}
	if len(m.rules) == 0 {
		t.Fatal("NewDefaultModerator created an empty rule set")
	}
}

func TestClassify_Clean(t *testing.T) {
	m := NewDefaultModerator()

	tests := []string{
		"anyone watching the open today?",
		"looks like support held at 420.69",
		"earnings after close, volume is picking up",
		"",
	}

	for _, text := range tests {
		v := m.Classify(text)
		if v.IsViolation {
			t.Errorf("Classify(%q) flagged a clean message: %+v", text, v.Violations)
		}
		if len(v.Violations) != 0 {
			t.Errorf("Classify(%q) returned violations for a clean message", text)
		}
	}
}

func TestClassify_DefaultRules(t *testing.T) {
	m := NewDefaultModerator()

	tests := []struct {
		name     string
		input    string
		vtype    string
		severity Severity
	}{
		{"scam doubler", "check out this link to double your money fast", "scam", SeverityHigh},
		{"scam guaranteed", "GUARANTEED RETURNS if you follow my calls", "scam", SeverityHigh},
		{"scam pump", "join the pump and dump group", "scam", SeverityHigh},
		{"email", "reach me at trader@example.com for signals", "contact_sharing", SeverityMedium},
		{"telegram", "add me on telegram @fastgains", "contact_sharing", SeverityMedium},
		{"phone", "call 555-123-4567 for premium picks", "contact_sharing", SeverityMedium},
		{"url", "buy here https://totally-legit.example/buy", "link_spam", SeverityMedium},
		{"bare domain", "go to sketchy.xyz/offer now", "link_spam", SeverityMedium},
		{"char flood", "mooooooon", "char_flood", SeverityLow},
		{"word flood", "buy buy buy", "word_flood", SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := m.Classify(tt.input)
			if !v.IsViolation {
				t.Fatalf("Classify(%q) did not flag", tt.input)
			}
			p := v.Primary()
			if p.Type != tt.vtype {
				t.Errorf("primary type = %q, want %q", p.Type, tt.vtype)
			}
			if p.Severity != tt.severity {
				t.Errorf("primary severity = %q, want %q", p.Severity, tt.severity)
			}
			if p.Reason == "" {
				t.Error("primary reason is empty")
			}
		})
	}
}

func TestClassify_RuleOrderBeatsSeverity(t *testing.T) {
	// A low-severity rule ordered before a high-severity rule wins the
	// primary slot when both fire. Penalty sizing follows detection
	// precedence, not the worst severity.
	m := NewModerator([]Rule{
		{Type: "first_low", Severity: SeverityLow, Reason: "first", Match: func(s string) bool {
			return strings.Contains(s, "alpha")
		}},
		{Type: "second_high", Severity: SeverityHigh, Reason: "second", Match: func(s string) bool {
			return strings.Contains(s, "beta")
		}},
	})

	v := m.Classify("alpha beta")
	if !v.IsViolation {
		t.Fatal("expected a violation")
	}
	if got := v.Primary().Type; got != "first_low" {
		t.Errorf("primary = %q, want first_low", got)
	}
	if len(v.Violations) != 2 {
		t.Fatalf("violations = %d, want 2 (all firing rules reported)", len(v.Violations))
	}
	if v.Violations[1].Type != "second_high" {
		t.Errorf("second violation = %q, want second_high", v.Violations[1].Type)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	m := NewDefaultModerator()
	text := "double your money at sketchy.xyz/offer"

	first := m.Classify(text)
	for i := 0; i < 10; i++ {
		v := m.Classify(text)
		if v.IsViolation != first.IsViolation || len(v.Violations) != len(first.Violations) {
			t.Fatalf("Classify is not deterministic: run %d gave %+v, first gave %+v", i, v, first)
		}
		for j := range v.Violations {
			if v.Violations[j] != first.Violations[j] {
				t.Fatalf("violation %d differs between runs", j)
			}
		}
	}
}

func TestClassify_TruncatesLongInput(t *testing.T) {
	m := NewDefaultModerator()

	// A violation placed beyond the scan cap is not seen.
	padding := strings.Repeat("a b ", MaxScanChars/2)
	v := m.Classify(padding + " double your money")
	if v.IsViolation {
		t.Errorf("violation beyond MaxScanChars should be ignored, got %+v", v.Violations)
	}

	// A violation inside the cap is still caught on oversized input.
	v = m.Classify("double your money " + strings.Repeat("x y ", MaxScanChars))
	if !v.IsViolation {
		t.Error("violation inside MaxScanChars should be detected on long input")
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"", 4, ""},
		{"abc", 0, ""},
	}

	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
