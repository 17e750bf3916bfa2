package moderation

import (
	"regexp"
	"strings"
	"unicode"
)

// Rule pairs a detection function with the violation metadata reported when
// it fires. Each rule yields at most one violation per message.
type Rule struct {
	Type     string
	Severity Severity
	Reason   string
	Match    func(text string) bool
}

// Compiled regex patterns for the default rule set.
// These are compiled once at package init and reused for every call,
// making them safe and efficient for concurrent use.
var (
	// scamPattern matches common pump-and-dump and guaranteed-return
	// language seen in trading-room spam.
	scamPattern = regexp.MustCompile(`(?i)(double\s+your\s+money|guaranteed\s+(profit|return)s?|risk[-\s]?free\s+(profit|return|trade)s?|get\s+rich\s+quick|100%\s+(profit|return)s?|pump\s+(and|&|n)\s+dump|insider\s+tip)`)

	// contactPattern matches attempts to move the conversation off-platform:
	// phone numbers, email addresses, and messenger handles.
	contactPattern = regexp.MustCompile(`(?i)([a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}|(telegram|whatsapp|signal|t\.me)[\s:/@]|dm\s+me\b|(?:^|\s)(\+?\d{1,3}[-.\s]?)?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}(?:\s|$))`)

	// urlPattern matches http/https URLs, www. URLs, and common TLD patterns.
	// The bare-domain variant requires a trailing "/" to avoid false positives
	// on version strings like "v2.0" or decimal numbers like "3.14".
	urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|\S+\.(com|net|org|io|co|xyz|info|biz|ru|cn|tk|ml|ga|cf)/\S*)`)
)

// DefaultRules returns the built-in ordered rule set for trading-room abuse.
// Order matters: scam language outranks contact sharing, which outranks link
// spam, which outranks flooding. The first match becomes the primary
// violation.
func DefaultRules() []Rule {
	return []Rule{
		{
			Type:     "scam",
			Severity: SeverityHigh,
			Reason:   "Scam or pump-and-dump language is not allowed",
			Match:    scamPattern.MatchString,
		},
		{
			Type:     "contact_sharing",
			Severity: SeverityMedium,
			Reason:   "Sharing contact details is not allowed",
			Match:    contactPattern.MatchString,
		},
		{
			Type:     "link_spam",
			Severity: SeverityMedium,
			Reason:   "Posting links is not allowed",
			Match:    urlPattern.MatchString,
		},
		{
			Type:     "char_flood",
			Severity: SeverityLow,
			Reason:   "Character flooding detected",
			Match:    hasCharFlood,
		},
		{
			Type:     "word_flood",
			Severity: SeverityLow,
			Reason:   "Repeated word flooding detected",
			Match:    hasWordFlood,
		},
	}
}

// hasCharFlood returns true if text contains 5 or more consecutive identical
// characters. Go's regexp package (RE2) does not support backreferences, so
// this is implemented as a simple linear scan which is both correct and fast.
func hasCharFlood(text string) bool {
	const threshold = 5

	count := 1
	prev := rune(-1)
	for _, r := range text {
		if r == prev {
			count++
			if count >= threshold {
				return true
			}
		} else {
			count = 1
			prev = r
		}
	}
	return false
}

// hasWordFlood returns true if the same word appears 3 or more times
// consecutively (case-insensitive). Words are delimited by whitespace.
func hasWordFlood(text string) bool {
	const threshold = 3

	words := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	if len(words) < threshold {
		return false
	}

	count := 1
	prev := ""
	for _, w := range words {
		lower := strings.ToLower(w)
		if lower == prev {
			count++
			if count >= threshold {
				return true
			}
		} else {
			count = 1
			prev = lower
		}
	}
	return false
}
