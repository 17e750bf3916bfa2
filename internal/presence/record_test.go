package presence

import (
	"testing"
	"time"
)

func TestTypingRecord_Stale(t *testing.T) {
	now := time.Now()
	threshold := 10 * time.Second

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"fresh", 1 * time.Second, false},
		{"just under threshold", threshold - time.Millisecond, false},
		{"exactly at threshold", threshold, true},
		{"well past threshold", 11 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := TypingRecord{LastTypedAt: now.Add(-tt.age)}
			if got := r.Stale(now, threshold); got != tt.want {
				t.Errorf("Stale(age=%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestPartition(t *testing.T) {
	now := time.Now()
	threshold := 10 * time.Second

	records := []TypingRecord{
		{UserID: "a", IsTyping: true, LastTypedAt: now.Add(-time.Second)},
		{UserID: "self", IsTyping: true, LastTypedAt: now.Add(-time.Second)},
		{UserID: "b", IsTyping: true, LastTypedAt: now.Add(-11 * time.Second)},
		{UserID: "c", IsTyping: false, LastTypedAt: now.Add(-time.Second)},
		{UserID: "d", IsTyping: true, LastTypedAt: now.Add(-12 * time.Second)},
	}

	active, stale := Partition(records, "self", now, threshold)

	if len(active) != 1 || active[0].UserID != "a" {
		t.Errorf("active = %v, want just a", active)
	}
	if len(stale) != 2 || stale[0].UserID != "b" || stale[1].UserID != "d" {
		t.Errorf("stale = %v, want b and d", stale)
	}
}

func TestPartition_StaleSelfIsCleanupEligible(t *testing.T) {
	now := time.Now()

	records := []TypingRecord{
		{UserID: "self", IsTyping: true, LastTypedAt: now.Add(-11 * time.Second)},
	}

	active, stale := Partition(records, "self", now, 10*time.Second)
	if len(active) != 0 {
		t.Errorf("own record must never render: %v", active)
	}
	if len(stale) != 1 {
		t.Errorf("own stale record should still be cleanup-eligible: %v", stale)
	}
}

func TestPartition_Empty(t *testing.T) {
	active, stale := Partition(nil, "self", time.Now(), 10*time.Second)
	if len(active) != 0 || len(stale) != 0 {
		t.Errorf("Partition(nil) = %v, %v, want empty", active, stale)
	}
}
