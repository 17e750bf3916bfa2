package trust

import (
	"context"
	"errors"
	"testing"
)

// fakeScoreStore is an in-memory ScoreStore for unit tests.
type fakeScoreStore struct {
	scores   map[string]float64
	setCalls int
	getErr   error
	setErr   error
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{scores: make(map[string]float64)}
}

func (f *fakeScoreStore) GetScore(_ context.Context, userID string) (float64, bool, error) {
	if f.getErr != nil {
		return 0, false, f.getErr
	}
	score, ok := f.scores[userID]
	return score, ok, nil
}

func (f *fakeScoreStore) SetScore(_ context.Context, userID string, score float64) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls++
	f.scores[userID] = score
	return nil
}

// fakeEventStore records appended events in memory.
type fakeEventStore struct {
	events    []Event
	appendErr error
}

func (f *fakeEventStore) AppendEvent(_ context.Context, ev Event) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.events = append(f.events, ev)
	return nil
}

func TestAdjust_DefaultsToNeutralScore(t *testing.T) {
	scores := newFakeScoreStore()
	events := &fakeEventStore{}
	ledger := NewLedger(scores, events)

	got, err := ledger.Adjust(context.Background(), "u1", PenaltyHighSeverity, "blocked: scam", "msg-1")
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if got != 40 {
		t.Errorf("score = %v, want 40 (50 default - 10)", got)
	}
	if len(events.events) != 1 {
		t.Fatalf("events = %d, want 1", len(events.events))
	}
	ev := events.events[0]
	if ev.Delta != -10 || ev.ResultingScore != 40 || ev.UserID != "u1" || ev.RelatedEntityID != "msg-1" {
		t.Errorf("event = %+v, want delta=-10 resulting=40 user=u1 related=msg-1", ev)
	}
	if ev.ID == "" {
		t.Error("event ID should be set")
	}
}

func TestAdjust_Clamping(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		delta   float64
		want    float64
	}{
		{"clamp at floor", 3, -10, 0},
		{"clamp at ceiling", 99.95, 0.1, 100},
		{"normal decrement", 50, -5, 45},
		{"normal increment", 50, 0.1, 50.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := newFakeScoreStore()
			scores.scores["u1"] = tt.current
			events := &fakeEventStore{}
			ledger := NewLedger(scores, events)

			got, err := ledger.Adjust(context.Background(), "u1", tt.delta, "test", "")
			if err != nil {
				t.Fatalf("Adjust: %v", err)
			}
			if got != tt.want {
				t.Errorf("score = %v, want %v", got, tt.want)
			}
			if got < MinScore || got > MaxScore {
				t.Errorf("score %v outside [0, 100]", got)
			}
			if events.events[len(events.events)-1].ResultingScore != tt.want {
				t.Errorf("event resulting_score != stored score")
			}
		})
	}
}

func TestAdjust_NoOpAtBounds(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		delta   float64
	}{
		{"already at floor", 0, -5},
		{"already at ceiling", 100, 0.2},
		{"zero delta", 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := newFakeScoreStore()
			scores.scores["u1"] = tt.current
			events := &fakeEventStore{}
			ledger := NewLedger(scores, events)

			got, err := ledger.Adjust(context.Background(), "u1", tt.delta, "test", "")
			if err != nil {
				t.Fatalf("Adjust: %v", err)
			}
			if got != tt.current {
				t.Errorf("score = %v, want unchanged %v", got, tt.current)
			}
			if scores.setCalls != 0 {
				t.Errorf("SetScore called %d times, want 0 (no-op)", scores.setCalls)
			}
			if len(events.events) != 0 {
				t.Errorf("events = %d, want 0 (no event on no-op)", len(events.events))
			}
		})
	}
}

func TestAdjust_SequenceStaysInBounds(t *testing.T) {
	scores := newFakeScoreStore()
	events := &fakeEventStore{}
	ledger := NewLedger(scores, events)
	ctx := context.Background()

	deltas := []float64{-10, -10, -10, -10, -10, -10, 0.1, 0.2, -5, 0.1, -10, -10}
	for i, d := range deltas {
		got, err := ledger.Adjust(ctx, "u1", d, "seq", "")
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got < MinScore || got > MaxScore {
			t.Fatalf("step %d: score %v outside [0, 100]", i, got)
		}
	}
}

func TestAdjust_EventFailureSwallowed(t *testing.T) {
	scores := newFakeScoreStore()
	scores.scores["u1"] = 50
	events := &fakeEventStore{appendErr: errors.New("pg down")}
	ledger := NewLedger(scores, events)

	got, err := ledger.Adjust(context.Background(), "u1", -5, "blocked", "")
	if err != nil {
		t.Fatalf("Adjust should swallow event-store failure, got %v", err)
	}
	if got != 45 {
		t.Errorf("score = %v, want 45 (score write is authoritative)", got)
	}
	if scores.scores["u1"] != 45 {
		t.Errorf("stored score = %v, want 45", scores.scores["u1"])
	}
}

func TestAdjust_ScoreWriteFailure(t *testing.T) {
	scores := newFakeScoreStore()
	scores.scores["u1"] = 50
	scores.setErr = errors.New("redis down")
	events := &fakeEventStore{}
	ledger := NewLedger(scores, events)

	_, err := ledger.Adjust(context.Background(), "u1", -5, "blocked", "")
	if err == nil {
		t.Fatal("expected error when score write fails")
	}
	if len(events.events) != 0 {
		t.Errorf("no event should be appended when the score write fails")
	}
}

func TestScore_Default(t *testing.T) {
	ledger := NewLedger(newFakeScoreStore(), &fakeEventStore{})

	got, err := ledger.Score(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != DefaultScore {
		t.Errorf("score = %v, want default %v", got, DefaultScore)
	}
}
