package history

import (
	"fmt"
	"sync"
	"testing"
)

func TestRecordAndRecent(t *testing.T) {
	b := NewBuffer(DefaultCapacity)

	b.Record("room1", Message{UserID: "a", Text: "anyone in SPY calls?", Ts: 1})
	b.Record("room1", Message{UserID: "b", Text: "just sold", Ts: 2})
	b.Record("room1", Message{UserID: "a", Text: "nice exit", Ts: 3})

	msgs := b.Recent("room1")
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "anyone in SPY calls?" || msgs[2].Text != "nice exit" {
		t.Errorf("messages out of order: %v", msgs)
	}
}

func TestRingWraparound(t *testing.T) {
	b := NewBuffer(5)

	for i := 1; i <= 8; i++ {
		b.Record("room1", Message{UserID: "u", Text: fmt.Sprintf("msg-%d", i), Ts: int64(i)})
	}

	msgs := b.Recent("room1")
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	// Should contain messages 4 through 8 in order.
	for i, msg := range msgs {
		expected := fmt.Sprintf("msg-%d", i+4)
		if msg.Text != expected {
			t.Errorf("index %d: expected %q, got %q", i, expected, msg.Text)
		}
	}
}

func TestRecentUnknownRoom(t *testing.T) {
	b := NewBuffer(0)

	msgs := b.Recent("nope")
	if msgs == nil {
		t.Fatal("expected non-nil empty slice, got nil")
	}
	if len(msgs) != 0 {
		t.Fatalf("expected 0 messages, got %d", len(msgs))
	}
}

func TestDrop(t *testing.T) {
	b := NewBuffer(5)

	b.Record("room1", Message{UserID: "a", Text: "hello", Ts: 1})
	b.Drop("room1")

	if msgs := b.Recent("room1"); len(msgs) != 0 {
		t.Fatalf("expected 0 messages after drop, got %d", len(msgs))
	}
}

func TestConcurrentRecord(t *testing.T) {
	b := NewBuffer(5)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Record("room1", Message{UserID: "u", Text: "x", Ts: int64(n*50 + j)})
				b.Recent("room1")
			}
		}(i)
	}
	wg.Wait()

	if msgs := b.Recent("room1"); len(msgs) != 5 {
		t.Fatalf("expected a full ring of 5, got %d", len(msgs))
	}
}
