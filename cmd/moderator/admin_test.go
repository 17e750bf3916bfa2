package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/traderoom/chat-core/internal/ratelimit"
	"github.com/traderoom/chat-core/internal/trust"
)

type fakeHistoryBackend struct {
	score      float64
	scoreErr   error
	events     []trust.Event
	violations int
	remaining  int
}

func (f *fakeHistoryBackend) Score(context.Context, string) (float64, error) {
	return f.score, f.scoreErr
}

func (f *fakeHistoryBackend) RecentEvents(context.Context, string, time.Duration, int) ([]trust.Event, error) {
	return f.events, nil
}

func (f *fakeHistoryBackend) CountRecent(context.Context, string, time.Duration) (int, error) {
	return f.violations, nil
}

func (f *fakeHistoryBackend) Remaining(context.Context, string, ratelimit.Rule) (int, error) {
	return f.remaining, nil
}

func TestAdminMux_UserHistory(t *testing.T) {
	backend := &fakeHistoryBackend{
		score:      42.5,
		violations: 2,
		remaining:  3,
		events: []trust.Event{
			{ID: "e1", UserID: "u1", Delta: -10, Reason: "violation:profanity", ResultingScore: 42.5},
		},
	}
	mux := newAdminMux(backend, backend, backend, backend)

	req := httptest.NewRequest(http.MethodGet, "/users/u1/history", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got userHistory
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.UserID != "u1" {
		t.Errorf("expected user_id u1, got %q", got.UserID)
	}
	if got.Score != 42.5 {
		t.Errorf("expected score 42.5, got %v", got.Score)
	}
	if got.RecentViolations != 2 {
		t.Errorf("expected 2 recent violations, got %d", got.RecentViolations)
	}
	if got.MessagesRemaining != 3 {
		t.Errorf("expected 3 messages remaining, got %d", got.MessagesRemaining)
	}
	if len(got.Events) != 1 || got.Events[0].ID != "e1" {
		t.Errorf("unexpected events: %+v", got.Events)
	}
}

func TestAdminMux_UserHistoryErrors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		backend  *fakeHistoryBackend
		wantCode int
	}{
		{
			name:     "score lookup failure",
			method:   http.MethodGet,
			path:     "/users/u1/history",
			backend:  &fakeHistoryBackend{scoreErr: errors.New("redis down")},
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "unknown subresource",
			method:   http.MethodGet,
			path:     "/users/u1/sessions",
			backend:  &fakeHistoryBackend{},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "missing subresource",
			method:   http.MethodGet,
			path:     "/users/u1",
			backend:  &fakeHistoryBackend{},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "wrong method",
			method:   http.MethodPost,
			path:     "/users/u1/history",
			backend:  &fakeHistoryBackend{},
			wantCode: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newAdminMux(tt.backend, tt.backend, tt.backend, tt.backend)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestAdminMux_Health(t *testing.T) {
	backend := &fakeHistoryBackend{}
	mux := newAdminMux(backend, backend, backend, backend)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
