package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/traderoom/chat-core/internal/metrics"
	"github.com/traderoom/chat-core/internal/ratelimit"
	"github.com/traderoom/chat-core/internal/trust"
)

const (
	historyWindow = 24 * time.Hour
	historyLimit  = 50
)

type scoreReader interface {
	Score(ctx context.Context, userID string) (float64, error)
}

type eventReader interface {
	RecentEvents(ctx context.Context, userID string, window time.Duration, limit int) ([]trust.Event, error)
}

type violationCounter interface {
	CountRecent(ctx context.Context, userID string, window time.Duration) (int, error)
}

type allowanceReader interface {
	Remaining(ctx context.Context, identifier string, rule ratelimit.Rule) (int, error)
}

// userHistory is the admin view of a user's standing: current score, recent
// violations, remaining message allowance, and the score adjustments behind
// them.
type userHistory struct {
	UserID            string        `json:"user_id"`
	Score             float64       `json:"score"`
	RecentViolations  int           `json:"recent_violations"`
	MessagesRemaining int           `json:"messages_remaining"`
	Events            []trust.Event `json:"events"`
}

// newAdminMux builds the moderator's operational HTTP surface: Prometheus
// metrics, a health check, and a per-user trust history lookup.
func newAdminMux(scores scoreReader, events eventReader, violations violationCounter, allowance allowanceReader) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/users/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] != "history" {
			http.NotFound(w, r)
			return
		}
		userID := parts[0]
		ctx := r.Context()

		score, err := scores.Score(ctx, userID)
		if err != nil {
			log.Printf("[admin] score lookup user=%s: %v", userID, err)
			http.Error(w, "score lookup failed", http.StatusInternalServerError)
			return
		}
		evs, err := events.RecentEvents(ctx, userID, historyWindow, historyLimit)
		if err != nil {
			log.Printf("[admin] event lookup user=%s: %v", userID, err)
			http.Error(w, "event lookup failed", http.StatusInternalServerError)
			return
		}
		blocks, err := violations.CountRecent(ctx, userID, historyWindow)
		if err != nil {
			log.Printf("[admin] violation count user=%s: %v", userID, err)
			http.Error(w, "violation count failed", http.StatusInternalServerError)
			return
		}
		remaining, err := allowance.Remaining(ctx, userID, ratelimit.RuleMessage)
		if err != nil {
			log.Printf("[admin] allowance lookup user=%s: %v", userID, err)
			remaining = ratelimit.RuleMessage.Limit
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userHistory{
			UserID:            userID,
			Score:             score,
			RecentViolations:  blocks,
			MessagesRemaining: remaining,
			Events:            evs,
		})
	})
	return mux
}
