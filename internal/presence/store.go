package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is returned by a Store when the backing service rejected the
// call for exceeding a rate ceiling. The poller treats it as an immediate
// backoff signal rather than waiting for the consecutive-error threshold.
var ErrRateLimited = errors.New("presence: rate limited")

// Store is the persistence boundary the poller and the announce path work
// against. Implementations must make DeleteTyping idempotent: deleting a
// record that another client already removed is not an error.
type Store interface {
	Announce(ctx context.Context, rec TypingRecord) error
	ListTyping(ctx context.Context, roomID string, limit int) ([]TypingRecord, error)
	DeleteTyping(ctx context.Context, roomID, userID string) error
}

const (
	// TypingPrefix is the Redis key prefix for per-room typing hashes.
	TypingPrefix = "typing:"

	// typingTTL bounds how long an abandoned room's typing hash survives in
	// Redis if no client cleans it up.
	typingTTL = 60 * time.Second
)

// RedisStore keeps typing records in a Redis hash per room:
//
//	Key:   typing:<room_id>
//	Field: <user_id>
//	Value: JSON-encoded TypingRecord
//	TTL:   refreshed on every announce
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a typing store using the provided Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Announce creates or refreshes the caller's typing record. It is a
// fire-and-forget write from the keystroke path's perspective; callers log
// and drop any error.
func (s *RedisStore) Announce(ctx context.Context, rec TypingRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("presence: marshal record: %w", err)
	}

	key := TypingPrefix + rec.RoomID
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, rec.UserID, data)
	pipe.Expire(ctx, key, typingTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("presence: announce: %w", err)
	}
	return nil
}

// ListTyping returns the room's records where is_typing is set, most recent
// first, capped at limit.
func (s *RedisStore) ListTyping(ctx context.Context, roomID string, limit int) ([]TypingRecord, error) {
	fields, err := s.client.HGetAll(ctx, TypingPrefix+roomID).Result()
	if err != nil {
		return nil, fmt.Errorf("presence: list: %w", err)
	}

	records := make([]TypingRecord, 0, len(fields))
	for _, raw := range fields {
		var rec TypingRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			// A corrupt field is skipped rather than failing the whole fetch.
			continue
		}
		if rec.IsTyping {
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].LastTypedAt.After(records[j].LastTypedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// DeleteTyping removes a user's typing record. Deleting a record that does
// not exist is a no-op, so concurrent cleanup by multiple clients is safe.
func (s *RedisStore) DeleteTyping(ctx context.Context, roomID, userID string) error {
	if err := s.client.HDel(ctx, TypingPrefix+roomID, userID).Err(); err != nil {
		return fmt.Errorf("presence: delete: %w", err)
	}
	return nil
}
