package trust

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ScorePrefix is the Redis key prefix for per-user score records.
const ScorePrefix = "trust:score:"

// RedisScoreStore keeps current scores in Redis as plain float values:
//
//	Key:   trust:score:<user_id>
//	Value: <score>
//
// Scores have no TTL; account lifecycle is owned by the platform.
type RedisScoreStore struct {
	client *redis.Client
}

// NewRedisScoreStore creates a score store using the provided Redis client.
func NewRedisScoreStore(client *redis.Client) *RedisScoreStore {
	return &RedisScoreStore{client: client}
}

// GetScore reads a user's score. A missing key is reported as not found, not
// as an error, so the ledger can apply its neutral default.
func (s *RedisScoreStore) GetScore(ctx context.Context, userID string) (float64, bool, error) {
	score, err := s.client.Get(ctx, ScorePrefix+userID).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("trust: redis get: %w", err)
	}
	return score, true, nil
}

// SetScore writes a user's score.
func (s *RedisScoreStore) SetScore(ctx context.Context, userID string, score float64) error {
	if err := s.client.Set(ctx, ScorePrefix+userID, score, 0).Err(); err != nil {
		return fmt.Errorf("trust: redis set: %w", err)
	}
	return nil
}
