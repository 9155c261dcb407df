package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/recipematch/backend/internal/model"
)

const sessionKeyPrefix = "recipe:session:"

// advanceScript moves the cursor one step, clamped to total-1, refreshes the TTL
// and returns {cursor, results}. A missing key returns nil.
var advanceScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return false
end
local total = tonumber(redis.call('HGET', KEYS[1], 'total'))
local cursor = tonumber(redis.call('HGET', KEYS[1], 'cursor')) + ARGV[2]
if cursor > total - 1 then
  cursor = total - 1
end
redis.call('HSET', KEYS[1], 'cursor', cursor)
redis.call('PEXPIRE', KEYS[1], ARGV[1])
return {cursor, redis.call('HGET', KEYS[1], 'results')}
`)

// RedisSessionStore keeps sessions in Redis so several API instances can share
// them. Each session is a hash holding the JSON results, the cursor and the total.
type RedisSessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisSessionStore creates a new RedisSessionStore instance
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{redis: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create implements SessionStore.
func (s *RedisSessionStore) Create(ctx context.Context, results model.RankedResult) (string, error) {
	if len(results) == 0 {
		return "", fmt.Errorf("cannot create a session without results")
	}
	data, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session results: %w", err)
	}

	id := newSessionID()
	key := sessionKey(id)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "results", data, "cursor", 0, "total", len(results))
		pipe.PExpire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", dependencyError("session store", fmt.Errorf("failed to save session to Redis: %w", err))
	}
	return id, nil
}

// Get implements SessionStore.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (model.Page, error) {
	return s.step(ctx, id, 0)
}

// Advance implements SessionStore.
func (s *RedisSessionStore) Advance(ctx context.Context, id string) (model.Page, error) {
	return s.step(ctx, id, 1)
}

func (s *RedisSessionStore) step(ctx context.Context, id string, delta int) (model.Page, error) {
	res, err := advanceScript.Run(ctx, s.redis, []string{sessionKey(id)}, s.ttl.Milliseconds(), delta).Slice()
	if errors.Is(err, redis.Nil) {
		return model.Page{}, ErrSessionNotFound
	}
	if err != nil {
		return model.Page{}, dependencyError("session store", fmt.Errorf("failed to advance session in Redis: %w", err))
	}
	if len(res) != 2 {
		return model.Page{}, dependencyError("session store", fmt.Errorf("unexpected script reply of length %d", len(res)))
	}

	cursor, ok := res[0].(int64)
	if !ok {
		return model.Page{}, dependencyError("session store", fmt.Errorf("unexpected cursor type %T", res[0]))
	}
	raw, ok := res[1].(string)
	if !ok {
		return model.Page{}, dependencyError("session store", fmt.Errorf("unexpected results type %T", res[1]))
	}

	var results model.RankedResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return model.Page{}, dependencyError("session store", fmt.Errorf("failed to unmarshal session: %w", err))
	}
	if int(cursor) >= len(results) || cursor < 0 {
		return model.Page{}, dependencyError("session store", fmt.Errorf("cursor %d out of range for %d results", cursor, len(results)))
	}
	return pageAt(results, int(cursor)), nil
}

// Delete removes a session. Unknown ids are not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	return nil
}
