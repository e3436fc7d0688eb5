package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"agri-assist-be/pkg/policy"
)

// AnswerCache keeps recent non-degraded answers in Redis so repeated
// identical questions under the same role skip the model pipeline.
// A nil *AnswerCache is a valid no-op cache.
type AnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAnswerCache(rdb *redis.Client, ttl time.Duration) *AnswerCache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &AnswerCache{rdb: rdb, ttl: ttl}
}

// Key hashes role+question; raw question text never becomes a Redis key.
func (c *AnswerCache) Key(role policy.Role, question string) string {
	sum := sha256.Sum256([]byte(string(role) + "\x00" + question))
	return "answer:" + hex.EncodeToString(sum[:])
}

func (c *AnswerCache) Get(ctx context.Context, role policy.Role, question string) (*Answer, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.Key(role, question)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// cache is best-effort, a miss and an outage look the same here
		}
		return nil, false
	}
	var answer Answer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return nil, false
	}
	return &answer, true
}

func (c *AnswerCache) Set(ctx context.Context, role policy.Role, question string, answer *Answer) {
	if c == nil || answer == nil || answer.Degraded {
		return
	}
	raw, err := json.Marshal(answer)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, c.Key(role, question), raw, c.ttl)
}
