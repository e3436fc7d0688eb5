package store

import (
	"context"
	"testing"
	"time"

	"agri-assist-be/pkg/policy"

	"github.com/stretchr/testify/assert"
)

func TestNilAnswerCacheIsNoOp(t *testing.T) {
	cache := NewAnswerCache(nil, time.Minute)
	assert.Nil(t, cache)

	// nil receiver must be safe for both operations
	got, ok := cache.Get(context.Background(), policy.RoleFarmer, "question")
	assert.Nil(t, got)
	assert.False(t, ok)

	cache.Set(context.Background(), policy.RoleFarmer, "question", &Answer{Text: "x"})
}

func TestAnswerCacheKeyIsRoleScoped(t *testing.T) {
	cache := &AnswerCache{ttl: time.Minute}

	farmerKey := cache.Key(policy.RoleFarmer, "what is the yield?")
	hrKey := cache.Key(policy.RoleHR, "what is the yield?")
	otherQ := cache.Key(policy.RoleFarmer, "what is the yield??")

	assert.NotEqual(t, farmerKey, hrKey, "same question under different roles must not share an entry")
	assert.NotEqual(t, farmerKey, otherQ)

	// keys never embed the raw question text
	assert.NotContains(t, farmerKey, "yield")
}
