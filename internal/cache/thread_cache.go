package cache

import (
	"fmt"
	"time"

	"github.com/Alex-T-Coder/lgcy-app/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// ThreadListTTL bounds staleness of a user's conversation list between
// invalidations.
const ThreadListTTL = 2 * time.Minute

// ThreadCache caches per-user conversation lists
type ThreadCache struct {
	redis *RedisCache
}

// NewThreadCache creates a new thread cache
func NewThreadCache(redis *RedisCache) *ThreadCache {
	return &ThreadCache{redis: redis}
}

func threadListKey(userID uint) string {
	return fmt.Sprintf("threads:%d", userID)
}

// GetThreadList retrieves a cached conversation list
func (tc *ThreadCache) GetThreadList(userID uint) ([]models.ThreadSummary, bool) {
	if tc == nil || tc.redis == nil {
		return nil, false
	}
	data, err := tc.redis.Get(threadListKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var summaries []models.ThreadSummary
	if err := msgpack.Unmarshal(data, &summaries); err != nil {
		return nil, false
	}

	return summaries, true
}

// SetThreadList caches a conversation list
func (tc *ThreadCache) SetThreadList(userID uint, summaries []models.ThreadSummary) error {
	if tc == nil || tc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(summaries)
	if err != nil {
		return err
	}

	return tc.redis.Set(threadListKey(userID), data, ThreadListTTL)
}

// InvalidateThreadList removes a user's conversation list from cache
func (tc *ThreadCache) InvalidateThreadList(userID uint) error {
	if tc == nil || tc.redis == nil {
		return nil
	}
	return tc.redis.Delete(threadListKey(userID))
}
