package cache

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// TTL constants for notification-related cache entries
const (
	UnreadCountTTL = 1 * time.Minute
)

// NotificationCache caches per-recipient unread counts. Every write path
// invalidates, so the count can only be stale for UnreadCountTTL after an
// external write.
type NotificationCache struct {
	redis *RedisCache
}

// NewNotificationCache creates a new notification cache
func NewNotificationCache(redis *RedisCache) *NotificationCache {
	return &NotificationCache{redis: redis}
}

func unreadKey(userID uint) string {
	return fmt.Sprintf("notif:unread:%d", userID)
}

// GetUnreadCount retrieves a cached unread count
func (nc *NotificationCache) GetUnreadCount(userID uint) (int64, bool) {
	if nc == nil || nc.redis == nil {
		return 0, false
	}
	data, err := nc.redis.Get(unreadKey(userID))
	if err != nil || data == nil {
		return 0, false
	}

	var count int64
	if err := msgpack.Unmarshal(data, &count); err != nil {
		return 0, false
	}

	return count, true
}

// SetUnreadCount caches an unread count
func (nc *NotificationCache) SetUnreadCount(userID uint, count int64) error {
	if nc == nil || nc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(count)
	if err != nil {
		return err
	}

	return nc.redis.Set(unreadKey(userID), data, UnreadCountTTL)
}

// InvalidateUnreadCount removes a recipient's unread count from cache
func (nc *NotificationCache) InvalidateUnreadCount(userID uint) error {
	if nc == nil || nc.redis == nil {
		return nil
	}
	return nc.redis.Delete(unreadKey(userID))
}
