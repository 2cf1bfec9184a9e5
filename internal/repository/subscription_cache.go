package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bus-tracking-services/internal/common/logger"
	"bus-tracking-services/internal/models"
)

// SubscriptionStore answers opt-out checks and records preference changes.
type SubscriptionStore interface {
	IsSubscribed(ctx context.Context, userID string, typeID int64) (bool, error)
	SetSubscribed(ctx context.Context, userID string, typeID int64, subscribed bool) (*models.NotificationSubscription, error)
}

// CachedSubscriptions fronts a SubscriptionRepository with redis.
// Cache failures fall through to the database.
type CachedSubscriptions struct {
	repo   SubscriptionRepository
	cache  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSubscriptions(repo SubscriptionRepository, cache redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedSubscriptions {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSubscriptions{repo: repo, cache: cache, ttl: ttl, logger: log}
}

func subscriptionKey(userID string, typeID int64) string {
	return fmt.Sprintf("sub:%s:%d", userID, typeID)
}

// IsSubscribed is true unless a row explicitly opts the user out.
func (c *CachedSubscriptions) IsSubscribed(ctx context.Context, userID string, typeID int64) (bool, error) {
	key := subscriptionKey(userID, typeID)

	if c.cache != nil {
		val, err := c.cache.Get(ctx, key).Result()
		switch {
		case err == nil:
			return val == "1", nil
		case err != redis.Nil:
			c.logger.Warn("subscription cache read failed", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}

	sub, err := c.repo.Get(ctx, userID, typeID)
	if err != nil {
		return false, err
	}
	subscribed := sub == nil || sub.IsSubscribed

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, flag(subscribed), c.ttl).Err(); err != nil {
			c.logger.Warn("subscription cache write failed", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}
	return subscribed, nil
}

func (c *CachedSubscriptions) SetSubscribed(ctx context.Context, userID string, typeID int64, subscribed bool) (*models.NotificationSubscription, error) {
	sub, err := c.repo.SetSubscribed(ctx, userID, typeID, subscribed)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Del(ctx, subscriptionKey(userID, typeID)).Err(); err != nil {
			c.logger.Warn("subscription cache invalidation failed", map[string]interface{}{
				"user_id": userID,
				"type_id": typeID,
				"error":   err,
			})
		}
	}
	return sub, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
