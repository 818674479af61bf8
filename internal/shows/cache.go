package shows

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-showbooking/internal/logger"
	"ms-showbooking/internal/models"
)

const showListKey = "shows:list"

// Cache is a read-through Redis cache for show reads. It is never
// authoritative: availability decisions always go to the database, the cache
// only spares the listing endpoints a query. A nil Cache is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: log}
}

func showKey(showID string) string {
	return "shows:" + showID
}

func (c *Cache) GetShow(ctx context.Context, showID string) (*models.Show, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, showKey(showID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("REDIS", fmt.Sprintf("get show %s: %v", showID, err))
		}
		return nil, false
	}
	var show models.Show
	if err := json.Unmarshal([]byte(val), &show); err != nil {
		return nil, false
	}
	return &show, true
}

func (c *Cache) SetShow(ctx context.Context, show *models.Show) {
	if c == nil || c.client == nil {
		return
	}
	b, err := json.Marshal(show)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, showKey(show.ID), b, c.ttl).Err(); err != nil {
		c.logger.Warn("REDIS", fmt.Sprintf("set show %s: %v", show.ID, err))
	}
}

func (c *Cache) GetShowList(ctx context.Context) ([]models.Show, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, showListKey).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("REDIS", fmt.Sprintf("get show list: %v", err))
		}
		return nil, false
	}
	var shows []models.Show
	if err := json.Unmarshal([]byte(val), &shows); err != nil {
		return nil, false
	}
	return shows, true
}

func (c *Cache) SetShowList(ctx context.Context, shows []models.Show) {
	if c == nil || c.client == nil {
		return
	}
	b, err := json.Marshal(shows)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, showListKey, b, c.ttl).Err(); err != nil {
		c.logger.Warn("REDIS", fmt.Sprintf("set show list: %v", err))
	}
}

// InvalidateShow drops both the show entry and the list. Called after every
// mutation that touches the show or its availability counter.
func (c *Cache) InvalidateShow(ctx context.Context, showID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, showKey(showID), showListKey).Err(); err != nil {
		c.logger.Warn("REDIS", fmt.Sprintf("invalidate show %s: %v", showID, err))
	}
}
