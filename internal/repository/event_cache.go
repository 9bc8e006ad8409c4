package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"event-ticketing/internal/services"
	"event-ticketing/models"
)

// EventCache is a read-through Redis cache in front of an EventRepository.
// Redis failures degrade to reading the source directly.
type EventCache struct {
	source services.EventRepository
	redis  *redis.Client
	ttl    time.Duration
}

func NewEventCache(source services.EventRepository, rdb *redis.Client, ttl time.Duration) *EventCache {
	return &EventCache{source: source, redis: rdb, ttl: ttl}
}

func eventKey(id string) string {
	return "event:" + id
}

func (c *EventCache) FindByID(ctx context.Context, id string) (*models.Event, error) {
	data, err := c.redis.Get(ctx, eventKey(id)).Bytes()
	switch {
	case err == nil:
		var event models.Event
		if jerr := json.Unmarshal(data, &event); jerr == nil {
			return &event, nil
		}
		slog.WarnContext(ctx, "discarding corrupt cached event", "event_id", id)
	case !errors.Is(err, redis.Nil):
		slog.WarnContext(ctx, "event cache read failed", "event_id", id, "error", err)
	}

	event, err := c.source.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(event); err == nil {
		if err := c.redis.Set(ctx, eventKey(id), data, c.ttl).Err(); err != nil {
			slog.WarnContext(ctx, "event cache write failed", "event_id", id, "error", err)
		}
	}
	return event, nil
}

// Invalidate drops a cached event after it is edited.
func (c *EventCache) Invalidate(ctx context.Context, id string) error {
	return c.redis.Del(ctx, eventKey(id)).Err()
}
