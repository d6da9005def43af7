package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/live-matches-poc/pkg/contracts/events"
	"github.com/radieske/live-matches-poc/pkg/contracts/topics"
)

// Cache lê as chaves de estado atual escritas pelo matches-processor
type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

// GetMatch devolve (partida, true) em cache hit
func (c *Cache) GetMatch(ctx context.Context, id int64) (events.Match, bool, error) {
	var m events.Match
	b, err := c.R.Get(ctx, topics.CurrentMatchKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return m, false, nil
	}
	if err != nil {
		return m, false, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, false, err
	}
	return m, true, nil
}

// SetMatch repopula o cache após leitura no banco
func (c *Cache) SetMatch(ctx context.Context, m events.Match, ttl time.Duration) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, topics.CurrentMatchKey(m.ID), b, ttl).Err()
}
