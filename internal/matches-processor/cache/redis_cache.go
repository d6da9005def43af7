package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/live-matches-poc/pkg/contracts/events"
	"github.com/radieske/live-matches-poc/pkg/contracts/topics"
)

// RedisCache guarda o estado atual de cada partida no Redis
// Client: cliente Redis
// TTL: tempo de expiração dos registros
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// SetCurrent armazena o estado atual da partida com TTL
func (r *RedisCache) SetCurrent(ctx context.Context, m events.Match) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, topics.CurrentMatchKey(m.ID), b, r.TTL).Err()
}

// DeleteCurrent remove a partida encerrada do cache
func (r *RedisCache) DeleteCurrent(ctx context.Context, id int64) error {
	return r.Client.Del(ctx, topics.CurrentMatchKey(id)).Err()
}
