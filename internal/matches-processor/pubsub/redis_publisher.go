package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}

// UpdatePayload monta o envelope "update" com uma única partida, no mesmo
// formato que o simulador envia pelo WebSocket
func UpdatePayload(m events.Match, now time.Time) ([]byte, error) {
	return json.Marshal(events.NewEnvelope(events.KindUpdate, []events.Match{m}, now))
}
