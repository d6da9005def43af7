package ws

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/shared/matchview"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

// Publisher é o lado do hub que recebe os envelopes decodificados
type Publisher interface {
	Publish(kind events.Kind, batch []events.Match) error
}

// StartRedisSubscriber escuta o canal Redis Pub/Sub numa goroutine e repassa
// cada envelope para o hub
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub Publisher, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	go func() {
		defer sub.Close() // encerra a inscrição ao finalizar o contexto
		Relay(ctx, sub.Channel(), hub, log)
	}()
}

// Relay consome mensagens até o contexto ser cancelado ou o canal fechar.
// Payloads inválidos são descartados.
func Relay(ctx context.Context, ch <-chan *redis.Message, hub Publisher, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg == nil {
				continue
			}
			env, err := matchview.DecodeEnvelope([]byte(msg.Payload))
			if err != nil {
				log.Warn("ws subscriber dropped payload", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			kind := env.Type
			if kind == "" {
				kind = events.KindUpdate
			}
			if err := hub.Publish(kind, env.Data.Data); err != nil {
				log.Warn("ws relay publish failed", zap.Error(err))
			}
		}
	}
}
