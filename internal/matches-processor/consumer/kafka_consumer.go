package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/matches-processor/pubsub"
	sharedkafka "github.com/radieske/live-matches-poc/internal/shared/kafka"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
	"github.com/radieske/live-matches-poc/pkg/contracts/topics"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type CurrentCache interface {
	SetCurrent(ctx context.Context, m events.Match) error
	DeleteCurrent(ctx context.Context, id int64) error
}

type CurrentRepo interface {
	UpsertCurrent(ctx context.Context, m events.Match) error
	DeleteCurrent(ctx context.Context, id int64) error
}

type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Processor consome partidas do Kafka, atualiza cache e projeção no banco e
// repassa cada partida como envelope "update" no Redis Pub/Sub.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log         *zap.Logger
	Reader      MessageReader
	Repo        CurrentRepo
	Cache       CurrentCache
	Broadcaster Broadcaster
	Channel     string // vazio = topics.MatchesBroadcastChannel

	OnConsumed  func(kind string) // métricas (counter++)
	OnCached    func()            // métricas
	OnPersist   func()            // métricas
	OnBroadcast func()            // métricas
	OnError     func(string)      // métricas por fase
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem. Falhas são logadas e contadas por fase;
// falha no cache não bloqueia a persistência.
func (p *Processor) Handle(ctx context.Context, msg kafka.Message) {
	kind := sharedkafka.HeaderValue(msg, topics.HeaderKind)
	if p.OnConsumed != nil {
		p.OnConsumed(kind)
	}

	var m events.Match
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		p.Log.Warn("invalid message", zap.ByteString("key", msg.Key), zap.Error(err))
		p.fail("decode")
		return
	}

	finished := m.Status.Terminal()

	var err error
	if finished {
		err = p.Cache.DeleteCurrent(ctx, m.ID)
	} else {
		err = p.Cache.SetCurrent(ctx, m)
	}
	if err != nil {
		p.Log.Warn("redis write failed", zap.Int64("match_id", m.ID), zap.Error(err))
		p.fail("cache")
	} else if p.OnCached != nil {
		p.OnCached()
	}

	if finished {
		err = p.Repo.DeleteCurrent(ctx, m.ID)
	} else {
		err = p.Repo.UpsertCurrent(ctx, m)
	}
	if err != nil {
		p.Log.Warn("db write failed", zap.Int64("match_id", m.ID), zap.Bool("finished", finished), zap.Error(err))
		p.fail("db")
		return
	}
	if p.OnPersist != nil {
		p.OnPersist()
	}

	p.broadcast(ctx, m)
}

// broadcast envia a partida para o relay WebSocket do matches-service
func (p *Processor) broadcast(ctx context.Context, m events.Match) {
	if p.Broadcaster == nil {
		return
	}
	payload, err := pubsub.UpdatePayload(m, time.Now())
	if err != nil {
		p.fail("encode")
		return
	}

	bctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	channel := p.Channel
	if channel == "" {
		channel = topics.MatchesBroadcastChannel
	}
	if err := p.Broadcaster.Publish(bctx, channel, payload); err != nil {
		p.Log.Warn("ws broadcast publish failed", zap.Int64("match_id", m.ID), zap.Error(err))
		p.fail("broadcast")
		return
	}
	if p.OnBroadcast != nil {
		p.OnBroadcast()
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
