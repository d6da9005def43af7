package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/matches-simulator/bus"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
	"github.com/radieske/live-matches-poc/pkg/contracts/topics"
)

// MessageWriter é o subconjunto do *kafka.Writer usado aqui
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher encapsula o writer Kafka e o logger.
type KafkaPublisher struct {
	writer MessageWriter
	source string
	log    *zap.Logger
}

// NewKafkaPublisher cria um publisher de lotes de partidas.
// source vai como header para identificar a origem das mensagens.
func NewKafkaPublisher(w MessageWriter, source string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		source: source,
		log:    log,
	}
}

// PublishBatch serializa cada partida em JSON e envia o lote inteiro numa
// única chamada. A chave da mensagem é o id da partida, garantindo ordem por
// partida dentro da partição.
func (p *KafkaPublisher) PublishBatch(ctx context.Context, kind events.Kind, batch []events.Match) error {
	if len(batch) == 0 {
		return nil
	}

	now := time.Now()
	msgs := make([]kafka.Message, 0, len(batch))
	for _, m := range batch {
		value, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal match %d: %w", m.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(m.ID, 10)),
			Value: value,
			Time:  now,
			Headers: []kafka.Header{
				{Key: topics.HeaderKind, Value: []byte(kind)},
				{Key: "source", Value: []byte(p.source)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.log.Error("failed to publish matches batch", zap.String("kind", string(kind)), zap.Int("size", len(msgs)), zap.Error(err))
		return err
	}

	p.log.Debug("published matches batch", zap.String("kind", string(kind)), zap.Int("size", len(msgs)))
	return nil
}

// Listener adapta o publisher ao contrato do bus
func (p *KafkaPublisher) Listener(kind events.Kind) bus.Listener {
	return func(ctx context.Context, batch []events.Match) error {
		return p.PublishBatch(ctx, kind, batch)
	}
}

// Close finaliza o writer e libera recursos associados.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
