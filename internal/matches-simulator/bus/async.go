package bus

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

// ErrQueueFull indica que o lote foi descartado porque o consumidor lento
// ainda não drenou a fila
var ErrQueueFull = errors.New("bus: async queue full")

// AsyncListener desacopla um listener lento (Kafka, por exemplo) do tick:
// o bus só enfileira, e uma goroutine própria entrega.
type AsyncListener struct {
	name  string
	queue chan []events.Match
	fn    Listener
	log   *zap.Logger

	OnProcessed func(err error) // métricas
}

// Async cria o wrapper com fila de tamanho buffer
func Async(name string, buffer int, fn Listener, log *zap.Logger) *AsyncListener {
	if buffer <= 0 {
		buffer = 1
	}
	return &AsyncListener{
		name:  name,
		queue: make(chan []events.Match, buffer),
		fn:    fn,
		log:   log,
	}
}

// Listener devolve a função que deve ser registrada no bus
func (a *AsyncListener) Listener() Listener {
	return func(_ context.Context, batch []events.Match) error {
		select {
		case a.queue <- batch:
			return nil
		default:
			return ErrQueueFull
		}
	}
}

// Pending devolve quantos lotes aguardam entrega
func (a *AsyncListener) Pending() int { return len(a.queue) }

// Run drena a fila até o contexto ser cancelado
func (a *AsyncListener) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-a.queue:
			err := call(ctx, a.fn, batch)
			if err != nil {
				a.log.Warn("async listener failed",
					zap.String("listener", a.name),
					zap.Int("batch_size", len(batch)),
					zap.Error(err),
				)
			}
			if a.OnProcessed != nil {
				a.OnProcessed(err)
			}
		}
	}
}
