// Package bus distribui os lotes do simulador para os listeners registrados.
//
// Há dois registros independentes: initial (snapshot completo, uma vez) e
// update (um lote por tick com mudanças). A entrega é síncrona e na ordem de
// registro; falha ou panic de um listener é logada e não afeta os demais.
package bus

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

// Listener recebe uma cópia própria do lote
type Listener func(ctx context.Context, batch []events.Match) error

type registration struct {
	name string
	fn   Listener
}

// Bus mantém os registros de listeners
type Bus struct {
	mu      sync.RWMutex
	initial []registration
	update  []registration
	log     *zap.Logger

	OnDelivered     func(kind events.Kind, listener string)
	OnListenerError func(kind events.Kind, listener string) // métricas por listener
}

// New cria um bus vazio
func New(log *zap.Logger) *Bus {
	return &Bus{log: log}
}

// OnInitial registra um listener do snapshot inicial
func (b *Bus) OnInitial(name string, l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initial = append(b.initial, registration{name: name, fn: l})
}

// OnUpdate registra um listener das atualizações incrementais
func (b *Bus) OnUpdate(name string, l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.update = append(b.update, registration{name: name, fn: l})
}

// PublishInitial entrega o snapshot para todos os listeners de initial.
// Retorna quantos listeners falharam.
func (b *Bus) PublishInitial(ctx context.Context, batch []events.Match) int {
	b.mu.RLock()
	regs := append([]registration(nil), b.initial...)
	b.mu.RUnlock()
	return b.dispatch(ctx, events.KindInitial, regs, batch)
}

// PublishUpdate entrega um lote de mudanças. Lote vazio não dispara nada.
func (b *Bus) PublishUpdate(ctx context.Context, batch []events.Match) int {
	if len(batch) == 0 {
		return 0
	}
	b.mu.RLock()
	regs := append([]registration(nil), b.update...)
	b.mu.RUnlock()
	return b.dispatch(ctx, events.KindUpdate, regs, batch)
}

func (b *Bus) dispatch(ctx context.Context, kind events.Kind, regs []registration, batch []events.Match) int {
	failed := 0
	for _, r := range regs {
		if err := call(ctx, r.fn, events.CopyBatch(batch)); err != nil {
			failed++
			b.log.Error("bus listener failed",
				zap.String("kind", string(kind)),
				zap.String("listener", r.name),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			if b.OnListenerError != nil {
				b.OnListenerError(kind, r.name)
			}
			continue
		}
		if b.OnDelivered != nil {
			b.OnDelivered(kind, r.name)
		}
	}
	return failed
}

// call converte panic do listener em erro
func call(ctx context.Context, fn Listener, batch []events.Match) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return fn(ctx, batch)
}
