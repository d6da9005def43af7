// Package engine executa o tick da simulação sobre o pool e publica o
// resultado no bus.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/matches-simulator/bus"
	"github.com/radieske/live-matches-poc/internal/matches-simulator/pool"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

// Config controla a cadência e a largura de cada tick
type Config struct {
	UpdateWidth  int           // partidas sorteadas por tick
	TickInterval time.Duration // padrão: 1s
	Clock        func() time.Time
}

// TickStats resume um tick para métricas/log
type TickStats struct {
	Selected int
	Changed  int
	Duration time.Duration
}

// Engine é o único mutador do pool
type Engine struct {
	pool *pool.Pool
	bus  *bus.Bus
	cfg  Config
	log  *zap.Logger

	initialOnce sync.Once

	OnTick func(TickStats) // métricas
}

// New cria o engine; Clock nil usa time.Now
func New(p *pool.Pool, b *bus.Bus, cfg Config, log *zap.Logger) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Engine{pool: p, bus: b, cfg: cfg, log: log}
}

// Active indica se o loop de ticks tem trabalho a fazer
func (e *Engine) Active() bool {
	return e.cfg.UpdateWidth > 0 && e.pool.Len() > 0
}

// PublishInitial envia o snapshot completo uma única vez
func (e *Engine) PublishInitial(ctx context.Context) {
	e.initialOnce.Do(func() {
		snap := e.pool.SnapshotAll()
		failed := e.bus.PublishInitial(ctx, snap)
		e.log.Info("initial snapshot published",
			zap.Int("matches", len(snap)),
			zap.Int("failed_listeners", failed),
		)
	})
}

// Tick executa um passo da simulação no instante now e publica o lote de
// mudanças (se houver). Devolve o lote publicado.
func (e *Engine) Tick(ctx context.Context, now time.Time) []events.Match {
	start := time.Now()

	selected := e.cfg.UpdateWidth
	if n := e.pool.Len(); selected > n {
		selected = n
	}
	batch := e.pool.MutateSubset(now, e.cfg.UpdateWidth)
	if len(batch) > 0 {
		e.bus.PublishUpdate(ctx, batch)
	}

	stats := TickStats{Selected: selected, Changed: len(batch), Duration: time.Since(start)}
	if e.OnTick != nil {
		e.OnTick(stats)
	}
	e.log.Debug("tick",
		zap.Int("selected", stats.Selected),
		zap.Int("changed", stats.Changed),
		zap.Duration("took", stats.Duration),
	)
	return batch
}

// Run publica o snapshot inicial e executa ticks na cadência configurada até
// o contexto ser cancelado. Ticks atrasados não são reexecutados: o ticker
// descarta os que se acumulam e o tempo decorrido vem sempre do relógio.
func (e *Engine) Run(ctx context.Context) {
	e.PublishInitial(ctx)

	if !e.Active() {
		e.log.Warn("simulation idle", zap.Int("pool_size", e.pool.Len()), zap.Int("update_width", e.cfg.UpdateWidth))
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	e.log.Info("simulation started",
		zap.Int("pool_size", e.pool.Len()),
		zap.Int("update_width", e.cfg.UpdateWidth),
		zap.Duration("interval", e.cfg.TickInterval),
	)
	for {
		select {
		case <-ctx.Done():
			e.log.Info("simulation stopped")
			return
		case <-ticker.C:
			e.Tick(ctx, e.cfg.Clock())
		}
	}
}
