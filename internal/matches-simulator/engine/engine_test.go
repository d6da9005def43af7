package engine

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/matches-simulator/bus"
	"github.com/radieske/live-matches-poc/internal/matches-simulator/names"
	"github.com/radieske/live-matches-poc/internal/matches-simulator/pool"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

var t0 = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu      sync.Mutex
	initial [][]events.Match
	updates [][]events.Match
}

func (r *recorder) attach(b *bus.Bus) {
	b.OnInitial("recorder", func(_ context.Context, batch []events.Match) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.initial = append(r.initial, batch)
		return nil
	})
	b.OnUpdate("recorder", func(_ context.Context, batch []events.Match) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.updates = append(r.updates, batch)
		return nil
	})
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.initial), len(r.updates)
}

func newEngine(t *testing.T, size, width int, clock func() time.Time) (*Engine, *pool.Pool, *recorder) {
	t.Helper()
	rng := rand.New(rand.NewSource(21))
	p := pool.New(pool.Config{Count: size}, names.Generate(200, rng), rng, t0)
	b := bus.New(zap.NewNop())
	rec := &recorder{}
	rec.attach(b)
	e := New(p, b, Config{UpdateWidth: width, TickInterval: 10 * time.Millisecond, Clock: clock}, zap.NewNop())
	return e, p, rec
}

func TestPublishInitial_OnlyOnce(t *testing.T) {
	e, p, rec := newEngine(t, 100, 10, nil)

	e.PublishInitial(context.Background())
	e.PublishInitial(context.Background())

	initial, updates := rec.counts()
	assert.Equal(t, 1, initial)
	assert.Equal(t, 0, updates)
	assert.Len(t, rec.initial[0], p.Len())
}

func TestTick_PublishesChangedRecords(t *testing.T) {
	e, p, rec := newEngine(t, 10000, 5000, nil)

	var stats []TickStats
	e.OnTick = func(s TickStats) { stats = append(stats, s) }

	now := t0
	for i := 0; i < 5; i++ {
		now = now.Add(time.Second)
		before := p.SnapshotAll()
		batch := e.Tick(context.Background(), now)

		require.NotEmpty(t, batch)
		for _, m := range batch {
			assert.False(t, m.SameState(before[m.ID]))
		}
	}

	_, updates := rec.counts()
	assert.Equal(t, 5, updates)
	require.Len(t, stats, 5)
	for _, s := range stats {
		assert.Equal(t, 5000, s.Selected)
		assert.LessOrEqual(t, s.Changed, 5000)
	}
}

func TestTick_WidthCappedAtPoolSize(t *testing.T) {
	e, _, _ := newEngine(t, 30, 100, nil)

	var stats TickStats
	e.OnTick = func(s TickStats) { stats = s }
	e.Tick(context.Background(), t0.Add(time.Second))

	assert.Equal(t, 30, stats.Selected)
}

func TestTick_EmptyPoolNeverPublishes(t *testing.T) {
	e, _, rec := newEngine(t, 0, 10, nil)

	assert.False(t, e.Active())
	assert.Empty(t, e.Tick(context.Background(), t0))

	_, updates := rec.counts()
	assert.Zero(t, updates)
}

func TestRun_TicksWithInjectedClock(t *testing.T) {
	var mu sync.Mutex
	now := t0
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
	e, _, rec := newEngine(t, 50, 20, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, updates := rec.counts()
		return updates >= 3
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	initial, _ := rec.counts()
	assert.Equal(t, 1, initial)
}

func TestRun_IdleWhenWidthIsZero(t *testing.T) {
	e, _, rec := newEngine(t, 50, 0, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	e.Run(ctx)

	initial, updates := rec.counts()
	assert.Equal(t, 1, initial)
	assert.Zero(t, updates)
}
