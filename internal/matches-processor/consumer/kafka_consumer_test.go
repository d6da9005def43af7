package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/shared/matchview"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
	"github.com/radieske/live-matches-poc/pkg/contracts/topics"
)

type store struct {
	mu      sync.Mutex
	current map[int64]events.Match
	err     error
}

func newStore() *store { return &store{current: make(map[int64]events.Match)} }

func (s *store) SetCurrent(_ context.Context, m events.Match) error { return s.put(m) }
func (s *store) UpsertCurrent(_ context.Context, m events.Match) error { return s.put(m) }

func (s *store) DeleteCurrent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.current, id)
	return nil
}

func (s *store) put(m events.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.current[m.ID] = m
	return nil
}

type published struct {
	channel string
	payload []byte
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	msgs []published
}

func (b *fakeBroadcaster) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, published{channel, payload})
	return nil
}

// reader entrega as mensagens na ordem e depois bloqueia até o cancelamento
type reader struct {
	msgs []kafka.Message
	errs []error
}

func (r *reader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		return m, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func message(t *testing.T, m events.Match) kafka.Message {
	t.Helper()
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return kafka.Message{
		Value:   b,
		Headers: []kafka.Header{{Key: topics.HeaderKind, Value: []byte(events.KindUpdate)}},
	}
}

func match(id int64, status events.Status) events.Match {
	return events.Match{ID: id, Team1Name: "Lions United", Team2Name: "Bears City", Status: status, Sport: events.SportHockey}
}

func TestHandle_LiveMatchIsCachedPersistedAndBroadcast(t *testing.T) {
	cache, repo, bc := newStore(), newStore(), &fakeBroadcaster{}
	var kinds []string
	p := &Processor{
		Log:         zap.NewNop(),
		Cache:       cache,
		Repo:        repo,
		Broadcaster: bc,
		OnConsumed:  func(kind string) { kinds = append(kinds, kind) },
	}

	p.Handle(context.Background(), message(t, match(7, events.StatusLive)))

	assert.Contains(t, cache.current, int64(7))
	assert.Contains(t, repo.current, int64(7))
	assert.Equal(t, []string{"update"}, kinds)

	require.Len(t, bc.msgs, 1)
	assert.Equal(t, topics.MatchesBroadcastChannel, bc.msgs[0].channel)

	view := matchview.New()
	kind, _, err := view.ApplyPayload(bc.msgs[0].payload)
	require.NoError(t, err)
	assert.Equal(t, events.KindUpdate, kind)
	assert.Equal(t, []int64{7}, view.VisibleIDs())
}

func TestHandle_FinishedMatchIsRemovedAndStillBroadcast(t *testing.T) {
	cache, repo, bc := newStore(), newStore(), &fakeBroadcaster{}
	p := &Processor{Log: zap.NewNop(), Cache: cache, Repo: repo, Broadcaster: bc, Channel: "custom"}

	p.Handle(context.Background(), message(t, match(3, events.StatusLive)))
	p.Handle(context.Background(), message(t, match(3, events.StatusFinished)))

	assert.NotContains(t, cache.current, int64(3))
	assert.NotContains(t, repo.current, int64(3))
	require.Len(t, bc.msgs, 2)
	assert.Equal(t, "custom", bc.msgs[1].channel)

	view := matchview.New()
	_, _, err := view.ApplyPayload(bc.msgs[0].payload)
	require.NoError(t, err)
	_, _, err = view.ApplyPayload(bc.msgs[1].payload)
	require.NoError(t, err)
	assert.Empty(t, view.VisibleIDs())
}

func TestHandle_StageErrors(t *testing.T) {
	cache, repo, bc := newStore(), newStore(), &fakeBroadcaster{}
	cache.err = errors.New("redis down")

	var stages []string
	persisted := 0
	p := &Processor{
		Log:         zap.NewNop(),
		Cache:       cache,
		Repo:        repo,
		Broadcaster: bc,
		OnError:     func(stage string) { stages = append(stages, stage) },
		OnPersist:   func() { persisted++ },
	}

	p.Handle(context.Background(), kafka.Message{Value: []byte("{not json")})
	p.Handle(context.Background(), message(t, match(1, events.StatusLive)))

	assert.Equal(t, []string{"decode", "cache"}, stages)
	assert.Equal(t, 1, persisted)
	assert.Len(t, bc.msgs, 1)

	repo.err = errors.New("pg down")
	p.Handle(context.Background(), message(t, match(2, events.StatusLive)))
	assert.Equal(t, []string{"decode", "cache", "cache", "db"}, stages)
	assert.Len(t, bc.msgs, 1)
}

func TestRun_ProcessesUntilCanceled(t *testing.T) {
	cache, repo := newStore(), newStore()
	r := &reader{
		errs: []error{errors.New("leader not available")},
		msgs: []kafka.Message{message(t, match(1, events.StatusLive)), message(t, match(2, events.StatusLive))},
	}

	var mu sync.Mutex
	persisted := 0
	var stages []string
	p := &Processor{
		Log:       zap.NewNop(),
		Reader:    r,
		Cache:     cache,
		Repo:      repo,
		OnPersist: func() { mu.Lock(); persisted++; mu.Unlock() },
		OnError:   func(stage string) { mu.Lock(); stages = append(stages, stage); mu.Unlock() },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return persisted == 2
	}, 3*time.Second, 10*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	mu.Lock()
	assert.Equal(t, []string{"read"}, stages)
	mu.Unlock()
}
