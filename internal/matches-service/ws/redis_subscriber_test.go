package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/shared/wshub"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

func TestRelay_FeedsHubReplica(t *testing.T) {
	hub := wshub.New(nil, zap.NewNop())
	hub.Seed([]events.Match{{ID: 1, Status: events.StatusLive}, {ID: 2, Status: events.StatusLive}})

	update, err := json.Marshal(events.NewEnvelope(events.KindUpdate,
		[]events.Match{{ID: 2, Status: events.StatusFinished}, {ID: 5, Status: events.StatusLive}}, time.Now()))
	require.NoError(t, err)

	ch := make(chan *redis.Message, 4)
	ch <- &redis.Message{Channel: "matches_updates_broadcast", Payload: "not json"}
	ch <- nil
	ch <- &redis.Message{Channel: "matches_updates_broadcast", Payload: string(update)}
	close(ch)

	Relay(context.Background(), ch, hub, zap.NewNop())

	assert.Equal(t, []int64{1, 5}, hub.Replica().VisibleIDs())
}

func TestRelay_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Relay(ctx, make(chan *redis.Message), wshub.New(nil, zap.NewNop()), zap.NewNop())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
