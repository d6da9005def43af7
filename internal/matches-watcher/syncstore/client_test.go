package syncstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/shared/matchview"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

// session descreve o que o servidor faz numa conexão: envia as mensagens e,
// se hold for true, mantém a conexão aberta até o cliente fechar.
type session struct {
	messages []string
	hold     bool
}

type feed struct {
	srv   *httptest.Server
	conns int32
}

func newFeed(t *testing.T, sessions ...session) *feed {
	t.Helper()
	f := &feed{}
	upgrader := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		idx := int(atomic.AddInt32(&f.conns, 1)) - 1
		s := session{hold: true}
		if idx < len(sessions) {
			s = sessions[idx]
		}
		for _, m := range s.messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		if s.hold {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *feed) url() string { return "ws" + strings.TrimPrefix(f.srv.URL, "http") }

func (f *feed) connections() int { return int(atomic.LoadInt32(&f.conns)) }

func envelope(t *testing.T, kind events.Kind, batch ...events.Match) string {
	t.Helper()
	raw, err := json.Marshal(events.NewEnvelope(kind, batch, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	return string(raw)
}

func match(id int64, status events.Status) events.Match {
	return events.Match{ID: id, Team1Name: "Eagles Force", Team2Name: "Hawks Pro", Status: status}
}

type statusLog struct {
	mu  sync.Mutex
	all []Status
}

func (l *statusLog) record(s Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.all = append(l.all, s)
}

func (l *statusLog) snapshot() []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Status(nil), l.all...)
}

func start(t *testing.T, c *Client) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(done)
	}()
	return func() {
		stop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("client did not stop")
		}
	}
}

func TestClient_ReconnectsOnceAfterClose(t *testing.T) {
	f := newFeed(t,
		session{messages: []string{envelope(t, events.KindInitial,
			match(1, events.StatusLive), match(2, events.StatusLive), match(3, events.StatusLive))}},
		session{messages: []string{envelope(t, events.KindUpdate,
			match(2, events.StatusFinished), match(4, events.StatusLive))}, hold: true},
	)

	timer := make(chan time.Time)
	var afterCalls int32
	var requested time.Duration

	statuses := &statusLog{}
	c := NewClient(f.url(), matchview.New(), zap.NewNop())
	c.OnStatus = statuses.record
	c.After = func(d time.Duration) <-chan time.Time {
		requested = d
		atomic.AddInt32(&afterCalls, 1)
		return timer
	}
	stop := start(t, c)
	defer stop()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&afterCalls) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 5*time.Second, requested)
	assert.Equal(t, StatusConnecting, c.ConnectionStatus())
	assert.Equal(t, []int64{1, 2, 3}, c.VisibleIDs())
	assert.Equal(t, []Status{StatusConnecting, StatusOpen, StatusClosed, StatusConnecting}, statuses.snapshot())
	assert.Equal(t, 1, f.connections())

	timer <- time.Now()

	require.Eventually(t, func() bool { return c.ConnectionStatus() == StatusOpen }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(c.VisibleIDs()) == 3 && c.VisibleIDs()[2] == 4 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{1, 3, 4}, c.VisibleIDs())
	_, ok := c.Get(2)
	assert.False(t, ok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&afterCalls))
	assert.Equal(t, 2, f.connections())
	assert.Empty(t, c.LastError())
}

func TestClient_DialFailureSurfacesError(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(dead.URL, "http")
	dead.Close()

	timer := make(chan time.Time)
	var afterCalls int32
	c := NewClient(url, matchview.New(), zap.NewNop())
	c.After = func(time.Duration) <-chan time.Time {
		atomic.AddInt32(&afterCalls, 1)
		return timer
	}
	stop := start(t, c)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&afterCalls) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.NotEmpty(t, c.LastError())
	assert.Equal(t, StatusConnecting, c.ConnectionStatus())

	stop()
	assert.Equal(t, StatusClosed, c.ConnectionStatus())
}

func TestClient_DropsMalformedPayloads(t *testing.T) {
	f := newFeed(t, session{
		messages: []string{
			`garbage`,
			`{"type":"update","data":{"data":{"id":1}}}`,
			envelope(t, events.KindInitial, match(1, events.StatusLive)),
		},
		hold: true,
	})

	var malformed int32
	c := NewClient(f.url(), matchview.New(), zap.NewNop())
	c.OnMalformed = func(err error) {
		assert.ErrorIs(t, err, matchview.ErrMalformedPayload)
		atomic.AddInt32(&malformed, 1)
	}
	var merges int32
	c.OnMerge = func(kind events.Kind, res matchview.MergeResult) {
		assert.Equal(t, events.KindInitial, kind)
		atomic.AddInt32(&merges, 1)
	}
	stop := start(t, c)
	defer stop()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&merges) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&malformed))
	assert.Equal(t, []int64{1}, c.VisibleIDs())
	assert.Equal(t, StatusOpen, c.ConnectionStatus())
}

func TestClient_KeepsStateAcrossReconnects(t *testing.T) {
	f := newFeed(t,
		session{messages: []string{envelope(t, events.KindInitial, match(1, events.StatusLive), match(2, events.StatusLive))}},
		session{messages: []string{envelope(t, events.KindInitial, match(3, events.StatusLive))}, hold: true},
	)

	var reconnects int32
	c := NewClient(f.url(), matchview.New(), zap.NewNop())
	c.ReconnectDelay = 20 * time.Millisecond
	c.OnReconnect = func(int) { atomic.AddInt32(&reconnects, 1) }
	stop := start(t, c)
	defer stop()

	require.Eventually(t, func() bool { return len(c.VisibleIDs()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{1, 2, 3}, c.VisibleIDs())
	assert.Equal(t, int32(1), atomic.LoadInt32(&reconnects))
	assert.Equal(t, StatusOpen, c.ConnectionStatus())
}
