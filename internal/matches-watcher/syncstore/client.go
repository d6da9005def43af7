// Package syncstore mantém uma réplica local das partidas ao vivo alimentada
// pelo feed WebSocket do simulador, com reconexão automática.
package syncstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/shared/matchview"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

// Status é o estado da conexão com o feed
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusOpen       Status = "open"
	StatusClosed     Status = "closed"
)

const defaultReconnectDelay = 5 * time.Second

// Client consome o feed e reconcilia cada lote recebido na Store.
type Client struct {
	URL            string
	Store          *matchview.Store
	Log            *zap.Logger
	Dialer         *websocket.Dialer
	ReconnectDelay time.Duration

	// After agenda a reconexão; nil usa time.After
	After func(time.Duration) <-chan time.Time

	// callbacks opcionais para métricas
	OnStatus    func(Status)
	OnMerge     func(kind events.Kind, res matchview.MergeResult)
	OnMalformed func(error)
	OnReconnect func(attempt int)

	mu       sync.RWMutex
	status   Status
	lastErr  string
	attempts int
}

// NewClient cria um cliente com os defaults de reconexão
func NewClient(url string, store *matchview.Store, log *zap.Logger) *Client {
	return &Client{
		URL:            url,
		Store:          store,
		Log:            log,
		Dialer:         websocket.DefaultDialer,
		ReconnectDelay: defaultReconnectDelay,
		status:         StatusConnecting,
	}
}

// Run conecta e reconecta até o contexto ser cancelado. O loop é sequencial,
// então nunca existe mais de uma reconexão agendada ao mesmo tempo.
func (c *Client) Run(ctx context.Context) error {
	c.setStatus(StatusConnecting)
	for {
		opened, err := c.connectAndListen(ctx)
		if ctx.Err() != nil {
			c.setStatus(StatusClosed)
			c.Log.Info("context canceled, stopping feed client")
			return ctx.Err()
		}
		if err != nil {
			c.setError(err)
		}
		if opened {
			c.Log.Warn("feed connection closed", zap.Error(err))
			c.setStatus(StatusClosed)
		} else {
			c.Log.Warn("feed dial failed", zap.String("url", c.URL), zap.Error(err))
		}

		c.setStatus(StatusConnecting)
		select {
		case <-ctx.Done():
			c.setStatus(StatusClosed)
			return ctx.Err()
		case <-c.after(c.delay()):
		}

		c.mu.Lock()
		c.attempts++
		attempt := c.attempts
		c.mu.Unlock()
		c.Log.Info("reconnecting to feed", zap.String("url", c.URL), zap.Int("attempt", attempt))
		if c.OnReconnect != nil {
			c.OnReconnect(attempt)
		}
	}
}

// connectAndListen abre a conexão e processa mensagens até ela fechar.
// opened indica se a conexão chegou a ser estabelecida.
func (c *Client) connectAndListen(ctx context.Context) (opened bool, err error) {
	conn, _, err := c.dialer().DialContext(ctx, c.URL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	c.mu.Lock()
	c.lastErr = ""
	c.attempts = 0
	c.mu.Unlock()
	c.setStatus(StatusOpen)
	c.Log.Info("connected to matches feed", zap.String("url", c.URL))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, context.Canceled) {
				return true, nil
			}
			return true, err
		}

		kind, res, err := c.Store.ApplyPayload(message)
		if err != nil {
			c.Log.Warn("dropping malformed payload", zap.Int("bytes", len(message)), zap.Error(err))
			if c.OnMalformed != nil {
				c.OnMalformed(err)
			}
			continue
		}
		c.Log.Debug("batch merged",
			zap.String("kind", string(kind)),
			zap.Int("upserted", res.Upserted),
			zap.Int("removed", res.Removed),
			zap.Int("visible", res.Visible),
		)
		if c.OnMerge != nil {
			c.OnMerge(kind, res)
		}
	}
}

// ConnectionStatus devolve o estado atual da conexão
func (c *Client) ConnectionStatus() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// LastError devolve a última falha de transporte ("" após reconectar)
func (c *Client) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Client) VisibleIDs() []int64 { return c.Store.VisibleIDs() }

func (c *Client) Get(id int64) (events.Match, bool) { return c.Store.Get(id) }

func (c *Client) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	if c.OnStatus != nil {
		c.OnStatus(s)
	}
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()
}

func (c *Client) dialer() *websocket.Dialer {
	if c.Dialer != nil {
		return c.Dialer
	}
	return websocket.DefaultDialer
}

func (c *Client) delay() time.Duration {
	if c.ReconnectDelay > 0 {
		return c.ReconnectDelay
	}
	return defaultReconnectDelay
}

func (c *Client) after(d time.Duration) <-chan time.Time {
	if c.After != nil {
		return c.After(d)
	}
	return time.After(d)
}
