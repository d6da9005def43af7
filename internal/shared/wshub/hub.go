// Package wshub faz o fan-out de envelopes de partidas para clientes
// WebSocket. O hub guarda uma réplica do estado atual para que cada nova
// conexão receba primeiro um "initial" com tudo o que está ao vivo.
package wshub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/shared/matchview"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

// Hub mantém os clientes conectados e a réplica usada no snapshot inicial.
// mu serializa registro de clientes e publicações, então um cliente novo
// nunca perde nem recebe fora de ordem um lote publicado durante o connect.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]*client
	replica *matchview.Store

	// callbacks opcionais para métricas
	OnConnect    func(total int)
	OnDisconnect func(total int)
	OnSent       func(n int)
	OnDropped    func(clientID string)
}

// New cria um hub; allowOrigin nil aceita qualquer origem
func New(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	if allowOrigin == nil {
		allowOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     allowOrigin,
		},
		log:     log,
		now:     time.Now,
		clients: make(map[string]*client),
		replica: matchview.New(),
	}
}

// Seed carrega a réplica sem notificar ninguém
func (h *Hub) Seed(batch []events.Match) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.replica.Merge(batch)
}

// Publish aplica o lote na réplica e envia o envelope a todos os clientes.
// Clientes com buffer cheio são desconectados.
func (h *Hub) Publish(kind events.Kind, batch []events.Match) error {
	if len(batch) == 0 {
		return nil
	}
	msg, err := json.Marshal(events.NewEnvelope(kind, batch, h.now()))
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.replica.Merge(batch)

	sent := 0
	for id, c := range h.clients {
		if c.trySend(msg) {
			sent++
			continue
		}
		h.log.Warn("ws client buffer full, disconnecting", zap.String("client_id", id))
		h.removeLocked(c)
		if h.OnDropped != nil {
			h.OnDropped(id)
		}
	}
	if h.OnSent != nil && sent > 0 {
		h.OnSent(sent)
	}
	return nil
}

// Listener adapta Publish ao formato de listener do bus
func (h *Hub) Listener(kind events.Kind) func(context.Context, []events.Match) error {
	return func(_ context.Context, batch []events.Match) error {
		return h.Publish(kind, batch)
	}
}

// HandleWS faz o upgrade, envia o snapshot da réplica e inicia as pumps
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	c := newClient(uuid.NewString(), conn)
	if err := h.register(c); err != nil {
		h.log.Error("ws initial snapshot failed", zap.String("client_id", c.id), zap.Error(err))
		_ = conn.Close()
		return
	}

	go c.writePump()
	go func() {
		c.readPump()
		h.unregister(c)
	}()
}

func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot := h.replica.Snapshot()
	msg, err := json.Marshal(events.NewEnvelope(events.KindInitial, snapshot, h.now()))
	if err != nil {
		return err
	}
	c.send <- msg

	h.clients[c.id] = c
	total := len(h.clients)
	h.log.Info("ws client connected", zap.String("client_id", c.id), zap.Int("initial_size", len(snapshot)), zap.Int("total", total))
	if h.OnConnect != nil {
		h.OnConnect(total)
	}
	return nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	c.close()
	total := len(h.clients)
	h.log.Info("ws client disconnected", zap.String("client_id", c.id), zap.Int("total", total))
	if h.OnDisconnect != nil {
		h.OnDisconnect(total)
	}
}

// Clients devolve quantos clientes estão conectados
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Replica devolve a visão usada nos snapshots iniciais
func (h *Hub) Replica() *matchview.Store { return h.replica }

// Close desconecta todos os clientes
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		h.removeLocked(c)
	}
}
