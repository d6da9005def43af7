package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/matches-service/repo"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

type MatchReader interface {
	ListMatches(ctx context.Context, f repo.ListFilter) ([]events.Match, error)
	GetMatch(ctx context.Context, id int64) (events.Match, error)
}

type MatchCache interface {
	GetMatch(ctx context.Context, id int64) (events.Match, bool, error)
	SetMatch(ctx context.Context, m events.Match, ttl time.Duration) error
}

// API expõe os endpoints REST de consulta de partidas ao vivo
// Utiliza um repositório de leitura (Postgres) e cache (Redis)
type API struct {
	ReadRepo MatchReader // acesso ao banco de dados
	Cache    MatchCache  // cache de partidas (opcional)
	Log      *zap.Logger
	CacheTTL time.Duration
	WS       http.Handler // relay WebSocket (opcional)
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/v1/matches", a.listMatches)   // Lista partidas ao vivo
	r.Get("/v1/matches/{id}", a.getMatch) // Detalhe de uma partida
	if a.WS != nil {
		r.Handle("/ws", a.WS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
