package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/matches-service/repo"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

const (
	defaultLimit    = 100
	maxLimit        = 1000
	defaultCacheTTL = 30 * time.Second
)

// listMatches aceita ?sport= e ?limit= (padrão 100, máximo 1000)
func (a *API) listMatches(w http.ResponseWriter, r *http.Request) {
	f := repo.ListFilter{Limit: defaultLimit}

	if s := r.URL.Query().Get("sport"); s != "" {
		if !validSport(events.Sport(s)) {
			writeError(w, http.StatusBadRequest, "unknown sport")
			return
		}
		f.Sport = events.Sport(s)
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = min(n, maxLimit)
	}

	matches, err := a.ReadRepo.ListMatches(r.Context(), f)
	if err != nil {
		a.Log.Error("list matches failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, events.Batch{Data: matches})
}

// getMatch retorna a partida, preferencialmente do cache
func (a *API) getMatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if a.Cache != nil {
		m, ok, err := a.Cache.GetMatch(r.Context(), id)
		if err != nil {
			a.Log.Warn("cache read failed", zap.Int64("match_id", id), zap.Error(err))
		} else if ok {
			writeJSON(w, http.StatusOK, m)
			return
		}
	}

	m, err := a.ReadRepo.GetMatch(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		a.Log.Error("get match failed", zap.Int64("match_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if a.Cache != nil {
		ttl := a.CacheTTL
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		_ = a.Cache.SetMatch(r.Context(), m, ttl)
	}
	writeJSON(w, http.StatusOK, m)
}

func validSport(s events.Sport) bool {
	for _, known := range events.AllSports {
		if s == known {
			return true
		}
	}
	return false
}
