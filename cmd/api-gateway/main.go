package main

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/shared/config"
	"github.com/radieske/live-matches-poc/internal/shared/logger"
	"github.com/radieske/live-matches-poc/internal/shared/metrics"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

// feedTarget converte a URL ws:// do simulador para http:// do proxy
func feedTarget(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "http://localhost:8081"
	}
	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	u.Path = ""
	return u.String()
}

func newRouter(matchesURL, feedURL string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// matches (ex.: /api/matches/v1/matches -> matches-service /v1/matches)
	r.Handle("/api/matches/*", http.StripPrefix("/api/matches", rp(matchesURL)))

	// feed ao vivo do simulador (upgrade WebSocket repassado pelo proxy)
	r.Handle("/ws", rp(feedTarget(feedURL)))
	return r
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, nil, log)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: newRouter(cfg.MatchesURL, cfg.FeedWSURL),
	}
	go func() {
		log.Info("api-gateway listening", zap.String("addr", srv.Addr),
			zap.String("matches", cfg.MatchesURL), zap.String("feed", cfg.FeedWSURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("gateway failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
