package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/matches-service/cache"
	httpapi "github.com/radieske/live-matches-poc/internal/matches-service/http"
	"github.com/radieske/live-matches-poc/internal/matches-service/repo"
	"github.com/radieske/live-matches-poc/internal/matches-service/ws"
	sharedcache "github.com/radieske/live-matches-poc/internal/shared/cache"
	"github.com/radieske/live-matches-poc/internal/shared/config"
	"github.com/radieske/live-matches-poc/internal/shared/db"
	"github.com/radieske/live-matches-poc/internal/shared/logger"
	"github.com/radieske/live-matches-poc/internal/shared/metrics"
	"github.com/radieske/live-matches-poc/internal/shared/wshub"
)

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// conecta com db Postgres
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	log.Info("postgres connected")

	// conecta com cache Redis
	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("redis connected")

	readRepo := &repo.ReadRepo{DB: pg}

	wsClients := prometheus.NewGauge(prometheus.GaugeOpts{Name: "matches_service_ws_connections", Help: "Clientes WebSocket conectados"})
	wsSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "matches_service_ws_messages_sent_total", Help: "Total de mensagens WS enviadas"})
	prometheus.MustRegister(wsClients, wsSent)

	// relay: réplica semeada do banco, depois alimentada pelo Pub/Sub
	hub := wshub.New(nil, log)
	hub.OnConnect = func(total int) { wsClients.Set(float64(total)) }
	hub.OnDisconnect = func(total int) { wsClients.Set(float64(total)) }
	hub.OnSent = func(n int) { wsSent.Add(float64(n)) }

	ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log)
	seed, err := readRepo.ListMatches(ctx, repo.ListFilter{})
	if err != nil {
		log.Warn("relay seed failed, starting empty", zap.Error(err))
	}
	hub.Seed(seed)
	log.Info("ws relay seeded", zap.Int("matches", len(seed)))

	api := &httpapi.API{
		ReadRepo: readRepo,
		Cache:    cache.New(redisClient),
		Log:      log,
		CacheTTL: 30 * time.Second,
		WS:       http.HandlerFunc(hub.HandleWS),
	}

	// healthz: valida dependências críticas
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres not healthy: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis not healthy: %w", err)
		}
		return nil
	}, log)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	go func() {
		log.Info("matches-service listening", zap.String("addr", srv.Addr), zap.String("paths", "/v1/matches,/v1/matches/{id},/ws"))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	hub.Close()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("matches-service stopped")
}
