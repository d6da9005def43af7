package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/matches-processor/cache"
	"github.com/radieske/live-matches-poc/internal/matches-processor/consumer"
	"github.com/radieske/live-matches-poc/internal/matches-processor/pubsub"
	"github.com/radieske/live-matches-poc/internal/matches-processor/repository"
	sharedcache "github.com/radieske/live-matches-poc/internal/shared/cache"
	"github.com/radieske/live-matches-poc/internal/shared/config"
	"github.com/radieske/live-matches-poc/internal/shared/db"
	"github.com/radieske/live-matches-poc/internal/shared/kafka"
	"github.com/radieske/live-matches-poc/internal/shared/logger"
	"github.com/radieske/live-matches-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	repo := repository.NewPostgresRepo(pg)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("postgres schema", zap.Error(err))
	}
	rcache := cache.NewRedisCache(redisClient, 60*time.Second)

	// Consumer group próprio: cada partida chega na ordem da sua partição
	reader := kafka.NewReader(cfg.Brokers(), cfg.TopicMatchesUpdates, "matches-processor")
	defer reader.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "matches_proc_messages_consumed_total", Help: "mensagens consumidas por tipo de lote"}, []string{"kind"})
	cached := prometheus.NewCounter(prometheus.CounterOpts{Name: "matches_proc_cache_writes_total", Help: "escritas no cache"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "matches_proc_db_writes_total", Help: "escritas no banco (upsert/delete)"})
	broadcast := prometheus.NewCounter(prometheus.CounterOpts{Name: "matches_proc_broadcasts_total", Help: "envelopes publicados no Redis Pub/Sub"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "matches_proc_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, cached, persist, broadcast, errorsBy)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		Repo:        repo,
		Cache:       rcache,
		Broadcaster: pubsub.NewRedisBroadcaster(redisClient),
		Channel:     cfg.RedisPubSubChannel,
		OnConsumed:  func(kind string) { consumed.WithLabelValues(kind).Inc() },
		OnCached:    func() { cached.Inc() },
		OnPersist:   func() { persist.Inc() },
		OnBroadcast: func() { broadcast.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}, log)

	log.Info("matches-processor started", zap.String("topic", cfg.TopicMatchesUpdates))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("matches-processor stopped")
}
