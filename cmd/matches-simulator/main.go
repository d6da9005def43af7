package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/matches-simulator/bus"
	"github.com/radieske/live-matches-poc/internal/matches-simulator/engine"
	"github.com/radieske/live-matches-poc/internal/matches-simulator/names"
	"github.com/radieske/live-matches-poc/internal/matches-simulator/pool"
	"github.com/radieske/live-matches-poc/internal/matches-simulator/publisher"
	"github.com/radieske/live-matches-poc/internal/shared/config"
	"github.com/radieske/live-matches-poc/internal/shared/kafka"
	"github.com/radieske/live-matches-poc/internal/shared/logger"
	"github.com/radieske/live-matches-poc/internal/shared/metrics"
	"github.com/radieske/live-matches-poc/internal/shared/wshub"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

var (
	// Métricas Prometheus do simulador
	ticksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_ticks_total",
		Help: "Ticks executados",
	})
	changedPerTick = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "simulator_changed_matches",
		Help:    "Partidas alteradas por tick",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "simulator_tick_duration_seconds",
		Help:    "Duração de cada tick",
		Buckets: prometheus.DefBuckets,
	})
	listenerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_listener_errors_total",
		Help: "Falhas de listeners do bus",
	}, []string{"kind", "listener"})
	kafkaBatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_kafka_batches_total",
		Help: "Lotes entregues ao Kafka por resultado",
	}, []string{"result"})
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "simulator_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	wsMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_ws_messages_sent_total",
		Help: "Total de mensagens WS enviadas",
	})
	wsSlowClients = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_ws_slow_clients_total",
		Help: "Clientes desconectados por buffer cheio",
	})
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	prometheus.MustRegister(ticksTotal, changedPerTick, tickDuration, listenerErrors, kafkaBatches,
		wsConnections, wsMessagesSent, wsSlowClients)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	teamNames := names.Generate(cfg.NamePoolSize, rng)
	p := pool.New(pool.Config{Count: cfg.TotalMatches, Sports: cfg.Sports}, teamNames, rng, time.Now())
	log.Info("match pool ready",
		zap.Int("matches", p.Len()),
		zap.Int("names", len(teamNames)),
		zap.Int64("seed", seed),
	)

	b := bus.New(log)
	b.OnListenerError = func(kind events.Kind, listener string) {
		listenerErrors.WithLabelValues(string(kind), listener).Inc()
	}

	// Fan-out WebSocket direto: réplica recebe o initial e cada update
	hub := wshub.New(nil, log)
	hub.OnConnect = func(total int) { wsConnections.Set(float64(total)) }
	hub.OnDisconnect = func(total int) { wsConnections.Set(float64(total)) }
	hub.OnSent = func(n int) { wsMessagesSent.Add(float64(n)) }
	hub.OnDropped = func(string) { wsSlowClients.Inc() }
	b.OnInitial("ws-hub", hub.Listener(events.KindInitial))
	b.OnUpdate("ws-hub", hub.Listener(events.KindUpdate))

	// Kafka fica atrás de filas próprias para não atrasar o tick
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		log.Fatal("KAFKA_BROKERS is empty")
	}
	if err := kafka.EnsureTopic(ctx, brokers[0], cfg.TopicMatchesUpdates, 6); err != nil {
		log.Warn("kafka topic check failed", zap.String("topic", cfg.TopicMatchesUpdates), zap.Error(err))
	}
	writer := kafka.NewWriter(brokers, cfg.TopicMatchesUpdates)
	pub := publisher.NewKafkaPublisher(writer, cfg.ServiceName, log)
	defer pub.Close()

	onProcessed := func(err error) {
		if err != nil {
			kafkaBatches.WithLabelValues("error").Inc()
			return
		}
		kafkaBatches.WithLabelValues("ok").Inc()
	}
	initialSink := bus.Async("kafka-initial", 1, pub.Listener(events.KindInitial), log)
	updateSink := bus.Async("kafka-update", 8, pub.Listener(events.KindUpdate), log)
	initialSink.OnProcessed = onProcessed
	updateSink.OnProcessed = onProcessed
	go initialSink.Run(ctx)
	go updateSink.Run(ctx)
	b.OnInitial("kafka", initialSink.Listener())
	b.OnUpdate("kafka", updateSink.Listener())

	eng := engine.New(p, b, engine.Config{
		UpdateWidth:  cfg.UpdateMatchesCount,
		TickInterval: cfg.TickInterval,
	}, log)
	eng.OnTick = func(s engine.TickStats) {
		ticksTotal.Inc()
		changedPerTick.Observe(float64(s.Changed))
		tickDuration.Observe(s.Duration.Seconds())
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, nil, log)

	// réplica do hub precisa do snapshot antes do primeiro cliente
	eng.PublishInitial(ctx)

	// ==== MUX PÚBLICO (HTTP principal): /ws
	appMux := http.NewServeMux()
	appMux.HandleFunc("/ws", hub.HandleWS)
	publicSrv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: appMux}

	go func() {
		log.Info("matches simulator (public) running",
			zap.String("addr", publicSrv.Addr),
			zap.String("paths", "/ws"),
		)
		if err := publicSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("public server error", zap.Error(err))
		}
	}()

	go eng.Run(ctx)

	<-ctx.Done()
	log.Info("shutting down matches simulator")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	hub.Close()
	_ = publicSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
