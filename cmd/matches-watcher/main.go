package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/live-matches-poc/internal/matches-watcher/syncstore"
	"github.com/radieske/live-matches-poc/internal/shared/config"
	"github.com/radieske/live-matches-poc/internal/shared/logger"
	"github.com/radieske/live-matches-poc/internal/shared/matchview"
	"github.com/radieske/live-matches-poc/internal/shared/metrics"
	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

var statuses = []syncstore.Status{syncstore.StatusConnecting, syncstore.StatusOpen, syncstore.StatusClosed}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Métricas Prometheus da réplica local
	visible := prometheus.NewGauge(prometheus.GaugeOpts{Name: "watcher_visible_matches", Help: "Partidas visíveis na réplica"})
	merged := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "watcher_batches_merged_total", Help: "Lotes aplicados por tipo"}, []string{"kind"})
	removed := prometheus.NewCounter(prometheus.CounterOpts{Name: "watcher_matches_removed_total", Help: "Partidas removidas por status terminal"})
	malformed := prometheus.NewCounter(prometheus.CounterOpts{Name: "watcher_malformed_payloads_total", Help: "Payloads descartados"})
	reconnects := prometheus.NewCounter(prometheus.CounterOpts{Name: "watcher_reconnects_total", Help: "Tentativas de reconexão"})
	connState := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "watcher_connection_status", Help: "1 para o estado atual da conexão"}, []string{"status"})
	prometheus.MustRegister(visible, merged, removed, malformed, reconnects, connState)

	client := syncstore.NewClient(cfg.FeedWSURL, matchview.New(), log)
	client.ReconnectDelay = cfg.ReconnectDelay
	client.OnStatus = func(s syncstore.Status) {
		for _, st := range statuses {
			v := 0.0
			if st == s {
				v = 1
			}
			connState.WithLabelValues(string(st)).Set(v)
		}
		if s == syncstore.StatusClosed {
			log.Warn("disconnected from matches feed", zap.String("url", cfg.FeedWSURL))
		}
	}
	client.OnMerge = func(kind events.Kind, res matchview.MergeResult) {
		merged.WithLabelValues(string(kind)).Inc()
		removed.Add(float64(res.Removed))
		visible.Set(float64(res.Visible))
	}
	client.OnMalformed = func(error) { malformed.Inc() }
	client.OnReconnect = func(int) { reconnects.Inc() }

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(context.Context) error {
		if s := client.ConnectionStatus(); s != syncstore.StatusOpen {
			return fmt.Errorf("feed %s", s)
		}
		return nil
	}, log)

	go summarize(ctx, client, cfg.SummaryInterval, log)

	log.Info("matches-watcher started", zap.String("feed", cfg.FeedWSURL))
	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("feed client stopped", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("matches-watcher stopped")
}

// summarize registra periodicamente um resumo da réplica: total visível,
// partidas por modalidade e placar mais alto
func summarize(ctx context.Context, c *syncstore.Client, every time.Duration, log *zap.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bySport := make(map[events.Sport]int)
			var top events.Match
			for _, id := range c.VisibleIDs() {
				m, ok := c.Get(id)
				if !ok {
					continue
				}
				bySport[m.Sport]++
				if m.Team1Score+m.Team2Score > top.Team1Score+top.Team2Score {
					top = m
				}
			}

			fields := []zap.Field{
				zap.String("status", string(c.ConnectionStatus())),
				zap.Int("visible", c.Store.Len()),
				zap.Any("by_sport", bySport),
			}
			if lastErr := c.LastError(); lastErr != "" {
				fields = append(fields, zap.String("last_error", lastErr))
			}
			if top.Team1Name != "" {
				fields = append(fields, zap.String("top_match", fmt.Sprintf("%s %d x %d %s", top.Team1Name, top.Team1Score, top.Team2Score, top.Team2Name)))
			}
			log.Info("watcher summary", fields...)
		}
	}
}
