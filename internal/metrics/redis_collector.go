package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

// Key names mirror internal/repository.
const (
	keyScenariosOrder = "placebench:scenarios:order"
	keyRunsIndex      = "placebench:runs:started"
)

type redisCollector struct {
	rdb    *redis.Client
	logger *slog.Logger

	queueDepthDesc *prometheus.Desc
	runsStoredDesc *prometheus.Desc
}

func newRedisCollector(rdb *redis.Client, logger *slog.Logger) *redisCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisCollector{
		rdb:    rdb,
		logger: logger,
		queueDepthDesc: prometheus.NewDesc(
			"placebench_scenario_queue_depth",
			"Current number of queued scenarios.",
			nil,
			nil,
		),
		runsStoredDesc: prometheus.NewDesc(
			"placebench_runs_stored",
			"Current number of batch runs kept in the run store.",
			nil,
			nil,
		),
	}
}

func (c *redisCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queueDepthDesc
	ch <- c.runsStoredDesc
}

func (c *redisCollector) Collect(ch chan<- prometheus.Metric) {
	if c.rdb == nil {
		return
	}

	// Keep Redis reads bounded so scrapes do not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipe := c.rdb.Pipeline()
	depth := pipe.LLen(ctx, keyScenariosOrder)
	runs := pipe.ZCard(ctx, keyRunsIndex)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		c.logger.Warn("prometheus redis collector failed", "err", err)
		return
	}

	emitGauge(ch, c.queueDepthDesc, float64(depth.Val()))
	emitGauge(ch, c.runsStoredDesc, float64(runs.Val()))
}

func emitGauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labelValues...)
	if err != nil {
		return
	}
	ch <- m
}

var registerRedisCollectorOnce sync.Once

func RegisterRedisCollector(rdb *redis.Client, logger *slog.Logger) {
	registerRedisCollectorOnce.Do(func() {
		prometheus.MustRegister(newRedisCollector(rdb, logger))
	})
}
