// Package rediscounter provides a Redis-backed metricsink.Sink alternative
// to the Prometheus sink in pkg/metrics. It accumulates operation counters
// in Redis via INCR rather than scraping, which suits operators who already
// centralise counters in Redis instead of running a Prometheus server.
//
// This is counter bookkeeping, not a response cache: no search/operation
// result is ever stored here, so it does not reintroduce the "router does
// not cache" Non-goal.
package rediscounter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikhilvora/accessrouter/internal/metricsink"
	"github.com/nikhilvora/accessrouter/pkg/config"
	pkgredis "github.com/nikhilvora/accessrouter/pkg/redis"
)

// Sink implements metricsink.Sink by incrementing Redis counters.
// Begin/End durations are not histogrammed (Redis has no native histogram
// primitive cheap enough to use per-call); only counts are kept.
type Sink struct {
	client    *pkgredis.Client
	keyPrefix string
	logger    *slog.Logger
}

// New creates a Redis-backed Sink using an already-connected client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *Sink {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "accessrouter:metrics:"
	}
	return &Sink{
		client:    client,
		keyPrefix: prefix,
		logger:    slog.Default().With("component", "rediscounter-sink"),
	}
}

type beginToken struct {
	metric string
	start  time.Time
}

// Begin implements metricsink.Sink.
func (s *Sink) Begin(metricName string) any {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := s.client.Incr(ctx, s.key(metricName, "started")); err != nil {
		s.logger.Warn("incr failed", "metric", metricName, "error", err)
	}
	return beginToken{metric: metricName, start: time.Now()}
}

// End implements metricsink.Sink.
func (s *Sink) End(id any, metricName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := s.client.Incr(ctx, s.key(metricName, "completed")); err != nil {
		s.logger.Warn("incr failed", "metric", metricName, "error", err)
	}
}

// CancelBegin implements metricsink.Sink.
func (s *Sink) CancelBegin(id any, metricName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := s.client.Incr(ctx, s.key(metricName, "cancelled")); err != nil {
		s.logger.Warn("incr failed", "metric", metricName, "error", err)
	}
}

// Increment implements metricsink.Sink.
func (s *Sink) Increment(metricName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := s.client.Incr(ctx, s.key(metricName, "events")); err != nil {
		s.logger.Warn("incr failed", "metric", metricName, "error", err)
	}
}

func (s *Sink) key(metricName, suffix string) string {
	return fmt.Sprintf("%s%s:%s", s.keyPrefix, metricName, suffix)
}

var _ metricsink.Sink = (*Sink)(nil)
