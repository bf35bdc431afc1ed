// Command router boots the Distributed Access-Manager Operation Router: it
// loads configuration, dials shard clients for every configured shard,
// builds the shard-client directory, wires a metrics sink and audit
// publisher, and serves health/metrics endpoints while the Router itself is
// embedded as a library surface for callers (gRPC/REST front ends are
// explicitly out of scope; see SPEC_FULL.md §6).
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikhilvora/accessrouter/internal/directory"
	"github.com/nikhilvora/accessrouter/internal/metricsink"
	"github.com/nikhilvora/accessrouter/internal/router"
	"github.com/nikhilvora/accessrouter/internal/shardclient"
	"github.com/nikhilvora/accessrouter/pkg/auditlog"
	"github.com/nikhilvora/accessrouter/pkg/config"
	"github.com/nikhilvora/accessrouter/pkg/health"
	"github.com/nikhilvora/accessrouter/pkg/kafka"
	"github.com/nikhilvora/accessrouter/pkg/logger"
	"github.com/nikhilvora/accessrouter/pkg/metrics"
	"github.com/nikhilvora/accessrouter/pkg/postgres"
	pkgredis "github.com/nikhilvora/accessrouter/pkg/redis"
	"github.com/nikhilvora/accessrouter/pkg/rediscounter"
	"github.com/nikhilvora/accessrouter/pkg/topologystore"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("router-main")

	dir, closeShards := buildDirectory(cfg, log)
	defer closeShards()

	// rtr is declared here and assigned once its dependencies (metrics sink,
	// audit publisher) are built below; the health check and admin mux
	// closures below capture this variable by reference, so they observe the
	// fully-wired Router by the time any request reaches them.
	var rtr *router.Router

	checker := health.NewChecker()
	checker.Register("directory", func(ctx context.Context) health.ComponentHealth {
		if _, err := rtr.GetUsers(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	// promMetrics instruments the admin server's own HTTP endpoints
	// regardless of which MetricsSink backend is configured for router
	// operations, and doubles as that sink when the backend is Prometheus.
	promMetrics := metrics.New()

	sink, closeSink := buildMetricsSink(cfg, log, promMetrics)
	defer closeSink()

	audit, closeAudit := buildAuditPublisher(cfg, log)
	defer closeAudit()

	if cfg.Directory.RefreshFromPostgres {
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			log.Error("topology refresh disabled: failed to connect to postgres", "error", err)
		} else {
			defer pg.Close()
			store := topologystore.New(pg)
			checker.Register("topology-store", func(ctx context.Context) health.ComponentHealth {
				if err := pg.DB.PingContext(ctx); err != nil {
					return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
				}
				return health.ComponentHealth{Status: health.StatusUp}
			})
			go runTopologyRefreshLoop(context.Background(), store, dir, cfg.Directory.RefreshInterval, cfg.Directory.ShardCallTimeout, log)
		}
	}

	// rtr is the router's library surface: an embedding process imports
	// internal's exported equivalent or vendors this binary's packages to
	// call its operations directly. This process drives it itself, through
	// the directory health check above and the /debug/get-users endpoint
	// below, so the binary it builds actually exercises the façade and not
	// only the transport/config/health plumbing around it.
	rtr = router.New(dir, router.WithMetrics(sink), router.WithAudit(audit), router.WithLogger(log))

	mux := buildAdminMux(checker, promMetrics, rtr, log)
	adminServer := startAdminServer(cfg.Server.Port, mux, log)

	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	log.Info("router started", "admin_port", cfg.Server.Port, "shards", len(cfg.Directory.Shards))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := adminServer.Shutdown(ctx); err != nil {
		log.Error("admin server shutdown error", "error", err)
	}
	if metricsShutdown != nil {
		if err := metricsShutdown(ctx); err != nil {
			log.Error("metrics server shutdown error", "error", err)
		}
	}
}

// buildDirectory dials an RPCShardClient per configured shard, wraps each
// in a per-label circuit breaker, and returns a ready Directory plus a
// cleanup func that closes every connection.
func buildDirectory(cfg *config.Config, log *slog.Logger) (*directory.Directory, func()) {
	var userHandles, groupHandles []shardclient.ClientHandle
	var conns []*shardclient.RPCShardClient

	for _, desc := range cfg.Directory.Shards {
		conn, err := shardclient.NewRPCShardClient(desc.Address, shardclient.WithCallTimeout(cfg.Directory.ShardCallTimeout))
		if err != nil {
			log.Error("failed to dial shard, omitting from directory", "label", desc.Label, "address", desc.Address, "error", err)
			continue
		}
		conns = append(conns, conn)
		wrapped := shardclient.WithCircuitBreaker(conn, desc.Label, defaultCircuitBreakerConfig())
		handle := shardclient.ClientHandle{Client: wrapped, Label: desc.Label}
		switch desc.Axis {
		case "group":
			groupHandles = append(groupHandles, handle)
		default:
			userHandles = append(userHandles, handle)
		}
	}

	dir := directory.New(userHandles, groupHandles)
	closeAll := func() {
		for _, c := range conns {
			if err := c.Close(); err != nil {
				log.Warn("error closing shard connection", "error", err)
			}
		}
	}
	return dir, closeAll
}

func runTopologyRefreshLoop(ctx context.Context, store *topologystore.Store, dir *directory.Directory, interval, shardCallTimeout time.Duration, log *slog.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			descriptors, err := store.Load(ctx)
			if err != nil {
				log.Warn("topology refresh failed", "error", err)
				continue
			}
			var userHandles, groupHandles []shardclient.ClientHandle
			for _, d := range descriptors {
				conn, err := shardclient.NewRPCShardClient(d.Address, shardclient.WithCallTimeout(shardCallTimeout))
				if err != nil {
					log.Warn("topology refresh: failed to dial shard", "label", d.Label, "error", err)
					continue
				}
				wrapped := shardclient.WithCircuitBreaker(conn, d.Label, defaultCircuitBreakerConfig())
				handle := shardclient.ClientHandle{Client: wrapped, Label: d.Label}
				if d.Axis == "group" {
					groupHandles = append(groupHandles, handle)
				} else {
					userHandles = append(userHandles, handle)
				}
			}
			dir.Reload(userHandles, groupHandles)
			log.Info("topology refreshed", "shards", len(descriptors))
		}
	}
}

func buildMetricsSink(cfg *config.Config, log *slog.Logger, promMetrics *metrics.Metrics) (metricsink.Sink, func()) {
	if !cfg.Metrics.Enabled {
		return metricsink.NoopSink{}, func() {}
	}
	switch cfg.Metrics.Backend {
	case "redis":
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis, falling back to noop metrics", "error", err)
			return metricsink.NoopSink{}, func() {}
		}
		return rediscounter.New(client, cfg.Redis), func() { client.Close() }
	case "noop":
		return metricsink.NoopSink{}, func() {}
	default:
		return promMetrics, func() {}
	}
}

func buildAuditPublisher(cfg *config.Config, log *slog.Logger) (*auditlog.Publisher, func()) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, func() {}
	}
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.AuditTopic)
	return auditlog.NewPublisher(producer), func() { producer.Close() }
}
