// Command auditreader tails the audit topic the router's publisher writes
// to and prints a running tally of mutations by operation and outcome. It
// is a standalone diagnostic consumer, not part of the router process
// itself — the router never reads its own audit stream back.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nikhilvora/accessrouter/pkg/config"
	"github.com/nikhilvora/accessrouter/pkg/kafka"
	"github.com/nikhilvora/accessrouter/pkg/logger"
)

// event mirrors auditlog.OperationCompleted. It is redeclared here rather
// than imported so this binary depends only on the wire shape, not on the
// router's internal audit package.
type event struct {
	Operation  string `json:"operation"`
	Parameter  string `json:"parameter"`
	OccurredAt string `json:"occurredAt"`
	Succeeded  bool   `json:"succeeded"`
	Error      string `json:"error,omitempty"`
}

type tally struct {
	mu        sync.Mutex
	succeeded map[string]int
	failed    map[string]int
}

func newTally() *tally {
	return &tally{succeeded: make(map[string]int), failed: make(map[string]int)}
}

func (t *tally) record(e event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.Succeeded {
		t.succeeded[e.Operation]++
	} else {
		t.failed[e.Operation]++
	}
}

func (t *tally) snapshot() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := "audit tally:"
	for op, n := range t.succeeded {
		out += fmt.Sprintf(" %s.ok=%d", op, n)
	}
	for op, n := range t.failed {
		out += fmt.Sprintf(" %s.failed=%d", op, n)
	}
	return out
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("auditreader")

	if len(cfg.Kafka.Brokers) == 0 {
		log.Error("no kafka brokers configured, nothing to tail")
		os.Exit(1)
	}

	t := newTally()
	handler := func(ctx context.Context, key []byte, value []byte) error {
		decoded, err := kafka.DecodeJSON[event](value)
		if err != nil {
			log.Warn("failed to decode audit event", "error", err)
			return nil
		}
		t.record(decoded)
		log.Info("audit event",
			"operation", decoded.Operation,
			"parameter", decoded.Parameter,
			"succeeded", decoded.Succeeded,
			"error", decoded.Error,
		)
		return nil
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.AuditTopic, handler)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info("shutting down", "summary", t.snapshot())
		cancel()
	}()

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer stopped with error", "error", err)
		os.Exit(1)
	}
}

