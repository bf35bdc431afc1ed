// Package auditlog publishes an OperationCompleted event for every mutation
// the router completes (RemoveGroup, RemoveEntityType, RemoveEntity) to a
// Kafka topic. Publication is best-effort and fire-and-forget: a failure to
// publish is logged but never fails the mutation itself, and nothing is ever
// read back by the router — this is an outbound description of what
// happened, not a transactional log the router depends on, so it does not
// reintroduce the "no transactional guarantees across shards" Non-goal.
package auditlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/nikhilvora/accessrouter/pkg/kafka"
)

// OperationCompleted describes one completed mutation for audit purposes.
type OperationCompleted struct {
	Operation  string    `json:"operation"`
	Parameter  string    `json:"parameter"`
	OccurredAt time.Time `json:"occurredAt"`
	Succeeded  bool      `json:"succeeded"`
	Error      string    `json:"error,omitempty"`
}

// Publisher publishes OperationCompleted events to Kafka.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewPublisher wraps an already-configured Kafka producer bound to the
// audit topic.
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "auditlog-publisher"),
	}
}

// Record publishes one OperationCompleted event. Errors are logged, not
// returned: a failure to record an audit event must never fail the
// mutation it describes.
func (p *Publisher) Record(ctx context.Context, operation, parameter string, err error) {
	if p == nil || p.producer == nil {
		return
	}
	event := OperationCompleted{
		Operation:  operation,
		Parameter:  parameter,
		OccurredAt: time.Now(),
		Succeeded:  err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	publishCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if pubErr := p.producer.Publish(publishCtx, kafka.Event{Key: operation, Value: event}); pubErr != nil {
		p.logger.Warn("audit event publish failed", "operation", operation, "error", pubErr)
	}
}
