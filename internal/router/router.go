// Package router implements the operation router façade (C5): for every
// externally exposed operation it decides an axis policy, resolves clients
// via the directory with absence-tolerance, fans out through the executor,
// combines results, and rejects unsupported parameters before any of that
// happens.
package router

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nikhilvora/accessrouter/internal/axis"
	"github.com/nikhilvora/accessrouter/internal/combine"
	"github.com/nikhilvora/accessrouter/internal/directory"
	"github.com/nikhilvora/accessrouter/internal/fanout"
	"github.com/nikhilvora/accessrouter/internal/metricsink"
	"github.com/nikhilvora/accessrouter/internal/shardclient"
	"github.com/nikhilvora/accessrouter/pkg/auditlog"
	"github.com/nikhilvora/accessrouter/pkg/tracing"
)

// Directory is the subset of the shard-client directory (C1) the router
// depends on. Declared locally so the router is testable against a fake
// without importing the concrete directory package's internals.
type Directory interface {
	ResolveAll(ctx context.Context, ax axis.Axis, opKind axis.OperationKind) ([]shardclient.ClientHandle, error)
	ResolveByKeys(ctx context.Context, ax axis.Axis, opKind axis.OperationKind, keys directory.GroupSet) ([]directory.ClientHandleWithSubset, error)
}

// Router is the stateless operation façade. It holds no per-request state;
// every field here is shared, concurrency-safe, request-scoped-nothing
// infrastructure.
type Router struct {
	dir     Directory
	metrics metricsink.Sink
	audit   *auditlog.Publisher
	logger  *slog.Logger
}

// Option configures a Router at construction time.
type Option func(*Router)

// WithMetrics attaches a metrics sink. If never called, the router uses a
// no-op sink, per §6's "if no metrics sink is configured it SHOULD use a
// no-op implementation."
func WithMetrics(sink metricsink.Sink) Option {
	return func(r *Router) { r.metrics = sink }
}

// WithAudit attaches an audit-event publisher for mutating operations.
func WithAudit(publisher *auditlog.Publisher) Option {
	return func(r *Router) { r.audit = publisher }
}

// WithLogger overrides the router's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// New constructs a Router over the given directory.
func New(dir Directory, opts ...Option) *Router {
	r := &Router{
		dir:     dir,
		metrics: metricsink.NoopSink{},
		logger:  slog.Default().With("component", "router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// resolveBoth implements the "Both" policy absence-tolerance described in
// §4.4: it attempts ResolveAll on both axes independently, swallowing
// NoShardConfiguration per axis (never any other error), and concatenates
// whatever each axis yields.
func (r *Router) resolveBoth(ctx context.Context, opKind axis.OperationKind) ([]shardclient.ClientHandle, error) {
	userHandles, err := r.resolveAllTolerant(ctx, axis.User, opKind)
	if err != nil {
		return nil, err
	}
	groupHandles, err := r.resolveAllTolerant(ctx, axis.Group, opKind)
	if err != nil {
		return nil, err
	}
	combined := make([]shardclient.ClientHandle, 0, len(userHandles)+len(groupHandles))
	combined = append(combined, userHandles...)
	combined = append(combined, groupHandles...)
	return combined, nil
}

// resolveAllTolerant resolves a single axis, translating
// NoShardConfiguration into an empty handle list. Any other failure
// propagates unchanged.
func (r *Router) resolveAllTolerant(ctx context.Context, ax axis.Axis, opKind axis.OperationKind) ([]shardclient.ClientHandle, error) {
	handles, err := r.dir.ResolveAll(ctx, ax, opKind)
	if err != nil {
		var noConfig *directory.NoShardConfigurationError
		if errors.As(err, &noConfig) {
			return nil, nil
		}
		return nil, err
	}
	return handles, nil
}

// metricEnd reports an operation's outcome to the metrics sink: End on
// success, CancelBegin on failure.
func (r *Router) metricEnd(id any, name string, err error) {
	if err != nil {
		r.metrics.CancelBegin(id, name)
		return
	}
	r.metrics.End(id, name)
}

// opToken carries both the metrics sink's opaque begin-token and the
// operation's trace span, so a single begin/end pair at each operation's
// boundary drives both ambient concerns.
type opToken struct {
	metricID any
	span     *tracing.Span
}

// beginOp starts a child span under whatever span (if any) the caller's
// context already carries and begins the metrics sink's own tracking. It
// returns the context carrying the new span, which callers must thread into
// every shard call they make so fan-out traces nest under the operation.
func (r *Router) beginOp(ctx context.Context, name string) (context.Context, opToken) {
	spanCtx, span := tracing.StartChildSpan(ctx, name)
	return spanCtx, opToken{metricID: r.metrics.Begin(name), span: span}
}

// endOp closes out the span and metrics tracking started by beginOp.
func (r *Router) endOp(tok opToken, name string, err error) {
	if tok.span != nil {
		if err != nil {
			tok.span.SetAttr("error", err.Error())
		}
		tok.span.End()
		tok.span.Log()
	}
	r.metricEnd(tok.metricID, name, err)
}
