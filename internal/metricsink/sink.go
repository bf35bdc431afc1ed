// Package metricsink declares the MetricsSink contract the router emits
// begin/end/increment signals to (C6 in the component design). The router
// has no semantic dependency on any particular backend; pkg/metrics and
// pkg/rediscounter each provide a concrete Sink, and NoopSink is the default
// when no metrics backend is configured.
package metricsink

// Sink receives begin/end/increment/cancel signals around router
// operations. Begin returns an opaque token that must be passed back to End
// or CancelBegin for the same metric name.
type Sink interface {
	Begin(metricName string) any
	End(id any, metricName string)
	Increment(metricName string)
	CancelBegin(id any, metricName string)
}

// NoopSink discards every signal. It is the default Sink when the operator
// has not configured a metrics backend.
type NoopSink struct{}

func (NoopSink) Begin(string) any      { return nil }
func (NoopSink) End(any, string)       {}
func (NoopSink) Increment(string)      {}
func (NoopSink) CancelBegin(any, string) {}

var _ Sink = NoopSink{}
