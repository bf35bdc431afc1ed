package tracing

import (
	"context"
	"testing"
)

func TestStartChildSpanInheritsTraceID(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "root", "trace-123")
	ctx, child := StartChildSpan(ctx, "child")

	if child.TraceID != "trace-123" {
		t.Fatalf("child.TraceID = %q, want %q", child.TraceID, "trace-123")
	}
	if len(root.Children) != 1 || root.Children[0] != child {
		t.Fatalf("root.Children = %v, want [child]", root.Children)
	}
	if got := SpanFromContext(ctx); got != child {
		t.Fatalf("SpanFromContext(ctx) = %v, want child", got)
	}
}

func TestStartChildSpanWithoutParentHasEmptyTraceID(t *testing.T) {
	ctx, span := StartChildSpan(context.Background(), "orphan")
	if span.TraceID != "" {
		t.Fatalf("TraceID = %q, want empty string for a parentless span", span.TraceID)
	}
	if SpanFromContext(ctx) != span {
		t.Fatal("SpanFromContext did not return the span just created")
	}
}

func TestEndRecordsDuration(t *testing.T) {
	_, span := StartSpan(context.Background(), "op", "trace-1")
	span.End()
	if span.EndTime.Before(span.StartTime) {
		t.Fatal("EndTime is before StartTime")
	}
	if span.Duration < 0 {
		t.Fatalf("Duration = %v, want >= 0", span.Duration)
	}
}

func TestSetAttrIsConcurrencySafe(t *testing.T) {
	_, span := StartSpan(context.Background(), "op", "trace-1")
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(i int) {
			span.SetAttr("key", i)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	if _, ok := span.Attrs["key"]; !ok {
		t.Fatal("Attrs[\"key\"] missing after concurrent SetAttr calls")
	}
}
