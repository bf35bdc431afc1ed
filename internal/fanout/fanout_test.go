package fanout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nikhilvora/accessrouter/internal/shardclient"
)

func handles(labels ...string) []shardclient.ClientHandle {
	out := make([]shardclient.ClientHandle, len(labels))
	for i, l := range labels {
		out[i] = shardclient.ClientHandle{Client: shardclient.NewFakeShardClient(), Label: l}
	}
	return out
}

func TestFanoutReturnsResultsInHandleOrder(t *testing.T) {
	hs := handles("S1", "S2", "S3")
	values := map[string]int{"S1": 1, "S2": 2, "S3": 3}

	results, err := Fanout(context.Background(), hs, func(ctx context.Context, c shardclient.ShardClient) (int, error) {
		for _, h := range hs {
			if h.Client == c {
				return values[h.Label], nil
			}
		}
		return 0, nil
	}, "test")
	if err != nil {
		t.Fatalf("Fanout returned error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, h := range hs {
		if results[i] != values[h.Label] {
			t.Fatalf("results = %v, want [1 2 3] (handle order)", results)
		}
	}
}

func TestFanoutWrapsFirstFailureWithShardLabel(t *testing.T) {
	hs := handles("S1", "S2")
	cause := errors.New("boom")

	_, err := Fanout(context.Background(), hs, func(ctx context.Context, c shardclient.ShardClient) (int, error) {
		if c == hs[1].Client {
			return 0, cause
		}
		return 1, nil
	}, "retrieve things")

	var failed *ShardCallFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("error = %v, want *ShardCallFailedError", err)
	}
	if failed.Label != "S2" || failed.Context != "retrieve things" {
		t.Fatalf("failed = %+v, want Label=S2 Context='retrieve things'", failed)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(err, cause) = false, want true (cause must remain reachable)")
	}
}

func TestFanoutRunsConcurrently(t *testing.T) {
	hs := handles("S1", "S2", "S3", "S4")
	const perCall = 50 * time.Millisecond

	start := time.Now()
	_, err := Fanout(context.Background(), hs, func(ctx context.Context, c shardclient.ShardClient) (int, error) {
		time.Sleep(perCall)
		return 0, nil
	}, "test")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Fanout returned error: %v", err)
	}
	if elapsed > perCall*2 {
		t.Fatalf("Fanout took %v, want well under %v (serial execution would take %v)", elapsed, perCall*2, perCall*time.Duration(len(hs)))
	}
}

func TestFanoutAnyShortCircuitsOnTrue(t *testing.T) {
	hs := handles("S1", "S2", "S3")

	ok, err := FanoutAny(context.Background(), hs, func(ctx context.Context, c shardclient.ShardClient) (bool, error) {
		if c == hs[1].Client {
			return true, nil
		}
		<-ctx.Done()
		return false, ctx.Err()
	}, "check")

	if err != nil {
		t.Fatalf("FanoutAny returned error: %v", err)
	}
	if !ok {
		t.Fatal("FanoutAny = false, want true")
	}
}

func TestFanoutAnyFalseRequiresAllShards(t *testing.T) {
	hs := handles("S1", "S2", "S3")
	contacted := make(chan string, len(hs))

	ok, err := FanoutAny(context.Background(), hs, func(ctx context.Context, c shardclient.ShardClient) (bool, error) {
		for _, h := range hs {
			if h.Client == c {
				contacted <- h.Label
			}
		}
		return false, nil
	}, "check")

	if err != nil {
		t.Fatalf("FanoutAny returned error: %v", err)
	}
	if ok {
		t.Fatal("FanoutAny = true, want false")
	}
	close(contacted)
	count := 0
	for range contacted {
		count++
	}
	if count != len(hs) {
		t.Fatalf("contacted %d shards, want all %d", count, len(hs))
	}
}

func TestFanoutAnyPropagatesFailure(t *testing.T) {
	hs := handles("S1", "S2")
	cause := errors.New("unreachable")

	_, err := FanoutAny(context.Background(), hs, func(ctx context.Context, c shardclient.ShardClient) (bool, error) {
		if c == hs[0].Client {
			return false, cause
		}
		<-ctx.Done()
		return false, ctx.Err()
	}, "check")

	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(err, cause) = false, err = %v", err)
	}
}
