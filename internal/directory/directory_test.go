package directory

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/nikhilvora/accessrouter/internal/axis"
	"github.com/nikhilvora/accessrouter/internal/shardclient"
)

func handle(label string) shardclient.ClientHandle {
	return shardclient.ClientHandle{Client: shardclient.NewFakeShardClient(), Label: label}
}

func TestResolveAllReturnsNoShardConfigurationWhenEmpty(t *testing.T) {
	d := New(nil, nil)

	_, err := d.ResolveAll(context.Background(), axis.Group, axis.Query)

	var noConfig *NoShardConfigurationError
	if !errors.As(err, &noConfig) {
		t.Fatalf("ResolveAll error = %v, want *NoShardConfigurationError", err)
	}
	if noConfig.Axis != axis.Group || noConfig.OperationKind != axis.Query {
		t.Fatalf("NoShardConfigurationError = %+v, want Axis=Group OperationKind=Query", noConfig)
	}
}

func TestResolveAllReturnsConfiguredHandles(t *testing.T) {
	u1, u2 := handle("UserShardDescription1"), handle("UserShardDescription2")
	d := New([]shardclient.ClientHandle{u1, u2}, nil)

	handles, err := d.ResolveAll(context.Background(), axis.User, axis.Query)
	if err != nil {
		t.Fatalf("ResolveAll returned error: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("ResolveAll returned %d handles, want 2", len(handles))
	}
}

func TestResolveByKeysPartitionsWithoutLossOrDuplication(t *testing.T) {
	g1, g2, g3 := handle("GroupShardDescription1"), handle("GroupShardDescription2"), handle("GroupShardDescription3")
	d := New(nil, []shardclient.ClientHandle{g1, g2, g3})

	keys := GroupSet{"groupA", "groupB", "groupC", "groupD", "groupE", "groupF", "groupG"}
	resolved, err := d.ResolveByKeys(context.Background(), axis.Group, axis.Query, keys)
	if err != nil {
		t.Fatalf("ResolveByKeys returned error: %v", err)
	}

	var union []string
	seen := make(map[string]bool)
	for _, r := range resolved {
		for _, k := range r.Keys {
			if seen[k] {
				t.Fatalf("key %q assigned to more than one shard", k)
			}
			seen[k] = true
			union = append(union, k)
		}
	}
	sort.Strings(union)
	want := append([]string(nil), keys...)
	sort.Strings(want)
	if len(union) != len(want) {
		t.Fatalf("partitioned key count = %d, want %d (union=%v)", len(union), len(want), union)
	}
	for i := range want {
		if union[i] != want[i] {
			t.Fatalf("partitioned keys = %v, want %v", union, want)
		}
	}
}

func TestResolveByKeysIsOrderIndependent(t *testing.T) {
	g1, g2 := handle("GroupShardDescription1"), handle("GroupShardDescription2")
	d := New(nil, []shardclient.ClientHandle{g1, g2})

	a, err := d.ResolveByKeys(context.Background(), axis.Group, axis.Query, GroupSet{"g1", "g2", "g3"})
	if err != nil {
		t.Fatalf("ResolveByKeys (a) returned error: %v", err)
	}
	b, err := d.ResolveByKeys(context.Background(), axis.Group, axis.Query, GroupSet{"g3", "g1", "g2"})
	if err != nil {
		t.Fatalf("ResolveByKeys (b) returned error: %v", err)
	}

	toMap := func(results []ClientHandleWithSubset) map[string][]string {
		m := make(map[string][]string)
		for _, r := range results {
			keys := append([]string(nil), r.Keys...)
			sort.Strings(keys)
			m[r.Label] = keys
		}
		return m
	}
	am, bm := toMap(a), toMap(b)
	if len(am) != len(bm) {
		t.Fatalf("partition shapes differ: %v vs %v", am, bm)
	}
	for label, keys := range am {
		other, ok := bm[label]
		if !ok || len(other) != len(keys) {
			t.Fatalf("partition for %q differs between orderings: %v vs %v", label, keys, other)
		}
		for i := range keys {
			if keys[i] != other[i] {
				t.Fatalf("partition for %q differs between orderings: %v vs %v", label, keys, other)
			}
		}
	}
}

func TestResolveByKeysReturnsNoShardConfigurationWhenAxisEmpty(t *testing.T) {
	// An empty group axis must fail with NoShardConfigurationError rather
	// than silently returning no partitions, since absence and emptiness
	// of the *key set* are different from absence of *configuration*.
	d := New(nil, nil)
	_, err := d.ResolveByKeys(context.Background(), axis.Group, axis.Query, GroupSet{"g1"})
	var noConfig *NoShardConfigurationError
	if !errors.As(err, &noConfig) {
		t.Fatalf("ResolveByKeys error = %v, want *NoShardConfigurationError", err)
	}
}
