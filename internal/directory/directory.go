// Package directory implements the shard-client directory (C1): it holds
// the configured ClientHandles per axis and resolves them for the router,
// either in full (ResolveAll) or partitioned by group identifier
// (ResolveByKeys). The partitioning algorithm itself is explicitly out of
// scope for the router's contract — FNV-1a-over-modulo is this
// implementation's choice, grounded on the consistent-hash key routing in
// johnjansen-torua's ShardRegistry.GetShardForKey.
package directory

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nikhilvora/accessrouter/internal/axis"
	"github.com/nikhilvora/accessrouter/internal/shardclient"
)

// GroupSet is a finite set of group identifiers. Iteration order carries no
// meaning; callers MUST NOT rely on it, and the directory produces
// equivalent partitions regardless of the order elements were supplied in.
type GroupSet []string

// ClientHandleWithSubset pairs a ClientHandle with the subset of the
// originally requested keys that this shard is responsible for.
type ClientHandleWithSubset struct {
	shardclient.ClientHandle
	Keys []string
}

// NoShardConfigurationError is the distinguished "no configuration"
// signal described in §4.1: it is never a generic failure, and callers
// must detect it with errors.As rather than string-matching.
type NoShardConfigurationError struct {
	Axis          axis.Axis
	OperationKind axis.OperationKind
}

func (e *NoShardConfigurationError) Error() string {
	return "no shard configuration for axis " + e.Axis.String() + ", operation kind " + e.OperationKind.String()
}

// Directory holds the configured shard clients for each axis and resolves
// them on behalf of the router. It is safe for concurrent reads; the only
// write path is Reload, used when topology is refreshed from Postgres.
type Directory struct {
	mu          sync.RWMutex
	userShards  []shardclient.ClientHandle
	groupShards []shardclient.ClientHandle

	resolveGroup singleflight.Group
}

// New constructs a Directory from statically configured per-axis shard
// lists. Either list may be empty, modelling an axis with no shards
// configured — a legitimate deployment mode per §1.
func New(userShards, groupShards []shardclient.ClientHandle) *Directory {
	return &Directory{
		userShards:  append([]shardclient.ClientHandle(nil), userShards...),
		groupShards: append([]shardclient.ClientHandle(nil), groupShards...),
	}
}

// Reload atomically replaces the configured shard lists, used when the
// directory is refreshed from persisted topology. opKind is not part of the
// key here: a directory configuration applies uniformly regardless of
// operation kind.
func (d *Directory) Reload(userShards, groupShards []shardclient.ClientHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.userShards = append([]shardclient.ClientHandle(nil), userShards...)
	d.groupShards = append([]shardclient.ClientHandle(nil), groupShards...)
}

func (d *Directory) shardsFor(ax axis.Axis) []shardclient.ClientHandle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	switch ax {
	case axis.User:
		return append([]shardclient.ClientHandle(nil), d.userShards...)
	default:
		return append([]shardclient.ClientHandle(nil), d.groupShards...)
	}
}

// ResolveAll returns every client configured for (axis, opKind). It never
// returns an empty slice in lieu of NoShardConfigurationError — absence and
// emptiness are distinct outcomes.
func (d *Directory) ResolveAll(ctx context.Context, ax axis.Axis, opKind axis.OperationKind) ([]shardclient.ClientHandle, error) {
	handles := d.shardsFor(ax)
	if len(handles) == 0 {
		return nil, &NoShardConfigurationError{Axis: ax, OperationKind: opKind}
	}
	return handles, nil
}

// ResolveByKeys partitions keys across the Group-axis shards responsible
// for them, deduplicating repeated identifiers. The partition is recomputed
// on every call from the currently configured shards, and each key hashes to
// exactly one of them, so no key is left unrouted; a shard assigned no keys
// is left out of the result and receives no call.
//
// Concurrent calls with an identical key set collapse into one partition
// computation via singleflight — this is pure CPU-bound partitioning work
// being deduplicated, not a cache of shard results: the outcome is
// recomputed, never stored, the moment no caller is waiting on it.
func (d *Directory) ResolveByKeys(ctx context.Context, ax axis.Axis, opKind axis.OperationKind, keys GroupSet) ([]ClientHandleWithSubset, error) {
	handles := d.shardsFor(ax)
	if len(handles) == 0 {
		return nil, &NoShardConfigurationError{Axis: ax, OperationKind: opKind}
	}

	sfKey := singleflightKey(ax, handles, keys)
	result, err, _ := d.resolveGroup.Do(sfKey, func() (any, error) {
		return partition(handles, keys), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]ClientHandleWithSubset), nil
}

func partition(handles []shardclient.ClientHandle, keys GroupSet) []ClientHandleWithSubset {
	deduped := dedupe(keys)
	buckets := make([][]string, len(handles))
	for _, key := range deduped {
		idx := shardIndex(key, len(handles))
		buckets[idx] = append(buckets[idx], key)
	}

	out := make([]ClientHandleWithSubset, 0, len(handles))
	for i, handle := range handles {
		if len(buckets[i]) == 0 {
			continue
		}
		out = append(out, ClientHandleWithSubset{ClientHandle: handle, Keys: buckets[i]})
	}
	return out
}

func shardIndex(key string, numShards int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(numShards))
}

func dedupe(keys GroupSet) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// singleflightKey builds a key stable under reordering of keys, so that
// ResolveByKeys({a,b}) and ResolveByKeys({b,a}) collapse into the same
// in-flight computation.
func singleflightKey(ax axis.Axis, handles []shardclient.ClientHandle, keys GroupSet) string {
	sorted := dedupe(keys)
	sort.Strings(sorted)
	key := ax.String()
	for _, h := range handles {
		key += "|" + h.Label
	}
	key += "#"
	for _, k := range sorted {
		key += k + ","
	}
	return key
}
