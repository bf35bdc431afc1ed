// Package fanout implements the fan-out executor (C3): it invokes a
// per-shard call concurrently across a client list and either returns every
// result in handle order, or wraps the first failure with shard context.
// Built on golang.org/x/sync/errgroup, whose WithContext ties cancellation
// of the sibling goroutines to the first returned error — exactly the
// "cancel the rest once one fails" behaviour §4.2 requires, idiomatically,
// instead of hand-rolled WaitGroup-plus-cancel-channel plumbing.
package fanout

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nikhilvora/accessrouter/internal/shardclient"
)

// ShardCallFailedError wraps a single shard's failure with the context the
// router was attempting and the label of the shard that failed. The
// original cause remains reachable via Unwrap — callers must never need to
// string-match the message to recover it.
type ShardCallFailedError struct {
	Context string
	Label   string
	Cause   error
}

func (e *ShardCallFailedError) Error() string {
	return fmt.Sprintf("%s from shard with configuration '%s': %s", e.Context, e.Label, e.Cause.Error())
}

func (e *ShardCallFailedError) Unwrap() error {
	return e.Cause
}

// Fanout invokes perShardCall against every handle concurrently and returns
// the results in handle order once all have succeeded. If any call fails,
// the first observed failure is wrapped as ShardCallFailedError and
// returned; the remaining in-flight calls are cancelled via the group's
// derived context and their results discarded.
func Fanout[R any](ctx context.Context, handles []shardclient.ClientHandle, perShardCall func(context.Context, shardclient.ShardClient) (R, error), errorContext string) ([]R, error) {
	results := make([]R, len(handles))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, h := range handles {
		i, h := i, h
		group.Go(func() error {
			r, err := perShardCall(groupCtx, h.Client)
			if err != nil {
				return &ShardCallFailedError{Context: errorContext, Label: h.Label, Cause: err}
			}
			results[i] = r
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FanoutWithKeys is the GroupByKey variant of Fanout: each handle is called
// with only the subset of keys (keys[i]) the directory assigned to it,
// never the full original set — calling a shard with foreign keys would be
// a protocol violation per §4.4.
func FanoutWithKeys[R any](ctx context.Context, handles []shardclient.ClientHandle, keys [][]string, perShardCall func(context.Context, shardclient.ShardClient, []string) (R, error), errorContext string) ([]R, error) {
	results := make([]R, len(handles))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, h := range handles {
		i, h := i, h
		subset := keys[i]
		group.Go(func() error {
			r, err := perShardCall(groupCtx, h.Client, subset)
			if err != nil {
				return &ShardCallFailedError{Context: errorContext, Label: h.Label, Cause: err}
			}
			results[i] = r
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FanoutAnyWithKeys is the GroupByKey variant of FanoutAny.
func FanoutAnyWithKeys(ctx context.Context, handles []shardclient.ClientHandle, keys [][]string, perShardCall func(context.Context, shardclient.ShardClient, []string) (bool, error), errorContext string) (bool, error) {
	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(groupCtx)
	found := make(chan struct{})
	var closeFound sync.Once

	for i, h := range handles {
		i, h := i, h
		subset := keys[i]
		group.Go(func() error {
			ok, err := perShardCall(groupCtx, h.Client, subset)
			if err != nil {
				return &ShardCallFailedError{Context: errorContext, Label: h.Label, Cause: err}
			}
			if ok {
				closeFound.Do(func() { close(found) })
				cancel()
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- group.Wait() }()

	select {
	case <-found:
		return true, nil
	case err := <-waitErr:
		if err != nil {
			return false, err
		}
		return false, nil
	}
}

// FanoutAny invokes perShardCall against every handle concurrently and
// returns true as soon as any shard reports true, cancelling the rest. It
// returns false only once every shard has reported false. A failure from
// any shard is wrapped and surfaced exactly as in Fanout.
func FanoutAny(ctx context.Context, handles []shardclient.ClientHandle, perShardCall func(context.Context, shardclient.ShardClient) (bool, error), errorContext string) (bool, error) {
	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(groupCtx)
	found := make(chan struct{})
	var closeFound sync.Once

	for _, h := range handles {
		h := h
		group.Go(func() error {
			ok, err := perShardCall(groupCtx, h.Client)
			if err != nil {
				return &ShardCallFailedError{Context: errorContext, Label: h.Label, Cause: err}
			}
			if ok {
				closeFound.Do(func() { close(found) })
				cancel()
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- group.Wait() }()

	select {
	case <-found:
		return true, nil
	case err := <-waitErr:
		if err != nil {
			return false, err
		}
		return false, nil
	}
}
