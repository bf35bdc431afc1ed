package router

import (
	"context"
	"fmt"

	"github.com/nikhilvora/accessrouter/internal/axis"
	"github.com/nikhilvora/accessrouter/internal/fanout"
	"github.com/nikhilvora/accessrouter/internal/shardclient"
)

// ack is the void per-shard result: mutations carry no payload, only
// success or failure, so Fanout is instantiated over this empty type and
// its own fail-fast-and-cancel behavior *is* the Void combinator's
// "succeeds iff every shard succeeds" contract — there is no separate
// payload left for combine.Void to fold once Fanout has already surfaced
// the first failure.
type ack struct{}

// RemoveGroup dispatches to both axes and succeeds only once every
// contacted shard acknowledges the removal. Per §1's Non-goals, a failure
// partway through leaves the shards already processed mutated — the router
// makes no attempt to roll them back, only to surface the first failure
// deterministically.
func (r *Router) RemoveGroup(ctx context.Context, group string) error {
	ctx, opTok := r.beginOp(ctx, "router.remove_group")
	handles, err := r.resolveBoth(ctx, axis.Event)
	if err != nil {
		r.endOp(opTok, "router.remove_group", err)
		r.recordAudit(ctx, "RemoveGroup", group, err)
		return err
	}
	errCtx := fmt.Sprintf("remove group '%s'", group)
	_, err = fanout.Fanout(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) (ack, error) {
		return ack{}, c.RemoveGroup(ctx, group)
	}, errCtx)
	r.endOp(opTok, "router.remove_group", err)
	r.recordAudit(ctx, "RemoveGroup", group, err)
	return err
}

func (r *Router) RemoveEntityType(ctx context.Context, entityType string) error {
	ctx, opTok := r.beginOp(ctx, "router.remove_entity_type")
	handles, err := r.resolveBoth(ctx, axis.Event)
	if err != nil {
		r.endOp(opTok, "router.remove_entity_type", err)
		r.recordAudit(ctx, "RemoveEntityType", entityType, err)
		return err
	}
	errCtx := fmt.Sprintf("remove entity type '%s'", entityType)
	_, err = fanout.Fanout(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) (ack, error) {
		return ack{}, c.RemoveEntityType(ctx, entityType)
	}, errCtx)
	r.endOp(opTok, "router.remove_entity_type", err)
	r.recordAudit(ctx, "RemoveEntityType", entityType, err)
	return err
}

func (r *Router) RemoveEntity(ctx context.Context, entityType, entity string) error {
	ctx, opTok := r.beginOp(ctx, "router.remove_entity")
	handles, err := r.resolveBoth(ctx, axis.Event)
	if err != nil {
		r.endOp(opTok, "router.remove_entity", err)
		r.recordAudit(ctx, "RemoveEntity", entity, err)
		return err
	}
	errCtx := fmt.Sprintf("remove entity '%s' with type '%s'", entity, entityType)
	_, err = fanout.Fanout(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) (ack, error) {
		return ack{}, c.RemoveEntity(ctx, entityType, entity)
	}, errCtx)
	r.endOp(opTok, "router.remove_entity", err)
	r.recordAudit(ctx, "RemoveEntity", entity, err)
	return err
}

func (r *Router) recordAudit(ctx context.Context, operation, parameter string, err error) {
	if r.audit == nil {
		return
	}
	r.audit.Record(ctx, operation, parameter, err)
}
