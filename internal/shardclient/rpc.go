package shardclient

import (
	"context"
	"fmt"
	"time"

	"github.com/nikhilvora/accessrouter/pkg/grpc"
	"github.com/nikhilvora/accessrouter/pkg/resilience"
)

// RPCShardClient implements ShardClient over the JSON-over-TCP RPC
// framework in pkg/grpc. One RPCShardClient owns one long-lived connection
// to a single shard process; cmd/router dials one per configured
// ShardDescriptor and hands it to the directory.
type RPCShardClient struct {
	conn    *grpc.Client
	timeout time.Duration
}

// RPCOption configures an RPCShardClient at construction time.
type RPCOption func(*RPCShardClient)

// WithCallTimeout bounds every RPC this client makes to at most d, on top of
// whatever deadline the caller's own context already carries. A non-positive
// d disables the bound, leaving cancellation to the caller's context alone.
func WithCallTimeout(d time.Duration) RPCOption {
	return func(c *RPCShardClient) { c.timeout = d }
}

// NewRPCShardClient dials addr and returns a ready-to-use RPCShardClient.
func NewRPCShardClient(addr string, opts ...RPCOption) (*RPCShardClient, error) {
	conn, err := grpc.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("dialing shard at %s: %w", addr, err)
	}
	c := &RPCShardClient{conn: conn}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close closes the underlying connection.
func (c *RPCShardClient) Close() error {
	return c.conn.Close()
}

// call invokes method on the shard, respecting ctx cancellation even though
// the underlying grpc.Client.Call is synchronous: it runs the call on a
// goroutine and races it against ctx.Done(). When a call timeout is
// configured, the race additionally bounds the call's own duration via
// pkg/resilience.WithTimeout, independent of whatever deadline (if any) the
// caller's context already carries.
func (c *RPCShardClient) call(ctx context.Context, method string, params, result any) error {
	racedCall := func(ctx context.Context) error {
		done := make(chan error, 1)
		go func() {
			done <- c.conn.Call(method, params, result)
		}()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		}
	}
	if c.timeout <= 0 {
		return racedCall(ctx)
	}
	return resilience.WithTimeout(ctx, c.timeout, method, racedCall)
}

func (c *RPCShardClient) GetUsers(ctx context.Context) ([]string, error) {
	var resp stringListResponse
	if err := c.call(ctx, "ShardService.GetUsers", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *RPCShardClient) GetGroups(ctx context.Context) ([]string, error) {
	var resp stringListResponse
	if err := c.call(ctx, "ShardService.GetGroups", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *RPCShardClient) GetEntityTypes(ctx context.Context) ([]string, error) {
	var resp stringListResponse
	if err := c.call(ctx, "ShardService.GetEntityTypes", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *RPCShardClient) GetEntities(ctx context.Context, entityType string) ([]string, error) {
	var resp stringListResponse
	if err := c.call(ctx, "ShardService.GetEntities", entityTypeRequest{EntityType: entityType}, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *RPCShardClient) ContainsGroup(ctx context.Context, group string) (bool, error) {
	var resp boolResponse
	if err := c.call(ctx, "ShardService.ContainsGroup", groupRequest{Group: group}, &resp); err != nil {
		return false, err
	}
	return resp.Value, nil
}

func (c *RPCShardClient) ContainsEntityType(ctx context.Context, entityType string) (bool, error) {
	var resp boolResponse
	if err := c.call(ctx, "ShardService.ContainsEntityType", entityTypeRequest{EntityType: entityType}, &resp); err != nil {
		return false, err
	}
	return resp.Value, nil
}

func (c *RPCShardClient) ContainsEntity(ctx context.Context, entityType, entity string) (bool, error) {
	var resp boolResponse
	req := entityTypeEntityRequest{EntityType: entityType, Entity: entity}
	if err := c.call(ctx, "ShardService.ContainsEntity", req, &resp); err != nil {
		return false, err
	}
	return resp.Value, nil
}

func (c *RPCShardClient) RemoveGroup(ctx context.Context, group string) error {
	return c.call(ctx, "ShardService.RemoveGroup", groupRequest{Group: group}, nil)
}

func (c *RPCShardClient) RemoveEntityType(ctx context.Context, entityType string) error {
	return c.call(ctx, "ShardService.RemoveEntityType", entityTypeRequest{EntityType: entityType}, nil)
}

func (c *RPCShardClient) RemoveEntity(ctx context.Context, entityType, entity string) error {
	req := entityTypeEntityRequest{EntityType: entityType, Entity: entity}
	return c.call(ctx, "ShardService.RemoveEntity", req, nil)
}

func (c *RPCShardClient) GetGroupToUserMappings(ctx context.Context, groups []string) ([]string, error) {
	var resp stringListResponse
	if err := c.call(ctx, "ShardService.GetGroupToUserMappings", groupsRequest{Groups: groups}, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *RPCShardClient) GetAppCompToUserMappings(ctx context.Context, component, accessLevel string) ([]string, error) {
	var resp stringListResponse
	req := componentLevelRequest{Component: component, AccessLevel: accessLevel}
	if err := c.call(ctx, "ShardService.GetAppCompToUserMappings", req, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *RPCShardClient) GetAppCompToGroupMappings(ctx context.Context, component, accessLevel string) ([]string, error) {
	var resp stringListResponse
	req := componentLevelRequest{Component: component, AccessLevel: accessLevel}
	if err := c.call(ctx, "ShardService.GetAppCompToGroupMappings", req, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *RPCShardClient) GetEntityToUserMappings(ctx context.Context, entityType, entity string) ([]string, error) {
	var resp stringListResponse
	req := entityTypeEntityRequest{EntityType: entityType, Entity: entity}
	if err := c.call(ctx, "ShardService.GetEntityToUserMappings", req, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *RPCShardClient) GetEntityToGroupMappings(ctx context.Context, entityType, entity string) ([]string, error) {
	var resp stringListResponse
	req := entityTypeEntityRequest{EntityType: entityType, Entity: entity}
	if err := c.call(ctx, "ShardService.GetEntityToGroupMappings", req, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *RPCShardClient) HasAccessToApplicationComponent(ctx context.Context, groups []string, component, accessLevel string) (bool, error) {
	var resp boolResponse
	req := groupsComponentLevelRequest{Groups: groups, Component: component, AccessLevel: accessLevel}
	if err := c.call(ctx, "ShardService.HasAccessToApplicationComponent", req, &resp); err != nil {
		return false, err
	}
	return resp.Value, nil
}

func (c *RPCShardClient) HasAccessToEntity(ctx context.Context, groups []string, entityType, entity string) (bool, error) {
	var resp boolResponse
	req := groupsEntityTypeEntityRequest{Groups: groups, EntityType: entityType, Entity: entity}
	if err := c.call(ctx, "ShardService.HasAccessToEntity", req, &resp); err != nil {
		return false, err
	}
	return resp.Value, nil
}

func (c *RPCShardClient) GetApplicationComponentsAccessibleByGroups(ctx context.Context, groups []string) ([]AppComponentAccess, error) {
	var resp appComponentAccessListResponse
	req := groupsRequest{Groups: groups}
	if err := c.call(ctx, "ShardService.GetApplicationComponentsAccessibleByGroups", req, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *RPCShardClient) GetEntitiesAccessibleByGroups(ctx context.Context, groups []string) ([]EntityTypeEntity, error) {
	var resp entityTypeEntityListResponse
	req := groupsRequest{Groups: groups}
	if err := c.call(ctx, "ShardService.GetEntitiesAccessibleByGroups", req, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *RPCShardClient) GetEntitiesAccessibleByGroupsAndType(ctx context.Context, groups []string, entityType string) ([]string, error) {
	var resp stringListResponse
	req := groupsEntityTypeRequest{Groups: groups, EntityType: entityType}
	if err := c.call(ctx, "ShardService.GetEntitiesAccessibleByGroupsAndType", req, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

var _ ShardClient = (*RPCShardClient)(nil)
