package shardclient

import (
	"context"
	"encoding/json"

	"github.com/nikhilvora/accessrouter/pkg/grpc"
)

// ServeShardClient adapts a ShardClient implementation into a pkg/grpc RPC
// server, registering one "ShardService.*" handler per method so that an
// RPCShardClient dialed against it round-trips through the real wire
// encoding. This is the shape a real shard process's RPC front end takes,
// and it is what stands in for one in the in-process integration test in
// rpc_server_test.go.
func ServeShardClient(backing ShardClient) *grpc.Server {
	s := grpc.NewServer()

	s.Register("ShardService.GetUsers", func(ctx context.Context, req json.RawMessage) (any, error) {
		values, err := backing.GetUsers(ctx)
		if err != nil {
			return nil, err
		}
		return stringListResponse{Values: values}, nil
	})

	s.Register("ShardService.GetGroups", func(ctx context.Context, req json.RawMessage) (any, error) {
		values, err := backing.GetGroups(ctx)
		if err != nil {
			return nil, err
		}
		return stringListResponse{Values: values}, nil
	})

	s.Register("ShardService.GetEntityTypes", func(ctx context.Context, req json.RawMessage) (any, error) {
		values, err := backing.GetEntityTypes(ctx)
		if err != nil {
			return nil, err
		}
		return stringListResponse{Values: values}, nil
	})

	s.Register("ShardService.GetEntities", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p entityTypeRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		values, err := backing.GetEntities(ctx, p.EntityType)
		if err != nil {
			return nil, err
		}
		return stringListResponse{Values: values}, nil
	})

	s.Register("ShardService.ContainsGroup", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p groupRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		ok, err := backing.ContainsGroup(ctx, p.Group)
		if err != nil {
			return nil, err
		}
		return boolResponse{Value: ok}, nil
	})

	s.Register("ShardService.ContainsEntityType", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p entityTypeRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		ok, err := backing.ContainsEntityType(ctx, p.EntityType)
		if err != nil {
			return nil, err
		}
		return boolResponse{Value: ok}, nil
	})

	s.Register("ShardService.ContainsEntity", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p entityTypeEntityRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		ok, err := backing.ContainsEntity(ctx, p.EntityType, p.Entity)
		if err != nil {
			return nil, err
		}
		return boolResponse{Value: ok}, nil
	})

	s.Register("ShardService.RemoveGroup", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p groupRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		return nil, backing.RemoveGroup(ctx, p.Group)
	})

	s.Register("ShardService.RemoveEntityType", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p entityTypeRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		return nil, backing.RemoveEntityType(ctx, p.EntityType)
	})

	s.Register("ShardService.RemoveEntity", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p entityTypeEntityRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		return nil, backing.RemoveEntity(ctx, p.EntityType, p.Entity)
	})

	s.Register("ShardService.GetGroupToUserMappings", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p groupsRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		values, err := backing.GetGroupToUserMappings(ctx, p.Groups)
		if err != nil {
			return nil, err
		}
		return stringListResponse{Values: values}, nil
	})

	s.Register("ShardService.GetAppCompToUserMappings", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p componentLevelRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		values, err := backing.GetAppCompToUserMappings(ctx, p.Component, p.AccessLevel)
		if err != nil {
			return nil, err
		}
		return stringListResponse{Values: values}, nil
	})

	s.Register("ShardService.GetAppCompToGroupMappings", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p componentLevelRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		values, err := backing.GetAppCompToGroupMappings(ctx, p.Component, p.AccessLevel)
		if err != nil {
			return nil, err
		}
		return stringListResponse{Values: values}, nil
	})

	s.Register("ShardService.GetEntityToUserMappings", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p entityTypeEntityRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		values, err := backing.GetEntityToUserMappings(ctx, p.EntityType, p.Entity)
		if err != nil {
			return nil, err
		}
		return stringListResponse{Values: values}, nil
	})

	s.Register("ShardService.GetEntityToGroupMappings", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p entityTypeEntityRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		values, err := backing.GetEntityToGroupMappings(ctx, p.EntityType, p.Entity)
		if err != nil {
			return nil, err
		}
		return stringListResponse{Values: values}, nil
	})

	s.Register("ShardService.HasAccessToApplicationComponent", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p groupsComponentLevelRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		ok, err := backing.HasAccessToApplicationComponent(ctx, p.Groups, p.Component, p.AccessLevel)
		if err != nil {
			return nil, err
		}
		return boolResponse{Value: ok}, nil
	})

	s.Register("ShardService.HasAccessToEntity", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p groupsEntityTypeEntityRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		ok, err := backing.HasAccessToEntity(ctx, p.Groups, p.EntityType, p.Entity)
		if err != nil {
			return nil, err
		}
		return boolResponse{Value: ok}, nil
	})

	s.Register("ShardService.GetApplicationComponentsAccessibleByGroups", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p groupsRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		values, err := backing.GetApplicationComponentsAccessibleByGroups(ctx, p.Groups)
		if err != nil {
			return nil, err
		}
		return appComponentAccessListResponse{Values: values}, nil
	})

	s.Register("ShardService.GetEntitiesAccessibleByGroups", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p groupsRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		values, err := backing.GetEntitiesAccessibleByGroups(ctx, p.Groups)
		if err != nil {
			return nil, err
		}
		return entityTypeEntityListResponse{Values: values}, nil
	})

	s.Register("ShardService.GetEntitiesAccessibleByGroupsAndType", func(ctx context.Context, req json.RawMessage) (any, error) {
		var p groupsEntityTypeRequest
		if err := json.Unmarshal(req, &p); err != nil {
			return nil, err
		}
		values, err := backing.GetEntitiesAccessibleByGroupsAndType(ctx, p.Groups, p.EntityType)
		if err != nil {
			return nil, err
		}
		return stringListResponse{Values: values}, nil
	})

	return s
}
