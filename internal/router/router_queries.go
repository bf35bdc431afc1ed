package router

import (
	"context"
	"fmt"

	"github.com/nikhilvora/accessrouter/internal/axis"
	"github.com/nikhilvora/accessrouter/internal/combine"
	"github.com/nikhilvora/accessrouter/internal/directory"
	"github.com/nikhilvora/accessrouter/internal/fanout"
	"github.com/nikhilvora/accessrouter/internal/shardclient"
)

func splitKeyed(entries []directory.ClientHandleWithSubset) ([]shardclient.ClientHandle, [][]string) {
	handles := make([]shardclient.ClientHandle, len(entries))
	keys := make([][]string, len(entries))
	for i, e := range entries {
		handles[i] = e.ClientHandle
		keys[i] = e.Keys
	}
	return handles, keys
}

// rejectIndirect enforces the unsupported-parameter boundary check: any
// operation whose includeIndirectMappings argument is true is rejected
// before the directory or any shard is touched.
func rejectIndirect(includeIndirectMappings bool) error {
	if includeIndirectMappings {
		return &UnsupportedParameterError{ParameterName: "includeIndirectMappings", Value: true}
	}
	return nil
}

// GetUsers fans out to every User-axis shard and returns the set-union of
// their users.
func (r *Router) GetUsers(ctx context.Context) ([]string, error) {
	ctx, opTok := r.beginOp(ctx, "router.get_users")
	handles, err := r.dir.ResolveAll(ctx, axis.User, axis.Query)
	if err != nil {
		r.endOp(opTok, "router.get_users", err)
		return nil, err
	}
	lists, err := fanout.Fanout(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) ([]string, error) {
		return c.GetUsers(ctx)
	}, "retrieve users")
	r.endOp(opTok, "router.get_users", err)
	if err != nil {
		return nil, err
	}
	return combine.SetUnion(lists), nil
}

// GetGroups fans out across both axes (User shards are contacted because a
// user mapping engine may also surface group identifiers it owns) and
// returns the set-union of groups.
func (r *Router) GetGroups(ctx context.Context) ([]string, error) {
	ctx, opTok := r.beginOp(ctx, "router.get_groups")
	handles, err := r.resolveBoth(ctx, axis.Query)
	if err != nil {
		r.endOp(opTok, "router.get_groups", err)
		return nil, err
	}
	lists, err := fanout.Fanout(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) ([]string, error) {
		return c.GetGroups(ctx)
	}, "retrieve groups")
	r.endOp(opTok, "router.get_groups", err)
	if err != nil {
		return nil, err
	}
	return combine.SetUnion(lists), nil
}

func (r *Router) GetEntityTypes(ctx context.Context) ([]string, error) {
	ctx, opTok := r.beginOp(ctx, "router.get_entity_types")
	handles, err := r.resolveBoth(ctx, axis.Query)
	if err != nil {
		r.endOp(opTok, "router.get_entity_types", err)
		return nil, err
	}
	lists, err := fanout.Fanout(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) ([]string, error) {
		return c.GetEntityTypes(ctx)
	}, "retrieve entity types")
	r.endOp(opTok, "router.get_entity_types", err)
	if err != nil {
		return nil, err
	}
	return combine.SetUnion(lists), nil
}

func (r *Router) GetEntities(ctx context.Context, entityType string) ([]string, error) {
	ctx, opTok := r.beginOp(ctx, "router.get_entities")
	handles, err := r.resolveBoth(ctx, axis.Query)
	if err != nil {
		r.endOp(opTok, "router.get_entities", err)
		return nil, err
	}
	errCtx := fmt.Sprintf("retrieve entities of type '%s'", entityType)
	lists, err := fanout.Fanout(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) ([]string, error) {
		return c.GetEntities(ctx, entityType)
	}, errCtx)
	r.endOp(opTok, "router.get_entities", err)
	if err != nil {
		return nil, err
	}
	return combine.SetUnion(lists), nil
}

func (r *Router) ContainsGroup(ctx context.Context, group string) (bool, error) {
	ctx, opTok := r.beginOp(ctx, "router.contains_group")
	handles, err := r.resolveBoth(ctx, axis.Query)
	if err != nil {
		r.endOp(opTok, "router.contains_group", err)
		return false, err
	}
	errCtx := fmt.Sprintf("check for group '%s'", group)
	result, err := fanout.FanoutAny(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) (bool, error) {
		return c.ContainsGroup(ctx, group)
	}, errCtx)
	r.endOp(opTok, "router.contains_group", err)
	return result, err
}

func (r *Router) ContainsEntityType(ctx context.Context, entityType string) (bool, error) {
	ctx, opTok := r.beginOp(ctx, "router.contains_entity_type")
	handles, err := r.resolveBoth(ctx, axis.Query)
	if err != nil {
		r.endOp(opTok, "router.contains_entity_type", err)
		return false, err
	}
	errCtx := fmt.Sprintf("check for entity type '%s'", entityType)
	result, err := fanout.FanoutAny(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) (bool, error) {
		return c.ContainsEntityType(ctx, entityType)
	}, errCtx)
	r.endOp(opTok, "router.contains_entity_type", err)
	return result, err
}

func (r *Router) ContainsEntity(ctx context.Context, entityType, entity string) (bool, error) {
	ctx, opTok := r.beginOp(ctx, "router.contains_entity")
	handles, err := r.resolveBoth(ctx, axis.Query)
	if err != nil {
		r.endOp(opTok, "router.contains_entity", err)
		return false, err
	}
	errCtx := fmt.Sprintf("check for entity '%s' with type '%s'", entity, entityType)
	result, err := fanout.FanoutAny(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) (bool, error) {
		return c.ContainsEntity(ctx, entityType, entity)
	}, errCtx)
	r.endOp(opTok, "router.contains_entity", err)
	return result, err
}

func (r *Router) GetGroupToUserMappings(ctx context.Context, groups []string) ([]string, error) {
	ctx, opTok := r.beginOp(ctx, "router.get_group_to_user_mappings")
	handles, err := r.dir.ResolveAll(ctx, axis.User, axis.Query)
	if err != nil {
		r.endOp(opTok, "router.get_group_to_user_mappings", err)
		return nil, err
	}
	lists, err := fanout.Fanout(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) ([]string, error) {
		return c.GetGroupToUserMappings(ctx, groups)
	}, "retrieve group to user mappings for multiple groups")
	r.endOp(opTok, "router.get_group_to_user_mappings", err)
	if err != nil {
		return nil, err
	}
	return combine.SetUnion(lists), nil
}

func (r *Router) GetAppCompToUserMappings(ctx context.Context, component, accessLevel string, includeIndirectMappings bool) ([]string, error) {
	if err := rejectIndirect(includeIndirectMappings); err != nil {
		return nil, err
	}
	ctx, opTok := r.beginOp(ctx, "router.get_app_comp_to_user_mappings")
	handles, err := r.dir.ResolveAll(ctx, axis.User, axis.Query)
	if err != nil {
		r.endOp(opTok, "router.get_app_comp_to_user_mappings", err)
		return nil, err
	}
	lists, err := fanout.Fanout(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) ([]string, error) {
		return c.GetAppCompToUserMappings(ctx, component, accessLevel)
	}, "retrieve application component and access level to user mappings")
	r.endOp(opTok, "router.get_app_comp_to_user_mappings", err)
	if err != nil {
		return nil, err
	}
	return combine.SetUnion(lists), nil
}

func (r *Router) GetAppCompToGroupMappings(ctx context.Context, component, accessLevel string, includeIndirectMappings bool) ([]string, error) {
	if err := rejectIndirect(includeIndirectMappings); err != nil {
		return nil, err
	}
	ctx, opTok := r.beginOp(ctx, "router.get_app_comp_to_group_mappings")
	handles, err := r.dir.ResolveAll(ctx, axis.Group, axis.Query)
	if err != nil {
		r.endOp(opTok, "router.get_app_comp_to_group_mappings", err)
		return nil, err
	}
	lists, err := fanout.Fanout(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) ([]string, error) {
		return c.GetAppCompToGroupMappings(ctx, component, accessLevel)
	}, "retrieve application component and access level to group mappings")
	r.endOp(opTok, "router.get_app_comp_to_group_mappings", err)
	if err != nil {
		return nil, err
	}
	return combine.SetUnion(lists), nil
}

func (r *Router) GetEntityToUserMappings(ctx context.Context, entityType, entity string, includeIndirectMappings bool) ([]string, error) {
	if err := rejectIndirect(includeIndirectMappings); err != nil {
		return nil, err
	}
	ctx, opTok := r.beginOp(ctx, "router.get_entity_to_user_mappings")
	handles, err := r.dir.ResolveAll(ctx, axis.User, axis.Query)
	if err != nil {
		r.endOp(opTok, "router.get_entity_to_user_mappings", err)
		return nil, err
	}
	lists, err := fanout.Fanout(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) ([]string, error) {
		return c.GetEntityToUserMappings(ctx, entityType, entity)
	}, "retrieve entity to user mappings")
	r.endOp(opTok, "router.get_entity_to_user_mappings", err)
	if err != nil {
		return nil, err
	}
	return combine.SetUnion(lists), nil
}

func (r *Router) GetEntityToGroupMappings(ctx context.Context, entityType, entity string, includeIndirectMappings bool) ([]string, error) {
	if err := rejectIndirect(includeIndirectMappings); err != nil {
		return nil, err
	}
	ctx, opTok := r.beginOp(ctx, "router.get_entity_to_group_mappings")
	handles, err := r.dir.ResolveAll(ctx, axis.Group, axis.Query)
	if err != nil {
		r.endOp(opTok, "router.get_entity_to_group_mappings", err)
		return nil, err
	}
	lists, err := fanout.Fanout(ctx, handles, func(ctx context.Context, c shardclient.ShardClient) ([]string, error) {
		return c.GetEntityToGroupMappings(ctx, entityType, entity)
	}, "retrieve entity to group mappings")
	r.endOp(opTok, "router.get_entity_to_group_mappings", err)
	if err != nil {
		return nil, err
	}
	return combine.SetUnion(lists), nil
}

func (r *Router) HasAccessToApplicationComponent(ctx context.Context, groups []string, component, accessLevel string) (bool, error) {
	ctx, opTok := r.beginOp(ctx, "router.has_access_to_application_component")
	entries, err := r.dir.ResolveByKeys(ctx, axis.Group, axis.Query, directory.GroupSet(groups))
	if err != nil {
		r.endOp(opTok, "router.has_access_to_application_component", err)
		return false, err
	}
	handles, keys := splitKeyed(entries)
	errCtx := fmt.Sprintf("check access to application component '%s' at access level '%s' for multiple groups", component, accessLevel)
	result, err := fanout.FanoutAnyWithKeys(ctx, handles, keys, func(ctx context.Context, c shardclient.ShardClient, subset []string) (bool, error) {
		return c.HasAccessToApplicationComponent(ctx, subset, component, accessLevel)
	}, errCtx)
	r.endOp(opTok, "router.has_access_to_application_component", err)
	return result, err
}

func (r *Router) HasAccessToEntity(ctx context.Context, groups []string, entityType, entity string) (bool, error) {
	ctx, opTok := r.beginOp(ctx, "router.has_access_to_entity")
	entries, err := r.dir.ResolveByKeys(ctx, axis.Group, axis.Query, directory.GroupSet(groups))
	if err != nil {
		r.endOp(opTok, "router.has_access_to_entity", err)
		return false, err
	}
	handles, keys := splitKeyed(entries)
	errCtx := fmt.Sprintf("check access to entity '%s' with type '%s' for multiple groups", entity, entityType)
	result, err := fanout.FanoutAnyWithKeys(ctx, handles, keys, func(ctx context.Context, c shardclient.ShardClient, subset []string) (bool, error) {
		return c.HasAccessToEntity(ctx, subset, entityType, entity)
	}, errCtx)
	r.endOp(opTok, "router.has_access_to_entity", err)
	return result, err
}

func (r *Router) GetApplicationComponentsAccessibleByGroups(ctx context.Context, groups []string) ([]shardclient.AppComponentAccess, error) {
	ctx, opTok := r.beginOp(ctx, "router.get_application_components_accessible_by_groups")
	entries, err := r.dir.ResolveByKeys(ctx, axis.Group, axis.Query, directory.GroupSet(groups))
	if err != nil {
		r.endOp(opTok, "router.get_application_components_accessible_by_groups", err)
		return nil, err
	}
	handles, keys := splitKeyed(entries)
	lists, err := fanout.FanoutWithKeys(ctx, handles, keys, func(ctx context.Context, c shardclient.ShardClient, subset []string) ([]shardclient.AppComponentAccess, error) {
		return c.GetApplicationComponentsAccessibleByGroups(ctx, subset)
	}, "retrieve application component and access level mappings for multiple groups")
	r.endOp(opTok, "router.get_application_components_accessible_by_groups", err)
	if err != nil {
		return nil, err
	}
	var flattened []shardclient.AppComponentAccess
	for _, l := range lists {
		flattened = append(flattened, l...)
	}
	return combine.SetUnionBy(flattened, func(a shardclient.AppComponentAccess) shardclient.AppComponentAccess { return a }), nil
}

func (r *Router) GetEntitiesAccessibleByGroups(ctx context.Context, groups []string) ([]shardclient.EntityTypeEntity, error) {
	ctx, opTok := r.beginOp(ctx, "router.get_entities_accessible_by_groups")
	entries, err := r.dir.ResolveByKeys(ctx, axis.Group, axis.Query, directory.GroupSet(groups))
	if err != nil {
		r.endOp(opTok, "router.get_entities_accessible_by_groups", err)
		return nil, err
	}
	handles, keys := splitKeyed(entries)
	lists, err := fanout.FanoutWithKeys(ctx, handles, keys, func(ctx context.Context, c shardclient.ShardClient, subset []string) ([]shardclient.EntityTypeEntity, error) {
		return c.GetEntitiesAccessibleByGroups(ctx, subset)
	}, "retrieve entity mappings for multiple groups")
	r.endOp(opTok, "router.get_entities_accessible_by_groups", err)
	if err != nil {
		return nil, err
	}
	var flattened []shardclient.EntityTypeEntity
	for _, l := range lists {
		flattened = append(flattened, l...)
	}
	return combine.SetUnionBy(flattened, func(e shardclient.EntityTypeEntity) shardclient.EntityTypeEntity { return e }), nil
}

func (r *Router) GetEntitiesAccessibleByGroupsAndType(ctx context.Context, groups []string, entityType string) ([]string, error) {
	ctx, opTok := r.beginOp(ctx, "router.get_entities_accessible_by_groups_and_type")
	entries, err := r.dir.ResolveByKeys(ctx, axis.Group, axis.Query, directory.GroupSet(groups))
	if err != nil {
		r.endOp(opTok, "router.get_entities_accessible_by_groups_and_type", err)
		return nil, err
	}
	handles, keys := splitKeyed(entries)
	errCtx := fmt.Sprintf("retrieve entity mappings for multiple groups and entity type '%s'", entityType)
	lists, err := fanout.FanoutWithKeys(ctx, handles, keys, func(ctx context.Context, c shardclient.ShardClient, subset []string) ([]string, error) {
		return c.GetEntitiesAccessibleByGroupsAndType(ctx, subset, entityType)
	}, errCtx)
	r.endOp(opTok, "router.get_entities_accessible_by_groups_and_type", err)
	if err != nil {
		return nil, err
	}
	return combine.SetUnion(lists), nil
}
