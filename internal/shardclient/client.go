// Package shardclient declares the ShardClient contract the router
// dispatches per-shard calls against (C2, an external collaborator per
// spec.md §1) and provides two concrete implementations: RPCShardClient,
// which talks to a real shard process over the JSON-over-TCP RPC framework
// in pkg/grpc, and FakeShardClient, an in-memory double used by the
// router/fanout/directory test suites.
package shardclient

import "context"

// AppComponentAccess pairs an application component with the access level a
// group or user was granted to it.
type AppComponentAccess struct {
	Component   string
	AccessLevel string
}

// EntityTypeEntity pairs an entity type with one entity of that type.
type EntityTypeEntity struct {
	EntityType string
	Entity     string
}

// ShardClient is the full authorization-operation API a single backend
// shard exposes. Every method may fail with any error; the router and the
// fan-out executor make no assumption about the shape of the cause.
type ShardClient interface {
	GetUsers(ctx context.Context) ([]string, error)
	GetGroups(ctx context.Context) ([]string, error)
	GetEntityTypes(ctx context.Context) ([]string, error)
	GetEntities(ctx context.Context, entityType string) ([]string, error)

	ContainsGroup(ctx context.Context, group string) (bool, error)
	ContainsEntityType(ctx context.Context, entityType string) (bool, error)
	ContainsEntity(ctx context.Context, entityType, entity string) (bool, error)

	RemoveGroup(ctx context.Context, group string) error
	RemoveEntityType(ctx context.Context, entityType string) error
	RemoveEntity(ctx context.Context, entityType, entity string) error

	GetGroupToUserMappings(ctx context.Context, groups []string) ([]string, error)
	GetAppCompToUserMappings(ctx context.Context, component, accessLevel string) ([]string, error)
	GetAppCompToGroupMappings(ctx context.Context, component, accessLevel string) ([]string, error)
	GetEntityToUserMappings(ctx context.Context, entityType, entity string) ([]string, error)
	GetEntityToGroupMappings(ctx context.Context, entityType, entity string) ([]string, error)

	HasAccessToApplicationComponent(ctx context.Context, groups []string, component, accessLevel string) (bool, error)
	HasAccessToEntity(ctx context.Context, groups []string, entityType, entity string) (bool, error)

	GetApplicationComponentsAccessibleByGroups(ctx context.Context, groups []string) ([]AppComponentAccess, error)
	GetEntitiesAccessibleByGroups(ctx context.Context, groups []string) ([]EntityTypeEntity, error)
	GetEntitiesAccessibleByGroupsAndType(ctx context.Context, groups []string, entityType string) ([]string, error)
}

// ClientHandle pairs a ShardClient with the human-readable label carried
// through errors, metrics, and logs for diagnosability. Immutable and
// cheaply copyable; the router never constructs these itself — it receives
// them from the directory.
type ClientHandle struct {
	Client ShardClient
	Label  string
}
