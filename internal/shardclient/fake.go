package shardclient

import (
	"context"
	"sync"
)

// FakeShardClient is an in-memory ShardClient used by the directory,
// fanout, router, and shardclient test suites. It stores exactly the state a
// test seeds into it and applies no validation beyond what the interface
// contract implies.
type FakeShardClient struct {
	mu sync.Mutex

	Users       []string
	Groups      []string
	EntityTypes []string
	Entities    map[string][]string // entityType -> entities

	GroupToUserMappings map[string][]string // group -> users
	AppCompToUsers      map[string][]string // "component|level" -> users
	AppCompToGroups     map[string][]string // "component|level" -> groups
	EntityToUsers       map[string][]string // "entityType|entity" -> users
	EntityToGroups      map[string][]string // "entityType|entity" -> groups

	AppComponentsByGroups map[string][]AppComponentAccess // group -> accesses
	EntitiesByGroups      map[string][]EntityTypeEntity   // group -> entities

	// Err, when non-nil, is returned by every method instead of the normal
	// result, simulating a shard that has become unreachable.
	Err error

	// Calls records the method name of every invocation, in order, for
	// assertions about dispatch fan-out.
	Calls []string
}

// NewFakeShardClient returns an empty FakeShardClient ready for a test to
// populate.
func NewFakeShardClient() *FakeShardClient {
	return &FakeShardClient{
		Entities:              make(map[string][]string),
		GroupToUserMappings:   make(map[string][]string),
		AppCompToUsers:        make(map[string][]string),
		AppCompToGroups:       make(map[string][]string),
		EntityToUsers:         make(map[string][]string),
		EntityToGroups:        make(map[string][]string),
		AppComponentsByGroups: make(map[string][]AppComponentAccess),
		EntitiesByGroups:      make(map[string][]EntityTypeEntity),
	}
}

func (f *FakeShardClient) record(method string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, method)
	f.mu.Unlock()
}

func compLevelKey(component, accessLevel string) string {
	return component + "|" + accessLevel
}

func typeEntityKey(entityType, entity string) string {
	return entityType + "|" + entity
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func anyContains(groups []string, set map[string]bool) bool {
	for _, g := range groups {
		if set[g] {
			return true
		}
	}
	return false
}

func (f *FakeShardClient) GetUsers(ctx context.Context) ([]string, error) {
	f.record("GetUsers")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Users, nil
}

func (f *FakeShardClient) GetGroups(ctx context.Context) ([]string, error) {
	f.record("GetGroups")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Groups, nil
}

func (f *FakeShardClient) GetEntityTypes(ctx context.Context) ([]string, error) {
	f.record("GetEntityTypes")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.EntityTypes, nil
}

func (f *FakeShardClient) GetEntities(ctx context.Context, entityType string) ([]string, error) {
	f.record("GetEntities")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Entities[entityType], nil
}

func (f *FakeShardClient) ContainsGroup(ctx context.Context, group string) (bool, error) {
	f.record("ContainsGroup")
	if f.Err != nil {
		return false, f.Err
	}
	return contains(f.Groups, group), nil
}

func (f *FakeShardClient) ContainsEntityType(ctx context.Context, entityType string) (bool, error) {
	f.record("ContainsEntityType")
	if f.Err != nil {
		return false, f.Err
	}
	return contains(f.EntityTypes, entityType), nil
}

func (f *FakeShardClient) ContainsEntity(ctx context.Context, entityType, entity string) (bool, error) {
	f.record("ContainsEntity")
	if f.Err != nil {
		return false, f.Err
	}
	return contains(f.Entities[entityType], entity), nil
}

func (f *FakeShardClient) RemoveGroup(ctx context.Context, group string) error {
	f.record("RemoveGroup")
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.Groups[:0]
	for _, g := range f.Groups {
		if g != group {
			kept = append(kept, g)
		}
	}
	f.Groups = kept
	return nil
}

func (f *FakeShardClient) RemoveEntityType(ctx context.Context, entityType string) error {
	f.record("RemoveEntityType")
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.EntityTypes[:0]
	for _, t := range f.EntityTypes {
		if t != entityType {
			kept = append(kept, t)
		}
	}
	f.EntityTypes = kept
	delete(f.Entities, entityType)
	return nil
}

func (f *FakeShardClient) RemoveEntity(ctx context.Context, entityType, entity string) error {
	f.record("RemoveEntity")
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entities := f.Entities[entityType]
	kept := entities[:0]
	for _, e := range entities {
		if e != entity {
			kept = append(kept, e)
		}
	}
	f.Entities[entityType] = kept
	return nil
}

func (f *FakeShardClient) GetGroupToUserMappings(ctx context.Context, groups []string) ([]string, error) {
	f.record("GetGroupToUserMappings")
	if f.Err != nil {
		return nil, f.Err
	}
	var out []string
	for _, g := range groups {
		out = append(out, f.GroupToUserMappings[g]...)
	}
	return out, nil
}

func (f *FakeShardClient) GetAppCompToUserMappings(ctx context.Context, component, accessLevel string) ([]string, error) {
	f.record("GetAppCompToUserMappings")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.AppCompToUsers[compLevelKey(component, accessLevel)], nil
}

func (f *FakeShardClient) GetAppCompToGroupMappings(ctx context.Context, component, accessLevel string) ([]string, error) {
	f.record("GetAppCompToGroupMappings")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.AppCompToGroups[compLevelKey(component, accessLevel)], nil
}

func (f *FakeShardClient) GetEntityToUserMappings(ctx context.Context, entityType, entity string) ([]string, error) {
	f.record("GetEntityToUserMappings")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.EntityToUsers[typeEntityKey(entityType, entity)], nil
}

func (f *FakeShardClient) GetEntityToGroupMappings(ctx context.Context, entityType, entity string) ([]string, error) {
	f.record("GetEntityToGroupMappings")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.EntityToGroups[typeEntityKey(entityType, entity)], nil
}

func (f *FakeShardClient) HasAccessToApplicationComponent(ctx context.Context, groups []string, component, accessLevel string) (bool, error) {
	f.record("HasAccessToApplicationComponent")
	if f.Err != nil {
		return false, f.Err
	}
	granted := f.AppCompToGroups[compLevelKey(component, accessLevel)]
	set := make(map[string]bool, len(granted))
	for _, g := range granted {
		set[g] = true
	}
	return anyContains(groups, set), nil
}

func (f *FakeShardClient) HasAccessToEntity(ctx context.Context, groups []string, entityType, entity string) (bool, error) {
	f.record("HasAccessToEntity")
	if f.Err != nil {
		return false, f.Err
	}
	granted := f.EntityToGroups[typeEntityKey(entityType, entity)]
	set := make(map[string]bool, len(granted))
	for _, g := range granted {
		set[g] = true
	}
	return anyContains(groups, set), nil
}

func (f *FakeShardClient) GetApplicationComponentsAccessibleByGroups(ctx context.Context, groups []string) ([]AppComponentAccess, error) {
	f.record("GetApplicationComponentsAccessibleByGroups")
	if f.Err != nil {
		return nil, f.Err
	}
	var out []AppComponentAccess
	for _, g := range groups {
		out = append(out, f.AppComponentsByGroups[g]...)
	}
	return out, nil
}

func (f *FakeShardClient) GetEntitiesAccessibleByGroups(ctx context.Context, groups []string) ([]EntityTypeEntity, error) {
	f.record("GetEntitiesAccessibleByGroups")
	if f.Err != nil {
		return nil, f.Err
	}
	var out []EntityTypeEntity
	for _, g := range groups {
		out = append(out, f.EntitiesByGroups[g]...)
	}
	return out, nil
}

func (f *FakeShardClient) GetEntitiesAccessibleByGroupsAndType(ctx context.Context, groups []string, entityType string) ([]string, error) {
	f.record("GetEntitiesAccessibleByGroupsAndType")
	if f.Err != nil {
		return nil, f.Err
	}
	var out []string
	for _, g := range groups {
		for _, te := range f.EntitiesByGroups[g] {
			if te.EntityType == entityType {
				out = append(out, te.Entity)
			}
		}
	}
	return out, nil
}

var _ ShardClient = (*FakeShardClient)(nil)
