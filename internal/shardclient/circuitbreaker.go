package shardclient

import (
	"context"

	"github.com/nikhilvora/accessrouter/pkg/resilience"
)

// CircuitBreakerClient decorates a ShardClient with a per-shard circuit
// breaker: once a shard accumulates enough consecutive failures it fails
// fast instead of letting every in-flight fan-out wait out a dead
// connection's timeout. This is fail-fast, not retry — the router's
// Non-goal is "no retry of shard calls," not "no circuit breaking," since
// breaking the circuit open makes calls fail faster, never more of them.
type CircuitBreakerClient struct {
	ShardClient
	breaker *resilience.CircuitBreaker
}

// WithCircuitBreaker wraps client with a circuit breaker identified by
// label (surfaced in the breaker's own logging).
func WithCircuitBreaker(client ShardClient, label string, cfg resilience.CircuitBreakerConfig) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		ShardClient: client,
		breaker:     resilience.NewCircuitBreaker(label, cfg),
	}
}

func (c *CircuitBreakerClient) GetUsers(ctx context.Context) ([]string, error) {
	var out []string
	err := c.breaker.Execute(func() (err error) { out, err = c.ShardClient.GetUsers(ctx); return })
	return out, err
}

func (c *CircuitBreakerClient) GetGroups(ctx context.Context) ([]string, error) {
	var out []string
	err := c.breaker.Execute(func() (err error) { out, err = c.ShardClient.GetGroups(ctx); return })
	return out, err
}

func (c *CircuitBreakerClient) GetEntityTypes(ctx context.Context) ([]string, error) {
	var out []string
	err := c.breaker.Execute(func() (err error) { out, err = c.ShardClient.GetEntityTypes(ctx); return })
	return out, err
}

func (c *CircuitBreakerClient) GetEntities(ctx context.Context, entityType string) ([]string, error) {
	var out []string
	err := c.breaker.Execute(func() (err error) { out, err = c.ShardClient.GetEntities(ctx, entityType); return })
	return out, err
}

func (c *CircuitBreakerClient) ContainsGroup(ctx context.Context, group string) (bool, error) {
	var out bool
	err := c.breaker.Execute(func() (err error) { out, err = c.ShardClient.ContainsGroup(ctx, group); return })
	return out, err
}

func (c *CircuitBreakerClient) ContainsEntityType(ctx context.Context, entityType string) (bool, error) {
	var out bool
	err := c.breaker.Execute(func() (err error) { out, err = c.ShardClient.ContainsEntityType(ctx, entityType); return })
	return out, err
}

func (c *CircuitBreakerClient) ContainsEntity(ctx context.Context, entityType, entity string) (bool, error) {
	var out bool
	err := c.breaker.Execute(func() (err error) { out, err = c.ShardClient.ContainsEntity(ctx, entityType, entity); return })
	return out, err
}

func (c *CircuitBreakerClient) RemoveGroup(ctx context.Context, group string) error {
	return c.breaker.Execute(func() error { return c.ShardClient.RemoveGroup(ctx, group) })
}

func (c *CircuitBreakerClient) RemoveEntityType(ctx context.Context, entityType string) error {
	return c.breaker.Execute(func() error { return c.ShardClient.RemoveEntityType(ctx, entityType) })
}

func (c *CircuitBreakerClient) RemoveEntity(ctx context.Context, entityType, entity string) error {
	return c.breaker.Execute(func() error { return c.ShardClient.RemoveEntity(ctx, entityType, entity) })
}

func (c *CircuitBreakerClient) GetGroupToUserMappings(ctx context.Context, groups []string) ([]string, error) {
	var out []string
	err := c.breaker.Execute(func() (err error) { out, err = c.ShardClient.GetGroupToUserMappings(ctx, groups); return })
	return out, err
}

func (c *CircuitBreakerClient) GetAppCompToUserMappings(ctx context.Context, component, accessLevel string) ([]string, error) {
	var out []string
	err := c.breaker.Execute(func() (err error) { out, err = c.ShardClient.GetAppCompToUserMappings(ctx, component, accessLevel); return })
	return out, err
}

func (c *CircuitBreakerClient) GetAppCompToGroupMappings(ctx context.Context, component, accessLevel string) ([]string, error) {
	var out []string
	err := c.breaker.Execute(func() (err error) { out, err = c.ShardClient.GetAppCompToGroupMappings(ctx, component, accessLevel); return })
	return out, err
}

func (c *CircuitBreakerClient) GetEntityToUserMappings(ctx context.Context, entityType, entity string) ([]string, error) {
	var out []string
	err := c.breaker.Execute(func() (err error) { out, err = c.ShardClient.GetEntityToUserMappings(ctx, entityType, entity); return })
	return out, err
}

func (c *CircuitBreakerClient) GetEntityToGroupMappings(ctx context.Context, entityType, entity string) ([]string, error) {
	var out []string
	err := c.breaker.Execute(func() (err error) { out, err = c.ShardClient.GetEntityToGroupMappings(ctx, entityType, entity); return })
	return out, err
}

func (c *CircuitBreakerClient) HasAccessToApplicationComponent(ctx context.Context, groups []string, component, accessLevel string) (bool, error) {
	var out bool
	err := c.breaker.Execute(func() (err error) {
		out, err = c.ShardClient.HasAccessToApplicationComponent(ctx, groups, component, accessLevel)
		return
	})
	return out, err
}

func (c *CircuitBreakerClient) HasAccessToEntity(ctx context.Context, groups []string, entityType, entity string) (bool, error) {
	var out bool
	err := c.breaker.Execute(func() (err error) {
		out, err = c.ShardClient.HasAccessToEntity(ctx, groups, entityType, entity)
		return
	})
	return out, err
}

func (c *CircuitBreakerClient) GetApplicationComponentsAccessibleByGroups(ctx context.Context, groups []string) ([]AppComponentAccess, error) {
	var out []AppComponentAccess
	err := c.breaker.Execute(func() (err error) {
		out, err = c.ShardClient.GetApplicationComponentsAccessibleByGroups(ctx, groups)
		return
	})
	return out, err
}

func (c *CircuitBreakerClient) GetEntitiesAccessibleByGroups(ctx context.Context, groups []string) ([]EntityTypeEntity, error) {
	var out []EntityTypeEntity
	err := c.breaker.Execute(func() (err error) {
		out, err = c.ShardClient.GetEntitiesAccessibleByGroups(ctx, groups)
		return
	})
	return out, err
}

func (c *CircuitBreakerClient) GetEntitiesAccessibleByGroupsAndType(ctx context.Context, groups []string, entityType string) ([]string, error) {
	var out []string
	err := c.breaker.Execute(func() (err error) {
		out, err = c.ShardClient.GetEntitiesAccessibleByGroupsAndType(ctx, groups, entityType)
		return
	})
	return out, err
}

// GetState exposes the breaker's state, e.g. for a readiness check.
func (c *CircuitBreakerClient) GetState() resilience.State {
	return c.breaker.GetState()
}

var _ ShardClient = (*CircuitBreakerClient)(nil)
