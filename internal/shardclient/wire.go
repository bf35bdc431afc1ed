package shardclient

// Request/response payload shapes exchanged with a shard over the
// JSON-over-TCP RPC framework in pkg/grpc. Each struct here mirrors one
// ShardClient method; field names are wire-stable and independent of the
// Go-side parameter names.

type entityTypeRequest struct {
	EntityType string `json:"entityType"`
}

type groupRequest struct {
	Group string `json:"group"`
}

type entityTypeEntityRequest struct {
	EntityType string `json:"entityType"`
	Entity     string `json:"entity"`
}

type groupsRequest struct {
	Groups []string `json:"groups"`
}

type componentLevelRequest struct {
	Component   string `json:"component"`
	AccessLevel string `json:"accessLevel"`
}

type groupsComponentLevelRequest struct {
	Groups      []string `json:"groups"`
	Component   string   `json:"component"`
	AccessLevel string   `json:"accessLevel"`
}

type groupsEntityTypeEntityRequest struct {
	Groups     []string `json:"groups"`
	EntityType string   `json:"entityType"`
	Entity     string   `json:"entity"`
}

type groupsEntityTypeRequest struct {
	Groups     []string `json:"groups"`
	EntityType string   `json:"entityType"`
}

type stringListResponse struct {
	Values []string `json:"values"`
}

type boolResponse struct {
	Value bool `json:"value"`
}

type appComponentAccessListResponse struct {
	Values []AppComponentAccess `json:"values"`
}

type entityTypeEntityListResponse struct {
	Values []EntityTypeEntity `json:"values"`
}
