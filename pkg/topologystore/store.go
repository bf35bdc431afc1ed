// Package topologystore persists and loads the shard-client directory's
// topology — which shard labels exist per axis, and the address their
// RPCShardClient dials — in PostgreSQL. This is cluster configuration, not
// authorization data: the router's Non-goal of "no persistence" is about
// the authorization records the shards themselves own, never about the
// router's own bookkeeping of which shards exist.
package topologystore

import (
	"context"
	"fmt"

	"github.com/nikhilvora/accessrouter/pkg/config"
	"github.com/nikhilvora/accessrouter/pkg/postgres"
)

// Schema (created out of band, typically via a migration tool):
//
//	CREATE TABLE shard_topology (
//	    label   TEXT PRIMARY KEY,
//	    axis    TEXT NOT NULL CHECK (axis IN ('user', 'group')),
//	    address TEXT NOT NULL
//	);

// Store reads and writes shard_topology rows.
type Store struct {
	pg *postgres.Client
}

// New wraps an already-connected Postgres client.
func New(pg *postgres.Client) *Store {
	return &Store{pg: pg}
}

// Load returns every row in shard_topology as a config.ShardDescriptor.
func (s *Store) Load(ctx context.Context) ([]config.ShardDescriptor, error) {
	rows, err := s.pg.DB.QueryContext(ctx, `SELECT label, axis, address FROM shard_topology ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("querying shard_topology: %w", err)
	}
	defer rows.Close()

	var descriptors []config.ShardDescriptor
	for rows.Next() {
		var d config.ShardDescriptor
		if err := rows.Scan(&d.Label, &d.Axis, &d.Address); err != nil {
			return nil, fmt.Errorf("scanning shard_topology row: %w", err)
		}
		descriptors = append(descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shard_topology rows: %w", err)
	}
	return descriptors, nil
}

// Upsert inserts or updates one shard's topology row.
func (s *Store) Upsert(ctx context.Context, d config.ShardDescriptor) error {
	_, err := s.pg.DB.ExecContext(ctx, `
		INSERT INTO shard_topology (label, axis, address)
		VALUES ($1, $2, $3)
		ON CONFLICT (label) DO UPDATE SET axis = EXCLUDED.axis, address = EXCLUDED.address
	`, d.Label, d.Axis, d.Address)
	if err != nil {
		return fmt.Errorf("upserting shard_topology row for %q: %w", d.Label, err)
	}
	return nil
}

// Remove deletes a shard's topology row by label.
func (s *Store) Remove(ctx context.Context, label string) error {
	_, err := s.pg.DB.ExecContext(ctx, `DELETE FROM shard_topology WHERE label = $1`, label)
	if err != nil {
		return fmt.Errorf("deleting shard_topology row for %q: %w", label, err)
	}
	return nil
}
