package shardclient

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

// waitForAddr polls srv.Addr() until Serve has bound its listener, since
// Serve runs in its own goroutine and binds the ephemeral port
// asynchronously relative to the caller.
func waitForAddr(t *testing.T, srvAddr func() string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if addr := srvAddr(); addr != "" {
			return addr
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("rpc server never bound a listener")
	return ""
}

// TestRPCShardClient_RoundTripsThroughInProcessServer stands up a real
// pkg/grpc.Server fronting a FakeShardClient and drives it through
// RPCShardClient's real wire encoding, exercising both the RPC server and
// client ends instead of only the FakeShardClient in-process double the
// rest of this package's tests use.
func TestRPCShardClient_RoundTripsThroughInProcessServer(t *testing.T) {
	backing := NewFakeShardClient()
	backing.Users = []string{"user1", "user2"}
	backing.Groups = []string{"group1"}
	backing.AppCompToGroups["reports|write"] = []string{"group1"}

	srv := ServeShardClient(backing)
	go func() {
		_ = srv.Serve("127.0.0.1:0")
	}()
	defer srv.Stop()

	addr := waitForAddr(t, func() string {
		a := srv.Addr()
		if a == nil {
			return ""
		}
		return a.String()
	})

	client, err := NewRPCShardClient(addr)
	if err != nil {
		t.Fatalf("dialing in-process rpc server: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	users, err := client.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers: %v", err)
	}
	sort.Strings(users)
	if len(users) != 2 || users[0] != "user1" || users[1] != "user2" {
		t.Fatalf("GetUsers returned %v, want [user1 user2]", users)
	}

	ok, err := client.ContainsGroup(ctx, "group1")
	if err != nil {
		t.Fatalf("ContainsGroup: %v", err)
	}
	if !ok {
		t.Fatal("ContainsGroup(group1) = false, want true")
	}

	ok, err = client.ContainsGroup(ctx, "no-such-group")
	if err != nil {
		t.Fatalf("ContainsGroup: %v", err)
	}
	if ok {
		t.Fatal("ContainsGroup(no-such-group) = true, want false")
	}

	hasAccess, err := client.HasAccessToApplicationComponent(ctx, []string{"group1", "group2"}, "reports", "write")
	if err != nil {
		t.Fatalf("HasAccessToApplicationComponent: %v", err)
	}
	if !hasAccess {
		t.Fatal("HasAccessToApplicationComponent = false, want true")
	}

	if err := client.RemoveGroup(ctx, "group1"); err != nil {
		t.Fatalf("RemoveGroup: %v", err)
	}
	ok, err = client.ContainsGroup(ctx, "group1")
	if err != nil {
		t.Fatalf("ContainsGroup after RemoveGroup: %v", err)
	}
	if ok {
		t.Fatal("ContainsGroup(group1) = true after RemoveGroup, want false")
	}

	backing.Err = errors.New("shard unavailable")
	if _, err := client.GetUsers(ctx); err == nil {
		t.Fatal("GetUsers over RPC did not propagate the backing shard's error")
	}
}
