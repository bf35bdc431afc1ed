package shardclient

import (
	"context"
	"errors"
	"testing"
)

func TestFakeShardClientBasicLookups(t *testing.T) {
	fake := NewFakeShardClient()
	fake.Groups = []string{"admins", "auditors"}
	fake.EntityToGroups[typeEntityKey("Clients", "ClientA")] = []string{"admins"}

	ctx := context.Background()

	if ok, err := fake.ContainsGroup(ctx, "admins"); err != nil || !ok {
		t.Fatalf("ContainsGroup(admins) = %v, %v; want true, nil", ok, err)
	}
	if ok, err := fake.ContainsGroup(ctx, "nobody"); err != nil || ok {
		t.Fatalf("ContainsGroup(nobody) = %v, %v; want false, nil", ok, err)
	}

	has, err := fake.HasAccessToEntity(ctx, []string{"auditors", "admins"}, "Clients", "ClientA")
	if err != nil || !has {
		t.Fatalf("HasAccessToEntity = %v, %v; want true, nil", has, err)
	}

	has, err = fake.HasAccessToEntity(ctx, []string{"auditors"}, "Clients", "ClientA")
	if err != nil || has {
		t.Fatalf("HasAccessToEntity(auditors only) = %v, %v; want false, nil", has, err)
	}
}

func TestFakeShardClientRemoveGroup(t *testing.T) {
	fake := NewFakeShardClient()
	fake.Groups = []string{"admins", "auditors"}

	if err := fake.RemoveGroup(context.Background(), "admins"); err != nil {
		t.Fatalf("RemoveGroup returned error: %v", err)
	}
	if ok, _ := fake.ContainsGroup(context.Background(), "admins"); ok {
		t.Fatal("admins should have been removed")
	}
	if ok, _ := fake.ContainsGroup(context.Background(), "auditors"); !ok {
		t.Fatal("auditors should remain")
	}
}

func TestFakeShardClientPropagatesConfiguredError(t *testing.T) {
	fake := NewFakeShardClient()
	wantErr := errors.New("shard down")
	fake.Err = wantErr

	if _, err := fake.GetUsers(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("GetUsers error = %v, want %v", err, wantErr)
	}
	if err := fake.RemoveGroup(context.Background(), "admins"); !errors.Is(err, wantErr) {
		t.Fatalf("RemoveGroup error = %v, want %v", err, wantErr)
	}
}

func TestFakeShardClientRecordsCalls(t *testing.T) {
	fake := NewFakeShardClient()
	ctx := context.Background()
	_, _ = fake.GetUsers(ctx)
	_, _ = fake.GetGroups(ctx)

	if len(fake.Calls) != 2 || fake.Calls[0] != "GetUsers" || fake.Calls[1] != "GetGroups" {
		t.Fatalf("Calls = %v, want [GetUsers GetGroups]", fake.Calls)
	}
}
