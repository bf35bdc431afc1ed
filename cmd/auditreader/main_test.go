package main

import "testing"

func TestTallyRecordsSuccessAndFailureSeparately(t *testing.T) {
	tl := newTally()
	tl.record(event{Operation: "RemoveGroup", Succeeded: true})
	tl.record(event{Operation: "RemoveGroup", Succeeded: true})
	tl.record(event{Operation: "RemoveGroup", Succeeded: false})
	tl.record(event{Operation: "RemoveEntity", Succeeded: true})

	if tl.succeeded["RemoveGroup"] != 2 {
		t.Fatalf("RemoveGroup succeeded = %d, want 2", tl.succeeded["RemoveGroup"])
	}
	if tl.failed["RemoveGroup"] != 1 {
		t.Fatalf("RemoveGroup failed = %d, want 1", tl.failed["RemoveGroup"])
	}
	if tl.succeeded["RemoveEntity"] != 1 {
		t.Fatalf("RemoveEntity succeeded = %d, want 1", tl.succeeded["RemoveEntity"])
	}
}

func TestTallySnapshotMentionsEveryOperation(t *testing.T) {
	tl := newTally()
	tl.record(event{Operation: "RemoveGroup", Succeeded: true})
	tl.record(event{Operation: "RemoveEntityType", Succeeded: false})

	snap := tl.snapshot()
	if !contains(snap, "RemoveGroup.ok=1") {
		t.Fatalf("snapshot = %q, want RemoveGroup.ok=1", snap)
	}
	if !contains(snap, "RemoveEntityType.failed=1") {
		t.Fatalf("snapshot = %q, want RemoveEntityType.failed=1", snap)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
